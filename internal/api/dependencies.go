package api

import (
	"time"

	"roboclub/clubhouse/internal/chat"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/config"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/db/repositories"
	"roboclub/clubhouse/internal/identity"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/metrics"
	"roboclub/clubhouse/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Repositories struct {
	Accounts    *repositories.AccountRepository
	Profiles    *repositories.ProfileRepository
	Roles       *repositories.RoleRepository
	Groups      *repositories.GroupRepository
	Records     *repositories.MemberRecordsRepository
	Competition *repositories.CompetitionRepository
	Chat        *repositories.ChatRepository
	Settings    *repositories.SettingsRepository
	Content     *repositories.ContentRepository
	Team        *repositories.TeamRepository
}

type Services struct {
	Identity     identity.Provider
	Applications *services.ApplicationService
	Competition  *services.CompetitionService
	Roles        *services.RoleService
	Groups       *services.GroupService
	Members      *services.MemberService
	Chat         *services.ChatService
	Settings     *services.SettingsService
	Content      *services.ContentService
	Cache        common.CacheInterface
	Broker       chat.Broker

	// Notifier delivers directly. When Queue is set, submissions are
	// enqueued instead and the notification workers call Notifier.
	Notifier services.Notifier
	Queue    *common.RedisQueueService
}

// Infra is the set of connections the dependencies are built on. Redis is
// nil unless a backend asks for it.
type Infra struct {
	Gorm  *gorm.DB
	SQLX  *sqlx.DB
	Redis *redis.Client
}

type Dependencies struct {
	Config   *config.Config
	Infra    Infra
	Metrics  *metrics.MetricsRegistry
	Repo     *Repositories
	Services *Services
}

// InitDependencies wires repositories and services over infra, choosing
// the session store, cache and chat broker from cfg.
func InitDependencies(cfg *config.Config, infra Infra, m *metrics.MetricsRegistry) (*Dependencies, error) {
	tx := db.NewTxManager(infra.Gorm)

	repos := &Repositories{
		Accounts:    repositories.NewAccountRepository(infra.Gorm),
		Profiles:    repositories.NewProfileRepository(infra.Gorm),
		Roles:       repositories.NewRoleRepository(infra.Gorm, tx),
		Groups:      repositories.NewGroupRepository(infra.Gorm),
		Records:     repositories.NewMemberRecordsRepository(infra.Gorm),
		Competition: repositories.NewCompetitionRepository(infra.Gorm),
		Chat:        repositories.NewChatRepository(infra.Gorm),
		Settings:    repositories.NewSettingsRepository(infra.Gorm),
		Content:     repositories.NewContentRepository(infra.Gorm),
		Team:        repositories.NewTeamRepository(infra.SQLX),
	}

	provider := identity.NewLocalProvider(
		repos.Accounts,
		identity.NewArgon2Hasher(identity.DefaultHashParams),
		identity.NewTokenSigner([]byte(cfg.JWTSecret), "clubhouse"),
		sessionStore(cfg, infra.Redis),
		identity.LogMailer{},
		identity.Options{SessionTTL: cfg.SessionTTL, RecoveryTTL: cfg.RecoveryTTL},
	)

	cache := cacheBackend(cfg, infra.Redis)
	broker := chatBroker(infra.Redis)
	direct := services.NewNotifier(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
	notifier, queue := notificationQueue(direct, infra.Redis)

	settings := services.NewSettingsService(repos.Settings, cache, cfg.SettingsCacheTTL, m)

	svcs := &Services{
		Identity:     provider,
		Applications: services.NewApplicationService(tx, repos.Profiles, repos.Roles, repos.Groups, provider, notifier, m, cfg.GrantRoleOnSubmit),
		Competition:  services.NewCompetitionService(tx, repos.Competition, m),
		Roles:        services.NewRoleService(repos.Roles),
		Groups:       services.NewGroupService(tx, repos.Groups, repos.Roles),
		Members:      services.NewMemberService(tx, provider, repos.Profiles, repos.Roles, repos.Records, repos.Groups, repos.Competition),
		Chat:         services.NewChatService(repos.Chat, broker, m, cfg.ChatPollInterval),
		Settings:     settings,
		Content:      services.NewContentService(repos.Team, repos.Content, settings),
		Cache:        cache,
		Broker:       broker,
		Notifier:     direct,
		Queue:        queue,
	}

	return &Dependencies{
		Config:   cfg,
		Infra:    infra,
		Metrics:  m,
		Repo:     repos,
		Services: svcs,
	}, nil
}

// Close releases the cache and broker. The database and Redis connections
// belong to the caller.
func (d *Dependencies) Close() {
	if err := d.Services.Broker.Close(); err != nil {
		logging.Warn("Failed to close chat broker", "error", err)
	}
	if err := d.Services.Cache.Close(); err != nil {
		logging.Warn("Failed to close cache", "error", err)
	}
}

func sessionStore(cfg *config.Config, client *redis.Client) identity.SessionStore {
	if cfg.SessionBackend == "redis" && client != nil {
		logging.Info("Using Redis session store")
		return identity.NewRedisSessionStore(client)
	}
	logging.Info("Using in-memory session store")
	return identity.NewMemorySessionStore(10 * time.Minute)
}

func cacheBackend(cfg *config.Config, client *redis.Client) common.CacheInterface {
	switch cfg.CacheBackend {
	case "redis":
		if client != nil {
			logging.Info("Using Redis settings cache")
			return common.NewRedisCacheService(client)
		}
		logging.Warn("Redis cache requested without a Redis client, falling back to memory")
	case "memcache":
		logging.Info("Using memcached settings cache", "addr", cfg.MemcachedAddr)
		return common.NewMemcacheService(cfg.MemcachedAddr)
	}
	return common.NewCacheService(cfg.SettingsCacheTTL, 10*time.Minute)
}

func chatBroker(client *redis.Client) chat.Broker {
	if client != nil {
		logging.Info("Using Redis chat broker")
		return chat.NewRedisBroker(client)
	}
	return chat.NewMemoryBroker()
}

// notificationQueue routes notifications through a Redis stream when
// there is both a client and a real notifier to drain it into.
func notificationQueue(direct services.Notifier, client *redis.Client) (services.Notifier, *common.RedisQueueService) {
	if _, noop := direct.(services.NoopNotifier); noop || client == nil {
		return direct, nil
	}
	logging.Info("Queueing application notifications on Redis", "stream", constants.NotificationStream)
	queue := common.NewRedisQueueService(client)
	return services.NewQueuedNotifier(queue), queue
}
