package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/db/repositories"
	"roboclub/clubhouse/internal/identity"
	"roboclub/clubhouse/internal/metrics"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires every repository over one in-memory SQLite database.
type testEnv struct {
	gdb         *gorm.DB
	tx          *db.TxManager
	accounts    *repositories.AccountRepository
	profiles    *repositories.ProfileRepository
	roles       *repositories.RoleRepository
	groups      *repositories.GroupRepository
	records     *repositories.MemberRecordsRepository
	competition *repositories.CompetitionRepository
	chat        *repositories.ChatRepository
	settings    *repositories.SettingsRepository
	content     *repositories.ContentRepository
	provider    *identity.LocalProvider
	metrics     *metrics.MetricsRegistry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.GormConfig())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	tx := db.NewTxManager(gdb)
	accounts := repositories.NewAccountRepository(gdb)
	provider := identity.NewLocalProvider(
		accounts,
		identity.NewArgon2Hasher(identity.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}),
		identity.NewTokenSigner([]byte("test-secret"), "clubhouse-test"),
		identity.NewMemorySessionStore(time.Minute),
		nil,
		identity.Options{SessionTTL: time.Hour, RecoveryTTL: 15 * time.Minute},
	)

	return &testEnv{
		gdb:         gdb,
		tx:          tx,
		accounts:    accounts,
		profiles:    repositories.NewProfileRepository(gdb),
		roles:       repositories.NewRoleRepository(gdb, tx),
		groups:      repositories.NewGroupRepository(gdb),
		records:     repositories.NewMemberRecordsRepository(gdb),
		competition: repositories.NewCompetitionRepository(gdb),
		chat:        repositories.NewChatRepository(gdb),
		settings:    repositories.NewSettingsRepository(gdb),
		content:     repositories.NewContentRepository(gdb),
		provider:    provider,
		metrics:     metrics.NewMetricsRegistry(),
	}
}

func (e *testEnv) applications(n Notifier, grantOnSubmit bool) *ApplicationService {
	return NewApplicationService(e.tx, e.profiles, e.roles, e.groups, e.provider, n, e.metrics, grantOnSubmit)
}

// seedProfile inserts an accepted profile and grants the given roles.
func (e *testEnv) seedProfile(t *testing.T, id, name string, roles ...constants.Role) {
	t.Helper()
	ctx := context.Background()

	err := e.profiles.Create(ctx, &models.Profile{ID: id, Name: name, Email: id + "@club.test", ApplicationStatus: constants.ApplicationAccepted})
	if err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}
	for _, r := range roles {
		if err := e.roles.Assign(ctx, id, r); err != nil {
			t.Fatalf("Failed to seed role: %v", err)
		}
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	profiles []string
	err      error
}

func (n *recordingNotifier) ApplicationSubmitted(ctx context.Context, profile *models.Profile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.profiles = append(n.profiles, profile.ID)
	return n.err
}
