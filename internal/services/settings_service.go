package services

import (
	"context"
	"fmt"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db/repositories"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/metrics"
)

// settingDefaults lists every known setting and the value used until an
// admin stores one.
var settingDefaults = map[string]string{
	constants.SettingShowApplyButton:   "true",
	constants.SettingShowLoginButton:   "true",
	constants.SettingWelcomePopupText:  "",
	constants.SettingBackgroundVideo:   "",
	constants.SettingCompetitionIsOpen: "true",
}

type SettingsService struct {
	repo    *repositories.SettingsRepository
	cache   common.CacheInterface
	ttl     time.Duration
	metrics *metrics.MetricsRegistry
}

func NewSettingsService(repo *repositories.SettingsRepository, cache common.CacheInterface, ttl time.Duration, m *metrics.MetricsRegistry) *SettingsService {
	return &SettingsService{repo: repo, cache: cache, ttl: ttl, metrics: m}
}

// All returns every known setting merged over its default.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	key := string(constants.CachePrefixSettings)

	val, hit, err := common.GetOrLoad(ctx, s.cache, key, s.ttl, s.load)
	if err != nil {
		return nil, err
	}
	if settings, ok := toStringMap(val); ok {
		s.countCache(hit)
		return settings, nil
	}

	logging.Warn("Unexpected settings cache value, reloading", "type", fmt.Sprintf("%T", val))
	s.countCache(false)
	fresh, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, fresh, s.ttl)
	return fresh.(map[string]string), nil
}

func (s *SettingsService) load(ctx context.Context) (any, error) {
	stored, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settingDefaults))
	for k, v := range settingDefaults {
		out[k] = v
	}
	for k, v := range stored {
		if _, known := settingDefaults[k]; known {
			out[k] = v
		}
	}
	return out, nil
}

func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	if _, known := settingDefaults[key]; !known {
		return "", apperr.New(apperr.KindNotFound, "SettingsService.Get", "unknown setting "+key)
	}
	all, err := s.All(ctx)
	if err != nil {
		return "", err
	}
	return all[key], nil
}

// Enabled reads a boolean setting. Anything other than "true" is off.
func (s *SettingsService) Enabled(ctx context.Context, key string) (bool, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if _, known := settingDefaults[key]; !known {
		return apperr.New(apperr.KindValidation, "SettingsService.Set", "unknown setting "+key)
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		return err
	}
	s.cache.Delete(ctx, string(constants.CachePrefixSettings))
	logging.Info("Setting updated", "key", key)
	return nil
}

func (s *SettingsService) countCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.WithLabelValues(string(constants.CachePrefixSettings)).Inc()
		return
	}
	s.metrics.CacheMissesTotal.WithLabelValues(string(constants.CachePrefixSettings)).Inc()
}

// toStringMap accepts the in-process form and the JSON-decoded form that
// the Redis and memcached backends return.
func toStringMap(val interface{}) (map[string]string, bool) {
	switch m := val.(type) {
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[string]interface{}:
		out := make(map[string]string, len(m))
		for k, v := range m {
			str, ok := v.(string)
			if !ok {
				return nil, false
			}
			out[k] = str
		}
		return out, true
	}
	return nil, false
}
