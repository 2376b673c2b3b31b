package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/utils"
)

// SettingsLister is the slice of a manager the settings service needs.
type SettingsLister interface {
	List(ctx context.Context, params domain.Params) (domain.ListResult, error)
}

// ConfigLookup resolves a key from static configuration.
type ConfigLookup interface {
	Lookup(key string) (string, bool)
}

// SettingsService caches rows of generic_system_settings and falls back to
// static configuration for keys the table does not define.
type SettingsService struct {
	Source   SettingsLister
	Fallback ConfigLookup

	mu     sync.RWMutex
	values map[string]any
}

func NewSettingsService(source SettingsLister, fallback ConfigLookup) *SettingsService {
	return &SettingsService{Source: source, Fallback: fallback, values: map[string]any{}}
}

// Refresh reloads every setting and returns how many were loaded. Email
// settings holding several comma separated addresses become lists.
func (s *SettingsService) Refresh(ctx context.Context) (int, error) {
	res, err := s.Source.List(ctx, domain.Params{})
	if err != nil {
		return 0, err
	}

	values := make(map[string]any, len(res.Data))
	for _, rec := range res.Data {
		key := strings.ToUpper(utils.ToString(rec["prop_key"]))
		if key == "" {
			continue
		}
		values[key] = settingValue(rec)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()

	utils.LogEvent("", "settings", "refresh", fmt.Sprintf("loaded=%d", len(values)))
	return len(values), nil
}

func settingValue(rec models.Record) any {
	raw := utils.ToString(rec["prop_value"])
	if strings.EqualFold(utils.ToString(rec["prop_type"]), "Email") && strings.Contains(raw, ",") {
		return utils.SplitCSV(raw)
	}
	return raw
}

// Value returns a setting by key, consulting static configuration when the
// table has no such key.
func (s *SettingsService) Value(key string) (any, bool) {
	key = strings.ToUpper(strings.TrimSpace(key))
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v, true
	}
	if s.Fallback != nil {
		if fv, ok := s.Fallback.Lookup(key); ok {
			return fv, true
		}
	}
	return nil, false
}

// String is Value rendered as a string, or def when the key is unknown.
func (s *SettingsService) String(key, def string) string {
	v, ok := s.Value(key)
	if !ok {
		return def
	}
	if s := utils.ToString(v); s != "" {
		return s
	}
	return def
}

// Snapshot copies the loaded settings.
func (s *SettingsService) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
