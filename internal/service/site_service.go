package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// Default site copy used when neither SEO rows nor settings provide any.
const (
	defaultSiteName        = "DomainMart"
	defaultSiteDescription = "Premium domain names for sale."
)

// secretMask replaces secret values in admin listings.
const secretMask = "********"

var settingKeyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_.]{0,63}$`)

// Sealer encrypts secret setting values at rest.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// SettingsService manages site-wide settings. Secret values are sealed
// before they reach the store and masked in listings.
type SettingsService struct {
	settings domain.SettingStore
	vault    Sealer
	fx       effects
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(settings domain.SettingStore, vault Sealer, audit domain.AuditStore) *SettingsService {
	return &SettingsService{settings: settings, vault: vault, fx: effects{audit: audit}}
}

// List returns every setting with secret values masked.
func (s *SettingsService) List(ctx context.Context) ([]domain.Setting, error) {
	all, err := s.settings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings_service: list: %w", err)
	}
	for i := range all {
		if all[i].Secret {
			all[i].Value = secretMask
		}
	}
	return all, nil
}

// Get returns a setting's clear-text value for internal use.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	st, err := s.settings.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("settings_service: get %s: %w", key, err)
	}
	if !st.Secret {
		return st.Value, nil
	}
	plain, err := s.vault.Open(st.Value)
	if err != nil {
		return "", fmt.Errorf("settings_service: open %s: %w", key, err)
	}
	return plain, nil
}

// SettingInput is the admin settings form.
type SettingInput struct {
	Value  string `json:"value"`
	Secret bool   `json:"secret"`
}

// Upsert stores a setting, sealing it when secret. The returned setting is
// masked like List.
func (s *SettingsService) Upsert(ctx context.Context, actor, key string, in SettingInput) (domain.Setting, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if !settingKeyRe.MatchString(key) {
		v := &domain.ValidationError{}
		v.Add("key", "must be lowercase letters, digits, dots or underscores")
		return domain.Setting{}, v.Err()
	}

	st := domain.Setting{Key: key, Value: in.Value, Secret: in.Secret}
	if in.Secret {
		sealed, err := s.vault.Seal(in.Value)
		if err != nil {
			return domain.Setting{}, fmt.Errorf("settings_service: seal %s: %w", key, err)
		}
		st.Value = sealed
	}
	if err := s.settings.Upsert(ctx, st); err != nil {
		return domain.Setting{}, fmt.Errorf("settings_service: upsert %s: %w", key, err)
	}
	s.fx.record(ctx, "setting.upsert", actor, map[string]any{"key": key, "secret": in.Secret})

	if st.Secret {
		st.Value = secretMask
	}
	return st, nil
}

// Delete removes a setting.
func (s *SettingsService) Delete(ctx context.Context, actor, key string) error {
	if err := s.settings.Delete(ctx, key); err != nil {
		return fmt.Errorf("settings_service: delete %s: %w", key, err)
	}
	s.fx.record(ctx, "setting.delete", actor, map[string]any{"key": key})
	return nil
}

// SettingReader reads clear-text setting values.
type SettingReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// SEOService serves per-page metadata with site-wide fallbacks.
type SEOService struct {
	seo      domain.SEOStore
	settings SettingReader
	fx       effects
}

// NewSEOService creates an SEOService.
func NewSEOService(seo domain.SEOStore, settings SettingReader, audit domain.AuditStore) *SEOService {
	return &SEOService{seo: seo, settings: settings, fx: effects{audit: audit}}
}

// Page returns the metadata for page. Missing rows and blank fields fall
// back to the site_name and site_description settings, then to built-in
// defaults.
func (s *SEOService) Page(ctx context.Context, page string) (domain.SEOMeta, error) {
	page = normalizePage(page)
	m, err := s.seo.Get(ctx, page)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.SEOMeta{}, fmt.Errorf("seo_service: get %s: %w", page, err)
	}
	m.Page = page

	if m.Title == "" {
		m.Title = s.setting(ctx, domain.SettingSiteName, defaultSiteName)
	}
	if m.Description == "" {
		m.Description = s.setting(ctx, domain.SettingSiteDescription, defaultSiteDescription)
	}
	return m, nil
}

func (s *SEOService) setting(ctx context.Context, key, fallback string) string {
	if s.settings == nil {
		return fallback
	}
	v, err := s.settings.Get(ctx, key)
	if err != nil || strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// List returns every stored page.
func (s *SEOService) List(ctx context.Context) ([]domain.SEOMeta, error) {
	ms, err := s.seo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("seo_service: list: %w", err)
	}
	return ms, nil
}

// Upsert stores a page's metadata.
func (s *SEOService) Upsert(ctx context.Context, actor string, m domain.SEOMeta) (domain.SEOMeta, error) {
	m.Page = normalizePage(m.Page)
	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)
	if err := s.seo.Upsert(ctx, m); err != nil {
		return domain.SEOMeta{}, fmt.Errorf("seo_service: upsert %s: %w", m.Page, err)
	}
	s.fx.record(ctx, "seo.upsert", actor, map[string]any{"page": m.Page})
	return m, nil
}

// Delete removes a page's metadata.
func (s *SEOService) Delete(ctx context.Context, actor, page string) error {
	page = normalizePage(page)
	if err := s.seo.Delete(ctx, page); err != nil {
		return fmt.Errorf("seo_service: delete %s: %w", page, err)
	}
	s.fx.record(ctx, "seo.delete", actor, map[string]any{"page": page})
	return nil
}

// normalizePage maps "/", "" and "home" to "home" and trims slashes from
// route-style keys such as "/domains/".
func normalizePage(page string) string {
	page = strings.Trim(strings.ToLower(strings.TrimSpace(page)), "/")
	if page == "" {
		return "home"
	}
	return page
}
