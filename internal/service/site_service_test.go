package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// reverseSealer stands in for crypto.Vault; key derivation is too slow for
// unit tests.
type reverseSealer struct{}

func (reverseSealer) Seal(p string) (string, error) { return "sealed:" + reverse(p), nil }

func (reverseSealer) Open(s string) (string, error) {
	rest, ok := strings.CutPrefix(s, "sealed:")
	if !ok {
		return "", errors.New("not sealed")
	}
	return reverse(rest), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func TestSettingsService_SecretsAreSealedAndMasked(t *testing.T) {
	store := &memSettings{byKey: map[string]domain.Setting{}}
	svc := NewSettingsService(store, reverseSealer{}, &memAudit{})
	ctx := context.Background()

	got, err := svc.Upsert(ctx, "admin-1", "Smtp_Password", SettingInput{Value: "hunter2", Secret: true})
	require.NoError(t, err)
	assert.Equal(t, "smtp_password", got.Key)
	assert.Equal(t, secretMask, got.Value)
	assert.Equal(t, "sealed:2retnuh", store.byKey["smtp_password"].Value)

	_, err = svc.Upsert(ctx, "admin-1", "site_name", SettingInput{Value: "Names R Us"})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Names R Us", all[0].Value)
	assert.Equal(t, secretMask, all[1].Value)

	plain, err := svc.Get(ctx, "smtp_password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSettingsService_RejectsBadKeys(t *testing.T) {
	svc := NewSettingsService(&memSettings{byKey: map[string]domain.Setting{}}, reverseSealer{}, nil)
	for _, key := range []string{"", "has space", "_leading", strings.Repeat("k", 65)} {
		_, err := svc.Upsert(context.Background(), "admin-1", key, SettingInput{Value: "v"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, key)
	}
}

func TestSEOService_PageFallbacks(t *testing.T) {
	ctx := context.Background()
	settingsStore := &memSettings{byKey: map[string]domain.Setting{
		domain.SettingSiteName: {Key: domain.SettingSiteName, Value: "Names R Us"},
	}}
	settings := NewSettingsService(settingsStore, reverseSealer{}, nil)
	seo := &memSEO{pages: map[string]domain.SEOMeta{
		"domains": {Page: "domains", Title: "All domains", Description: "Browse everything"},
	}}
	svc := NewSEOService(seo, settings, nil)

	home, err := svc.Page(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "home", home.Page)
	assert.Equal(t, "Names R Us", home.Title)
	assert.Equal(t, defaultSiteDescription, home.Description)

	page, err := svc.Page(ctx, "/Domains/")
	require.NoError(t, err)
	assert.Equal(t, "All domains", page.Title)
	assert.Equal(t, "Browse everything", page.Description)

	bare := NewSEOService(seo, nil, nil)
	about, err := bare.Page(ctx, "about")
	require.NoError(t, err)
	assert.Equal(t, defaultSiteName, about.Title)
}

func TestSEOService_UpsertNormalizesPage(t *testing.T) {
	seo := &memSEO{pages: map[string]domain.SEOMeta{}}
	audit := &memAudit{}
	svc := NewSEOService(seo, nil, audit)

	m, err := svc.Upsert(context.Background(), "admin-1", domain.SEOMeta{Page: " / ", Title: "  Home  "})
	require.NoError(t, err)
	assert.Equal(t, "home", m.Page)
	assert.Equal(t, "Home", seo.pages["home"].Title)
	assert.Equal(t, []string{"seo.upsert"}, audit.events)

	require.NoError(t, svc.Delete(context.Background(), "admin-1", "home"))
	assert.Empty(t, seo.pages)
}
