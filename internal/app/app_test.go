package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/dunning/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.App.Timezone = "Asia/Riyadh"
	cfg.Paths.LogDir = filepath.Join(dir, "log")
	cfg.Paths.PDFDir = filepath.Join(dir, "invoices")
	cfg.Membership.Backend = "file"
	cfg.Reminder.Schedule = []int{3, 0}
	cfg.Reminder.RetryLimit = 3
	cfg.Maintenance.MaxAge = time.Hour
	cfg.Zoho = config.ZohoConfig{
		ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh", OrgID: "org",
		AuthURL: "https://accounts.zoho.sa", APIURL: "https://www.zohoapis.sa",
		TokenFile: filepath.Join(dir, "token.json"),
	}
	cfg.Twilio = config.TwilioConfig{SID: "AC123", Token: "tok", From: "+14155238886"}

	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Asia/Riyadh", a.Location.String())
	assert.Equal(t, cfg.AuditFile(), a.Audit.Path())
	assert.Equal(t, a.Location, a.Now().Location())
}

func TestNew_BadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.Timezone = "Nowhere/Special"

	_, err := New(cfg)
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestApp_Passes(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	runner, err := a.Runner(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runner)

	retrier, err := a.Retrier()
	require.NoError(t, err)
	assert.NotNil(t, retrier)

	assert.NotNil(t, a.Sweeper())
	assert.NotNil(t, a.Export())
	assert.NoError(t, a.Close())
}

func TestApp_DispatchNeedsCredentials(t *testing.T) {
	cfg := testConfig(t)
	cfg.Twilio.Token = ""

	a, err := New(cfg)
	require.NoError(t, err)

	_, err = a.Runner(context.Background())
	require.ErrorIs(t, err, config.ErrInvalid)

	_, err = a.Retrier()
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestApp_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Membership.Backend = "etcd"

	a, err := New(cfg)
	require.NoError(t, err)

	_, err = a.Runner(context.Background())
	require.ErrorIs(t, err, config.ErrInvalid)
}
