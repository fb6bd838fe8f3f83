package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/dunning/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []int{15, 13, 11, 9, 7, 5, 3, 1, 0, -1, -3, -5, -7, -10}, cfg.Reminder.Schedule)
	assert.Equal(t, 3, cfg.Reminder.RetryLimit)
	assert.Equal(t, time.Second, cfg.Reminder.RetryDelay)
	assert.Equal(t, "file", cfg.Membership.Backend)
	assert.Equal(t, 720*time.Hour, cfg.Maintenance.MaxAge)
	assert.Equal(t, "log/sent_log.txt", cfg.MembershipFile())
	assert.Equal(t, "log/sent_log.csv", cfg.AuditFile())
	assert.Equal(t, "log/final_failures.csv", cfg.FinalFailuresFile())
	assert.Equal(t, "log/archived_log.csv", cfg.ArchiveFile())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Riyadh", loc.String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REMINDER_SCHEDULE", "7,0,-7")
	t.Setenv("RETRY_LIMIT", "5")
	t.Setenv("LOG_DIR", "/var/lib/dunning")
	t.Setenv("LOG_BACKEND", "redis")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []int{7, 0, -7}, cfg.Reminder.Schedule)
	assert.Equal(t, 5, cfg.Reminder.RetryLimit)
	assert.Equal(t, "/var/lib/dunning/sent_log.csv", cfg.AuditFile())
	assert.Equal(t, "redis", cfg.Membership.Backend)
}

func TestLoad_Invalid(t *testing.T) {
	type testCase struct {
		name string
		key  string
		val  string
	}

	tests := []testCase{
		{name: "Unknown Backend", key: "LOG_BACKEND", val: "sqlite"},
		{name: "Zero Retry Limit", key: "RETRY_LIMIT", val: "0"},
		{name: "Bad Schedule", key: "REMINDER_SCHEDULE", val: "15,soon"},
		{name: "Bad Timezone", key: "TZ_NAME", val: "Mars/Olympus"},
		{name: "Bad Log Level", key: "LOG_LEVEL", val: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			require.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestConfig_ValidateDispatch(t *testing.T) {
	valid := func() *config.Config {
		cfg := &config.Config{}
		cfg.Zoho = config.ZohoConfig{
			ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh", OrgID: "org",
			AuthURL: "https://accounts.zoho.sa", APIURL: "https://www.zohoapis.sa",
		}
		cfg.Twilio = config.TwilioConfig{SID: "AC123", Token: "tok", From: "+14155238886"}

		return cfg
	}

	type testCase struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}

	tests := []testCase{
		{name: "Valid", mutate: func(*config.Config) {}},
		{name: "Missing Zoho Org", mutate: func(c *config.Config) { c.Zoho.OrgID = "" }, wantErr: true},
		{name: "Bad Zoho URL", mutate: func(c *config.Config) { c.Zoho.APIURL = "not a url" }, wantErr: true},
		{name: "Missing Twilio Token", mutate: func(c *config.Config) { c.Twilio.Token = "" }, wantErr: true},
		{name: "SMTP Host Without Sender", mutate: func(c *config.Config) { c.SMTP.Host = "smtp.example" }, wantErr: true},
		{name: "SMTP Complete", mutate: func(c *config.Config) {
			c.SMTP.Host = "smtp.example"
			c.SMTP.From = "billing@example.com"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.ValidateDispatch()
			if tt.wantErr {
				require.ErrorIs(t, err, config.ErrInvalid)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestSMTPConfig_Enabled(t *testing.T) {
	assert.False(t, config.SMTPConfig{}.Enabled())
	assert.True(t, config.SMTPConfig{Host: "smtp.example"}.Enabled())
}
