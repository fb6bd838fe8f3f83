package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// ErrInvalid marks configuration problems that must abort before any dispatch.
var ErrInvalid = errors.New("invalid configuration")

type ZohoConfig struct {
	ClientID     string `envconfig:"ZOHO_CLIENT_ID" validate:"required"`
	ClientSecret string `envconfig:"ZOHO_CLIENT_SECRET" validate:"required"`
	RefreshToken string `envconfig:"ZOHO_REFRESH_TOKEN" validate:"required"`
	AuthURL      string `envconfig:"ZOHO_AUTH_URL" default:"https://accounts.zoho.sa" validate:"required,url"`
	APIURL       string `envconfig:"ZOHO_API_URL" default:"https://www.zohoapis.sa" validate:"required,url"`
	OrgID        string `envconfig:"ZOHO_ORG_ID" validate:"required"`
	TokenFile    string `envconfig:"ZOHO_TOKEN_FILE" default:"data/access_token.json"`
}

type TwilioConfig struct {
	SID   string `envconfig:"TWILIO_SID" validate:"required"`
	Token string `envconfig:"TWILIO_TOKEN" validate:"required"`
	From  string `envconfig:"TWILIO_FROM" validate:"required"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" validate:"required_with=Host"`
	TLS      string `envconfig:"SMTP_TLS" default:"opportunistic" validate:"oneof=mandatory opportunistic none"`
}

// Enabled reports whether the email fallback channel should be wired.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Dunning"`
		Timezone string `envconfig:"TZ_NAME" default:"Asia/Riyadh"`
		DataDir  string `envconfig:"DATA_DIR" default:"data"`
	}

	Zoho   ZohoConfig
	Twilio TwilioConfig
	SMTP   SMTPConfig

	Storage struct {
		ParUploadURL string `envconfig:"ORACLE_PAR_UPLOAD_URL"`
	}

	Reminder struct {
		Schedule   []int         `envconfig:"REMINDER_SCHEDULE" default:"15,13,11,9,7,5,3,1,0,-1,-3,-5,-7,-10" validate:"min=1"`
		RetryLimit int           `envconfig:"RETRY_LIMIT" default:"3" validate:"min=1"`
		RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
	}

	Paths struct {
		LogDir string `envconfig:"LOG_DIR" default:"log"`
		PDFDir string `envconfig:"PDF_DIR" default:"invoices"`
	}

	Membership struct {
		Backend  string `envconfig:"LOG_BACKEND" default:"file" validate:"oneof=file postgres redis"`
		RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
		RedisKey string `envconfig:"REDIS_KEY" default:"dunning:sent"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"dunning"`
	}

	Logging struct {
		Level      string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
		Format     string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
		File       string `envconfig:"LOG_FILE" default:"log/dunning.log"`
		MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
		MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
		// Quiet drops the stdout copy; the TUI owns the terminal.
		Quiet bool `envconfig:"LOG_QUIET"`
	}

	Server struct {
		Port           int           `envconfig:"PORT" default:"8080"`
		RunCron        string        `envconfig:"RUN_CRON" default:"0 9 * * *"`
		RetryCron      string        `envconfig:"RETRY_CRON" default:"0 13 * * *"`
		JWTSecret      string        `envconfig:"DASHBOARD_JWT_SECRET"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Maintenance struct {
		MaxAge time.Duration `envconfig:"MAINTENANCE_MAX_AGE" default:"720h"`
		Cron   string        `envconfig:"MAINTENANCE_CRON" default:"30 3 * * 0"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Location resolves the configured timezone used to fix "today" for a pass.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.App.Timezone, err)
	}

	return loc, nil
}

func (c *Config) MembershipFile() string    { return filepath.Join(c.Paths.LogDir, "sent_log.txt") }
func (c *Config) AuditFile() string         { return filepath.Join(c.Paths.LogDir, "sent_log.csv") }
func (c *Config) FinalFailuresFile() string { return filepath.Join(c.Paths.LogDir, "final_failures.csv") }
func (c *Config) ArchiveFile() string       { return filepath.Join(c.Paths.LogDir, "archived_log.csv") }

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to process config: %v", ErrInvalid, err)
	}

	v := validator.New()

	// Sections every command relies on; credentials are checked per command.
	for _, section := range []any{&cfg.Reminder, &cfg.Membership, &cfg.Logging} {
		if err := v.Struct(section); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateDispatch checks everything a pass that sends messages needs.
func (c *Config) ValidateDispatch() error {
	v := validator.New()

	for _, section := range []any{&c.Zoho, &c.Twilio, &c.SMTP} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	return nil
}
