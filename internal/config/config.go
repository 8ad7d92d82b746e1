package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TOPOLOGY_SERVER_PORT
const EnvPrefix = "TOPOLOGY"

// Config is the runtime configuration of the CLI and the HTTP service
type Config struct {
	NetBox   NetBoxConfig   `mapstructure:"netbox"`
	Database DatabaseConfig `mapstructure:"database"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type NetBoxConfig struct {
	URL      string        `mapstructure:"url" validate:"omitempty,url"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Insecure bool          `mapstructure:"insecure"`
	PageSize int           `mapstructure:"page_size" validate:"min=1,max=1000"`
}

// DatabaseConfig selects the relational store. An empty driver keeps everything in memory.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=postgres mysql sqlite"`
	DSN    string `mapstructure:"dsn" validate:"required_with=Driver"`
}

type ReportsConfig struct {
	Path      string        `mapstructure:"path" validate:"required"`
	Retention time.Duration `mapstructure:"retention" validate:"gte=0"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	File   string `mapstructure:"file"`
}

// AuditConfig schedules periodic audits. Source "netbox" audits the live API,
// "store" audits the local database.
type AuditConfig struct {
	Schedule string `mapstructure:"schedule" validate:"omitempty,cron"`
	Source   string `mapstructure:"source" validate:"oneof=netbox store"`
	Site     string `mapstructure:"site"`
}

// Options locate the optional config file and .env file
type Options struct {
	ConfigFile string
	EnvFile    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("netbox.url", "")
	v.SetDefault("netbox.token", "")
	v.SetDefault("netbox.timeout", 30*time.Second)
	v.SetDefault("netbox.insecure", false)
	v.SetDefault("netbox.page_size", 250)

	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")

	v.SetDefault("reports.path", "data/reports")
	v.SetDefault("reports.retention", 30*24*time.Hour)

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")

	v.SetDefault("audit.schedule", "")
	v.SetDefault("audit.source", "netbox")
	v.SetDefault("audit.site", "")
}

// Load reads defaults, the optional config file, the .env file and the environment, in
// increasing order of precedence
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// NETBOX_URL / NETBOX_TOKEN predate the prefixed variables
	for _, key := range []string{"url", "token"} {
		name := "NETBOX_" + strings.ToUpper(key)
		if err := v.BindEnv("netbox."+key, EnvPrefix+"_"+name, name); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.NetBox.URL = strings.TrimRight(cfg.NetBox.URL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := parser.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks every section
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: %s", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

// RequireNetBox fails unless the NetBox URL and token are set
func (c *Config) RequireNetBox() error {
	if c.NetBox.URL == "" || c.NetBox.Token == "" {
		return errors.New("NETBOX_URL and NETBOX_TOKEN environment variables must be set")
	}
	return nil
}

// ListenAddr returns host:port for the HTTP server
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
