package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Environment string          `mapstructure:"environment" validate:"omitempty,oneof=development staging production"`
	Server      ServerConfig    `mapstructure:"http_server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Security    SecurityConfig  `mapstructure:"security" validate:"required"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Bootstrap   BootstrapConfig `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	LoginRateLimit    int           `mapstructure:"login_rate_limit" validate:"min=0"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source" validate:"required"`
}

type SecurityConfig struct {
	SessionSecret   string        `mapstructure:"session_secret" validate:"required,min=32"`
	SessionDuration time.Duration `mapstructure:"session_duration" validate:"required,min=1m,max=24h"`
	BCryptCost      int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

// BootstrapConfig carries the out-of-band admin credential pair. It is
// consumed exactly once, by the seed command, which stores it hashed in
// the admins table. Login never compares against it directly.
type BootstrapConfig struct {
	AdminName     string `mapstructure:"admin_name"`
	AdminEmail    string `mapstructure:"admin_email" validate:"omitempty,email"`
	AdminPassword string `mapstructure:"admin_password" validate:"omitempty,min=6"`
}

// Validate runs the struct tags and the handful of cross-field rules the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Server.ReadTimeout != 0 && c.Server.ReadTimeout < c.Server.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	if c.Server.AllowedOrigins != "" {
		for _, origin := range strings.Split(c.Server.AllowedOrigins, ",") {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}
