package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverREST     = "rest"
	DriverMemory   = "memory"
)

type Config struct {
	Port string `env:"PORT" envDefault:"3000"`

	DBDriver      string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"DB_PATH" envDefault:"./lovepixel.db"`
	DatabaseURL   string `env:"DATABASE_URL"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"lovepixel"`
	RESTURL       string `env:"REST_URL"`
	RESTAPIKey    string `env:"REST_API_KEY"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"fallback-secret-key"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AppBaseURL  string   `env:"APP_BASE_URL" envDefault:"http://localhost:5173"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	InvitationTTL  time.Duration `env:"INVITATION_TTL" envDefault:"720h"`
	ExpiryInterval time.Duration `env:"EXPIRY_INTERVAL" envDefault:"1h"`
}

// Load reads an optional .env file and then parses the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverMemory, DriverMongo:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverREST:
		if c.RESTURL == "" {
			return errors.New("REST_URL is required for the rest driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.ExpiryInterval <= 0 {
		return errors.New("EXPIRY_INTERVAL must be positive")
	}
	if c.InvitationTTL <= 0 {
		return errors.New("INVITATION_TTL must be positive")
	}
	return nil
}

// AllowOrigins renders CORSOrigins the way fiber's cors middleware expects.
func (c Config) AllowOrigins() string {
	return strings.Join(c.CORSOrigins, ", ")
}
