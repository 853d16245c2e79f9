package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`

	// memory or redis. Redis makes listing invalidations visible to every
	// instance sharing the database.
	CacheBackend string `env:"CACHE_BACKEND, default=memory"`

	Mongo MongoConfig
	Redis RedisConfig
	Admin AdminConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=user_manager"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// AdminConfig seeds the bootstrap administrator account. When Password is
// empty the account is created without a usable credential and must have one
// set through the API.
type AdminConfig struct {
	Username  string `env:"ADMIN_USERNAME,   default=admin"`
	FirstName string `env:"ADMIN_FIRST_NAME, default=Admin"`
	LastName  string `env:"ADMIN_LAST_NAME,  default=User"`
	Email     string `env:"ADMIN_EMAIL,      default=admin@localhost"`
	Password  string `env:"ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
