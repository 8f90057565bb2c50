package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Render    RenderConfig    `yaml:"render"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"7s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the listen address, accepting "8080" or ":8080".
func (s ServerConfig) Addr() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// StoreConfig selects and configures the itinerary record store.
type StoreConfig struct {
	Backend       string        `yaml:"backend"        env:"STORE_BACKEND"   env-default:"mongo"`
	MongoURI      string        `yaml:"mongo_uri"      env:"MONGO_URI"       env-default:"mongodb://localhost:27017"`
	MongoDatabase string        `yaml:"mongo_database" env:"MONGO_DATABASE"  env-default:"tripsheet"`
	Collection    string        `yaml:"collection"     env:"STORE_COLLECTION" env-default:"itineraries"`
	SQLitePath    string        `yaml:"sqlite_path"    env:"SQLITE_PATH"     env-default:"tripsheet.db"`
	Timeout       time.Duration `yaml:"timeout"        env:"STORE_TIMEOUT"   env-default:"5s"`
}

// RedisConfig is optional; an empty Addr disables events and shared confirmations.
type RedisConfig struct {
	Addr          string `yaml:"addr"           env:"REDIS_ADDR"`
	Password      string `yaml:"password"       env:"REDIS_PASSWORD"`
	DB            int    `yaml:"db"             env:"REDIS_DB"             env-default:"0"`
	EventsChannel string `yaml:"events_channel" env:"REDIS_EVENTS_CHANNEL" env-default:"itinerary-events"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type RenderConfig struct {
	Title       string `yaml:"title"        env:"RENDER_TITLE"        env-default:"Mathura – Vrindavan Travel Itinerary"`
	Footer      string `yaml:"footer"       env:"RENDER_FOOTER"       env-default:"Thank you for choosing us for your spiritual journey."`
	HeaderImage string `yaml:"header_image" env:"RENDER_HEADER_IMAGE"`
	FooterImage string `yaml:"footer_image" env:"RENDER_FOOTER_IMAGE"`
	Currency    string `yaml:"currency"     env:"RENDER_CURRENCY"     env-default:"Rs. "`
	// LinkBase, when set, adds a QR code pointing at <LinkBase>/edit/<id>.
	LinkBase string `yaml:"link_base" env:"RENDER_LINK_BASE"`
}

type WorkflowConfig struct {
	ConfirmTTL time.Duration `yaml:"confirm_ttl" env:"DELETE_CONFIRM_TTL" env-default:"6s"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// Origins splits the comma-separated origin list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second" env:"RATE_LIMIT_RPS"   env-default:"5"`
	Burst     int     `yaml:"burst"      env:"RATE_LIMIT_BURST" env-default:"10"`
}

var backends = map[string]bool{"mongo": true, "sqlite": true, "memory": true}

// Validate checks values cleanenv cannot express.
func (c *Config) Validate() error {
	if !backends[c.Store.Backend] {
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "mongo" && c.Store.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required for the mongo backend")
	}
	if c.Store.Backend == "sqlite" && c.Store.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
	}
	if c.Store.Collection == "" {
		return fmt.Errorf("store collection must not be empty")
	}
	if c.Workflow.ConfirmTTL <= 0 {
		return fmt.Errorf("DELETE_CONFIRM_TTL must be positive")
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

// Load reads .env (if present), then the YAML file at CONFIG_PATH or the
// environment. Environment variables override YAML values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}
