package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/zlap-okazje/internal/cache"
	"github.com/xenking/zlap-okazje/internal/domain/search"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (OKAZJE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL URL for the shared result cache; empty disables it" flag:"database-url"`
	AffiliateTag string `usage:"Amazon affiliate tag appended to purchase links (OKAZJE_AFFILIATE_TAG)" flag:"affiliate-tag"`
	Upstream     UpstreamConfig
	Cache        CacheConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Docs         DocsConfig
	Graceful     GracefulConfig
}

// UpstreamConfig points at the RapidAPI product search.
type UpstreamConfig struct {
	BaseURL string        `default:"https://real-time-amazon-data.p.rapidapi.com" usage:"Search API base URL" flag:"upstream-base-url"`
	Host    string        `default:"real-time-amazon-data.p.rapidapi.com" usage:"x-rapidapi-host header value"`
	APIKey  string        `usage:"x-rapidapi-key header value (OKAZJE_UPSTREAM_API_KEY)" flag:"upstream-api-key"`
	Country string        `default:"PL" usage:"Marketplace country code"`
	Timeout time.Duration `default:"10s" usage:"Upstream request timeout"`
}

// CacheConfig controls search memoization.
type CacheConfig struct {
	Size      int           `default:"1024" usage:"Max memoized searches per instance"`
	TTL       time.Duration `default:"15m"  usage:"How long a memoized search is served"`
	Policy    string        `default:"lru"  usage:"Eviction policy: lru or fifo"`
	SharedTTL time.Duration `default:"6h"   usage:"Max age of shared cache rows" flag:"cache-shared-ttl"`
}

// SessionConfig controls visitor sessions.
type SessionConfig struct {
	IdleTimeout   time.Duration `default:"24h" usage:"Forget sessions idle this long" flag:"session-idle-timeout"`
	SweepInterval time.Duration `default:"5m"  usage:"How often idle sessions are swept" flag:"session-sweep-interval"`
	MaxSessions   int           `default:"100000" usage:"Readiness fails above this many live sessions" flag:"session-max"`
	SecureCookie  bool          `default:"false" usage:"Mark the session cookie Secure" flag:"session-secure-cookie"`
}

// RateLimitConfig controls the per-session sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"120" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow the session cookie on cross-origin requests" flag:"cors-credentials"`
}

// DocsConfig controls the API reference page.
type DocsConfig struct {
	SpecDir string `default:"api" usage:"Directory holding api.yaml; empty disables /docs" flag:"docs-spec-dir"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies platform defaults and validates it.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "OKAZJE",
		Files:     []string{"config.yaml", "/etc/okazje/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing secrets and invalid settings.
func (c *Config) Validate() error {
	if c.Upstream.APIKey == "" {
		return errors.New("upstream API key is required: set OKAZJE_UPSTREAM_API_KEY")
	}
	if c.AffiliateTag == "" {
		return errors.New("affiliate tag is required: set OKAZJE_AFFILIATE_TAG")
	}
	if _, err := cache.PolicyByName[search.Query](c.Cache.Policy); err != nil {
		return errors.Wrap(err, "cache policy")
	}
	if c.Cache.SharedTTL < 0 {
		return errors.Errorf("shared cache TTL must not be negative, got %s", c.Cache.SharedTTL)
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.Errorf("rate limit must be positive, got %d per %s", c.RateLimit.Max, c.RateLimit.Window)
	}
	if c.Session.SweepInterval <= 0 {
		return errors.Errorf("session sweep interval must be positive, got %s", c.Session.SweepInterval)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's OKAZJE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
