package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strutil "owndrob/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr         string
	CORSOrigin   string
	DatabaseURL  string
	SessionStore string
	SessionTTL   time.Duration
	// RequireSession gates publish and claim routes behind a signed-in session.
	RequireSession bool
	SecureCookie   bool
	RequestTimeout time.Duration
	LogLevel       string
	Redis          RedisConfig
	ObjectStore    ObjectStoreConfig
	Admission      AdmissionConfig
	Mirror         MirrorConfig
	Audit          AuditConfig
	Lockout        LockoutConfig
	ShutdownGrace  time.Duration
}

// RedisConfig configures the optional Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ObjectStoreConfig selects and configures the content-addressed store.
type ObjectStoreConfig struct {
	Backend    string // pinata | memory
	JWT        string
	APIURL     string
	UploadsURL string
	GatewayURL string
	// Timeout bounds every single upstream call.
	Timeout time.Duration
}

// AdmissionConfig bounds the claim write path.
type AdmissionConfig struct {
	// WriteTimeout bounds the constraint-checked insert, which runs detached
	// from request cancellation.
	WriteTimeout time.Duration
}

// MirrorConfig drives the ownership mirror reconciler.
type MirrorConfig struct {
	Interval  time.Duration
	BatchSize int
}

// AuditConfig configures the audit event sink. No brokers means log-only.
type AuditConfig struct {
	Brokers []string
	Topic   string
}

// LockoutConfig throttles repeated sign-in failures.
type LockoutConfig struct {
	Attempts int
	Window   time.Duration
	Duration time.Duration
}

const (
	ObjectStorePinata = "pinata"
	ObjectStoreMemory = "memory"

	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
	SessionStoreMemory   = "memory"
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           envString("OWNDROB_ADDR", ":3001"),
		CORSOrigin:     envString("CORS_ORIGIN", "http://localhost:5173"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SessionStore:   envString("SESSION_STORE", SessionStorePostgres),
		SessionTTL:     envDuration("SESSION_TTL", 24*time.Hour),
		RequireSession: envBool("REQUIRE_SESSION", false),
		SecureCookie:   envBool("SESSION_COOKIE_SECURE", false),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 60*time.Second),
		LogLevel:       envString("LOG_LEVEL", "info"),
		ShutdownGrace:  envDuration("SHUTDOWN_GRACE", 10*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		ObjectStore: ObjectStoreConfig{
			Backend:    envString("OBJECT_STORE", ObjectStorePinata),
			JWT:        os.Getenv("PINATA_JWT"),
			APIURL:     envString("PINATA_API_URL", "https://api.pinata.cloud"),
			UploadsURL: envString("PINATA_UPLOADS_URL", "https://uploads.pinata.cloud"),
			GatewayURL: envString("GATEWAY_URL", "gateway.pinata.cloud"),
			Timeout:    envDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		},
		Admission: AdmissionConfig{
			WriteTimeout: envDuration("CLAIM_WRITE_TIMEOUT", 5*time.Second),
		},
		Mirror: MirrorConfig{
			Interval:  envDuration("MIRROR_RECONCILE_INTERVAL", time.Minute),
			BatchSize: envInt("MIRROR_RECONCILE_BATCH", 50),
		},
		Audit: AuditConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("AUDIT_TOPIC", "owndrob.audit"),
		},
		Lockout: LockoutConfig{
			Attempts: envInt("SIGNIN_MAX_ATTEMPTS", 5),
			Window:   envDuration("SIGNIN_FAILURE_WINDOW", 15*time.Minute),
			Duration: envDuration("SIGNIN_LOCKOUT", 15*time.Minute),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key string) []string {
	return strutil.SplitList(os.Getenv(key), ",")
}
