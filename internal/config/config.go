package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultGRPCAddr is the default bind address for the RPC surface.
	DefaultGRPCAddr = "127.0.0.1:50051"

	// DefaultLiveBaseURL is the vendor live-client-data HTTPS endpoint.
	DefaultLiveBaseURL = "https://127.0.0.1:2999"

	// DefaultHeartbeatInterval is reserved for periodic heartbeats (bootstrap only).
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultPollIntervalCombat is the Activity Governor's Combat-state poll cadence.
	DefaultPollIntervalCombat = 150 * time.Millisecond
	// DefaultPollIntervalNormal is the Activity Governor's Normal-state poll cadence.
	DefaultPollIntervalNormal = 750 * time.Millisecond
	// DefaultPollIntervalIdle is the Activity Governor's Idle-state poll cadence.
	DefaultPollIntervalIdle = 1500 * time.Millisecond
	// DefaultCombatCooldown is the elapsed-time threshold demoting Combat to Normal.
	DefaultCombatCooldown = 5 * time.Second
	// DefaultIdleCooldown is the elapsed-time threshold demoting Normal to Idle.
	DefaultIdleCooldown = 20 * time.Second
	// DefaultErrorBackoff is the delay returned after a poll error.
	DefaultErrorBackoff = time.Second

	// DefaultLCUDiscoveryInterval is the lockfile re-scan cadence while undiscovered.
	DefaultLCUDiscoveryInterval = 2 * time.Second
	// DefaultLCURetryDelay is the WebSocket reconnect cadence after a disconnect.
	DefaultLCURetryDelay = 3 * time.Second

	// DefaultLogLevel controls verbosity for daemon logs.
	DefaultLogLevel = "info"
	// DefaultLogPath is where structured logs are written.
	DefaultLogPath = "levents.log"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 10
	// DefaultLogMaxAgeDays controls how long rotated log files are kept on disk.
	DefaultLogMaxAgeDays = 7
	// DefaultLogCompress toggles gzip compression for rotated log files.
	DefaultLogCompress = true
)

// Config captures all runtime tunables for the daemon, per the DaemonConfig
// surface named in spec.md §6.
type Config struct {
	HeartbeatInterval time.Duration

	LiveBaseURL string

	PollIntervalCombat time.Duration
	PollIntervalNormal time.Duration
	PollIntervalIdle   time.Duration
	CombatCooldown     time.Duration
	IdleCooldown       time.Duration
	ErrorBackoff       time.Duration

	// LCULockfile is the explicit config override named in spec.md §6;
	// it is left for an external bootstrap layer to populate (e.g. a flag),
	// since command-line parsing is out of scope here.
	LCULockfile string
	// LCULockfileEnvOverride is LEVENTS_LCU_LOCKFILE: an additional path
	// inserted after the explicit override, ahead of platform defaults.
	LCULockfileEnvOverride string
	LCUDiscoveryInterval   time.Duration
	LCURetryDelay          time.Duration

	// GRPCAddr is read from LEVENTS_GRPC_ADDR per spec.md §6.
	GRPCAddr string
	// GRPCTLSCertPath/GRPCTLSKeyPath enable mTLS on the RPC surface when both are set.
	GRPCTLSCertPath string
	GRPCTLSKeyPath  string
	GRPCClientCA    string

	Logging LoggingConfig
}

// LoggingConfig captures structured logging configuration options.
type LoggingConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load reads the daemon configuration from environment variables, applying
// sane defaults and returning descriptive errors for invalid overrides.
func Load() (*Config, error) {
	cfg := &Config{
		HeartbeatInterval: DefaultHeartbeatInterval,

		LiveBaseURL: strings.TrimRight(getString("LEVENTS_LIVE_BASE_URL", DefaultLiveBaseURL), "/"),

		PollIntervalCombat: DefaultPollIntervalCombat,
		PollIntervalNormal: DefaultPollIntervalNormal,
		PollIntervalIdle:   DefaultPollIntervalIdle,
		CombatCooldown:     DefaultCombatCooldown,
		IdleCooldown:       DefaultIdleCooldown,
		ErrorBackoff:       DefaultErrorBackoff,

		LCULockfileEnvOverride: strings.TrimSpace(os.Getenv("LEVENTS_LCU_LOCKFILE")),
		LCUDiscoveryInterval:   DefaultLCUDiscoveryInterval,
		LCURetryDelay:          DefaultLCURetryDelay,

		GRPCAddr:        getString("LEVENTS_GRPC_ADDR", DefaultGRPCAddr),
		GRPCTLSCertPath: strings.TrimSpace(os.Getenv("LEVENTS_GRPC_TLS_CERT")),
		GRPCTLSKeyPath:  strings.TrimSpace(os.Getenv("LEVENTS_GRPC_TLS_KEY")),
		GRPCClientCA:    strings.TrimSpace(os.Getenv("LEVENTS_GRPC_CLIENT_CA")),

		Logging: LoggingConfig{
			Level:      strings.TrimSpace(getString("LEVENTS_LOG_LEVEL", DefaultLogLevel)),
			Path:       strings.TrimSpace(getString("LEVENTS_LOG_PATH", DefaultLogPath)),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   DefaultLogCompress,
		},
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("LEVENTS_HEARTBEAT_INTERVAL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("LEVENTS_HEARTBEAT_INTERVAL must be a positive duration, got %q", raw))
		} else {
			cfg.HeartbeatInterval = duration
		}
	}

	parseDurationEnv(&problems, "LEVENTS_POLL_COMBAT", &cfg.PollIntervalCombat)
	parseDurationEnv(&problems, "LEVENTS_POLL_NORMAL", &cfg.PollIntervalNormal)
	parseDurationEnv(&problems, "LEVENTS_POLL_IDLE", &cfg.PollIntervalIdle)
	parseDurationEnv(&problems, "LEVENTS_COMBAT_COOLDOWN", &cfg.CombatCooldown)
	parseDurationEnv(&problems, "LEVENTS_IDLE_COOLDOWN", &cfg.IdleCooldown)
	parseDurationEnv(&problems, "LEVENTS_ERROR_BACKOFF", &cfg.ErrorBackoff)
	parseDurationEnv(&problems, "LEVENTS_LCU_DISCOVERY_INTERVAL", &cfg.LCUDiscoveryInterval)
	parseDurationEnv(&problems, "LEVENTS_LCU_RETRY_DELAY", &cfg.LCURetryDelay)

	if raw := strings.TrimSpace(os.Getenv("LEVENTS_LOG_MAX_SIZE_MB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("LEVENTS_LOG_MAX_SIZE_MB must be a positive integer, got %q", raw))
		} else {
			cfg.Logging.MaxSizeMB = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LEVENTS_LOG_MAX_BACKUPS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("LEVENTS_LOG_MAX_BACKUPS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxBackups = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LEVENTS_LOG_MAX_AGE_DAYS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("LEVENTS_LOG_MAX_AGE_DAYS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxAgeDays = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LEVENTS_LOG_COMPRESS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("LEVENTS_LOG_COMPRESS must be a boolean value, got %q", raw))
		} else {
			cfg.Logging.Compress = value
		}
	}

	if cfg.LiveBaseURL == "" {
		problems = append(problems, "LEVENTS_LIVE_BASE_URL must not be empty")
	}

	if (cfg.GRPCTLSCertPath == "") != (cfg.GRPCTLSKeyPath == "") {
		problems = append(problems, "LEVENTS_GRPC_TLS_CERT and LEVENTS_GRPC_TLS_KEY must be provided together")
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

func parseDurationEnv(problems *[]string, key string, dest *time.Duration) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	duration, err := time.ParseDuration(raw)
	if err != nil || duration <= 0 {
		*problems = append(*problems, fmt.Sprintf("%s must be a positive duration, got %q", key, raw))
		return
	}
	*dest = duration
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
