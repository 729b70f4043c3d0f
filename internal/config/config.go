package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Profile backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type AppConfig struct {
	ListenAddr string
	WSAddr     string
	StatusAddr string

	ProfilesPath   string
	ProfileBackend string
	RedisURL       string
	RedisKey       string

	DatabaseURL string

	RNGSeed          int64
	CancelWait       time.Duration
	AutosaveInterval time.Duration

	AdminConsole     bool
	AdminHistoryFile string

	MessagesDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:       ":1729",
		ProfilesPath:     "profiles.txt",
		ProfileBackend:   BackendFile,
		RedisKey:         "chessmatch:profiles",
		CancelWait:       30 * time.Second,
		AdminConsole:     true,
		AdminHistoryFile: ".chessadmin_history",
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.WSAddr = strings.TrimSpace(os.Getenv("WS_ADDR"))
	cfg.StatusAddr = strings.TrimSpace(os.Getenv("STATUS_ADDR"))

	if v := strings.TrimSpace(os.Getenv("PROFILES_PATH")); v != "" {
		cfg.ProfilesPath = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("PROFILE_BACKEND"))); v != "" {
		cfg.ProfileBackend = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("REDIS_PROFILES_KEY")); v != "" {
		cfg.RedisKey = v
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("RNG_SEED")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("RNG_SEED: %w", err)
		}
		cfg.RNGSeed = n
	}
	if v := strings.TrimSpace(os.Getenv("CANCEL_WAIT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CancelWait = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("AUTOSAVE_INTERVAL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AutosaveInterval = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("ADMIN_CONSOLE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.AdminConsole = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("ADMIN_HISTORY_FILE")); v != "" {
		cfg.AdminHistoryFile = v
	}
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	switch cfg.ProfileBackend {
	case BackendFile:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required when PROFILE_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("unknown PROFILE_BACKEND %q", cfg.ProfileBackend)
	}

	return cfg, nil
}
