package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// maxRefreshHz bounds HWC_REFRESH_HZ so the refresh interval stays non-zero.
const maxRefreshHz = 1000

// Config is the daemon's startup configuration.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	// MaxLayers caps hardware layers per commit; 0 means the compositor default.
	MaxLayers int
	RefreshHz int
	Displays  int

	SuppressOverlayWhilePreparing bool

	// PropertiesFile backs runtime properties. Empty means environment only.
	PropertiesFile string
}

// Load reads .env (or the given files) into the process environment. A
// missing file is reported but harmless: the environment and defaults apply.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// FromEnv builds a Config from the environment, replacing out of range values
// with defaults.
func FromEnv() Config {
	c := Config{
		Port:                          GetEnv("PORT", "8080"),
		LogLevel:                      GetEnv("LOG_LEVEL", "info"),
		LogFormat:                     GetEnv("LOG_FORMAT", "json"),
		MaxLayers:                     GetEnvInt("HWC_MAX_LAYERS", 0),
		RefreshHz:                     GetEnvInt("HWC_REFRESH_HZ", 60),
		Displays:                      GetEnvInt("HWC_DISPLAYS", 2),
		SuppressOverlayWhilePreparing: GetEnvBool("HWC_SUPPRESS_OVERLAY_WHILE_PREPARING", false),
		PropertiesFile:                GetEnv("HWC_PROPERTIES_FILE", ""),
	}
	if c.MaxLayers < 0 {
		c.MaxLayers = 0
	}
	if c.RefreshHz <= 0 || c.RefreshHz > maxRefreshHz {
		c.RefreshHz = 60
	}
	if c.Displays <= 0 {
		c.Displays = 1
	}
	return c
}

// GetEnv returns the value of key, or fallback if unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns key as an integer, or fallback.
func GetEnvInt(key string, fallback int) int {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool returns key as a boolean, or fallback.
func GetEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, ok := parseBool(s); ok {
			return b
		}
	}
	return fallback
}

// parseBool accepts strconv spellings and integers, where non-zero is true.
func parseBool(s string) (bool, bool) {
	s = strings.TrimSpace(s)
	if b, err := strconv.ParseBool(s); err == nil {
		return b, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n != 0, true
	}
	return false, false
}
