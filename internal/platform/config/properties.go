package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Properties is a runtime property store. Keys use the dotted property form
// ("hwc.video.extmode.enable") and are looked up on every call, first in the
// optional properties file, then in the process environment under the
// upper-cased, underscore-separated name (HWC_VIDEO_EXTMODE_ENABLE).
type Properties struct {
	// File is re-read on each lookup so values can change without a restart.
	// Empty disables file lookups.
	File string
}

// NewProperties returns a Properties reading from file (may be empty).
func NewProperties(file string) *Properties {
	return &Properties{File: file}
}

// EnvKey converts a dotted property key to its environment variable name.
func EnvKey(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Get returns the raw value for key and whether it was set anywhere.
func (p *Properties) Get(key string) (string, bool) {
	if p != nil && p.File != "" {
		if values, err := godotenv.Read(p.File); err == nil {
			if v, ok := values[key]; ok && v != "" {
				return v, true
			}
			if v, ok := values[EnvKey(key)]; ok && v != "" {
				return v, true
			}
		}
	}
	if v := os.Getenv(EnvKey(key)); v != "" {
		return v, true
	}
	return "", false
}

// GetBool returns the boolean value of key, or fallback if it is unset or
// not parseable. Integer values follow the "non-zero is true" convention.
func (p *Properties) GetBool(key string, fallback bool) bool {
	v, ok := p.Get(key)
	if !ok {
		return fallback
	}
	if b, ok := parseBool(v); ok {
		return b
	}
	return fallback
}
