// Package config provides environment-driven configuration for the blog:
// log level, listen address, database, session and mail settings.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/inkpost/blog/util/random"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("BLOG_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("BLOG_DEBUG") == "true"
}

func GetLogFolder() string {
	return getEnvString("BLOG_LOG_FOLDER", "log")
}

func GetListen() string {
	return os.Getenv("BLOG_LISTEN")
}

func GetPort() int {
	return getEnvInt("BLOG_PORT", 5000)
}

var (
	sessionSecret     string
	sessionSecretOnce sync.Once
)

// GetSessionSecret returns the cookie signing key. Without BLOG_SESSION_SECRET
// a random key is generated once per process, so sessions do not survive a restart.
func GetSessionSecret() string {
	if secret := os.Getenv("BLOG_SESSION_SECRET"); secret != "" {
		return secret
	}
	sessionSecretOnce.Do(func() {
		sessionSecret = random.Seq(32)
	})
	return sessionSecret
}

// GetSessionMaxAge returns the session cookie lifetime in seconds.
func GetSessionMaxAge() int {
	return getEnvInt("BLOG_SESSION_MAX_AGE", 86400)
}

// GetRateLimit returns how many form submissions per minute a single client
// may make against the login, register, comment and contact endpoints.
func GetRateLimit() int {
	return getEnvInt("BLOG_RATE_LIMIT", 30)
}

func IsMetricsEnabled() bool {
	return getEnvString("METRICS_ENABLED", "true") == "true"
}

func GetListenAddr() string {
	return fmt.Sprintf("%s:%d", GetListen(), GetPort())
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
