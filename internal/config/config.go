package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ProjectID      string
	Region         string
	LogLevel       string
	Environment    string
	RedisAddr      string
	DataServiceURL string
	BatchTTL       time.Duration
	RefreshEvery   time.Duration
}

func New() *Config {
	return &Config{
		ProjectID:      os.Getenv("PROJECTID"),
		Region:         os.Getenv("REGION"),
		LogLevel:       os.Getenv("LOGLEVEL"),
		Environment:    getEnvironment(os.Getenv("ENVIRONMENT")),
		RedisAddr:      os.Getenv("REDISADDR"),
		DataServiceURL: os.Getenv("DATASERVICEURL"),
		BatchTTL:       getSeconds(os.Getenv("BATCHTTLSECONDS"), 30*time.Second),
		RefreshEvery:   getSeconds(os.Getenv("REFRESHINTERVALSECONDS"), 5*time.Minute),
	}
}

func getEnvironment(env string) string {
	switch env {
	case "development", "staging":
		return env
	default: // "production"
		return "production"
	}
}

func getSeconds(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
