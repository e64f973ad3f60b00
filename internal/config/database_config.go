package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm/logger"
)

// DSN returns the MySQL data source name, or the sqlite file path when the
// sqlite driver is selected.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Database
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s&readTimeout=30s&writeTimeout=30s",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// GormLogger creates a configured logger for GORM
func (c *DatabaseConfig) GormLogger() logger.Interface {
	level := c.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	if !c.EnableQueryLogging {
		// Only log errors in production
		level = logger.Error
	}

	return logger.New(
		log.Default(),
		logger.Config{
			SlowThreshold:             c.SlowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
