package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

// AttendanceConfig holds the session engine settings
type AttendanceConfig struct {
	Timezone         string
	Location         *time.Location
	LateGraceMinutes int
	MaxSessionAge    time.Duration
	OperationTimeout time.Duration
	ConflictRetries  int
	StaleJobInterval time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "rfid_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "8h"),
	}

	// Attendance configuration
	grace, err := strconv.Atoi(getEnv("LATE_GRACE_MINUTES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LATE_GRACE_MINUTES: %w", err)
	}
	maxHours, err := strconv.Atoi(getEnv("MAX_SESSION_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_SESSION_HOURS: %w", err)
	}
	opTimeout, err := time.ParseDuration(getEnv("ATTENDANCE_OP_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_OP_TIMEOUT: %w", err)
	}
	retries, err := strconv.Atoi(getEnv("ATTENDANCE_CONFLICT_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_CONFLICT_RETRIES: %w", err)
	}
	jobInterval, err := time.ParseDuration(getEnv("STALE_SESSION_JOB_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STALE_SESSION_JOB_INTERVAL: %w", err)
	}

	config.Attendance = AttendanceConfig{
		Timezone:         getEnv("ORG_TIMEZONE", "America/Bogota"),
		LateGraceMinutes: grace,
		MaxSessionAge:    time.Duration(maxHours) * time.Hour,
		OperationTimeout: opTimeout,
		ConflictRetries:  retries,
		StaleJobInterval: jobInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration and resolves the organization timezone
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}

	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		return fmt.Errorf("invalid ORG_TIMEZONE %q: %w", c.Attendance.Timezone, err)
	}
	c.Attendance.Location = loc

	if c.Attendance.LateGraceMinutes < 0 {
		return fmt.Errorf("LATE_GRACE_MINUTES must not be negative")
	}
	if c.Attendance.MaxSessionAge <= 0 || c.Attendance.MaxSessionAge > 24*time.Hour {
		return fmt.Errorf("MAX_SESSION_HOURS must be between 1 and 24")
	}
	if c.Attendance.OperationTimeout <= 0 {
		return fmt.Errorf("ATTENDANCE_OP_TIMEOUT must be positive")
	}
	if c.Attendance.ConflictRetries < 0 {
		return fmt.Errorf("ATTENDANCE_CONFLICT_RETRIES must not be negative")
	}
	if c.Attendance.StaleJobInterval <= 0 {
		return fmt.Errorf("STALE_SESSION_JOB_INTERVAL must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
