package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Label    LabelConfig    `json:"label"`
	PDF      PDFConfig      `json:"pdf"`
	Logging  LoggingConfig  `json:"logging"`
}

type DatabaseConfig struct {
	Driver             string          `json:"driver"` // mysql or sqlite
	Host               string          `json:"host"`
	Port               int             `json:"port"`
	Database           string          `json:"database"`
	Username           string          `json:"username"`
	Password           string          `json:"password"`
	MaxOpenConns       int             `json:"max_open_conns"`
	MaxIdleConns       int             `json:"max_idle_conns"`
	ConnMaxLifetime    time.Duration   `json:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration   `json:"conn_max_idle_time"`
	SlowQueryThreshold time.Duration   `json:"slow_query_threshold"`
	EnableQueryLogging bool            `json:"enable_query_logging"`
	LogLevel           logger.LogLevel `json:"-"` // Not serializable
	PrepareStmt        bool            `json:"prepare_stmt"`
}

type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
	Mode string `json:"mode"` // gin mode: debug, release, test
}

// LabelConfig tunes barcode rasterization and sheet content.
type LabelConfig struct {
	DefaultSymbology    string `json:"default_symbology"`
	QRSize              int    `json:"qr_size"`
	ModuleWidthPx       int    `json:"module_width_px"`
	BarcodeHeightPx     int    `json:"barcode_height_px"`
	QuietZoneModules    int    `json:"quiet_zone_modules"`
	VerifyImages        bool   `json:"verify_images"`
	LogoPath            string `json:"logo_path"`
	CurrencySymbol      string `json:"currency_symbol"`
	DefaultTemplateName string `json:"default_template_name"`
}

type PDFConfig struct {
	PaperSize   string             `json:"paper_size"`
	Orientation string             `json:"orientation"` // P or L
	Margins     map[string]float64 `json:"margins"`     // mm
}

type LoggingConfig struct {
	Level       string `json:"level"`
	File        string `json:"file"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}

// LoadConfig builds the configuration from defaults, an optional .env file,
// the JSON file at path and the environment. Environment wins.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := getDefaultConfig()

	loadFromEnvironment(config)

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
		// Override again with environment variables to give them priority
		loadFromEnvironment(config)
	}

	if config.Database.EnableQueryLogging {
		config.Database.LogLevel = logger.Info
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c)
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	switch strings.ToUpper(c.Label.DefaultSymbology) {
	case "EAN13", "EAN8", "UPCA", "CODE128", "CODE39", "QR":
	default:
		return fmt.Errorf("config: unsupported default symbology %q", c.Label.DefaultSymbology)
	}
	if c.Label.QRSize <= 0 || c.Label.ModuleWidthPx <= 0 || c.Label.BarcodeHeightPx <= 0 {
		return fmt.Errorf("config: label image sizes must be positive")
	}
	if c.Label.QuietZoneModules < 0 {
		return fmt.Errorf("config: quiet zone must not be negative")
	}
	switch c.PDF.Orientation {
	case "P", "L":
	default:
		return fmt.Errorf("config: pdf orientation must be P or L, got %q", c.PDF.Orientation)
	}
	return nil
}

func getDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:             "mysql",
			Host:               "localhost",
			Port:               3306,
			Database:           "labels",
			Username:           "root",
			Password:           "",
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetime:    5 * time.Minute,
			ConnMaxIdleTime:    5 * time.Minute,
			SlowQueryThreshold: 500 * time.Millisecond,
			EnableQueryLogging: false,
			LogLevel:           logger.Warn,
			PrepareStmt:        true,
		},
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
			Mode: "release",
		},
		Label: LabelConfig{
			DefaultSymbology:    "EAN13",
			QRSize:              256,
			ModuleWidthPx:       2,
			BarcodeHeightPx:     100,
			QuietZoneModules:    10,
			VerifyImages:        false,
			LogoPath:            "",
			CurrencySymbol:      "€",
			DefaultTemplateName: "Default 50x30",
		},
		PDF: PDFConfig{
			PaperSize:   "A4",
			Orientation: "P",
			Margins: map[string]float64{
				"top":    10,
				"bottom": 10,
				"left":   10,
				"right":  10,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			File:        "stdout",
			Service:     "label-printer",
			Environment: "production",
		},
	}
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *Config) {
	// Database configuration
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Database.Port = p
		}
	}
	if database := os.Getenv("DB_NAME"); database != "" {
		config.Database.Database = database
	}
	if username := os.Getenv("DB_USERNAME"); username != "" {
		config.Database.Username = username
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}
	config.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", config.Database.MaxOpenConns)
	config.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", config.Database.MaxIdleConns)
	config.Database.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", config.Database.ConnMaxLifetime)
	config.Database.SlowQueryThreshold = getEnvAsDuration("DB_SLOW_QUERY_THRESHOLD", config.Database.SlowQueryThreshold)
	config.Database.EnableQueryLogging = getEnvAsBool("DB_ENABLE_QUERY_LOGGING", config.Database.EnableQueryLogging)

	// Server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	// Label configuration
	if symbology := os.Getenv("LABEL_DEFAULT_SYMBOLOGY"); symbology != "" {
		config.Label.DefaultSymbology = strings.ToUpper(symbology)
	}
	config.Label.QRSize = getEnvAsInt("LABEL_QR_SIZE", config.Label.QRSize)
	config.Label.ModuleWidthPx = getEnvAsInt("LABEL_MODULE_WIDTH_PX", config.Label.ModuleWidthPx)
	config.Label.BarcodeHeightPx = getEnvAsInt("LABEL_BARCODE_HEIGHT_PX", config.Label.BarcodeHeightPx)
	config.Label.VerifyImages = getEnvAsBool("LABEL_VERIFY_IMAGES", config.Label.VerifyImages)
	if logo := os.Getenv("LABEL_LOGO_PATH"); logo != "" {
		config.Label.LogoPath = logo
	}
	if symbol := os.Getenv("CURRENCY_SYMBOL"); symbol != "" {
		config.Label.CurrencySymbol = symbol
	}

	// PDF configuration
	if size := os.Getenv("PDF_PAPER_SIZE"); size != "" {
		config.PDF.PaperSize = size
	}
	if orientation := os.Getenv("PDF_ORIENTATION"); orientation != "" {
		config.PDF.Orientation = strings.ToUpper(orientation)
	}

	// Logging configuration
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		config.Logging.File = file
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.Logging.Environment = env
	}
}
