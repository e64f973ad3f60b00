package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents logging severity levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns string representation of log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string onto a LogLevel. Unknown values map to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// StructuredLogger provides production-ready logging
type StructuredLogger struct {
	zl *zap.Logger
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level        LogLevel
	Service      string
	Version      string
	Environment  string
	OutputPath   string
	EnableCaller bool
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(config LoggerConfig) (*StructuredLogger, error) {
	var sink zapcore.WriteSyncer

	if config.OutputPath == "" || config.OutputPath == "stdout" {
		sink = zapcore.Lock(os.Stdout)
	} else {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, config.Level.zapLevel())

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if config.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	zl := zap.New(core, opts...).With(
		zap.String("service", config.Service),
		zap.String("version", config.Version),
		zap.String("environment", config.Environment),
	)

	return &StructuredLogger{zl: zl}, nil
}

// New wraps an existing zap logger.
func New(zl *zap.Logger) *StructuredLogger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &StructuredLogger{zl: zl}
}

// NewNop returns a logger that discards everything.
func NewNop() *StructuredLogger {
	return &StructuredLogger{zl: zap.NewNop()}
}

// RedirectStdLog routes the standard library logger into this logger at
// info level until the returned func is called.
func (sl *StructuredLogger) RedirectStdLog() func() {
	return zap.RedirectStdLog(sl.zl)
}

// Sync flushes buffered entries.
func (sl *StructuredLogger) Sync() error {
	return sl.zl.Sync()
}

// Debug logs debug messages
func (sl *StructuredLogger) Debug(message string, fields ...map[string]interface{}) {
	sl.zl.Debug(message, toZap(mergeFields(fields...))...)
}

// Info logs info messages
func (sl *StructuredLogger) Info(message string, fields ...map[string]interface{}) {
	sl.zl.Info(message, toZap(mergeFields(fields...))...)
}

// Warn logs warning messages
func (sl *StructuredLogger) Warn(message string, fields ...map[string]interface{}) {
	sl.zl.Warn(message, toZap(mergeFields(fields...))...)
}

// Error logs error messages
func (sl *StructuredLogger) Error(message string, err error, fields ...map[string]interface{}) {
	logFields := mergeFields(fields...)
	if err != nil {
		logFields["error"] = err.Error()
	}
	sl.zl.Error(message, toZap(logFields)...)
}

// LogRequest logs HTTP request details
func (sl *StructuredLogger) LogRequest(c *gin.Context, duration time.Duration, fields ...map[string]interface{}) {
	logFields := mergeFields(fields...)
	logFields["request_id"] = requestID(c)
	logFields["method"] = c.Request.Method
	logFields["path"] = c.Request.URL.Path
	logFields["status_code"] = c.Writer.Status()
	logFields["duration"] = duration.String()
	logFields["ip"] = c.ClientIP()
	logFields["user_agent"] = c.GetHeader("User-Agent")

	switch {
	case c.Writer.Status() >= 500:
		sl.zl.Error("HTTP Request", toZap(logFields)...)
	case c.Writer.Status() >= 400:
		sl.zl.Warn("HTTP Request", toZap(logFields)...)
	default:
		sl.zl.Info("HTTP Request", toZap(logFields)...)
	}
}

// LogBusinessEvent logs business-specific events
func (sl *StructuredLogger) LogBusinessEvent(event string, resource string, operation string, fields ...map[string]interface{}) {
	logFields := mergeFields(fields...)
	logFields["component"] = "business"
	logFields["operation"] = operation
	logFields["resource"] = resource

	sl.zl.Info(event, toZap(logFields)...)
}

// LogSystemEvent logs system-level events
func (sl *StructuredLogger) LogSystemEvent(event string, fields ...map[string]interface{}) {
	logFields := mergeFields(fields...)
	logFields["component"] = "system"

	sl.zl.Info(event, toZap(logFields)...)
}

func mergeFields(fields ...map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, field := range fields {
		for k, v := range field {
			result[k] = v
		}
	}
	return result
}

func toZap(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// requestID extracts or generates request ID
func requestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
