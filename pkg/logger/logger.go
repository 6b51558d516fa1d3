// Package logger writes one JSON object per line for every logged event.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	UserID    *string                `json:"user_id,omitempty"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     string                 `json:"error,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Logger is safe for concurrent use. A nil *Logger discards everything.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	color     bool
	requestID string
}

var globalLogger *Logger

func New(output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		mu:     &sync.Mutex{},
		output: output,
		color:  output == os.Stdout,
	}
}

// Init installs a stdout logger as the package-level logger.
func Init() {
	globalLogger = New(os.Stdout)
}

// SetOutput replaces the package-level logger with one writing to w.
// A nil w disables package-level logging.
func SetOutput(w io.Writer) {
	if w == nil {
		globalLogger = nil
		return
	}
	globalLogger = New(w)
}

// WithRequestID returns a copy of l that stamps every entry with id.
func (l *Logger) WithRequestID(id string) *Logger {
	if l == nil {
		return nil
	}
	scoped := *l
	scoped.requestID = id
	return &scoped
}

func (l *Logger) log(level LogLevel, action string, userID *string, details map[string]interface{}, err error) {
	if l == nil {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		UserID:    userID,
		Action:    action,
		RequestID: l.requestID,
	}
	if details != nil {
		entry.Details = Redact(details)
	}
	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		data, _ = json.Marshal(LogEntry{
			Timestamp: entry.Timestamp,
			Level:     LevelError,
			Action:    action,
			Error:     "unserializable log details: " + marshalErr.Error(),
			RequestID: l.requestID,
		})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.color {
		var colorCode string
		switch level {
		case LevelError:
			colorCode = "\033[31m"
		case LevelWarn:
			colorCode = "\033[33m"
		default:
			colorCode = "\033[36m"
		}
		fmt.Fprintf(l.output, "%s%s\033[0m\n", colorCode, data)
		return
	}
	fmt.Fprintf(l.output, "%s\n", data)
}

func (l *Logger) Info(action string, details map[string]interface{}) {
	l.log(LevelInfo, action, nil, details, nil)
}

func (l *Logger) InfoWithUser(userID string, action string, details map[string]interface{}) {
	l.log(LevelInfo, action, &userID, details, nil)
}

func (l *Logger) Warn(action string, details map[string]interface{}) {
	l.log(LevelWarn, action, nil, details, nil)
}

func (l *Logger) Error(action string, err error, details map[string]interface{}) {
	l.log(LevelError, action, nil, details, err)
}

func Info(action string, details map[string]interface{}) {
	globalLogger.Info(action, details)
}

func InfoWithUser(userID string, action string, details map[string]interface{}) {
	globalLogger.InfoWithUser(userID, action, details)
}

func Warn(action string, details map[string]interface{}) {
	globalLogger.Warn(action, details)
}

func Error(action string, err error, details map[string]interface{}) {
	globalLogger.Error(action, err, details)
}

type contextKey struct{}

// NewContext stores the request id in ctx.
func NewContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// FromContext returns the package-level logger scoped to ctx's request id.
func FromContext(ctx context.Context) *Logger {
	return globalLogger.WithRequestID(RequestID(ctx))
}

func GenerateRequestID() string {
	return uuid.New().String()
}

var sensitiveFields = []string{"password", "password1", "password2", "token", "access", "secret"}

// Redact returns a copy of fields with sensitive values masked. Every entry's
// details pass through it before they are written.
func Redact(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, field := range sensitiveFields {
		if _, exists := out[field]; exists {
			out[field] = "[REDACTED]"
		}
	}
	return out
}
