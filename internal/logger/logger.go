package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Production gets JSON output at info level,
// everything else gets the colored console encoder at debug level.
func New(production bool) (*zap.Logger, error) {
	if production {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// MaskURI hides the password of a connection string so it can be logged.
func MaskURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at == -1 {
		return uri
	}
	start := 0
	if i := strings.Index(uri, "://"); i != -1 && i < at {
		start = i + 3
	}
	creds := uri[start:at]
	colon := strings.Index(creds, ":")
	if colon == -1 {
		return uri
	}
	return uri[:start] + creds[:colon] + ":***" + uri[at:]
}
