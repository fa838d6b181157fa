package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StdoutAuditLogger writes lifecycle events (startup, shutdown) to the
// process log. Workflow transitions use internal/auditlog instead.
type StdoutAuditLogger struct {
	logger *zap.Logger
}

func NewStdoutAuditLogger() *StdoutAuditLogger {
	return &StdoutAuditLogger{logger: zap.L().Named("lifecycle")}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	fields := []zap.Field{
		zap.Time("at", time.Now().UTC()),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
	}
	if entry.Meta != nil {
		fields = append(fields, zap.Any("meta", entry.Meta))
	}
	l.logger.Info("lifecycle event", fields...)
}
