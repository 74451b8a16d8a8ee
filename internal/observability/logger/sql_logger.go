package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// SQLConfig controls how much of the database traffic reaches the request log.
type SQLConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

// ParseSQLLevel maps DATABASE_LOG_LEVEL onto gorm levels; unknown values mean warn.
func ParseSQLLevel(raw string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "silent", "off", "none":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// Statement is the part of a SQL statement safe to put in a log line.
type Statement struct {
	Operation string
	Table     string
}

// SummarizeStatement extracts the verb and the first table a statement touches.
func SummarizeStatement(sql string) Statement {
	tokens := strings.Fields(sql)
	out := Statement{Operation: "UNKNOWN"}
	for i, token := range tokens {
		word := strings.ToUpper(strings.Trim(token, "();"))
		switch word {
		case "SELECT", "INSERT", "DELETE":
			if out.Operation == "UNKNOWN" {
				out.Operation = word
			}
		case "UPDATE":
			if out.Operation == "UNKNOWN" {
				out.Operation = word
				out.Table = tableAt(tokens, i+1)
			}
		case "FROM", "INTO":
			if out.Table == "" {
				out.Table = tableAt(tokens, i+1)
			}
		}
	}
	return out
}

func tableAt(tokens []string, i int) string {
	if i >= len(tokens) {
		return ""
	}
	return strings.Trim(tokens[i], "`\"();")
}

// SQLLogger writes gorm output through FromContext so statements carry the
// request, actor and trace ids of the call that issued them.
type SQLLogger struct {
	cfg SQLConfig
}

func NewSQLLogger(cfg SQLConfig) *SQLLogger {
	return &SQLLogger{cfg: cfg}
}

func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.cfg.Level = level
	return &next
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *SQLLogger) message(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, data []interface{}) {
	if l.cfg.Level < min {
		return
	}
	fields := []zap.Field{zap.String("component", "gorm")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}
	if ce := FromContext(ctx).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Trace logs failed and slow statements, and every statement at info.
// A missing row is how repositories report "not found" and is never an error here.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)

	var level zapcore.Level
	switch {
	case failed && l.cfg.Level >= gormlogger.Error:
		level = zapcore.ErrorLevel
	case l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold && l.cfg.Level >= gormlogger.Warn:
		level = zapcore.WarnLevel
	case l.cfg.Level >= gormlogger.Info:
		level = zapcore.DebugLevel
	default:
		return
	}

	sql, rows := fc()
	stmt := SummarizeStatement(sql)
	fields := []zap.Field{
		zap.String("component", "gorm"),
		zap.String("db.operation", stmt.Operation),
		zap.String("db.table", stmt.Table),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
		zap.String("sql", strings.TrimSpace(sql)),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	if failed {
		fields = append(fields, zap.Error(err))
	}

	if ce := FromContext(ctx).Check(level, "sql statement"); ce != nil {
		ce.Write(fields...)
	}
}

// ParamsFilter keeps bound values out of logged SQL.
func (l *SQLLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

var _ gormlogger.Interface = (*SQLLogger)(nil)
