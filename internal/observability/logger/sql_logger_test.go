package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestSummarizeStatement(t *testing.T) {
	cases := []struct {
		sql  string
		want Statement
	}{
		{`SELECT * FROM "inventories" WHERE "inventories"."id" = $1`, Statement{"SELECT", "inventories"}},
		{`INSERT INTO "event_materials" ("id","event_id") VALUES ($1,$2)`, Statement{"INSERT", "event_materials"}},
		{"UPDATE `materials` SET `stock_quantity`=? WHERE `id` = ?", Statement{"UPDATE", "materials"}},
		{`DELETE FROM "inventory_materials" WHERE inventory_id = $1`, Statement{"DELETE", "inventory_materials"}},
		{`SELECT count(*) FROM "materials" WHERE tax_id = $1`, Statement{"SELECT", "materials"}},
		{"", Statement{"UNKNOWN", ""}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SummarizeStatement(tc.sql), tc.sql)
	}
}

func TestParseSQLLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseSQLLevel("off"))
	assert.Equal(t, gormlogger.Error, ParseSQLLevel("ERROR"))
	assert.Equal(t, gormlogger.Info, ParseSQLLevel("debug"))
	assert.Equal(t, gormlogger.Warn, ParseSQLLevel(""))
	assert.Equal(t, gormlogger.Warn, ParseSQLLevel("loud"))
}

func observeGlobal(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestTraceSkipsMissingRows(t *testing.T) {
	logs := observeGlobal(t)
	l := NewSQLLogger(SQLConfig{Level: gormlogger.Warn, SlowThreshold: time.Second})
	stmt := func() (string, int64) { return `SELECT * FROM "documents" WHERE id = $1`, 0 }

	l.Trace(context.Background(), time.Now(), stmt, gormlogger.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now(), stmt, nil)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), stmt, errors.New("connection reset"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "documents", entry.ContextMap()["db.table"])
	assert.Equal(t, "SELECT", entry.ContextMap()["db.operation"])
}

func TestTraceWarnsOnSlowStatements(t *testing.T) {
	logs := observeGlobal(t)
	l := NewSQLLogger(SQLConfig{Level: gormlogger.Warn, SlowThreshold: 100 * time.Millisecond})

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return `UPDATE "materials" SET "stock_quantity"=$1`, 3
	}, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "materials", entry.ContextMap()["db.table"])
	assert.Equal(t, int64(3), entry.ContextMap()["rows_affected"])
}

func TestSilentLoggerWritesNothing(t *testing.T) {
	logs := observeGlobal(t)
	l := NewSQLLogger(SQLConfig{Level: gormlogger.Warn}).LogMode(gormlogger.Silent)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	l.Error(context.Background(), "boom")
	assert.Equal(t, 0, logs.Len())
}
