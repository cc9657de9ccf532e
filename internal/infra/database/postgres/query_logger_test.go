package postgres_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/sectorwatch/internal/infra/database/postgres"
	"github.com/wonny/sectorwatch/internal/pkg/reqctx"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var events []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		events = append(events, ev)
	}
	return events
}

func TestQueryLogger_LogsSQLFromQueryStart(t *testing.T) {
	var buf bytes.Buffer
	ql := postgres.NewQueryLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	ctx := reqctx.WithRequestID(context.Background(), "req-1")
	ctx = ql.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: "SELECT id FROM watchlists WHERE user_id = $1"})
	ql.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 2")})

	events := decodeLines(t, &buf)
	require.Len(t, events, 1)
	assert.Equal(t, "debug", events[0]["level"])
	assert.Equal(t, "Query executed", events[0]["message"])
	assert.Equal(t, "SELECT id FROM watchlists WHERE user_id = $1", events[0]["sql"])
	assert.Equal(t, "SELECT 2", events[0]["command_tag"])
	assert.Equal(t, "req-1", events[0]["request_id"])
	assert.Contains(t, events[0], "duration_ms")
}

func TestQueryLogger_FailedQuery(t *testing.T) {
	var buf bytes.Buffer
	ql := postgres.NewQueryLogger(zerolog.New(&buf))

	ctx := ql.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "DELETE FROM users"})
	ql.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("connection reset")})

	events := decodeLines(t, &buf)
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0]["level"])
	assert.Equal(t, "Query failed", events[0]["message"])
	assert.Equal(t, "DELETE FROM users", events[0]["sql"])
	assert.Equal(t, "connection reset", events[0]["error"])
	assert.NotContains(t, events[0], "request_id")
}

func TestQueryLogger_EndWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	ql := postgres.NewQueryLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	assert.NotPanics(t, func() {
		ql.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})
	})
	events := decodeLines(t, &buf)
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0]["sql"])
}

func TestPgxZerologAdapter_ThroughTraceLog(t *testing.T) {
	var buf bytes.Buffer
	tracer := &tracelog.TraceLog{
		Logger:   postgres.NewPgxZerologAdapter(zerolog.New(&buf)),
		LogLevel: tracelog.LogLevelInfo,
	}
	conn := &pgx.Conn{}

	ctx := tracer.TraceQueryStart(context.Background(), conn, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	tracer.TraceQueryEnd(ctx, conn, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 1")})

	ctx = tracer.TraceQueryStart(context.Background(), conn, pgx.TraceQueryStartData{SQL: "SELECT broken"})
	tracer.TraceQueryEnd(ctx, conn, pgx.TraceQueryEndData{Err: errors.New("syntax error")})

	events := decodeLines(t, &buf)
	require.Len(t, events, 2)

	assert.Equal(t, "info", events[0]["level"])
	assert.Equal(t, "Query", events[0]["message"])
	assert.Equal(t, "SELECT 1", events[0]["sql"])
	assert.Equal(t, "SELECT 1", events[0]["commandTag"])

	assert.Equal(t, "error", events[1]["level"])
	assert.Equal(t, "SELECT broken", events[1]["sql"])
}

func TestPgxZerologAdapter_LevelMapping(t *testing.T) {
	tests := []struct {
		level tracelog.LogLevel
		want  string
	}{
		{tracelog.LogLevelTrace, "trace"},
		{tracelog.LogLevelDebug, "debug"},
		{tracelog.LogLevelInfo, "info"},
		{tracelog.LogLevelWarn, "warn"},
		{tracelog.LogLevelError, "error"},
		{tracelog.LogLevelNone, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			adapter := postgres.NewPgxZerologAdapter(zerolog.New(&buf).Level(zerolog.TraceLevel))

			adapter.Log(context.Background(), tt.level, "msg", map[string]interface{}{"pid": 42})

			events := decodeLines(t, &buf)
			require.Len(t, events, 1)
			assert.Equal(t, tt.want, events[0]["level"])
			assert.Equal(t, 42.0, events[0]["pid"])
		})
	}
}
