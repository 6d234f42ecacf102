package output

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/nicwaller/mcastlog/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogHandler(t *testing.T) {
	h := newHarness(t, MulticastOptions{RemoteHost: "239.1.1.1", Layout: codec.Json(), LocationInfo: true})
	h.sender.Open()

	logger := slog.New(NewSlogHandler(h.sender, &SlogHandlerOptions{Logger: "billing", Level: slog.LevelDebug}))
	logger.With("request", "r-1").WithGroup("db").Warn("slow query", "ms", 1200, slog.Group("conn", "host", "db-1"))

	sent := h.lastConn().datagrams()
	require.Len(t, sent, 1)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(sent[0], &fields))
	assert.Equal(t, "slow query", fields["message"])

	log := fields["log"].(map[string]any)
	assert.Equal(t, "WARN", log["level"])
	assert.Equal(t, "billing", log["logger"])
	assert.Contains(t, log, "origin")

	labels := fields["labels"].(map[string]any)
	assert.Equal(t, "r-1", labels["request"])
	assert.Equal(t, "1200", labels["db.ms"])
	assert.Equal(t, "db-1", labels["db.conn.host"])
	assert.Equal(t, h.sender.Hostname(), labels["hostname"])
}

func TestSlogHandler_Level(t *testing.T) {
	h := newHarness(t, MulticastOptions{RemoteHost: "239.1.1.1"})
	h.sender.Open()

	logger := slog.New(NewSlogHandler(h.sender, nil))
	logger.Debug("hidden")
	assert.Empty(t, h.lastConn().datagrams())

	logger.Error("shown")
	assert.Len(t, h.lastConn().datagrams(), 1)
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "DEBUG", levelName(slog.LevelDebug))
	assert.Equal(t, "INFO", levelName(slog.LevelInfo))
	assert.Equal(t, "WARN", levelName(slog.LevelWarn+1))
	assert.Equal(t, "ERROR", levelName(slog.LevelError+4))
}
