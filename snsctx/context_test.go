package snsctx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbose(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsVerbose(ctx))
	assert.True(t, IsVerbose(SetVerbose(ctx, true)))
}

func TestTrace(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := WithLogger(context.Background(), logger)

	Trace(ctx, "quiet")
	assert.Empty(t, out.String())

	Trace(SetVerbose(ctx, true), "i2c write", "data", "1e")
	assert.Contains(t, out.String(), "i2c write")
	assert.Contains(t, out.String(), "data=1e")
	assert.Same(t, logger, Logger(ctx))
	assert.Same(t, slog.Default(), Logger(context.Background()))
}
