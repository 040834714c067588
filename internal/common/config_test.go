package common

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 0.5, cfg.OCR.MinConfidence)
	assert.Equal(t, 30, cfg.OCR.ScannedPageThreshold)
}

func TestLoadConfigYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "biddocs.yaml")
	yml := []byte("ocr:\n  timeout: 5s\n  min_confidence: 0.7\nbudget:\n  compression_ratio: 0.6\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, yml, 0o644))

	t.Setenv("BIDDOCS_CONFIG", path)
	t.Setenv("OCR_MIN_CONFIDENCE", "0.8")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 0.8, cfg.OCR.MinConfidence, "env wins over file")
	assert.Equal(t, 0.6, cfg.Budget.CompressionRatio)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30, cfg.OCR.ScannedPageThreshold, "defaults survive a partial file")
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("BIDDOCS_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := LoadConfig()
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.CompressionRatio = 1.5
	cfg.Database.Driver = "mysql"
	cfg.OCR.Timeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "budget.compression_ratio")
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "ocr.timeout")
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{WrapError(ErrNotFound, "open x.pdf"), codes.NotFound},
		{WrapError(ErrUnsupportedFormat, "x.txt"), codes.InvalidArgument},
		{WrapError(ErrDuplicate, "GB 50010-2010"), codes.AlreadyExists},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tt := range tests {
		st, _ := status.FromError(ToStatus(tt.err))
		assert.Equal(t, tt.want, st.Code(), tt.err.Error())
	}
	assert.NoError(t, ToStatus(nil))
}

func TestIsBlocking(t *testing.T) {
	assert.True(t, IsBlocking(WrapError(ErrNotFound, "a")))
	assert.True(t, IsBlocking(WrapError(ErrUnsupportedFormat, "b")))
	assert.False(t, IsBlocking(errors.New("parse failed")))
}

func TestRequestIDAndLogger(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	require.NotEmpty(t, id)
	ctx2, id2 := EnsureRequestID(ctx)
	assert.Equal(t, id, id2)
	assert.Equal(t, id, RequestIDFromContext(ctx2))

	var buf bytes.Buffer
	l := newLogger(LogConfig{Level: "debug", Format: "text"}, &buf)
	got := LoggerFromContext(WithLogger(ctx, l), nil)
	got.Debug("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotNil(t, LoggerFromContext(context.Background(), nil))
}
