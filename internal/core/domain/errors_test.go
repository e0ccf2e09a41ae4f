package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotConfigured", ErrNotConfigured},
		{"ErrRunInProgress", ErrRunInProgress},
		{"ErrNoImageData", ErrNoImageData},
		{"ErrInvalidCursor", ErrInvalidCursor},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrInvalidSignature", ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestConfigurationError_AllowList(t *testing.T) {
	err := &ConfigurationError{Key: "OUTPUT_FORMAT", Value: "bmp", Supported: []string{"png", "jpeg", "webp"}}

	assert.Equal(t, `Invalid OUTPUT_FORMAT="bmp". Supported values: png, jpeg, webp.`, err.Error())
}

func TestConfigurationError_Missing(t *testing.T) {
	err := NewMissingConfigError("OPENAI_API_KEY", "required")

	assert.Equal(t, "invalid configuration OPENAI_API_KEY: required", err.Error())
	assert.True(t, IsConfigurationError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsConfigurationError(errors.New("plain")))
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("uses diagnostic when present", func(t *testing.T) {
		err := &TransportError{
			Op:         "download",
			Path:       "/input/a.png",
			Diagnostic: Diagnostic{Status: 409, Tag: "path/not_found", Summary: "path/not_found/.."},
			Err:        cause,
		}

		assert.Equal(t, "download /input/a.png: status=409 tag=path/not_found path/not_found/..", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("falls back to cause", func(t *testing.T) {
		err := &TransportError{Op: "list", Err: cause}

		assert.Equal(t, "list: connection reset", err.Error())
	})
}

func TestScanError(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("run: %w", &ScanError{Page: 2, Err: cause})

	assert.True(t, IsScanError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "scan failed on page 2")
}

func TestJobError(t *testing.T) {
	cause := ErrNoImageData
	err := &JobError{Path: "/input/a.png", Stage: "enhance", Err: cause}

	require.ErrorIs(t, err, ErrNoImageData)
	assert.Equal(t, "job /input/a.png failed at enhance: no image data returned", err.Error())
}
