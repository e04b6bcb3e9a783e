package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	result := domain.ConversionResult{
		InputFile:   "/data/in/US-WCr-2003.nc",
		OutputFile:  "/data/out/US-WCr-2003.CF.nc",
		Status:      domain.StatusConverted,
		Variables:   15,
		ProcessedAt: now,
	}

	msg, err := serializeToMessage(result)
	require.NoError(t, err)

	assert.Equal(t, []byte("US-WCr-2003.nc"), msg.Key)
	assert.Contains(t, string(msg.Value), `"status":"converted"`)
	assert.Contains(t, string(msg.Value), `"variables":15`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "status", msg.Headers[0].Key)
	assert.Equal(t, []byte("converted"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_FailedRow(t *testing.T) {
	result := domain.ConversionResult{
		InputFile: "/data/in/US-WCr-2004.nc",
		Status:    domain.StatusFailed,
		Error:     "read TA: variable not found in source file",
	}

	msg, err := serializeToMessage(result)
	require.NoError(t, err)

	assert.Contains(t, string(msg.Value), `"status":"failed"`)
	assert.Contains(t, string(msg.Value), `"error":"read TA: variable not found in source file"`)
}
