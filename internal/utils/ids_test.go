package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTaskID(t *testing.T) {
	id := GenerateTaskID()
	assert.Len(t, id, 32)
	assert.Regexp(t, `^[0-9a-f]{32}$`, id)
	assert.NotEqual(t, id, GenerateTaskID())
}

func TestGenerateCheckID(t *testing.T) {
	_, err := uuid.Parse(GenerateCheckID())
	require.NoError(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2024, 3, 1, 7, 30, 0, 0, loc)
	assert.Equal(t, "2024-03-01T12:30:00Z", FormatTimestamp(ts))
}
