package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateTaskID returns a new random task ID as 32 lowercase hex characters
func GenerateTaskID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GenerateCheckID returns a new random check ID in canonical UUID form
func GenerateCheckID() string {
	return uuid.New().String()
}

// FormatTimestamp formats t as an ISO-8601 timestamp in UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
