package common

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewRunID generates a unique ETL run ID with the "run_" prefix
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewSnapshotID generates a unique scrape snapshot ID with the "snap_" prefix
// Format: snap_<uuid>
func NewSnapshotID() string {
	return "snap_" + uuid.New().String()
}

// NewUserID generates a UUID for locally created user accounts.
// Supabase-authenticated users keep the UUID from their token instead.
func NewUserID() string {
	return uuid.New().String()
}

// NewResetToken generates an opaque password-reset token.
func NewResetToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
