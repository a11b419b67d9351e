// Copyright (c) 2025 ariusbronte

package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewDedupeID returns a fresh 32-bit identifier drawn from a random (v4) UUID.
func NewDedupeID() int32 {
	return int32(uuid.New().ID())
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
