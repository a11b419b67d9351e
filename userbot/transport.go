// Copyright (c) 2025 ariusbronte

package userbot

import "context"

// Transport is the network client the bot runs on top of. It authenticates,
// hands out the initial long poll cursor, returns event batches and sends
// messages. Implementations must return an error wrapping ErrSessionExpired
// from FetchBatch when the cursor key has lapsed.
type Transport interface {
	Authorize(ctx context.Context, creds Credentials) error
	BootstrapCursor(ctx context.Context, needPts bool, lpVersion uint) (Cursor, error)
	FetchBatch(ctx context.Context, cur Cursor, cfg RunConfig) (*Batch, error)
	Send(ctx context.Context, peerID int64, text string, dedupeID int32) (int64, error)
}

// Closer is implemented by transports holding local resources.
type Closer interface {
	Close() error
}
