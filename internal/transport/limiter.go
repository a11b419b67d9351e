// Copyright (c) 2025 ariusbronte

package transport

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/ariusbronte/vkbot/userbot"
)

// RateLimited delays outgoing sends so they stay under a fixed rate. All
// other calls go straight to the wrapped transport.
type RateLimited struct {
	userbot.Transport
	limiter *rate.Limiter
}

// NewRateLimited wraps t. perSecond <= 0 disables limiting and returns t
// unchanged.
func NewRateLimited(t userbot.Transport, perSecond float64, burst int) userbot.Transport {
	if perSecond <= 0 {
		return t
	}
	return &RateLimited{
		Transport: t,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), max(burst, 1)),
	}
}

func (r *RateLimited) Send(ctx context.Context, peerID int64, text string, dedupeID int32) (int64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, errors.Wrap(err, "[RateLimited] waiting for send slot")
	}
	return r.Transport.Send(ctx, peerID, text, dedupeID)
}

func (r *RateLimited) Close() error {
	if c, ok := r.Transport.(userbot.Closer); ok {
		return c.Close()
	}
	return nil
}
