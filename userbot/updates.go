// Copyright (c) 2025 ariusbronte

package userbot

import (
	"context"
	"runtime/debug"

	"github.com/pkg/errors"

	"github.com/ariusbronte/vkbot/internal/utils"
)

// Run bootstraps the long poll cursor and then polls, classifies and
// dispatches events until ctx is cancelled or the bot is closed.
//
// Events of a batch are handled one at a time, in batch order. Errors from a
// single event go to the OnBotException handler; errors from the transport
// go to the OnException handler. Neither kind stops the loop. A failure to
// obtain the initial cursor is returned.
func (b *Bot) Run(ctx context.Context) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer b.running.Store(false)

	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := b.RunConfig()
	cur, err := b.transport.BootstrapCursor(ctx, cfg.NeedPts, cfg.LpVersion)
	if err != nil {
		return errors.Wrap(err, "bootstrapping long poll cursor")
	}
	b.log.Info("long poll started (ts=%d, pts=%d)", cur.Ts, cur.Pts)

	for {
		if err := ctx.Err(); err != nil {
			b.log.Info("long poll stopped")
			return err
		}
		if b.closed.Load() {
			return ErrClosed
		}

		cfg = b.RunConfig()
		batch, err := b.transport.FetchBatch(ctx, cur, cfg)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			cur = b.recoverFetch(ctx, cur, cfg, err)
			_ = utils.Sleep(ctx, b.errorDelay)
			continue
		}
		if batch == nil {
			continue
		}

		b.processBatch(ctx, batch)

		// ts stays at its bootstrap value; only pts moves with the stream.
		if batch.NewPts != 0 {
			cur.Pts = batch.NewPts
		}
	}
}

// recoverFetch reports a failed fetch and, when the session expired,
// returns a freshly bootstrapped cursor.
func (b *Bot) recoverFetch(ctx context.Context, cur Cursor, cfg RunConfig, err error) Cursor {
	if !errors.Is(err, ErrSessionExpired) {
		b.log.WithError(err).Warn("[FetchBatch] long poll request failed")
		b.notifyError(ctx, errors.Wrap(err, "fetching long poll batch"))
		return cur
	}

	b.log.Debug("long poll session expired, bootstrapping cursor again")
	fresh, berr := b.transport.BootstrapCursor(ctx, cfg.NeedPts, cfg.LpVersion)
	b.notifyError(ctx, err)
	if berr != nil {
		b.log.WithError(berr).Warn("[BootstrapCursor] could not renew long poll cursor")
		b.notifyError(ctx, errors.Wrap(berr, "bootstrapping long poll cursor"))
		return cur
	}
	b.log.Debug("long poll cursor renewed (ts=%d, pts=%d)", fresh.Ts, fresh.Pts)
	return fresh
}

func (b *Bot) processBatch(ctx context.Context, batch *Batch) {
	if len(batch.Messages) == 0 {
		return
	}
	b.log.Trace("processing batch of %d messages (new_pts=%d)", len(batch.Messages), batch.NewPts)

	for i := range batch.Messages {
		if ctx.Err() != nil {
			return
		}
		m := &batch.Messages[i]
		packed, err := b.handleMessage(ctx, m)
		if err != nil {
			if packed == nil {
				packed = packMessage(b, m, 0)
			}
			b.notifyBotError(ctx, packed, err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *Message) (packed *NewMessage, err error) {
	defer b.newRecovery(&err)

	if m.PeerID == 0 {
		return nil, newRoutingError(m, "message has no peer id")
	}
	if m.FromID == 0 {
		return nil, newRoutingError(m, "message has no sender id")
	}

	c, err := Classify(m)
	if err != nil {
		return nil, err
	}
	packed = packMessage(b, m, c)
	return packed, b.route(ctx, packed)
}

func (b *Bot) route(ctx context.Context, m *NewMessage) error {
	switch m.Category {
	case CategoryText:
		return dispatchPattern(ctx, b.text, m)
	case CategoryReply:
		return dispatchPattern(ctx, b.reply, m)
	case CategoryForward:
		return dispatchPattern(ctx, b.forward, m)
	case CategorySticker:
		return dispatchSticker(ctx, b.sticker, m)
	}
	if store, ok := b.events[m.Category]; ok {
		return store.Trigger(ctx, m)
	}
	return newRoutingError(m.Message, "no route for category "+m.Category.String())
}

// newRecovery turns a handler panic into a PanicError stored in *err.
func (b *Bot) newRecovery(err *error) {
	if r := recover(); r != nil {
		b.log.Error("[HandlerPanic] recovered from panic: %v\n%s", r, debug.Stack())
		*err = &PanicError{Value: r}
	}
}

func (b *Bot) notifyBotError(ctx context.Context, m *NewMessage, err error) {
	log := b.log.WithFields(map[string]any{
		"message_id": m.Message.ID,
		"peer_id":    m.Message.PeerID,
	})
	h, ok := b.botErrors.Load()
	if !ok {
		log.WithError(err).Debug("[BotException] no handler registered, error dropped")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("[BotException] error handler panicked: %v", r)
		}
	}()
	h(ctx, m, err)
}

func (b *Bot) notifyError(ctx context.Context, err error) {
	h, ok := b.libErrors.Load()
	if !ok {
		b.log.WithError(err).Debug("[Exception] no handler registered, error dropped")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("[Exception] error handler panicked: %v", r)
		}
	}()
	h(ctx, err)
}
