// Copyright (c) 2025 ariusbronte

package userbot

import "context"

// matchPattern picks the handler for a text, reply or forward event. The
// first entry of the snapshot that matches wins, so peer-scoped entries take
// precedence over unscoped ones and older registrations over newer ones.
func matchPattern(entries []*MatchEntry, m *Message) MessageHandler {
	for _, e := range entries {
		if e.matchText(m.PeerID, m.Text) {
			return e.Handler
		}
	}
	return nil
}

// stickerID returns the id of the single sticker attached to m.
func stickerID(m *Message) (int64, error) {
	stickers := m.AttachmentsOf(AttachmentSticker)
	switch len(stickers) {
	case 0:
		return 0, newRoutingError(m, "sticker event carries no sticker attachment")
	case 1:
		return stickers[0].ID, nil
	default:
		return 0, newRoutingError(m, "sticker event carries more than one sticker attachment")
	}
}

func matchSticker(entries []*MatchEntry, m *Message) (MessageHandler, error) {
	id, err := stickerID(m)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.matchID(m.PeerID, id) {
			return e.Handler, nil
		}
	}
	return nil, nil
}

// dispatchPattern runs the matching pattern handler or the fallback.
func dispatchPattern(ctx context.Context, reg *MatchRegistry, m *NewMessage) error {
	if h := matchPattern(reg.Snapshot(), m.Message); h != nil {
		return h(ctx, m)
	}
	return reg.TriggerFallback(ctx, m)
}

func dispatchSticker(ctx context.Context, reg *MatchRegistry, m *NewMessage) error {
	h, err := matchSticker(reg.Snapshot(), m.Message)
	if err != nil {
		return err
	}
	if h != nil {
		return h(ctx, m)
	}
	return reg.TriggerFallback(ctx, m)
}
