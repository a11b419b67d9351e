// Copyright (c) 2025 ariusbronte

package userbot

import (
	"context"
	"encoding/json"
)

// NewMessage is what handlers receive: the event plus the bot it arrived on.
type NewMessage struct {
	Client   *Bot
	Message  *Message
	Category Category
}

func packMessage(b *Bot, m *Message, c Category) *NewMessage {
	return &NewMessage{Client: b, Message: m, Category: c}
}

func (m *NewMessage) Text() string {
	return m.Message.Text
}

func (m *NewMessage) PeerID() int64 {
	return m.Message.PeerID
}

func (m *NewMessage) SenderID() int64 {
	return m.Message.FromID
}

func (m *NewMessage) IsReply() bool {
	return m.Message.ReplyMessage != nil
}

func (m *NewMessage) IsForward() bool {
	return len(m.Message.FwdMessages) > 0
}

// IsChat reports whether the message came from a multi-user conversation.
func (m *NewMessage) IsChat() bool {
	return m.Message.PeerID > chatPeerOffset
}

// Sticker returns the sticker id, or 0 when the message has none.
func (m *NewMessage) Sticker() int64 {
	if s := m.Message.AttachmentsOf(AttachmentSticker); len(s) > 0 {
		return s[0].ID
	}
	return 0
}

// Reply sends text back to the peer the message came from.
func (m *NewMessage) Reply(ctx context.Context, text string) (int64, error) {
	return m.Client.Send(ctx, m.Message.PeerID, text)
}

func (m *NewMessage) Marshal() string {
	b, _ := json.Marshal(m.Message)
	return string(b)
}
