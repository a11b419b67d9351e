// Copyright (c) 2025 ariusbronte

package userbot

import (
	"context"
	"math/rand/v2"
	"strings"
)

type (
	MessageHandler  func(ctx context.Context, m *NewMessage) error
	BotErrorHandler func(ctx context.Context, m *NewMessage, err error)
	ErrorHandler    func(ctx context.Context, err error)
)

// Any is the match specification of a category's fallback handler when
// passed to On.
var Any = MatchSpec{}

// On registers handler for category c. Text, reply, forward and sticker
// take a match specification, or Any for their fallback handler; every other
// category ignores spec and sets its single handler.
func (b *Bot) On(c Category, spec MatchSpec, handler MessageHandler) error {
	if reg := b.registry(c); reg != nil {
		if spec == Any {
			return reg.SetHandler(handler)
		}
		return reg.Store(spec, handler)
	}
	if store, ok := b.events[c]; ok {
		return store.SetHandler(handler)
	}
	return newValidationError("category", "unknown category "+c.String())
}

func (b *Bot) registry(c Category) *MatchRegistry {
	switch c {
	case CategoryText:
		return b.text
	case CategoryReply:
		return b.reply
	case CategoryForward:
		return b.forward
	case CategorySticker:
		return b.sticker
	}
	return nil
}

// Registry exposes the match registry of a category, or nil for categories
// that have none.
func (b *Bot) Registry(c Category) *MatchRegistry {
	return b.registry(c)
}

// EventStore exposes the single-handler store of a category, or nil.
func (b *Bot) EventStore(c Category) *EventStore {
	return b.events[c]
}

func (b *Bot) OnText(spec MatchSpec, handler MessageHandler) error {
	return b.text.Store(spec, handler)
}

func (b *Bot) OnTextAny(handler MessageHandler) error {
	return b.text.SetHandler(handler)
}

func (b *Bot) OnReply(spec MatchSpec, handler MessageHandler) error {
	return b.reply.Store(spec, handler)
}

func (b *Bot) OnReplyAny(handler MessageHandler) error {
	return b.reply.SetHandler(handler)
}

func (b *Bot) OnForward(spec MatchSpec, handler MessageHandler) error {
	return b.forward.Store(spec, handler)
}

func (b *Bot) OnForwardAny(handler MessageHandler) error {
	return b.forward.SetHandler(handler)
}

func (b *Bot) OnSticker(spec MatchSpec, handler MessageHandler) error {
	return b.sticker.Store(spec, handler)
}

func (b *Bot) OnStickerAny(handler MessageHandler) error {
	return b.sticker.SetHandler(handler)
}

func (b *Bot) OnPhoto(handler MessageHandler) error {
	return b.events[CategoryPhoto].SetHandler(handler)
}

func (b *Bot) OnVoice(handler MessageHandler) error {
	return b.events[CategoryVoice].SetHandler(handler)
}

func (b *Bot) OnVideo(handler MessageHandler) error {
	return b.events[CategoryVideo].SetHandler(handler)
}

func (b *Bot) OnAudio(handler MessageHandler) error {
	return b.events[CategoryAudio].SetHandler(handler)
}

func (b *Bot) OnDocument(handler MessageHandler) error {
	return b.events[CategoryDocument].SetHandler(handler)
}

func (b *Bot) OnPoll(handler MessageHandler) error {
	return b.events[CategoryPoll].SetHandler(handler)
}

// OnChatAction sets the handler for one chat membership action kind.
func (b *Bot) OnChatAction(kind ActionType, handler MessageHandler) error {
	c, ok := actionCategories[kind]
	if !ok {
		return newValidationError("action", "unknown chat action "+string(kind))
	}
	return b.events[c].SetHandler(handler)
}

// OnBotException sets the handler receiving errors raised while handling a
// single event. Without one, such errors are dropped.
func (b *Bot) OnBotException(handler BotErrorHandler) error {
	if handler == nil {
		return newValidationError("handler", "handler cannot be nil")
	}
	b.botErrors.Store(handler)
	return nil
}

// OnException sets the handler receiving errors raised by the polling loop
// itself. Without one, such errors are dropped.
func (b *Bot) OnException(handler ErrorHandler) error {
	if handler == nil {
		return newValidationError("handler", "handler cannot be nil")
	}
	b.libErrors.Store(handler)
	return nil
}

// Answer builds a handler replying with a fixed text, or with one of several
// texts picked at random for each event.
func Answer(answers ...string) (MessageHandler, error) {
	if len(answers) == 0 {
		return nil, newValidationError("answers", "answer list cannot be empty")
	}
	for _, a := range answers {
		if strings.TrimSpace(a) == "" {
			return nil, newValidationError("answers", "answer cannot be empty or whitespace")
		}
	}
	answers = append([]string(nil), answers...)

	if len(answers) == 1 {
		text := answers[0]
		return func(ctx context.Context, m *NewMessage) error {
			_, err := m.Reply(ctx, text)
			return err
		}, nil
	}
	return func(ctx context.Context, m *NewMessage) error {
		_, err := m.Reply(ctx, answers[rand.IntN(len(answers))])
		return err
	}, nil
}

// OnAnswer registers an Answer handler for category c under spec.
func (b *Bot) OnAnswer(c Category, spec MatchSpec, answers ...string) error {
	h, err := Answer(answers...)
	if err != nil {
		return err
	}
	return b.On(c, spec, h)
}
