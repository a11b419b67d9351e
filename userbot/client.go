// Copyright (c) 2025 ariusbronte

package userbot

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/ariusbronte/vkbot/internal/utils"
)

// Bot routes long poll events to registered handlers.
type Bot struct {
	transport  Transport
	config     utils.Value[RunConfig]
	errorDelay time.Duration
	running    atomic.Bool
	closed     atomic.Bool
	Log        *utils.Logger
	log        *utils.Logger

	text    *MatchRegistry
	reply   *MatchRegistry
	forward *MatchRegistry
	sticker *MatchRegistry
	events  map[Category]*EventStore

	botErrors utils.Value[BotErrorHandler]
	libErrors utils.Value[ErrorHandler]
}

// ClientConfig is the configuration struct for the bot
type ClientConfig struct {
	// Name shows up in log prefixes, default: userbot
	Name string
	// Set log level (trace, debug, info, warn, error, disable), default: info
	LogLevel string
	// Log output, default: os.Stdout
	LogOutput io.Writer
	// Emit JSON log lines instead of text
	JSONLogs bool
	// Pause after a failed fetch before polling again, default: none
	ErrorDelay time.Duration
	// Long poll options, default: DefaultRunConfig()
	RunConfig *RunConfig
}

// New creates a bot on top of the given transport.
func New(t Transport, c ClientConfig) (*Bot, error) {
	if t == nil {
		return nil, ErrNotConfigured
	}

	run := DefaultRunConfig()
	if c.RunConfig != nil {
		if err := c.RunConfig.Validate(); err != nil {
			return nil, err
		}
		run = c.RunConfig.Clone()
	}

	logger := utils.NewLogger("vkbot").SetLevel(utils.ParseLevel(getStr(c.LogLevel, LogInfo)))
	if c.LogOutput != nil {
		logger.SetOutput(c.LogOutput)
	}
	if c.JSONLogs {
		logger.SetFormatter(&utils.JSONFormatter{})
	}
	name := getStr(c.Name, "userbot")

	b := &Bot{
		transport:  t,
		errorDelay: c.ErrorDelay,
		Log:        logger,
		log:        logger.WithPrefix("vkbot [" + name + "]"),
		text:       newMatchRegistry("text", PatternSpec),
		reply:      newMatchRegistry("reply", PatternSpec),
		forward:    newMatchRegistry("forward", PatternSpec),
		sticker:    newMatchRegistry("sticker", IdentitySpec),
		events:     make(map[Category]*EventStore),
	}
	for _, cat := range []Category{CategoryPhoto, CategoryVoice, CategoryVideo, CategoryAudio, CategoryDocument, CategoryPoll} {
		b.events[cat] = newEventStore(cat.String())
	}
	for _, cat := range actionCategories {
		b.events[cat] = newEventStore(cat.String())
	}
	b.config.Store(run)

	b.log.Debug("bot initialized (version=%s)", Version)
	return b, nil
}

// Authorize logs the transport in with the given credentials.
func (b *Bot) Authorize(ctx context.Context, creds Credentials) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if err := creds.validate(); err != nil {
		return err
	}
	if err := b.transport.Authorize(ctx, creds); err != nil {
		return errors.Wrap(err, "authorizing")
	}
	b.log.Info("authorized")
	return nil
}

// Configure replaces the long poll options. The new options take effect on
// the next poll cycle.
func (b *Bot) Configure(cfg RunConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	b.config.Store(cfg.Clone())
	return nil
}

// RunConfig returns a copy of the current long poll options.
func (b *Bot) RunConfig() RunConfig {
	cfg, _ := b.config.Load()
	return cfg.Clone()
}

// Send delivers text to peerID. Every call carries a fresh dedupe id so
// identical texts are never merged by the server.
func (b *Bot) Send(ctx context.Context, peerID int64, text string) (int64, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	if peerID == 0 {
		return 0, newValidationError("peer", "peer id is required")
	}
	if text == "" {
		return 0, newValidationError("text", "message text cannot be empty")
	}
	id, err := b.transport.Send(ctx, peerID, text, utils.NewDedupeID())
	if err != nil {
		return 0, errors.Wrapf(err, "sending message to %d", peerID)
	}
	return id, nil
}

func (b *Bot) IsRunning() bool {
	return b.running.Load()
}

// Close releases local resources. A running loop stops before its next
// fetch. Close is safe to call more than once.
func (b *Bot) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.log.Debug("closing bot")
	if c, ok := b.transport.(Closer); ok {
		return c.Close()
	}
	return nil
}
