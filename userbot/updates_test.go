package userbot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPingPong(t *testing.T) {
	b, ft := newTestBot(t,
		batchOf(11, textMessage(1, 100, "ping")),
		batchOf(12, textMessage(2, 100, "ping")),
	)
	require.NoError(t, b.Configure(RunConfig{LpVersion: 3, MsgsLimit: Ptr(int64(200))}))
	require.NoError(t, b.OnAnswer(CategoryText, Pattern("^ping$", IgnoreCase), "pong"))

	err := runScript(t, b, ft)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, ft.sent, 2)
	for _, s := range ft.sent {
		assert.Equal(t, int64(100), s.PeerID)
		assert.Equal(t, "pong", s.Text)
	}
	assert.NotEqual(t, ft.sent[0].DedupeID, ft.sent[1].DedupeID)

	require.NotEmpty(t, ft.configs)
	assert.Equal(t, uint(3), ft.configs[0].LpVersion)
	assert.Equal(t, int64(200), *ft.configs[0].MsgsLimit)
}

func TestRunAdvancesPtsOnly(t *testing.T) {
	b, ft := newTestBot(t,
		batchOf(11, textMessage(1, 42, "a")),
		fetchStep{},
		batchOf(0, textMessage(2, 42, "b")),
		batchOf(15),
	)
	ft.cursors = []Cursor{{Ts: 100, Pts: 10}}

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)
	assert.Equal(t, []Cursor{
		{Ts: 100, Pts: 10},
		{Ts: 100, Pts: 11},
		{Ts: 100, Pts: 11},
		{Ts: 100, Pts: 11},
		{Ts: 100, Pts: 15},
	}, ft.fetched)
}

func TestRunSessionExpired(t *testing.T) {
	b, ft := newTestBot(t,
		batchOf(11, textMessage(1, 42, "first")),
		fetchStep{err: errors.Join(errors.New("failed=2"), ErrSessionExpired)},
		batchOf(21, textMessage(2, 42, "second")),
	)
	ft.cursors = []Cursor{{Ts: 1, Pts: 10}, {Ts: 2, Pts: 20}}

	var mu sync.Mutex
	var libErrs []error
	require.NoError(t, b.OnException(func(_ context.Context, err error) {
		mu.Lock()
		libErrs = append(libErrs, err)
		mu.Unlock()
	}))
	texts := &recorder{}
	require.NoError(t, b.OnTextAny(texts.handle))

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)

	require.Len(t, libErrs, 1)
	assert.ErrorIs(t, libErrs[0], ErrSessionExpired)
	assert.Equal(t, 2, ft.bootstraps)
	assert.Equal(t, []int64{1, 2}, texts.seen)
	require.GreaterOrEqual(t, len(ft.fetched), 3)
	assert.Equal(t, Cursor{Ts: 1, Pts: 11}, ft.fetched[1])
	assert.Equal(t, Cursor{Ts: 2, Pts: 20}, ft.fetched[2])
}

func TestRunSessionExpiredBootstrapFails(t *testing.T) {
	b, ft := newTestBot(t, fetchStep{err: ErrSessionExpired})
	ft.cursors = []Cursor{{Ts: 1, Pts: 10}}
	ft.bootstrapErrs = map[int]error{2: errors.New("network down")}

	var libErrs []error
	require.NoError(t, b.OnException(func(_ context.Context, err error) {
		libErrs = append(libErrs, err)
	}))

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)
	require.Len(t, libErrs, 2)
	assert.ErrorIs(t, libErrs[0], ErrSessionExpired)
	assert.ErrorContains(t, libErrs[1], "network down")
	// the old cursor is kept when renewal fails
	assert.Equal(t, Cursor{Ts: 1, Pts: 10}, ft.fetched[1])
}

func TestRunFetchErrorDoesNotStopLoop(t *testing.T) {
	boom := errors.New("boom")
	b, ft := newTestBot(t,
		fetchStep{err: boom},
		batchOf(2, textMessage(1, 42, "after")),
	)
	var libErrs []error
	require.NoError(t, b.OnException(func(_ context.Context, err error) { libErrs = append(libErrs, err) }))
	texts := &recorder{}
	require.NoError(t, b.OnTextAny(texts.handle))

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)
	require.Len(t, libErrs, 1)
	assert.ErrorIs(t, libErrs[0], boom)
	assert.Equal(t, []int64{1}, texts.seen)
	assert.Equal(t, 1, ft.bootstraps)
}

func TestRunBootstrapFailure(t *testing.T) {
	b, ft := newTestBot(t, batchOf(1, textMessage(1, 42, "x")))
	ft.bootstrapErr = errors.New("auth failed")

	err := b.Run(context.Background())
	assert.ErrorContains(t, err, "auth failed")
	assert.Equal(t, 0, ft.fetchCount())
	assert.False(t, b.IsRunning())
}

func TestRunCancelBetweenBatches(t *testing.T) {
	b, ft := newTestBot(t,
		batchOf(2, textMessage(1, 42, "stop"), textMessage(2, 42, "skipped")),
		batchOf(3, textMessage(3, 42, "never")),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	texts := &recorder{}
	require.NoError(t, b.OnTextAny(func(ctx context.Context, m *NewMessage) error {
		_ = texts.handle(ctx, m)
		cancel()
		return nil
	}))

	assert.ErrorIs(t, b.Run(ctx), context.Canceled)
	assert.Equal(t, 1, ft.fetchCount())
	assert.Equal(t, []int64{1}, texts.seen)
}

func TestRunBotErrors(t *testing.T) {
	b, ft := newTestBot(t, batchOf(2,
		Message{ID: 1, FromID: 42, Text: "no peer"},
		stickerMessage(2, 42, 1, 2),
		textMessage(3, 42, "panic"),
		textMessage(4, 42, "fail"),
		textMessage(5, 42, "ok"),
	))

	handled := &recorder{}
	require.NoError(t, b.OnText(Pattern("^panic$"), func(context.Context, *NewMessage) error {
		panic("handler exploded")
	}))
	require.NoError(t, b.OnText(Pattern("^fail$"), func(context.Context, *NewMessage) error {
		return errors.New("handler failed")
	}))
	require.NoError(t, b.OnText(Pattern("^ok$"), handled.handle))

	type botErr struct {
		id  int64
		err error
	}
	var got []botErr
	require.NoError(t, b.OnBotException(func(_ context.Context, m *NewMessage, err error) {
		got = append(got, botErr{m.Message.ID, err})
	}))

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)
	require.Len(t, got, 4)

	assert.Equal(t, int64(1), got[0].id)
	assert.True(t, IsRoutingError(got[0].err))

	assert.Equal(t, int64(2), got[1].id)
	assert.True(t, IsRoutingError(got[1].err))

	assert.Equal(t, int64(3), got[2].id)
	var perr *PanicError
	require.ErrorAs(t, got[2].err, &perr)
	assert.Equal(t, "handler exploded", perr.Value)

	assert.Equal(t, int64(4), got[3].id)
	assert.EqualError(t, got[3].err, "handler failed")

	assert.Equal(t, []int64{5}, handled.seen)
}

func TestRunBotErrorLogFields(t *testing.T) {
	var buf bytes.Buffer
	ft := &fakeTransport{steps: []fetchStep{batchOf(2, Message{ID: 1, PeerID: 100})}}
	b, err := New(ft, ClientConfig{LogLevel: LogDebug, LogOutput: &buf})
	require.NoError(t, err)

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)

	out := buf.String()
	assert.Contains(t, out, "[BotException] no handler registered")
	assert.Contains(t, out, "message_id=1")
	assert.Contains(t, out, "peer_id=100")
}

func TestRunRegisterWhileDispatching(t *testing.T) {
	const (
		batches  = 200
		handlers = 500
	)
	steps := make([]fetchStep, 0, batches)
	for i := range batches {
		steps = append(steps, batchOf(uint64(i+2),
			textMessage(int64(2*i+1), 42, fmt.Sprintf("w%d", i)),
			textMessage(int64(2*i+2), 42, "nobody"),
		))
	}
	b, ft := newTestBot(t, steps...)

	var matched, fallback atomic.Int64
	count := func(n *atomic.Int64) MessageHandler {
		return func(context.Context, *NewMessage) error {
			n.Add(1)
			return nil
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range handlers {
			assert.NoError(t, b.OnText(Pattern(fmt.Sprintf("^w%d$", i)), count(&matched)))
			// duplicates are ignored
			assert.NoError(t, b.OnText(Pattern(fmt.Sprintf("^w%d$", i)), count(&matched)))
			if i%50 == 0 {
				assert.NoError(t, b.OnTextAny(count(&fallback)))
			}
		}
	}()

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)
	wg.Wait()

	assert.Equal(t, handlers, b.Registry(CategoryText).Len())
	assert.True(t, b.Registry(CategoryText).HasFallback())
	assert.LessOrEqual(t, matched.Load()+fallback.Load(), int64(2*batches))
	assert.Equal(t, 0, len(ft.steps))
}

func TestRunErrorHandlerPanicIsContained(t *testing.T) {
	b, ft := newTestBot(t, batchOf(2,
		textMessage(1, 42, "a"),
		textMessage(2, 42, "b"),
	))
	require.NoError(t, b.OnTextAny(func(context.Context, *NewMessage) error {
		return errors.New("fail")
	}))
	calls := 0
	require.NoError(t, b.OnBotException(func(context.Context, *NewMessage, error) {
		calls++
		panic("error handler exploded")
	}))

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestRunRoutesByCategory(t *testing.T) {
	var order []string
	rec := func(name string) *recorder { return &recorder{name: name, log: &order} }

	b, ft := newTestBot(t, batchOf(2,
		textMessage(1, 42, "hello"),
		Message{ID: 2, PeerID: 42, FromID: 42, Text: "hello", ReplyMessage: &Message{ID: 1}},
		Message{ID: 3, PeerID: 42, FromID: 42, FwdMessages: []Message{{ID: 1}}},
		stickerMessage(4, 42, 163),
		Message{ID: 5, PeerID: 42, FromID: 42, Attachments: []Attachment{{Type: AttachmentPhoto}}},
		Message{ID: 6, PeerID: 42, FromID: 42, Attachments: []Attachment{{Type: AttachmentVoice}}},
		Message{ID: 7, PeerID: 2000000001, FromID: 42, Action: &Action{Type: ActionChatInviteUser, MemberID: 7}},
		Message{ID: 8, PeerID: 42, FromID: 42, Attachments: []Attachment{{Type: AttachmentPoll}}},
	))

	require.NoError(t, b.OnText(Pattern("hello"), rec("text").handle))
	require.NoError(t, b.OnReply(Pattern("hello"), rec("reply").handle))
	require.NoError(t, b.OnForwardAny(rec("forward").handle))
	require.NoError(t, b.OnSticker(Sticker(163), rec("sticker").handle))
	require.NoError(t, b.OnPhoto(rec("photo").handle))
	require.NoError(t, b.OnVoice(rec("voice").handle))
	require.NoError(t, b.OnChatAction(ActionChatInviteUser, rec("invite").handle))

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)
	// no poll handler: the poll event is dropped silently
	assert.Equal(t, []string{"text", "reply", "forward", "sticker", "photo", "voice", "invite"}, order)
}

func TestRunReplyOverSticker(t *testing.T) {
	b, ft := newTestBot(t, batchOf(2, Message{
		ID: 1, PeerID: 42, FromID: 42,
		ReplyMessage: &Message{ID: 0},
		Attachments:  []Attachment{{Type: AttachmentSticker, ID: 163}},
	}))
	replies := &recorder{}
	stickers := &recorder{}
	require.NoError(t, b.OnReplyAny(replies.handle))
	require.NoError(t, b.OnSticker(Sticker(163), stickers.handle))

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)
	assert.Equal(t, 1, replies.calls())
	assert.Equal(t, 0, stickers.calls())
}

func TestRunTwiceConcurrently(t *testing.T) {
	b, ft := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return ft.fetchCount() > 0 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, b.Run(ctx), ErrAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, b.IsRunning())
}

func TestRunAfterClose(t *testing.T) {
	b, ft := newTestBot(t)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.True(t, ft.closed)

	assert.ErrorIs(t, b.Run(context.Background()), ErrClosed)
	_, err := b.Send(context.Background(), 42, "hi")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRunConfigureTakesEffectNextCycle(t *testing.T) {
	b, ft := newTestBot(t,
		batchOf(2, textMessage(1, 42, "reconfigure")),
		batchOf(3),
	)
	require.NoError(t, b.OnTextAny(func(context.Context, *NewMessage) error {
		return b.Configure(RunConfig{NeedPts: true, LpVersion: 2, MsgsLimit: Ptr(int64(500))})
	}))

	assert.ErrorIs(t, runScript(t, b, ft), context.Canceled)
	require.GreaterOrEqual(t, len(ft.configs), 2)
	assert.Equal(t, int64(200), *ft.configs[0].MsgsLimit)
	assert.Equal(t, int64(500), *ft.configs[1].MsgsLimit)
	assert.Equal(t, uint(2), ft.configs[1].LpVersion)
}
