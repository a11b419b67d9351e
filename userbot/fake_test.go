package userbot

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fetchStep struct {
	batch *Batch
	err   error
}

type sentMessage struct {
	PeerID   int64
	Text     string
	DedupeID int32
}

// fakeTransport replays scripted fetch results. Once the script is used up it
// cancels the run context so Run returns.
type fakeTransport struct {
	mu sync.Mutex

	cursors       []Cursor
	bootstrapErr  error
	bootstrapErrs map[int]error // keyed by 1-based call number
	bootstraps    int

	steps   []fetchStep
	fetched []Cursor
	configs []RunConfig

	sent    []sentMessage
	sendErr error
	authed  *Credentials
	closed  bool
	cancel  context.CancelFunc
}

func (f *fakeTransport) Authorize(_ context.Context, creds Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authed = &creds
	return nil
}

func (f *fakeTransport) BootstrapCursor(_ context.Context, _ bool, _ uint) (Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bootstraps++
	if f.bootstrapErr != nil {
		return Cursor{}, f.bootstrapErr
	}
	if err := f.bootstrapErrs[f.bootstraps]; err != nil {
		return Cursor{}, err
	}
	if len(f.cursors) == 0 {
		return Cursor{Ts: 1, Pts: 1}, nil
	}
	i := min(f.bootstraps, len(f.cursors)) - 1
	return f.cursors[i], nil
}

func (f *fakeTransport) FetchBatch(ctx context.Context, cur Cursor, cfg RunConfig) (*Batch, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, cur)
	f.configs = append(f.configs, cfg)
	if len(f.steps) == 0 {
		cancel := f.cancel
		f.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	step := f.steps[0]
	f.steps = f.steps[1:]
	f.mu.Unlock()
	return step.batch, step.err
}

func (f *fakeTransport) Send(_ context.Context, peerID int64, text string, dedupeID int32) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{PeerID: peerID, Text: text, DedupeID: dedupeID})
	return int64(len(f.sent)), nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

func newTestBot(t *testing.T, steps ...fetchStep) (*Bot, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{steps: steps}
	b, err := New(ft, ClientConfig{Name: "test", LogLevel: LogDisable, LogOutput: io.Discard})
	require.NoError(t, err)
	return b, ft
}

// runScript runs the bot until the scripted fetches are exhausted.
func runScript(t *testing.T, b *Bot, ft *fakeTransport) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ft.mu.Lock()
	ft.cancel = cancel
	ft.mu.Unlock()
	return b.Run(ctx)
}

func textMessage(id, peer int64, text string) Message {
	return Message{ID: id, PeerID: peer, FromID: peer, Text: text}
}

func stickerMessage(id, peer int64, stickers ...int64) Message {
	m := Message{ID: id, PeerID: peer, FromID: peer}
	for _, s := range stickers {
		m.Attachments = append(m.Attachments, Attachment{Type: AttachmentSticker, ID: s})
	}
	return m
}

func batchOf(pts uint64, msgs ...Message) fetchStep {
	return fetchStep{batch: &Batch{Messages: msgs, NewPts: pts}}
}

// recorder is a handler that remembers which events it saw.
type recorder struct {
	mu   sync.Mutex
	name string
	seen []int64
	log  *[]string
}

func (r *recorder) handle(_ context.Context, m *NewMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, m.Message.ID)
	if r.log != nil {
		*r.log = append(*r.log, r.name)
	}
	return nil
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
