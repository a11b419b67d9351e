// Copyright (c) 2025 ariusbronte

package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/ariusbronte/vkbot/internal/utils"
	"github.com/ariusbronte/vkbot/userbot"
)

// ReplayLine is one line of a replay file: either a batch of messages or a
// session expiry marker.
//
//	{"new_pts": 2, "messages": [{"id": 1, "peer_id": 42, "from_id": 42, "text": "ping"}]}
//	{"expired": true}
type ReplayLine struct {
	Messages []userbot.Message `json:"messages,omitempty"`
	NewPts   uint64            `json:"new_pts,omitempty"`
	Expired  bool              `json:"expired,omitempty"`
}

// Replay feeds recorded events to a bot and writes every outgoing message to
// an io.Writer. Once all lines are handed out, Done is closed and FetchBatch
// blocks until ctx is cancelled.
type Replay struct {
	mu    sync.Mutex
	lines []ReplayLine
	out   io.Writer
	log   *utils.Logger
	next  int64
	done  chan struct{}
	once  sync.Once
}

// ReadReplay parses a JSON lines stream. Blank lines are skipped.
func ReadReplay(r io.Reader) ([]ReplayLine, error) {
	var lines []ReplayLine
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; sc.Scan(); n++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var line ReplayLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, errors.Wrapf(err, "[Replay] line %d", n)
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "[Replay] reading")
	}
	return lines, nil
}

// OpenReplay reads the replay file at path.
func OpenReplay(path string, out io.Writer, log *utils.Logger) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "[Replay] opening")
	}
	defer f.Close()

	lines, err := ReadReplay(f)
	if err != nil {
		return nil, err
	}
	return NewReplay(lines, out, log), nil
}

func NewReplay(lines []ReplayLine, out io.Writer, log *utils.Logger) *Replay {
	if log == nil {
		log = utils.NewLoggerWithConfig(&utils.LoggerConfig{Level: utils.NoLevel, Output: io.Discard})
	}
	return &Replay{
		lines: lines,
		out:   out,
		log:   log.WithPrefix("vkbot [replay]"),
		done:  make(chan struct{}),
	}
}

// Done is closed once every line has been fetched.
func (r *Replay) Done() <-chan struct{} {
	return r.done
}

func (r *Replay) Authorize(_ context.Context, creds userbot.Credentials) error {
	r.log.Debug("authorize skipped for replay (login=%q)", creds.Login)
	return nil
}

func (r *Replay) BootstrapCursor(_ context.Context, _ bool, _ uint) (userbot.Cursor, error) {
	return userbot.Cursor{Ts: 1}, nil
}

func (r *Replay) FetchBatch(ctx context.Context, cur userbot.Cursor, _ userbot.RunConfig) (*userbot.Batch, error) {
	r.mu.Lock()
	if len(r.lines) == 0 {
		r.mu.Unlock()
		r.once.Do(func() { close(r.done) })
		<-ctx.Done()
		return nil, ctx.Err()
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	r.mu.Unlock()

	if line.Expired {
		return nil, errors.Wrapf(userbot.ErrSessionExpired, "[Replay] ts %d", cur.Ts)
	}
	r.log.Trace("replaying %d messages (pts=%d)", len(line.Messages), line.NewPts)
	return &userbot.Batch{Messages: line.Messages, NewPts: line.NewPts}, nil
}

func (r *Replay) Send(_ context.Context, peerID int64, text string, dedupeID int32) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	if _, err := fmt.Fprintf(r.out, "%d\t%s\n", peerID, text); err != nil {
		return 0, errors.Wrap(err, "[Replay] writing")
	}
	r.log.Debug("sent message %d to %d (random_id=%d)", r.next, peerID, dedupeID)
	return r.next, nil
}
