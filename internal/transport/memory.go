// Copyright (c) 2025 ariusbronte

// Package transport holds userbot.Transport implementations that do not talk
// to the network: a scripted in-memory transport, a JSON lines replay and a
// rate-limiting decorator for any transport.
package transport

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/ariusbronte/vkbot/userbot"
)

// Sent is one message accepted by Memory.Send.
type Sent struct {
	ID       int64
	PeerID   int64
	Text     string
	DedupeID int32
}

type memoryStep struct {
	batch   *userbot.Batch
	expired bool
}

// Memory is a scripted transport. Batches queued with Push are handed out
// one per FetchBatch call; Expire queues a session expiry. Sends are
// recorded, and a repeated dedupe id is accepted without recording the
// message again.
type Memory struct {
	mu       sync.Mutex
	steps    []memoryStep
	wake     chan struct{}
	closed   chan struct{}
	once     sync.Once
	cursor   userbot.Cursor
	epoch    uint64
	sent     []Sent
	byDedupe map[int32]int64
}

func NewMemory() *Memory {
	return &Memory{
		wake:     make(chan struct{}, 1),
		closed:   make(chan struct{}),
		cursor:   userbot.Cursor{Ts: 1, Pts: 1},
		byDedupe: make(map[int32]int64),
	}
}

// Push queues messages as one batch. The batch moves pts forward by one.
func (m *Memory) Push(msgs ...userbot.Message) {
	m.mu.Lock()
	m.cursor.Pts++
	m.steps = append(m.steps, memoryStep{batch: &userbot.Batch{Messages: msgs, NewPts: m.cursor.Pts}})
	m.mu.Unlock()
	m.signal()
}

// Expire queues a session expiry; the next bootstrap starts a new ts.
func (m *Memory) Expire() {
	m.mu.Lock()
	m.steps = append(m.steps, memoryStep{expired: true})
	m.mu.Unlock()
	m.signal()
}

func (m *Memory) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Authorize accepts any credentials while the transport is open.
func (m *Memory) Authorize(ctx context.Context, _ userbot.Credentials) error {
	return m.check(ctx)
}

func (m *Memory) BootstrapCursor(ctx context.Context, _ bool, _ uint) (userbot.Cursor, error) {
	if err := m.check(ctx); err != nil {
		return userbot.Cursor{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	return userbot.Cursor{Ts: m.epoch, Pts: m.cursor.Pts}, nil
}

// FetchBatch blocks until a step is queued, ctx is done or the transport is
// closed.
func (m *Memory) FetchBatch(ctx context.Context, cur userbot.Cursor, _ userbot.RunConfig) (*userbot.Batch, error) {
	for {
		if err := m.check(ctx); err != nil {
			return nil, err
		}

		m.mu.Lock()
		if len(m.steps) > 0 {
			step := m.steps[0]
			m.steps = m.steps[1:]
			m.mu.Unlock()
			if step.expired {
				return nil, errors.Wrapf(userbot.ErrSessionExpired, "[Memory] ts %d", cur.Ts)
			}
			return step.batch, nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
		case <-m.closed:
		case <-m.wake:
		}
	}
}

func (m *Memory) Send(ctx context.Context, peerID int64, text string, dedupeID int32) (int64, error) {
	if err := m.check(ctx); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byDedupe[dedupeID]; ok {
		return id, nil
	}
	id := int64(len(m.sent) + 1)
	m.sent = append(m.sent, Sent{ID: id, PeerID: peerID, Text: text, DedupeID: dedupeID})
	m.byDedupe[dedupeID] = id
	return id, nil
}

// Sent returns a copy of the recorded messages.
func (m *Memory) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.sent...)
}

// Pending reports how many queued steps have not been fetched yet.
func (m *Memory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *Memory) check(ctx context.Context) error {
	select {
	case <-m.closed:
		return errors.New("[Memory] transport closed")
	default:
	}
	return ctx.Err()
}
