// Copyright (c) 2025 ariusbronte

package userbot

import (
	"context"
	"regexp"
	"sort"

	"github.com/ariusbronte/vkbot/internal/utils"
)

// MatchEntry is one registered (spec, handler) pair as seen by a matcher.
type MatchEntry struct {
	Spec    MatchSpec
	Handler MessageHandler
	re      *regexp.Regexp
}

func (e *MatchEntry) scopeAllows(peerID int64) bool {
	return !e.Spec.Scoped || e.Spec.Peer == peerID
}

func (e *MatchEntry) matchText(peerID int64, text string) bool {
	if !e.scopeAllows(peerID) || e.re == nil || text == "" {
		return false
	}
	return e.re.MatchString(text)
}

func (e *MatchEntry) matchID(peerID, id int64) bool {
	return e.scopeAllows(peerID) && e.Spec.ID == id
}

// MatchRegistry maps match specifications to handlers for one category and
// holds an optional fallback. The first handler stored under a given spec
// wins; the fallback is replaced by every SetHandler call.
type MatchRegistry struct {
	name     string
	kind     SpecKind
	entries  *utils.OrderedSyncMap[MatchSpec, *MatchEntry]
	fallback utils.Value[MessageHandler]
}

func newMatchRegistry(name string, kind SpecKind) *MatchRegistry {
	return &MatchRegistry{
		name:    name,
		kind:    kind,
		entries: utils.NewOrderedSyncMap[MatchSpec, *MatchEntry](),
	}
}

func (r *MatchRegistry) Name() string { return r.name }

// Store registers handler under spec. A spec that is already present keeps
// its original handler and the call is a silent no-op.
func (r *MatchRegistry) Store(spec MatchSpec, handler MessageHandler) error {
	if spec.Kind != r.kind {
		return newValidationError("kind", "match specification kind not accepted by "+r.name+" handlers")
	}
	re, err := spec.validate()
	if err != nil {
		return err
	}
	if handler == nil {
		return newValidationError("handler", "handler cannot be nil")
	}
	r.entries.AddIfAbsent(spec, &MatchEntry{Spec: spec, Handler: handler, re: re})
	return nil
}

// SetHandler sets the fallback handler, replacing any previous one.
func (r *MatchRegistry) SetHandler(handler MessageHandler) error {
	if handler == nil {
		return newValidationError("handler", "handler cannot be nil")
	}
	r.fallback.Store(handler)
	return nil
}

// Snapshot returns the current entries: peer-scoped entries first, then
// unscoped ones, each group in insertion order.
func (r *MatchRegistry) Snapshot() []*MatchEntry {
	ordered := r.entries.Entries()
	out := make([]*MatchEntry, len(ordered))
	for i, e := range ordered {
		out[i] = e.Value
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Spec.Scoped && !out[j].Spec.Scoped
	})
	return out
}

func (r *MatchRegistry) Len() int {
	return r.entries.Len()
}

func (r *MatchRegistry) HasFallback() bool {
	_, ok := r.fallback.Load()
	return ok
}

// TriggerFallback runs the fallback handler, if one is set.
func (r *MatchRegistry) TriggerFallback(ctx context.Context, m *NewMessage) error {
	h, ok := r.fallback.Load()
	if !ok {
		return nil
	}
	return h(ctx, m)
}

// EventStore holds the single handler of a category that has no match
// specification (media kinds and chat actions).
type EventStore struct {
	name    string
	handler utils.Value[MessageHandler]
}

func newEventStore(name string) *EventStore {
	return &EventStore{name: name}
}

func (s *EventStore) Name() string { return s.name }

func (s *EventStore) SetHandler(handler MessageHandler) error {
	if handler == nil {
		return newValidationError("handler", "handler cannot be nil")
	}
	s.handler.Store(handler)
	return nil
}

func (s *EventStore) IsSet() bool {
	_, ok := s.handler.Load()
	return ok
}

// Trigger runs the handler, if one is set.
func (s *EventStore) Trigger(ctx context.Context, m *NewMessage) error {
	h, ok := s.handler.Load()
	if !ok {
		return nil
	}
	return h(ctx, m)
}
