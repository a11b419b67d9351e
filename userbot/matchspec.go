// Copyright (c) 2025 ariusbronte

package userbot

import (
	"regexp"
	"strings"
)

// RegexFlags is a set of regular expression options applied to a pattern.
type RegexFlags uint8

const (
	IgnoreCase RegexFlags = 1 << iota
	Multiline
	DotAll
	Ungreedy

	NoFlags  RegexFlags = 0
	allFlags            = IgnoreCase | Multiline | DotAll | Ungreedy
)

func (f RegexFlags) Valid() bool {
	return f&^allFlags == 0
}

// inline renders the flags as a Go regexp flag group, e.g. "(?is)".
func (f RegexFlags) inline() string {
	if f == NoFlags {
		return ""
	}
	var b strings.Builder
	b.WriteString("(?")
	if f&IgnoreCase != 0 {
		b.WriteByte('i')
	}
	if f&Multiline != 0 {
		b.WriteByte('m')
	}
	if f&DotAll != 0 {
		b.WriteByte('s')
	}
	if f&Ungreedy != 0 {
		b.WriteByte('U')
	}
	b.WriteByte(')')
	return b.String()
}

// SpecKind tells which form of MatchSpec is in use.
type SpecKind uint8

const (
	PatternSpec SpecKind = iota + 1
	IdentitySpec
)

// MatchSpec is the key a handler is registered under: an optional peer
// scope plus either a regular expression (text, reply, forward) or an exact
// identifier (sticker). MatchSpec values are comparable and are used
// directly as registry keys.
type MatchSpec struct {
	Kind    SpecKind
	Peer    int64
	Scoped  bool
	Pattern string
	Flags   RegexFlags
	ID      int64
}

// Pattern builds a pattern match specification.
func Pattern(pattern string, flags ...RegexFlags) MatchSpec {
	s := MatchSpec{Kind: PatternSpec, Pattern: pattern}
	for _, f := range flags {
		s.Flags |= f
	}
	return s
}

// Sticker builds an identity match specification for a sticker id.
func Sticker(id int64) MatchSpec {
	return MatchSpec{Kind: IdentitySpec, ID: id}
}

// InPeer scopes the specification to a single peer.
func (s MatchSpec) InPeer(peerID int64) MatchSpec {
	s.Peer = peerID
	s.Scoped = true
	return s
}

func (s MatchSpec) String() string {
	var b strings.Builder
	if s.Scoped {
		b.WriteString("peer:")
		b.WriteString(itoa(s.Peer))
		b.WriteByte(' ')
	}
	switch s.Kind {
	case PatternSpec:
		b.WriteString(s.Flags.inline())
		b.WriteString(s.Pattern)
	case IdentitySpec:
		b.WriteString("id:")
		b.WriteString(itoa(s.ID))
	}
	return b.String()
}

// validate checks the spec invariants and compiles the pattern.
func (s MatchSpec) validate() (*regexp.Regexp, error) {
	if s.Scoped && s.Peer <= 0 {
		return nil, newValidationError("peer", "peer scope must be positive")
	}
	if !s.Scoped && s.Peer != 0 {
		return nil, newValidationError("peer", "peer set without scope, use InPeer")
	}

	switch s.Kind {
	case PatternSpec:
		if s.ID != 0 {
			return nil, newValidationError("id", "pattern specification cannot carry an id")
		}
		if strings.TrimSpace(s.Pattern) == "" {
			return nil, newValidationError("pattern", "pattern cannot be empty or whitespace")
		}
		if !s.Flags.Valid() {
			return nil, newValidationError("flags", "undefined regex flags value "+itoa(int64(s.Flags)))
		}
		re, err := regexp.Compile(s.Flags.inline() + s.Pattern)
		if err != nil {
			return nil, newValidationError("pattern", err.Error())
		}
		return re, nil
	case IdentitySpec:
		if s.Pattern != "" || s.Flags != NoFlags {
			return nil, newValidationError("pattern", "identity specification cannot carry a pattern")
		}
		if s.ID <= 0 {
			return nil, newValidationError("id", "id must be positive")
		}
		return nil, nil
	default:
		return nil, newValidationError("kind", "unknown match specification kind")
	}
}
