// Copyright (c) 2025 ariusbronte

// Package rules loads declarative answer rules from YAML and registers them
// on a bot.
//
//	rules:
//	  - category: text
//	    pattern: "^ping$"
//	    flags: [ignore_case]
//	    answers: pong
//	  - category: sticker
//	    sticker: 163
//	    peer: 2000000001
//	    answers: ["nice", "cool"]
//	  - category: chat_invite_user
//	    answers: welcome
package rules

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ariusbronte/vkbot/userbot"
)

var flagNames = map[string]userbot.RegexFlags{
	"ignore_case": userbot.IgnoreCase,
	"multiline":   userbot.Multiline,
	"dot_all":     userbot.DotAll,
	"ungreedy":    userbot.Ungreedy,
}

// StringList accepts both a YAML scalar and a YAML sequence.
type StringList []string

func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be strings", item.Line)
			}
			out = append(out, item.Value)
		}
		*s = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

type Rule struct {
	Category string     `yaml:"category"`
	Pattern  string     `yaml:"pattern,omitempty"`
	Flags    StringList `yaml:"flags,omitempty"`
	Sticker  int64      `yaml:"sticker,omitempty"`
	Peer     int64      `yaml:"peer,omitempty"`
	Answers  StringList `yaml:"answers"`
}

type File struct {
	Rules []Rule `yaml:"rules"`
}

// Parse decodes a rules document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "[Rules] decoding")
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "[Rules] reading")
	}
	return Parse(data)
}

// Target returns the category and match specification the rule registers
// under. Rules without a pattern or sticker id on text, reply, forward and
// sticker set the category fallback.
func (r Rule) Target() (userbot.Category, userbot.MatchSpec, error) {
	c, ok := userbot.ParseCategory(r.Category)
	if !ok {
		return 0, userbot.Any, errors.Errorf("unknown category %q", r.Category)
	}

	var flags userbot.RegexFlags
	for _, name := range r.Flags {
		f, ok := flagNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, userbot.Any, errors.Errorf("unknown regex flag %q", name)
		}
		flags |= f
	}

	var spec userbot.MatchSpec
	switch c {
	case userbot.CategoryText, userbot.CategoryReply, userbot.CategoryForward:
		if r.Sticker != 0 {
			return 0, userbot.Any, errors.Errorf("%s rules take a pattern, not a sticker", r.Category)
		}
		if r.Pattern == "" {
			if flags != userbot.NoFlags || r.Peer != 0 {
				return 0, userbot.Any, errors.New("flags and peer need a pattern")
			}
			return c, userbot.Any, nil
		}
		spec = userbot.Pattern(r.Pattern, flags)
	case userbot.CategorySticker:
		if r.Pattern != "" || flags != userbot.NoFlags {
			return 0, userbot.Any, errors.New("sticker rules take a sticker id, not a pattern")
		}
		if r.Sticker == 0 {
			if r.Peer != 0 {
				return 0, userbot.Any, errors.New("peer needs a sticker id")
			}
			return c, userbot.Any, nil
		}
		spec = userbot.Sticker(r.Sticker)
	default:
		if r.Pattern != "" || r.Sticker != 0 || r.Peer != 0 || flags != userbot.NoFlags {
			return 0, userbot.Any, errors.Errorf("%s rules take answers only", r.Category)
		}
		return c, userbot.Any, nil
	}

	if r.Peer != 0 {
		spec = spec.InPeer(r.Peer)
	}
	return c, spec, nil
}

// Apply registers every rule on b as an answer handler, stopping at the
// first rule that fails.
func (f *File) Apply(b *userbot.Bot) error {
	for i, r := range f.Rules {
		c, spec, err := r.Target()
		if err != nil {
			return errors.Wrapf(err, "[Rules] rule %d", i+1)
		}
		if err := b.OnAnswer(c, spec, r.Answers...); err != nil {
			return errors.Wrapf(err, "[Rules] rule %d", i+1)
		}
	}
	return nil
}
