package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRules = `
rules:
  - category: text
    pattern: "^ping$"
    flags: [ignore_case]
    answers: pong
  - category: sticker
    sticker: 163
    answers: nice sticker
`

const testConfig = `
[log]
level = "disable"

[send]
rate = 1000.0
burst = 5
`

const testEvents = `{"new_pts": 2, "messages": [{"id": 1, "peer_id": 42, "from_id": 42, "text": "PING"}]}
{"expired": true}
{"new_pts": 3, "messages": [{"id": 2, "peer_id": 7, "from_id": 7, "attachments": [{"type": "sticker", "id": 163}]}, {"id": 3, "peer_id": 7, "from_id": 7, "text": "silence"}]}
`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "vkbot.toml", testConfig)
	rules := writeFile(t, dir, "rules.yaml", testRules)
	events := writeFile(t, dir, "events.jsonl", testEvents)

	out, err := execute(t, "replay", events, "--config", cfg, "--rules", rules)
	require.NoError(t, err)
	assert.Equal(t, "42\tpong\n7\tnice sticker\n", out)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "vkbot.toml", testConfig)
	rules := writeFile(t, dir, "rules.yaml", testRules)

	out, err := execute(t, "check", "--config", cfg, "--rules", rules)
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 rules\n", out)

	bad := writeFile(t, dir, "bad.yaml", "rules:\n  - category: text\n    pattern: \"(\"\n    answers: x\n")
	_, err = execute(t, "check", "--config", cfg, "--rules", bad)
	assert.ErrorContains(t, err, "rule 1")

	badCfg := writeFile(t, dir, "bad.toml", "[longpoll]\nmsgs_limit = 1\n")
	_, err = execute(t, "check", "--config", badCfg, "--rules", rules)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vkbot ")
}
