package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/orchestration"
)

func TestChat_OneShot(t *testing.T) {
	env := newTestEnv(t)
	convo := env.writeFile(t, "convo.json", conversationJSON)

	out, errOut, err := env.run(t, "", "chat", "--file", convo, "--message", "hello")
	require.NoError(t, err)
	assert.Equal(t, "bot: echo: hello\n", out)
	assert.Contains(t, errOut, "Waiting for a reply...")
}

func TestChat_ReadsStdinUntilQuit(t *testing.T) {
	env := newTestEnv(t)
	convo := env.writeFile(t, "convo.json", conversationJSON)

	out, _, err := env.run(t, "first\n\n   \nsecond\n/quit\nthird\n", "chat", "--file", convo)
	require.NoError(t, err)
	assert.Equal(t, "bot: echo: first\nbot: echo: second\n", out)
}

func TestChat_FailureShowsFallback(t *testing.T) {
	env := newTestEnv(t)
	env.failChat.Store(true)
	convo := env.writeFile(t, "convo.json", conversationJSON)

	out, errOut, err := env.run(t, "", "chat", "--file", convo, "--message", "hello")
	require.Error(t, err)
	assert.Equal(t, ExitRequestFailed, exitCode(err))
	assert.Equal(t, "bot: "+orchestration.ChatFallback+"\n", out)
	assert.Contains(t, errOut, "Could not reach the evaluation service")
}

func TestChat_StdinCountsFailures(t *testing.T) {
	env := newTestEnv(t)
	env.failChat.Store(true)
	convo := env.writeFile(t, "convo.json", conversationJSON)

	_, _, err := env.run(t, "one\ntwo\n", "chat", "--file", convo)
	require.Error(t, err)
	assert.ErrorContains(t, err, "2 chat request(s) failed")
	assert.Equal(t, ExitRequestFailed, exitCode(err))
}

func TestChat_RequiresConversation(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "", "chat", "--message", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, orchestration.ErrNoConversation)
}
