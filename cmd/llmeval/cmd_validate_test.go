package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/ingest"
)

func TestValidate_ValidFile(t *testing.T) {
	env := newTestEnv(t)
	convo := env.writeFile(t, "convo.json", conversationJSON)

	out, _, err := env.run(t, "", "validate", convo)
	require.NoError(t, err)
	assert.Contains(t, out, "2 turns, 4 transcript entries")
}

func TestValidate_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"wrong extension", "convo.txt", conversationJSON, ingest.ErrUnsupportedFileType},
		{"not an array", "object.json", `{"user_question": "q", "bot_response": "a"}`, ingest.ErrInvalidSchema},
		{"missing field", "partial.json", `[{"user_question": "q"}]`, ingest.ErrInvalidSchema},
		{"malformed", "broken.json", `[{`, ingest.ErrInvalidSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			path := env.writeFile(t, tt.file, tt.content)

			_, errOut, err := env.run(t, "", "validate", path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, ExitRequestFailed, exitCode(err))
			assert.Contains(t, errOut, "✗")
		})
	}
}

func TestValidate_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "", "validate", "does-not-exist.json")
	require.Error(t, err)
	assert.Equal(t, ExitError, exitCode(err))
}
