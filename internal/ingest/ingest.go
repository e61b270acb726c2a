// Package ingest turns an uploaded conversation file into transcript
// entries.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/validation"
)

// JSONContentType is the only content type accepted for conversation files.
const JSONContentType = "application/json"

// MaxFileSize bounds how much of a conversation file is read.
const MaxFileSize = 10 << 20

var (
	// ErrUnsupportedFileType is returned when the file is not declared as JSON.
	ErrUnsupportedFileType = errors.New("only JSON files are allowed")
	// ErrInvalidSchema is returned when the document is not an array of
	// {user_question, bot_response} objects.
	ErrInvalidSchema = errors.New("invalid JSON file format")
)

// IsJSON reports whether a declared content type is JSON. Media type
// parameters such as charset are ignored.
func IsJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == JSONContentType
}

// DetectContentType returns the declared type when present, otherwise infers
// it from the file extension the way a browser file picker does.
func DetectContentType(name, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return JSONContentType
	}
	return declared
}

// ParseConversationFile validates and expands a conversation file into
// alternating user and bot entries. Non-JSON content types are rejected
// without reading r. The result is all-or-nothing.
func ParseConversationFile(contentType string, r io.Reader) ([]models.TranscriptEntry, error) {
	if !IsJSON(contentType) {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedFileType, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading conversation file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidSchema, MaxFileSize)
	}

	return ParseConversation(data)
}

// ParseConversation validates raw JSON bytes and expands them.
func ParseConversation(data []byte) ([]models.TranscriptEntry, error) {
	if errs := validation.ValidateConversationBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSchema, strings.Join(errs, "; "))
	}

	var turns []models.ConversationTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	entries := make([]models.TranscriptEntry, 0, 2*len(turns))
	for _, t := range turns {
		entries = append(entries,
			models.TranscriptEntry{Text: t.UserQuestion, Sender: models.SenderUser},
			models.TranscriptEntry{Text: t.BotResponse, Sender: models.SenderBot},
		)
	}
	return entries, nil
}
