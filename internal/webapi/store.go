package webapi

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

// ErrResultNotFound is returned when an ID does not match any saved result.
var ErrResultNotFound = errors.New("result not found")

// ResultStore provides access to saved evaluation results.
type ResultStore interface {
	// ListResults returns all results, sorted by the given field and order.
	ListResults(sortField, order string) ([]ResultSummary, error)
	// GetResult returns a single result with its transcript.
	GetResult(id string) (*models.EvaluationOutcome, error)
}

// FileStore reads EvaluationOutcome JSON files from a directory. Results
// are read on first use and on Reload.
type FileStore struct {
	dir string

	mu      sync.RWMutex
	results map[string]*models.EvaluationOutcome
	loaded  bool
}

// NewFileStore creates a FileStore that reads results from dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:     dir,
		results: make(map[string]*models.EvaluationOutcome),
	}
}

// load reads all result JSON files from the configured directory. Files that
// do not decode are skipped.
func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.results = make(map[string]*models.EvaluationOutcome)

	if fs.dir == "" {
		fs.loaded = true
		return nil
	}

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fs.loaded = true
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(fs.dir, e.Name()))
		if err != nil {
			continue
		}
		var outcome models.EvaluationOutcome
		if err := json.Unmarshal(data, &outcome); err != nil {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		fs.results[id] = &outcome
	}

	fs.loaded = true
	return nil
}

// ensureLoaded loads data if not already loaded.
func (fs *FileStore) ensureLoaded() error {
	fs.mu.RLock()
	if fs.loaded {
		fs.mu.RUnlock()
		return nil
	}
	fs.mu.RUnlock()
	return fs.load()
}

// Reload forces a fresh reload of all result files from disk.
func (fs *FileStore) Reload() error {
	return fs.load()
}

func outcomeToSummary(id string, o *models.EvaluationOutcome) ResultSummary {
	messages := 0
	for _, e := range o.Transcript {
		if e.Sender == models.SenderBot {
			messages++
		}
	}
	metrics := o.Metrics
	if metrics == nil {
		metrics = []string{}
	}
	return ResultSummary{
		ID:            id,
		Model:         o.Model,
		ModelLabel:    o.ModelLabel,
		Metrics:       metrics,
		AverageScores: o.Summary,
		Messages:      messages,
		Timestamp:     o.Timestamp,
	}
}

// ListResults returns all results sorted by the given field and order.
func (fs *FileStore) ListResults(sortField, order string) ([]ResultSummary, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	results := make([]ResultSummary, 0, len(fs.results))
	for id, o := range fs.results {
		results = append(results, outcomeToSummary(id, o))
	}

	sortResults(results, sortField, order)
	return results, nil
}

// GetResult returns a single result.
func (fs *FileStore) GetResult(id string) (*models.EvaluationOutcome, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	o, ok := fs.results[id]
	if !ok {
		return nil, ErrResultNotFound
	}
	return o, nil
}

func sortResults(results []ResultSummary, field, order string) {
	less := func(i, j int) bool {
		switch field {
		case "model":
			return results[i].ModelLabel < results[j].ModelLabel
		case "messages":
			return results[i].Messages < results[j].Messages
		default: // "timestamp" or empty
			if results[i].Timestamp.Equal(results[j].Timestamp) {
				return results[i].ID < results[j].ID
			}
			return results[i].Timestamp.Before(results[j].Timestamp)
		}
	}

	if order == "asc" {
		sort.SliceStable(results, less)
	} else {
		sort.SliceStable(results, func(i, j int) bool { return less(j, i) })
	}
}

// Ensure FileStore satisfies ResultStore.
var _ ResultStore = (*FileStore)(nil)
