package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MetricScore is a single metric name/score pair.
type MetricScore struct {
	Name  string
	Value float64
}

// MetricScores is a metric name to score mapping that remembers the order in
// which names were first set. JSON decoding keeps the key order of the
// document, so downstream column ordering never depends on map iteration.
//
// The zero value is an empty, ready-to-use mapping.
type MetricScores struct {
	names  []string
	values map[string]float64
}

// NewMetricScores builds a mapping from pairs, in order. Later pairs with a
// repeated name overwrite the value but keep the first position.
func NewMetricScores(pairs ...MetricScore) MetricScores {
	var s MetricScores
	for _, p := range pairs {
		s.Set(p.Name, p.Value)
	}
	return s
}

// Set assigns value to name, appending name if it is new.
func (s *MetricScores) Set(name string, value float64) {
	if s.values == nil {
		s.values = make(map[string]float64)
	}
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

// Get returns the score for name.
func (s MetricScores) Get(name string) (float64, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Len returns the number of metrics.
func (s MetricScores) Len() int { return len(s.names) }

// Names returns the metric names in first-appearance order.
func (s MetricScores) Names() []string {
	return append([]string(nil), s.names...)
}

// Pairs returns the mapping as ordered pairs.
func (s MetricScores) Pairs() []MetricScore {
	out := make([]MetricScore, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, MetricScore{Name: n, Value: s.values[n]})
	}
	return out
}

// Clone returns an independent copy.
func (s MetricScores) Clone() MetricScores {
	return NewMetricScores(s.Pairs()...)
}

// MarshalJSON encodes the mapping as a JSON object in key order.
func (s MetricScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.values[n])
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", n, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of numbers, keeping the document's key
// order. null decodes to an empty mapping.
func (s *MetricScores) UnmarshalJSON(data []byte) error {
	*s = MetricScores{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("metric scores: expected a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("metric scores: unexpected key %v", tok)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("metric scores: %q is not a number: %w", name, err)
		}
		s.Set(name, v)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
