package wizard

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "hello", []string{"hello"}},
		{"multiple", "a, b, c", []string{"a", "b", "c"}},
		{"with blanks", "a,, b, ,c", []string{"a", "b", "c"}},
		{"whitespace only", "  ,  ,  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRunEvaluationWizard_ValidInput(t *testing.T) {
	input := "4\n1, relevancy, Coherence, 1\ncustomer support bot\n"
	out := &bytes.Buffer{}

	form, err := RunEvaluationWizard(strings.NewReader(input), out, models.DefaultCatalog(), models.EvaluationForm{})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", form.Model)
	assert.Equal(t, []string{"accuracy", "relevancy", "coherence"}, form.Metrics)
	assert.Equal(t, "customer support bot", form.Context)
	assert.Contains(t, out.String(), "4) GPT-4 [gpt-4]")
	assert.Contains(t, out.String(), "Metrics (comma-separated numbers or values): ")
}

func TestRunEvaluationWizard_BlankKeepsInitial(t *testing.T) {
	initial := models.EvaluationForm{Model: "gemini-1.5-pro", Metrics: []string{"accuracy"}, Context: "faq"}

	form, err := RunEvaluationWizard(strings.NewReader("\n\n\n"), io.Discard, models.DefaultCatalog(), initial)
	require.NoError(t, err)
	assert.Equal(t, initial, form)
}

func TestRunEvaluationWizard_ContextMayBeOmitted(t *testing.T) {
	form, err := RunEvaluationWizard(strings.NewReader("gpt-4\naccuracy\n"), io.Discard, models.DefaultCatalog(), models.EvaluationForm{})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", form.Model)
	assert.Empty(t, form.Context)
}

func TestRunEvaluationWizard_UnknownModel(t *testing.T) {
	_, err := RunEvaluationWizard(strings.NewReader("claude-9\n"), io.Discard, models.DefaultCatalog(), models.EvaluationForm{})
	assert.EqualError(t, err, `unknown model "claude-9"`)
}

func TestRunEvaluationWizard_OutOfRangeMetric(t *testing.T) {
	_, err := RunEvaluationWizard(strings.NewReader("\n1, 42\n"), io.Discard, models.DefaultCatalog(), models.EvaluationForm{})
	assert.EqualError(t, err, `unknown metric "42"`)
}

func TestRunEvaluationWizard_UnexpectedEOF(t *testing.T) {
	_, err := RunEvaluationWizard(strings.NewReader("gpt-4\n"), io.Discard, models.DefaultCatalog(), models.EvaluationForm{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected end of input")
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, IsTerminal(strings.NewReader("")))
}
