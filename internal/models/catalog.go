package models

// Option is a selectable value with its display label.
type Option struct {
	Value string `yaml:"value" json:"value" validate:"required"`
	Label string `yaml:"label" json:"label" validate:"required"`
}

// Catalog lists the models and metrics offered by the evaluation form.
type Catalog struct {
	Models  []Option `yaml:"models,omitempty" json:"models" validate:"dive"`
	Metrics []Option `yaml:"metrics,omitempty" json:"metrics" validate:"dive"`
}

// DefaultCatalog returns the models and metrics supported by the evaluation
// service out of the box.
func DefaultCatalog() Catalog {
	return Catalog{
		Models: []Option{
			{Value: "groq-llama-3.1-8b-instant", Label: "Llama-3.1 8B (Instant)"},
			{Value: "gemini-2.0-flash", Label: "Gemini-2.0 Flash"},
			{Value: "gemini-1.5-pro", Label: "Gemini-1.5 Pro"},
			{Value: "gpt-4", Label: "GPT-4"},
			{Value: "groq-llama-3.3-70b-versatile", Label: "LLaMA-3.3 70B (Versatile)"},
			{Value: "groq-qwen-2.5-32b", Label: "Qwen-2.5 32B"},
			{Value: "groq-gemma2-9b-it", Label: "Gemma-2 9B (IT)"},
		},
		Metrics: []Option{
			{Value: "accuracy", Label: "Accuracy"},
			{Value: "relevancy", Label: "Relevancy"},
			{Value: "coherence", Label: "Coherence"},
			{Value: "contextual_understanding", Label: "Contextual Understanding"},
			{Value: "question_clarity", Label: "Question Clarity"},
			{Value: "conciseness_completeness", Label: "Conciseness & Completeness"},
		},
	}
}

// ModelLabel returns the display label for a model value. Unknown values are
// returned as-is.
func (c Catalog) ModelLabel(value string) string {
	return labelFor(c.Models, value)
}

// MetricLabel returns the display label for a metric value.
func (c Catalog) MetricLabel(value string) string {
	return labelFor(c.Metrics, value)
}

// HasModel reports whether value is a listed model.
func (c Catalog) HasModel(value string) bool {
	return indexOf(c.Models, value) >= 0
}

// HasMetric reports whether value is a listed metric.
func (c Catalog) HasMetric(value string) bool {
	return indexOf(c.Metrics, value) >= 0
}

func labelFor(opts []Option, value string) string {
	if i := indexOf(opts, value); i >= 0 {
		return opts[i].Label
	}
	return value
}

func indexOf(opts []Option, value string) int {
	for i, o := range opts {
		if o.Value == value {
			return i
		}
	}
	return -1
}
