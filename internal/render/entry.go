// Package render turns transcript entries, score summaries and benchmark
// tables into terminal text and dashboard HTML.
package render

import (
	"bytes"
	"encoding/json"
	"html"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

// EvaluationHeading introduces the score block under a bot message.
const EvaluationHeading = "Evaluation Result:"

// md leaves raw HTML out of the output; goldmark only emits it with
// html.WithUnsafe.
var md = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

// ScoresJSON pretty-prints scores with a two-space indent, keys in order.
func ScoresJSON(s models.MetricScores) string {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// hasBlock reports whether e gets a score block appended.
func hasBlock(e models.TranscriptEntry) bool {
	return e.Sender == models.SenderBot && e.Evaluation != nil
}

// EntryText returns the display text of e. Scored bot messages are followed
// by the feedback and then the score mapping; every other entry is returned
// unchanged.
func EntryText(e models.TranscriptEntry) string {
	if !hasBlock(e) {
		return e.Text
	}
	var b strings.Builder
	b.WriteString(e.Text)
	b.WriteString("\n\n")
	b.WriteString(EvaluationHeading)
	b.WriteString(" ")
	b.WriteString(e.Evaluation.Feedback)
	b.WriteString("\n")
	b.WriteString(ScoresJSON(e.Evaluation.Scores))
	return b.String()
}

// Markdown converts message text to HTML. Embedded HTML in the source is
// dropped rather than passed through.
func Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML("<p>" + html.EscapeString(text) + "</p>") //nolint:gosec
	}
	return template.HTML(buf.String()) //nolint:gosec
}

// EntryHTML renders e for the dashboard chat panel.
func EntryHTML(e models.TranscriptEntry) template.HTML {
	body := Markdown(e.Text)
	if !hasBlock(e) {
		return body
	}
	var b strings.Builder
	b.WriteString(string(body))
	b.WriteString(`<hr><small><b>`)
	b.WriteString(EvaluationHeading)
	b.WriteString(`</b> `)
	b.WriteString(html.EscapeString(e.Evaluation.Feedback))
	b.WriteString(`</small><pre class="scores"><code class="json">`)
	b.WriteString(html.EscapeString(ScoresJSON(e.Evaluation.Scores)))
	b.WriteString(`</code></pre>`)
	return template.HTML(b.String()) //nolint:gosec
}

// Transcript writes every entry as "sender: text" blocks separated by a
// blank line.
func Transcript(entries []models.TranscriptEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(string(e.Sender))
		b.WriteString(": ")
		b.WriteString(EntryText(e))
		b.WriteString("\n")
	}
	return b.String()
}
