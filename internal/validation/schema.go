// Package validation checks JSON documents exchanged with the evaluation
// service, and uploaded conversation files, against embedded JSON Schemas.
package validation

import (
	"bytes"
	"embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

var (
	conversationSchema       *jsonschema.Schema
	evaluationResponseSchema *jsonschema.Schema
	chatResponseSchema       *jsonschema.Schema
)

func init() {
	conversationSchema = mustCompileSchema("conversation.schema.json")
	evaluationResponseSchema = mustCompileSchema("evaluation-response.schema.json")
	chatResponseSchema = mustCompileSchema("chat-response.schema.json")
}

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("failed to read embedded %s: %v", name, err))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateConversationBytes validates an uploaded conversation file: an
// array of objects carrying user_question and bot_response.
func ValidateConversationBytes(data []byte) []string {
	return validateJSONBytes(conversationSchema, data)
}

// ValidateEvaluationResponseBytes validates the body of POST /evaluation.
func ValidateEvaluationResponseBytes(data []byte) []string {
	return validateJSONBytes(evaluationResponseSchema, data)
}

// ValidateChatResponseBytes validates the body of the chat endpoint.
func ValidateChatResponseBytes(data []byte) []string {
	return validateJSONBytes(chatResponseSchema, data)
}

func validateJSONBytes(schema *jsonschema.Schema, data []byte) []string {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	return validateAgainstSchema(schema, doc)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
