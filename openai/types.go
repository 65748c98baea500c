package openai

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
)

// Message is one chat bubble of a structured reply.
type Message struct {
	Content string `json:"content" jsonschema_description:"The text of the chat bubble"`
}

// MessageList is the structured reply format: a reply may be split into
// several bubbles.
type MessageList struct {
	Messages []Message `json:"messages" jsonschema_description:"The reply split into chat bubbles, in order"`
}

// GenerateSchema reflects a strict, reference-free JSON schema for T.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var MessageListResponseSchema = GenerateSchema[MessageList]()

func createSchemaParam() openai.ResponseFormatJSONSchemaJSONSchemaParam {
	return openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "message_list",
		Description: openai.String("The assistant reply split into chat bubbles"),
		Schema:      MessageListResponseSchema,
		Strict:      openai.Bool(true),
	}
}
