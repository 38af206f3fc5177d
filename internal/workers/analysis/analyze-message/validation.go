// internal/workers/analysis/analyze-message/validation.go
package analyzemessage

import "github.com/kanishkaditya/DinemateBackend/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"messageId", "groupId", "userId"},
		Properties: map[string]validation.Property{
			"messageId": {
				Type:        "string",
				Description: "Identifier of the chat message",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(128),
			},
			"groupId": {
				Type:        "string",
				Description: "Identifier of the dining group",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(128),
			},
			"userId": {
				Type:        "string",
				Description: "Identifier of the message sender",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(128),
			},
			"content": {
				Type:        "string",
				Description: "Raw message text",
				MaxLength:   intPtr(4096),
			},
			"senderName": {
				Type:        "string",
				Description: "Display name of the sender",
				MaxLength:   intPtr(200),
			},
		},
		// Workflow variables beyond the input contract pass through.
		AdditionalProperties: true,
	}
}

func intPtr(v int) *int { return &v }
