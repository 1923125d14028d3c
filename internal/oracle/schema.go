package oracle

import "github.com/abhisek/dealbreaker/internal/llm"

// ReplySchema is the full reply contract sent to providers with native
// structured output. Only reply_message is required; the remaining fields
// are soft and Sanitize repairs whatever the model gets wrong.
var ReplySchema = &llm.Schema{
	Name:        "character-reply",
	Description: "A salesperson's next line to the shopper, plus the game state it implies",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"reply_message": map[string]any{
				"type":        "string",
				"description": "What the salesperson says, in character.",
				"minLength":   1,
				"pattern":     `\S`,
			},
			"new_balance": map[string]any{
				"type":        []any{"number", "null"},
				"description": "The shopper's balance after this line. Lower only if the shopper agreed to buy.",
			},
			"expression": map[string]any{
				"type":        []any{"string", "null"},
				"description": "One of the character's expression ids.",
			},
			"encounter_resolved": map[string]any{
				"type":        []any{"boolean", "null"},
				"description": "True when the shopper bought something or escaped.",
			},
			"quick_actions": map[string]any{
				"type":        []any{"array", "null"},
				"description": "Three short replies the shopper could send next.",
				"items":       map[string]any{"type": "string"},
			},
			"escalate_threat": map[string]any{
				"type":        []any{"boolean", "null"},
				"description": "True when the shopper was rude enough to raise the threat level.",
			},
		},
		"required": []any{"reply_message"},
	},
}

// ReplyEnvelope is the part of the reply contract that cannot be repaired:
// an object carrying a non-blank reply message. Every other field is
// corrected by Sanitize.
var ReplyEnvelope = &llm.Schema{
	Name:        "character-reply-envelope",
	Description: "A salesperson's reply to the shopper",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reply_message": map[string]any{
				"type":      "string",
				"minLength": 1,
				"pattern":   `\S`,
			},
		},
		"required": []any{"reply_message"},
	},
}
