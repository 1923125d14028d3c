package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/dealbreaker/internal/characters"
	"github.com/abhisek/dealbreaker/internal/llm"
)

func testCharacter() characters.Character {
	return characters.Character{
		ID:           "vince",
		Name:         "Vince Moretti",
		Instructions: "Sell vacuums.",
		Expressions: []characters.Expression{
			{ID: "charming", Usage: "Default", Assets: []string{"vince/charming.png"}},
			{ID: "annoyed", Usage: "Refused", Assets: []string{"vince/annoyed.png"}},
		},
	}
}

func strPtr(s string) *string { return &s }

func newTestOracle(responses ...llm.MockResponse) (*LLMOracle, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	cfg := DefaultConfig()
	cfg.Timeout = time.Second
	return New(mock, cfg, nil), mock
}

func TestConverse_ValidReply(t *testing.T) {
	o, mock := newTestOracle(llm.MockResponse{Content: json.RawMessage(`{
		"reply_message": "This baby pays for itself!",
		"new_balance": 80,
		"expression": "annoyed",
		"encounter_resolved": false,
		"quick_actions": ["How much?", "No.", "Show me"],
		"escalate_threat": true
	}`)})

	reply := o.Converse(context.Background(), Input{
		Character:     testCharacter(),
		Balance:       100,
		PlayerMessage: strPtr("What is that?"),
		ThreatLevel:   2,
	})

	assert.Equal(t, Reply{
		Message:        "This baby pays for itself!",
		NewBalance:     80,
		Expression:     "annoyed",
		QuickActions:   []string{"How much?", "No.", "Show me"},
		EscalateThreat: true,
	}, reply)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Same(t, ReplySchema, req.Schema)
	assert.Contains(t, req.System, "You are Vince Moretti")
	assert.Contains(t, req.System, "- annoyed: Refused")
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "What is that?")
	assert.Contains(t, req.Messages[0].Content, "current balance: 100")
	assert.Contains(t, req.Messages[0].Content, "Threat level: 2")
}

func TestConverse_ToleratesFormattingNoise(t *testing.T) {
	o, _ := newTestOracle(llm.MockResponse{Content: json.RawMessage("Sure! Here you go:\n```json\n" +
		`{"reply_message":"Hi {friend}!","new_balance":100,"expression":"charming","encounter_resolved":false,"quick_actions":["a","b","c"],"escalate_threat":false}` +
		"\n```\nHope that helps.")})

	reply := o.Converse(context.Background(), Input{Character: testCharacter(), Balance: 100})
	assert.False(t, reply.Fallback)
	assert.Equal(t, "Hi {friend}!", reply.Message)
	assert.Equal(t, []string{"a", "b", "c"}, reply.QuickActions)
}

func TestConverse_BalanceIncreaseIsClamped(t *testing.T) {
	o, _ := newTestOracle(llm.MockResponse{Content: json.RawMessage(`{"reply_message":"Here's a refund!","new_balance":80}`)})

	reply := o.Converse(context.Background(), Input{Character: testCharacter(), Balance: 50})
	assert.Equal(t, 50, reply.NewBalance)
}

func TestConverse_FallbackCases(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"provider error", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}}},
		{"no json", llm.MockResponse{Content: json.RawMessage("I'd rather not.")}},
		{"missing reply", llm.MockResponse{Content: json.RawMessage(`{"new_balance": 10}`)}},
		{"blank reply", llm.MockResponse{Content: json.RawMessage(`{"reply_message": "   "}`)}},
		{"reply not a string", llm.MockResponse{Content: json.RawMessage(`{"reply_message": 42}`)}},
		{"array of strings", llm.MockResponse{Content: json.RawMessage(`["Buy it", "now"]`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _ := newTestOracle(tt.resp)
			reply := o.Converse(context.Background(), Input{Character: testCharacter(), Balance: 70})

			assert.True(t, reply.Fallback)
			assert.Equal(t, FallbackMessage, reply.Message)
			assert.Equal(t, 70, reply.NewBalance)
			assert.Equal(t, "charming", reply.Expression)
			assert.True(t, reply.EncounterResolved)
			assert.Equal(t, DefaultQuickActions, reply.QuickActions)
			assert.False(t, reply.EscalateThreat)
		})
	}
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestConverse_TimeoutFallsBack(t *testing.T) {
	o := New(slowProvider{}, Config{Timeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	reply := o.Converse(context.Background(), Input{Character: testCharacter(), Balance: 30})
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, reply.Fallback)
	assert.Equal(t, 30, reply.NewBalance)
}

func TestBuildUserMessage(t *testing.T) {
	in := Input{
		Character: testCharacter(),
		Balance:   60,
		History: []Turn{
			{Reply: "Hello there!"},
			{PlayerMessage: strPtr("Go away"), Reply: "Rude."},
			{PlayerMessage: strPtr("Fine, what is it"), Reply: "A vacuum."},
		},
	}

	msg := buildUserMessage(in, 2)
	assert.NotContains(t, msg, "Hello there!", "oldest turn trimmed")
	assert.Contains(t, msg, "Shopper: Go away\nYou: Rude.")
	assert.Contains(t, msg, OpeningMove)

	full := buildUserMessage(in, 0)
	assert.Contains(t, full, "Shopper: (approaches)\nYou: Hello there!")
}

func TestExtractJSON(t *testing.T) {
	doc, err := extractJSON([]byte(`noise { not json } then {"a": {"b": "}"}} trailing`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": {"b": "}"}}`, string(doc))

	_, err = extractJSON([]byte("nothing here"))
	assert.ErrorIs(t, err, errNoJSONObject)
}

func TestConverse_SalvagesReplyRejectedBySchema(t *testing.T) {
	raw := json.RawMessage("Of course!\n" + `{"reply_message":"Sign here.","new_balance":"40","quick_actions":["ok"]}`)
	o, mock := newTestOracle(llm.MockResponse{Err: &llm.ErrInvalidResponse{Content: raw, Err: errors.New("schema validation failed")}})

	reply := o.Converse(context.Background(), Input{Character: testCharacter(), Balance: 70})

	assert.False(t, reply.Fallback)
	assert.Equal(t, "Sign here.", reply.Message)
	assert.Equal(t, 40, reply.NewBalance)
	assert.Equal(t, DefaultQuickActions, reply.QuickActions)
	assert.Equal(t, 1, mock.CallCount())
}

func TestConverse_CancelledCallerFallsBack(t *testing.T) {
	o := New(slowProvider{}, Config{Timeout: time.Minute}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply := o.Converse(ctx, Input{Character: testCharacter(), Balance: 30})
	assert.True(t, reply.Fallback)
}

func TestReplySchema(t *testing.T) {
	valid := []string{
		`{"reply_message":"Buy it.","new_balance":90,"expression":"smug","encounter_resolved":false,"quick_actions":["a","b","c"],"escalate_threat":false}`,
		`{"reply_message":"Buy it.","new_balance":null,"expression":null,"encounter_resolved":null,"quick_actions":null,"escalate_threat":null}`,
		`{"reply_message":"Buy it.","new_balance":89.5}`,
	}
	for _, raw := range valid {
		assert.NoError(t, llm.ValidateJSON(ReplySchema, json.RawMessage(raw)), raw)
	}

	invalid := []string{
		`{"new_balance":90}`,
		`{"reply_message":"  "}`,
		`{"reply_message":"Buy it.","mood":"smug"}`,
		`{"reply_message":"Buy it.","quick_actions":[1,2,3]}`,
	}
	for _, raw := range invalid {
		assert.Error(t, llm.ValidateJSON(ReplySchema, json.RawMessage(raw)), raw)
	}

	// Every field Sanitize reads is declared, so strict providers can emit it.
	props := ReplySchema.Definition["properties"].(map[string]any)
	for _, field := range []string{"reply_message", "new_balance", "expression", "encounter_resolved", "quick_actions", "escalate_threat"} {
		assert.Contains(t, props, field)
	}
	assert.False(t, ReplySchema.Strict)
}
