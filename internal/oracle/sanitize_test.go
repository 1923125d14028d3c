package oracle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/dealbreaker/internal/characters"
)

func TestSanitize_Balance(t *testing.T) {
	tests := []struct {
		name     string
		proposed any
		current  int
		want     int
	}{
		{"decrease", json.Number("40"), 100, 40},
		{"unchanged", json.Number("100"), 100, 100},
		{"increase clamped", json.Number("150"), 100, 100},
		{"negative clamped", json.Number("-20"), 100, 0},
		{"fraction floored", json.Number("39.9"), 100, 39},
		{"float64", 25.0, 100, 25},
		{"numeric string", "$1,050", 2000, 1050},
		{"garbage string", "lots", 100, 100},
		{"missing", nil, 100, 100},
		{"bool", true, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{"reply_message": "ok"}
			if tt.proposed != nil {
				raw["new_balance"] = tt.proposed
			}
			got := Sanitize(raw, testCharacter(), tt.current)
			assert.Equal(t, tt.want, got.NewBalance)
			assert.LessOrEqual(t, got.NewBalance, tt.current)
			assert.GreaterOrEqual(t, got.NewBalance, 0)
		})
	}
}

func TestSanitize_Expression(t *testing.T) {
	ch := testCharacter()

	got := Sanitize(map[string]any{"reply_message": "ok", "expression": "annoyed"}, ch, 10)
	assert.Equal(t, "annoyed", got.Expression)

	got = Sanitize(map[string]any{"reply_message": "ok", "expression": "furious"}, ch, 10)
	assert.Equal(t, "charming", got.Expression)

	got = Sanitize(map[string]any{"reply_message": "ok", "expression": 3}, ch, 10)
	assert.Equal(t, "charming", got.Expression)

	got = Sanitize(map[string]any{"reply_message": "ok", "expression": "furious"}, characters.Character{ID: "blank"}, 10)
	assert.Equal(t, characters.FallbackExpression, got.Expression)
}

func TestSanitize_QuickActions(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"valid", []any{" a ", "b", "c"}, []string{"a", "b", "c"}},
		{"too few", []any{"a", "b"}, DefaultQuickActions},
		{"too many", []any{"a", "b", "c", "d"}, DefaultQuickActions},
		{"blank entry", []any{"a", " ", "c"}, DefaultQuickActions},
		{"non-string entry", []any{"a", 2, "c"}, DefaultQuickActions},
		{"not a list", "a,b,c", DefaultQuickActions},
		{"missing", nil, DefaultQuickActions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{"reply_message": "ok", "quick_actions": tt.in}
			assert.Equal(t, tt.want, Sanitize(raw, testCharacter(), 10).QuickActions)
		})
	}
}

func TestSanitize_Flags(t *testing.T) {
	got := Sanitize(map[string]any{"reply_message": "ok", "encounter_resolved": true, "escalate_threat": true}, testCharacter(), 10)
	assert.True(t, got.EncounterResolved)
	assert.True(t, got.EscalateThreat)

	got = Sanitize(map[string]any{"reply_message": "ok", "encounter_resolved": "yes", "escalate_threat": "true"}, testCharacter(), 10)
	assert.False(t, got.EncounterResolved)
	assert.False(t, got.EscalateThreat)
}

func TestSanitize_MissingMessageFallsBack(t *testing.T) {
	got := Sanitize(map[string]any{"new_balance": json.Number("5")}, testCharacter(), 10)
	assert.True(t, got.Fallback)
	assert.Equal(t, 10, got.NewBalance)
	assert.True(t, got.EncounterResolved)
}

func TestFallback_DoesNotShareDefaults(t *testing.T) {
	r := Fallback(testCharacter(), 10)
	r.QuickActions[0] = "mutated"
	assert.NotEqual(t, "mutated", DefaultQuickActions[0])
}
