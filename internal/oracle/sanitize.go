package oracle

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/dealbreaker/internal/characters"
)

// FallbackMessage is the reply used when the model produced nothing usable.
const FallbackMessage = "The salesperson loses their train of thought, mumbles an apology and wanders off."

// DefaultQuickActions replaces a missing or malformed quick action list.
var DefaultQuickActions = []string{
	"No thanks, I'm just looking.",
	"What's the catch?",
	"I need to think about it.",
}

// Sanitize turns a decoded model reply into a valid Reply. It never fails:
// every field that is missing or out of bounds is corrected.
func Sanitize(raw map[string]any, ch characters.Character, balance int) Reply {
	msg, _ := raw["reply_message"].(string)
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return Fallback(ch, balance)
	}

	return Reply{
		Message:           msg,
		NewBalance:        sanitizeBalance(raw["new_balance"], balance),
		Expression:        sanitizeExpression(raw["expression"], ch),
		EncounterResolved: asBool(raw["encounter_resolved"]),
		QuickActions:      sanitizeQuickActions(raw["quick_actions"]),
		EscalateThreat:    asBool(raw["escalate_threat"]),
	}
}

// Fallback is the reply used when the model could not be reached or its
// output was unusable. It ends the encounter and leaves the balance alone.
func Fallback(ch characters.Character, balance int) Reply {
	return Reply{
		Message:           FallbackMessage,
		NewBalance:        balance,
		Expression:        ch.FirstExpressionID(),
		EncounterResolved: true,
		QuickActions:      defaultQuickActions(),
		Fallback:          true,
	}
}

// sanitizeBalance clamps the proposed balance to [0, current]. Anything that
// is not a number leaves the balance unchanged.
func sanitizeBalance(v any, current int) int {
	proposed, ok := asNumber(v)
	if !ok {
		return current
	}
	proposed = math.Floor(proposed)
	switch {
	case proposed < 0:
		return 0
	case proposed > float64(current):
		return current
	default:
		return int(proposed)
	}
}

func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	case float64:
		f = n
	case int:
		f = float64(n)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		s = strings.TrimPrefix(s, "$")
		var err error
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func sanitizeExpression(v any, ch characters.Character) string {
	if id, ok := v.(string); ok && ch.HasExpression(id) {
		return id
	}
	return ch.FirstExpressionID()
}

func sanitizeQuickActions(v any) []string {
	list, ok := v.([]any)
	if !ok || len(list) != 3 {
		return defaultQuickActions()
	}
	out := make([]string, 0, 3)
	for _, item := range list {
		s, ok := item.(string)
		s = strings.TrimSpace(s)
		if !ok || s == "" {
			return defaultQuickActions()
		}
		out = append(out, s)
	}
	return out
}

func defaultQuickActions() []string {
	return append([]string(nil), DefaultQuickActions...)
}

func asBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
