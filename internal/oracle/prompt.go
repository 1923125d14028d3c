package oracle

import (
	"fmt"
	"strings"

	"github.com/abhisek/dealbreaker/internal/characters"
)

// OpeningMove replaces the player's message when the character speaks first.
const OpeningMove = "(The shopper has just walked up to you and has not said anything yet. Open the conversation.)"

const outputContract = `Respond with a single JSON object and nothing else. Fields:
- "reply_message" (string): what you say to the shopper, in character, at most three sentences.
- "new_balance" (integer): the shopper's balance after this exchange. It can only stay the same or go down; it can never go up or below 0. Only lower it when the shopper actually agrees to pay.
- "expression" (string): one of your expression ids listed above.
- "encounter_resolved" (boolean): true when this conversation is over, because you made the sale or gave up on this shopper.
- "quick_actions" (array of exactly 3 short strings): replies the shopper could plausibly send next.
- "escalate_threat" (boolean): true only when you become hostile or threatening this turn.`

// buildSystemPrompt describes the persona, its expressions and the output format.
func buildSystemPrompt(ch characters.Character) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a salesperson in a game where the shopper tries to keep their money.\n\n", ch.Name)
	b.WriteString("Behavior:\n")
	b.WriteString(strings.TrimSpace(ch.Instructions))
	b.WriteString("\n\nExpressions you can show:\n")
	if len(ch.Expressions) == 0 {
		fmt.Fprintf(&b, "- %s\n", characters.FallbackExpression)
	}
	for _, e := range ch.Expressions {
		fmt.Fprintf(&b, "- %s: %s\n", e.ID, e.Usage)
	}
	b.WriteString("\n")
	b.WriteString(outputContract)

	return b.String()
}

// buildUserMessage renders the transcript with this character, the latest
// player message and the game state.
func buildUserMessage(in Input, maxHistory int) string {
	var b strings.Builder

	history := in.History
	if maxHistory > 0 && len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	b.WriteString("Conversation so far:\n")
	if len(history) == 0 {
		b.WriteString("None\n")
	}
	for _, t := range history {
		if t.PlayerMessage == nil {
			b.WriteString("Shopper: (approaches)\n")
		} else {
			fmt.Fprintf(&b, "Shopper: %s\n", *t.PlayerMessage)
		}
		fmt.Fprintf(&b, "You: %s\n", t.Reply)
	}

	b.WriteString("\nShopper's latest message:\n")
	if in.PlayerMessage == nil {
		b.WriteString(OpeningMove)
	} else {
		b.WriteString(*in.PlayerMessage)
	}

	fmt.Fprintf(&b, "\n\nShopper's current balance: %d\n", in.Balance)
	fmt.Fprintf(&b, "Threat level: %d\n", in.ThreatLevel)

	return b.String()
}
