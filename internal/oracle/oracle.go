// Package oracle turns a character, the encounter transcript and the
// player's message into a validated character reply.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/dealbreaker/internal/characters"
	"github.com/abhisek/dealbreaker/internal/llm"
)

// Oracle produces character replies. Converse never fails: any problem with
// the model or its output yields a fallback reply.
type Oracle interface {
	Converse(ctx context.Context, in Input) Reply
}

// Turn is one earlier exchange with the same character.
type Turn struct {
	PlayerMessage *string
	Reply         string
	BalanceAfter  int
}

// Input is everything the model sees for one turn.
type Input struct {
	Character     characters.Character
	Balance       int
	History       []Turn
	PlayerMessage *string // nil is the character's opening move
	ThreatLevel   int
}

// Reply is a sanitized character reply.
type Reply struct {
	Message           string
	NewBalance        int
	Expression        string
	EncounterResolved bool
	QuickActions      []string
	EscalateThreat    bool

	// Fallback is set when the reply was not produced by the model.
	Fallback bool
}

// Config controls the LLMOracle.
type Config struct {
	// Timeout bounds the provider call including retries. Zero disables it.
	Timeout time.Duration

	MaxTokens   int
	Temperature float64

	// MaxHistory caps how many earlier turns are included in the prompt.
	MaxHistory int
}

// DefaultConfig returns recommended defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:     20 * time.Second,
		MaxTokens:   600,
		Temperature: 0.9,
		MaxHistory:  20,
	}
}

// LLMOracle implements Oracle on top of an llm.Provider.
type LLMOracle struct {
	provider llm.Provider
	config   Config
	logger   *slog.Logger
}

// New creates an LLMOracle. A nil logger uses slog.Default().
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *LLMOracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMOracle{provider: provider, config: cfg, logger: logger}
}

func (o *LLMOracle) Converse(ctx context.Context, in Input) Reply {
	raw, err := o.generate(ctx, in)
	if err != nil {
		if ctx.Err() != nil {
			// The caller is gone and will discard the reply.
			o.logger.Debug("character reply abandoned", "character", in.Character.ID, "error", err)
		} else {
			o.logger.Warn("character reply fell back",
				"character", in.Character.ID,
				"error", err,
			)
		}
		return Fallback(in.Character, in.Balance)
	}
	return Sanitize(raw, in.Character, in.Balance)
}

// generate calls the model and returns the decoded reply object once it has
// passed the envelope check.
func (o *LLMOracle) generate(ctx context.Context, in Input) (map[string]any, error) {
	ctx = llm.WithPurpose(ctx, "converse")
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	req := llm.Request{
		System: buildSystemPrompt(in.Character),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(in, o.config.MaxHistory)},
		},
		Schema:      ReplySchema,
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	}

	content, err := o.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	doc, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	if err := llm.ValidateJSON(ReplyEnvelope, doc); err != nil {
		return nil, err
	}

	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return out, nil
}

// complete returns the model output. A reply the provider rejected against
// ReplySchema is still handed to the tolerant parser, since models that
// ignore structured output often wrap a usable object in prose.
func (o *LLMOracle) complete(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	resp, err := o.provider.Generate(ctx, req)
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) && len(invalid.Content) > 0 {
			return invalid.Content, nil
		}
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}
	return resp.Content, nil
}
