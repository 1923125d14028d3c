package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model string
		want  float64 // input USD per 1M tokens
	}{
		{"gpt-4o-mini", 0.15},
		{"gpt-4o-2024-08-06", 2.5},
		{"gpt-4o-mini-2024-07-18", 0.15},
		{"claude-haiku-4-5-20251001", 1},
		{"claude-sonnet-4-5-20250929", 3},
		{"claude-sonnet-4-20250514", 3},
		{"google/gemini-2.0-flash-exp", 0.1},
		{"gemini-2.5-flash-lite-preview-09-2025", 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			c := LookupCost(tt.model)
			require.NotNil(t, c)
			assert.Equal(t, tt.want, c.InputPerMTok)
		})
	}
}

func TestLookupCost_Unknown(t *testing.T) {
	assert.Nil(t, LookupCost("mock"))
	assert.Nil(t, LookupCost("gpt-4oops"))
}

func TestModelCost_Cost(t *testing.T) {
	c := ModelCost{InputPerMTok: 1, OutputPerMTok: 5}
	assert.InDelta(t, 0.0035, c.Cost(1000, 500), 1e-12)
}
