// Package characters holds the catalog of salesperson characters the player
// meets during a session.
package characters

import (
	"errors"
	"math/rand/v2"
)

// FallbackExpression is used when a reply names no usable expression and
// the character defines none.
const FallbackExpression = "neutral"

// ErrNotFound is returned by GetByID for an unknown id.
var ErrNotFound = errors.New("character not found")

// Character is a salesperson persona.
type Character struct {
	ID           string       `yaml:"id" json:"id"`
	Name         string       `yaml:"name" json:"name"`
	Instructions string       `yaml:"instructions" json:"-"`
	Expressions  []Expression `yaml:"expressions" json:"expressions"`
}

// Expression is a named emotional state with its display assets.
type Expression struct {
	ID     string   `yaml:"id" json:"id"`
	Usage  string   `yaml:"usage" json:"usage"`
	Assets []string `yaml:"assets" json:"assets"`
}

// FirstExpressionID returns the first defined expression id, or
// FallbackExpression when there is none.
func (c Character) FirstExpressionID() string {
	if len(c.Expressions) == 0 {
		return FallbackExpression
	}
	return c.Expressions[0].ID
}

// HasExpression reports whether id is one of the character's expressions.
func (c Character) HasExpression(id string) bool {
	for _, e := range c.Expressions {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Assets returns a copy of the asset list for the expression id, or nil.
func (c Character) Assets(expressionID string) []string {
	for _, e := range c.Expressions {
		if e.ID == expressionID {
			return append([]string(nil), e.Assets...)
		}
	}
	return nil
}

// Registry is the read-only view of the catalog used by the game.
type Registry interface {
	// ListAll returns every character ordered by id.
	ListAll() []Character

	// GetByID returns ErrNotFound when id does not resolve.
	GetByID(id string) (Character, error)

	// Random picks a character uniformly. ok is false for an empty registry.
	Random(r *rand.Rand) (c Character, ok bool)

	// Successor returns the character after id in id order, wrapping from
	// the last back to the first.
	Successor(id string) (Character, error)
}
