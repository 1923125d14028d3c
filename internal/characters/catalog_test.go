package characters

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCharacters() []Character {
	return []Character{
		{ID: "zed", Name: "Zed", Expressions: []Expression{{ID: "calm", Assets: []string{"zed/calm.png"}}}},
		{ID: "amy", Name: "Amy", Expressions: []Expression{{ID: "happy"}, {ID: "sad", Assets: []string{"amy/sad1.png", "amy/sad2.png"}}}},
		{ID: "max", Name: "Max", Expressions: []Expression{{ID: "smug"}}},
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	for _, ch := range c.ListAll() {
		assert.NotEmpty(t, ch.Instructions, ch.ID)
		assert.NotEmpty(t, ch.Expressions, ch.ID)
	}
}

func TestListAll_OrderedByID(t *testing.T) {
	c, err := New(testCharacters())
	require.NoError(t, err)

	var ids []string
	for _, ch := range c.ListAll() {
		ids = append(ids, ch.ID)
	}
	assert.Equal(t, []string{"amy", "max", "zed"}, ids)
}

func TestGetByID(t *testing.T) {
	c, err := New(testCharacters())
	require.NoError(t, err)

	ch, err := c.GetByID("max")
	require.NoError(t, err)
	assert.Equal(t, "Max", ch.Name)

	_, err = c.GetByID("nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSuccessor_WrapsAround(t *testing.T) {
	c, err := New(testCharacters())
	require.NoError(t, err)

	next, err := c.Successor("amy")
	require.NoError(t, err)
	assert.Equal(t, "max", next.ID)

	next, err = c.Successor("zed")
	require.NoError(t, err)
	assert.Equal(t, "amy", next.ID, "last character wraps to the first")

	_, err = c.Successor("nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSuccessor_SingleCharacterRing(t *testing.T) {
	c, err := New(testCharacters()[:1])
	require.NoError(t, err)

	next, err := c.Successor("zed")
	require.NoError(t, err)
	assert.Equal(t, "zed", next.ID)
}

func TestRandom(t *testing.T) {
	c, err := New(testCharacters())
	require.NoError(t, err)

	r := rand.New(rand.NewPCG(1, 2))
	seen := map[string]bool{}
	for range 200 {
		ch, ok := c.Random(r)
		require.True(t, ok)
		seen[ch.ID] = true
	}
	assert.Len(t, seen, 3)

	empty, err := New(nil)
	require.NoError(t, err)
	_, ok := empty.Random(r)
	assert.False(t, ok)
}

func TestCharacterExpressions(t *testing.T) {
	amy := testCharacters()[1]

	assert.Equal(t, "happy", amy.FirstExpressionID())
	assert.Equal(t, FallbackExpression, Character{ID: "x"}.FirstExpressionID())
	assert.True(t, amy.HasExpression("sad"))
	assert.False(t, amy.HasExpression("angry"))
	assert.Equal(t, []string{"amy/sad1.png", "amy/sad2.png"}, amy.Assets("sad"))
	assert.Nil(t, amy.Assets("angry"))

	assets := amy.Assets("sad")
	assets[0] = "mutated"
	assert.Equal(t, "amy/sad1.png", amy.Assets("sad")[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		chars []Character
		want  string
	}{
		{
			name:  "duplicate id",
			chars: []Character{{ID: "a", Name: "A", Expressions: []Expression{{ID: "x"}}}, {ID: "a", Name: "B", Expressions: []Expression{{ID: "x"}}}},
			want:  "duplicate",
		},
		{
			name:  "empty id",
			chars: []Character{{Name: "A", Expressions: []Expression{{ID: "x"}}}},
			want:  "empty id",
		},
		{
			name:  "missing name",
			chars: []Character{{ID: "a", Expressions: []Expression{{ID: "x"}}}},
			want:  "no name",
		},
		{
			name:  "no expressions",
			chars: []Character{{ID: "a", Name: "A"}},
			want:  "no expressions",
		},
		{
			name:  "duplicate expression",
			chars: []Character{{ID: "a", Name: "A", Expressions: []Expression{{ID: "x"}, {ID: "x"}}}},
			want:  `duplicate expression "x"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.chars)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestLoad_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chars.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
characters:
  - id: solo
    name: Solo Seller
    instructions: Sell one thing.
    expressions:
      - id: flat
        usage: Always.
        assets: [solo/flat.png]
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	ch, err := c.GetByID("solo")
	require.NoError(t, err)
	assert.Equal(t, []string{"solo/flat.png"}, ch.Assets("flat"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, def.Len())
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("characters: [: nope"))
	assert.Error(t, err)
}
