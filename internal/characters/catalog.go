package characters

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Characters []Character `yaml:"characters"`
}

// Catalog is an immutable Registry with precomputed indices.
type Catalog struct {
	characters []Character
	index      map[string]int
}

var _ Registry = (*Catalog)(nil)

// Default loads the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read character catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse character catalog: %w", err)
	}
	return New(f.Characters)
}

// New validates chars and builds a Catalog ordered by id.
func New(chars []Character) (*Catalog, error) {
	if err := validate(chars); err != nil {
		return nil, err
	}

	sorted := slices.Clone(chars)
	slices.SortFunc(sorted, func(a, b Character) int { return strings.Compare(a.ID, b.ID) })

	c := &Catalog{
		characters: sorted,
		index:      make(map[string]int, len(sorted)),
	}
	for i, ch := range sorted {
		c.index[ch.ID] = i
	}
	return c, nil
}

func (c *Catalog) ListAll() []Character {
	return slices.Clone(c.characters)
}

func (c *Catalog) GetByID(id string) (Character, error) {
	i, ok := c.index[id]
	if !ok {
		return Character{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.characters[i], nil
}

func (c *Catalog) Random(r *rand.Rand) (Character, bool) {
	if len(c.characters) == 0 {
		return Character{}, false
	}
	if r == nil {
		return c.characters[rand.IntN(len(c.characters))], true
	}
	return c.characters[r.IntN(len(c.characters))], true
}

func (c *Catalog) Successor(id string) (Character, error) {
	i, ok := c.index[id]
	if !ok {
		return Character{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.characters[(i+1)%len(c.characters)], nil
}

// Len returns the number of characters.
func (c *Catalog) Len() int {
	return len(c.characters)
}

// validate performs all structural checks on the given characters.
// Returns a combined error describing all problems found, or nil if valid.
func validate(chars []Character) error {
	var errs []string

	ids := make(map[string]bool, len(chars))
	for i, ch := range chars {
		switch {
		case strings.TrimSpace(ch.ID) == "":
			errs = append(errs, fmt.Sprintf("character #%d has an empty id", i))
		case ids[ch.ID]:
			errs = append(errs, fmt.Sprintf("duplicate character ID: %q", ch.ID))
		}
		ids[ch.ID] = true

		if strings.TrimSpace(ch.Name) == "" {
			errs = append(errs, fmt.Sprintf("character %q has no name", ch.ID))
		}
		if len(ch.Expressions) == 0 {
			errs = append(errs, fmt.Sprintf("character %q has no expressions", ch.ID))
		}

		exprIDs := make(map[string]bool, len(ch.Expressions))
		for _, e := range ch.Expressions {
			if e.ID == "" {
				errs = append(errs, fmt.Sprintf("character %q has an expression with an empty id", ch.ID))
				continue
			}
			if exprIDs[e.ID] {
				errs = append(errs, fmt.Sprintf("character %q has duplicate expression %q", ch.ID, e.ID))
			}
			exprIDs[e.ID] = true
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("character catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
