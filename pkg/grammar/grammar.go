// Package grammar embeds the SCP TextMate grammar and serves it to editor
// packaging. The grammar is static data for syntax highlighting; none of the
// formatting logic depends on it.
package grammar

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

//go:embed scp.tmLanguage.json
var embedded []byte

// Grammar is the subset of the tmLanguage schema this repo's grammar uses.
type Grammar struct {
	Name       string             `json:"name"`
	ScopeName  string             `json:"scopeName"`
	FileTypes  []string           `json:"fileTypes,omitempty"`
	Patterns   []Pattern          `json:"patterns"`
	Repository map[string]Pattern `json:"repository,omitempty"`
}

type Pattern struct {
	Name     string             `json:"name,omitempty"`
	Match    string             `json:"match,omitempty"`
	Begin    string             `json:"begin,omitempty"`
	End      string             `json:"end,omitempty"`
	Include  string             `json:"include,omitempty"`
	Captures map[string]Capture `json:"captures,omitempty"`
	Patterns []Pattern          `json:"patterns,omitempty"`
}

type Capture struct {
	Name string `json:"name"`
}

// Store manages the embedded grammar plus any custom ones loaded at runtime.
type Store struct {
	grammars map[string]*Grammar
}

// NewStore creates a grammar store and loads the embedded SCP grammar under
// its scope name.
func NewStore(ctx context.Context) (*Store, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("creating grammar store")

	s := &Store{
		grammars: make(map[string]*Grammar),
	}

	var grammar Grammar
	if err := json.Unmarshal(embedded, &grammar); err != nil {
		return nil, errors.Errorf("unmarshaling embedded grammar: %w", err)
	}
	s.grammars[grammar.ScopeName] = &grammar

	return s, nil
}

// LoadCustom registers a grammar from raw JSON data.
func (s *Store) LoadCustom(ctx context.Context, name string, data []byte) error {
	zerolog.Ctx(ctx).Debug().Str("name", name).Msg("loading custom grammar")

	var grammar Grammar
	if err := json.Unmarshal(data, &grammar); err != nil {
		return errors.Errorf("unmarshaling custom grammar %s: %w", name, err)
	}

	s.grammars[name] = &grammar
	return nil
}

// Get retrieves a grammar by scope name.
func (s *Store) Get(name string) (*Grammar, error) {
	grammar, ok := s.grammars[name]
	if !ok {
		return nil, errors.Errorf("grammar not found: %s", name)
	}
	return grammar, nil
}

// Raw returns the embedded grammar JSON exactly as shipped, for export.
func Raw() []byte {
	return embedded
}
