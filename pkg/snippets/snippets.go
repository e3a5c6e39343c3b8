// Package snippets embeds the SCP snippet library and exposes it to the
// completion handler. The data file uses the editor snippet format
// (prefix / body lines / description) so it can be reused verbatim by
// editor extensions.
package snippets

import (
	_ "embed"
	"encoding/json"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

//go:embed snippets.json
var embedded []byte

// Snippet is one insertable template. Body lines may contain tab-stop
// placeholders (`$1`, `${1:name}`).
type Snippet struct {
	Name        string   `json:"-"`
	Prefix      string   `json:"prefix"`
	Lines       []string `json:"body"`
	Description string   `json:"description,omitempty"`
}

// Body returns the snippet body as a single insert text.
func (s Snippet) Body() string {
	return strings.Join(s.Lines, "\n")
}

// Library is the parsed snippet collection, ordered by prefix.
type Library struct {
	snippets []Snippet
}

// Load parses the embedded snippet library.
func Load() (*Library, error) {
	return Parse(embedded)
}

// Parse builds a Library from snippet JSON data.
func Parse(data []byte) (*Library, error) {
	var raw map[string]Snippet
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Errorf("unmarshaling snippet library: %w", err)
	}

	lib := &Library{snippets: make([]Snippet, 0, len(raw))}
	for name, snippet := range raw {
		snippet.Name = name
		lib.snippets = append(lib.snippets, snippet)
	}
	sort.Slice(lib.snippets, func(i, j int) bool {
		return lib.snippets[i].Prefix < lib.snippets[j].Prefix
	})

	return lib, nil
}

// All returns the snippets in prefix order.
func (l *Library) All() []Snippet {
	return l.snippets
}

// Get looks a snippet up by prefix.
func (l *Library) Get(prefix string) (Snippet, bool) {
	for _, s := range l.snippets {
		if s.Prefix == prefix {
			return s, true
		}
	}
	return Snippet{}, false
}
