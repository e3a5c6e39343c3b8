package snippets_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raydienull/SphereScripter/pkg/snippets"
)

func TestLoad(t *testing.T) {
	library, err := snippets.Load()
	require.NoError(t, err, "embedded snippet library must parse")
	require.NotEmpty(t, library.All())

	prefixes := make([]string, 0, len(library.All()))
	for _, s := range library.All() {
		assert.NotEmpty(t, s.Name, "every snippet has a display name")
		assert.NotEmpty(t, s.Prefix, "every snippet has a prefix")
		assert.NotEmpty(t, s.Lines, "every snippet has a body")
		prefixes = append(prefixes, s.Prefix)
	}
	assert.True(t, sort.StringsAreSorted(prefixes), "snippets are ordered by prefix")
}

func TestGet(t *testing.T) {
	library, err := snippets.Load()
	require.NoError(t, err)

	snippet, ok := library.Get("itemdef")
	require.True(t, ok, "itemdef snippet ships with the library")
	assert.Contains(t, snippet.Body(), "[ITEMDEF")
	assert.Contains(t, snippet.Body(), "ON=@Create")

	_, ok = library.Get("definitely-not-there")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		library, err := snippets.Parse([]byte(`{
			"Greet": {"prefix": "greet", "body": ["SAY hello", "SAY $1"], "description": "greeting"}
		}`))
		require.NoError(t, err)

		snippet, ok := library.Get("greet")
		require.True(t, ok)
		assert.Equal(t, "Greet", snippet.Name)
		assert.Equal(t, "SAY hello\nSAY $1", snippet.Body())
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := snippets.Parse([]byte(`[]`))
		require.Error(t, err, "snippet data must be an object keyed by name")
	})
}
