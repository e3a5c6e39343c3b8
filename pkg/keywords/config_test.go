package keywords_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raydienull/SphereScripter/pkg/keywords"
)

func writeConfig(t *testing.T, content string) (afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "keywords.hcl", []byte(content), 0o644))
	return fs, "keywords.hcl"
}

func TestLoad(t *testing.T) {
	t.Run("extends_defaults", func(t *testing.T) {
		fs, path := writeConfig(t, `
keywords {
  command = ["attack", "flee"]
  scoped  = ["globals"]
}
`)

		table, err := keywords.Load(fs, path)
		require.NoError(t, err, "valid config should load")

		assert.Contains(t, table.Command, "attack")
		assert.Contains(t, table.Command, "flee")
		assert.Contains(t, table.Command, "say", "defaults are kept")
		assert.Contains(t, table.Scoped, "globals")
		assert.Equal(t, keywords.Default().Control, table.Control, "untouched categories keep the defaults")
	})

	t.Run("empty_file_keeps_defaults", func(t *testing.T) {
		fs, path := writeConfig(t, "")

		table, err := keywords.Load(fs, path)
		require.NoError(t, err)
		assert.Equal(t, keywords.Default(), table)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := keywords.Load(afero.NewMemMapFs(), "nope.hcl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.hcl")
	})

	t.Run("malformed_hcl", func(t *testing.T) {
		fs, path := writeConfig(t, `keywords { command = `)

		_, err := keywords.Load(fs, path)
		require.Error(t, err, "syntax errors must fail loading")
	})

	t.Run("unknown_attribute", func(t *testing.T) {
		fs, path := writeConfig(t, `
keywords {
  sections = ["itemdef"]
}
`)

		_, err := keywords.Load(fs, path)
		require.Error(t, err, "unknown attributes must fail decoding")
	})

	t.Run("invalid_token_rejected", func(t *testing.T) {
		fs, path := writeConfig(t, `
keywords {
  command = ["at+tack"]
}
`)

		_, err := keywords.Load(fs, path)
		require.Error(t, err, "merged table is validated before use")
		assert.Contains(t, err.Error(), "at+tack")
	})
}
