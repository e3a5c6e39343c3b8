package grammar_test

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raydienull/SphereScripter/pkg/grammar"
)

func TestNewStore(t *testing.T) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	t.Run("test_store_creation", func(t *testing.T) {
		store, err := grammar.NewStore(ctx)
		require.NoError(t, err, "store creation should succeed")
		require.NotNil(t, store, "store should not be nil")
	})

	t.Run("test_embedded_grammar", func(t *testing.T) {
		store, err := grammar.NewStore(ctx)
		require.NoError(t, err)

		gram, err := store.Get("source.scp")
		require.NoError(t, err, "embedded SCP grammar should be present")
		assert.Equal(t, "SCP", gram.Name)
		assert.Contains(t, gram.FileTypes, "scp")
		assert.NotEmpty(t, gram.Patterns)
		assert.Contains(t, gram.Repository, "trigger")
	})

	t.Run("test_custom_grammar", func(t *testing.T) {
		store, err := grammar.NewStore(ctx)
		require.NoError(t, err)

		custom := []byte(`{
			"scopeName": "source.custom",
			"name": "Custom",
			"patterns": [
				{
					"match": "test",
					"name": "keyword.custom"
				}
			]
		}`)

		require.NoError(t, store.LoadCustom(ctx, "source.custom", custom))

		gram, err := store.Get("source.custom")
		require.NoError(t, err)
		assert.Equal(t, "source.custom", gram.ScopeName)
	})

	t.Run("test_invalid_custom_grammar", func(t *testing.T) {
		store, err := grammar.NewStore(ctx)
		require.NoError(t, err)

		require.Error(t, store.LoadCustom(ctx, "broken", []byte("{")), "invalid JSON should fail")
	})

	t.Run("test_nonexistent_grammar", func(t *testing.T) {
		store, err := grammar.NewStore(ctx)
		require.NoError(t, err)

		_, err = store.Get("nonexistent.grammar")
		require.Error(t, err, "getting nonexistent grammar should fail")
	})
}

func TestRaw(t *testing.T) {
	assert.NotEmpty(t, grammar.Raw(), "embedded grammar JSON should be exported for packaging")
}
