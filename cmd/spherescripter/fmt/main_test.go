package fmt_cmd

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func newTestHandler(t *testing.T, files map[string]string) (*Handler, *cobra.Command, *bytes.Buffer) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	me := &Handler{fs: fs}
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	return me, cmd, &out
}

func TestRun_RewritesInPlace(t *testing.T) {
	me, cmd, _ := newTestHandler(t, map[string]string{
		"scripts/sword.scp": "[itemdef i_sword]\non=@create\n",
		"scripts/plain.scp": "// nothing to do\n",
	})

	err := me.Run(testContext(t), cmd, []string{"scripts/sword.scp", "scripts/plain.scp"})
	require.NoError(t, err)

	got, err := afero.ReadFile(me.fs, "scripts/sword.scp")
	require.NoError(t, err)
	assert.Equal(t, "[ITEMDEF i_sword]\nON=@CREATE\n", string(got))

	got, err = afero.ReadFile(me.fs, "scripts/plain.scp")
	require.NoError(t, err)
	assert.Equal(t, "// nothing to do\n", string(got), "unchanged files keep their content")
}

func TestRun_Glob(t *testing.T) {
	me, cmd, _ := newTestHandler(t, map[string]string{
		"scripts/items/a.scp": "say a\n",
		"scripts/npcs/b.scp":  "say b\n",
		"scripts/readme.txt":  "say not a script\n",
	})

	err := me.Run(testContext(t), cmd, []string{"scripts/**/*.scp"})
	require.NoError(t, err)

	got, err := afero.ReadFile(me.fs, "scripts/items/a.scp")
	require.NoError(t, err)
	assert.Equal(t, "SAY a\n", string(got))

	got, err = afero.ReadFile(me.fs, "scripts/npcs/b.scp")
	require.NoError(t, err)
	assert.Equal(t, "SAY b\n", string(got))

	got, err = afero.ReadFile(me.fs, "scripts/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "say not a script\n", string(got), "non-matching files untouched")
}

func TestRun_Check(t *testing.T) {
	me, cmd, _ := newTestHandler(t, map[string]string{
		"dirty.scp": "on=@create\n",
		"clean.scp": "ON=@CREATE\n",
	})
	me.check = true

	err := me.Run(testContext(t), cmd, []string{"dirty.scp", "clean.scp"})
	require.Error(t, err, "check mode fails when formatting is needed")
	assert.Contains(t, err.Error(), "1 file(s) need formatting")

	got, err := afero.ReadFile(me.fs, "dirty.scp")
	require.NoError(t, err)
	assert.Equal(t, "on=@create\n", string(got), "check mode never writes")
}

func TestRun_CheckClean(t *testing.T) {
	me, cmd, _ := newTestHandler(t, map[string]string{
		"clean.scp": "ON=@CREATE\n",
	})
	me.check = true

	require.NoError(t, me.Run(testContext(t), cmd, []string{"clean.scp"}))
}

func TestRun_Stdout(t *testing.T) {
	me, cmd, out := newTestHandler(t, map[string]string{
		"a.scp": "begin\n",
	})
	me.stdout = true

	require.NoError(t, me.Run(testContext(t), cmd, []string{"a.scp"}))
	assert.Equal(t, "BEGIN\n", out.String())

	got, err := afero.ReadFile(me.fs, "a.scp")
	require.NoError(t, err)
	assert.Equal(t, "begin\n", string(got), "stdout mode never writes files")
}

func TestRun_KeywordConfig(t *testing.T) {
	me, cmd, _ := newTestHandler(t, map[string]string{
		"a.scp":        "attack\n",
		"keywords.hcl": "keywords {\n  command = [\"attack\"]\n}\n",
	})
	me.keywordsFile = "keywords.hcl"

	require.NoError(t, me.Run(testContext(t), cmd, []string{"a.scp"}))

	got, err := afero.ReadFile(me.fs, "a.scp")
	require.NoError(t, err)
	assert.Equal(t, "ATTACK\n", string(got))
}

func TestRun_NoMatches(t *testing.T) {
	me, cmd, _ := newTestHandler(t, nil)

	err := me.Run(testContext(t), cmd, []string{"*.scp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files matched")
}

func TestRun_MissingFile(t *testing.T) {
	me, cmd, _ := newTestHandler(t, nil)

	err := me.Run(testContext(t), cmd, []string{"missing.scp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.scp")
}
