package fmt_cmd

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/raydienull/SphereScripter/pkg/format"
	"github.com/raydienull/SphereScripter/pkg/keywords"
)

type Handler struct {
	keywordsFile string
	check        bool
	stdout       bool

	fs afero.Fs
}

func NewFmtCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "fmt [files or glob patterns]",
		Short: "format SCP script files in place",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().StringVar(&me.keywordsFile, "keywords", "", "HCL file extending the built-in keyword tables")
	cmd.Flags().BoolVar(&me.check, "check", false, "do not write; fail if any file would change")
	cmd.Flags().BoolVar(&me.stdout, "stdout", false, "write formatted output to stdout instead of rewriting files")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd, args)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, cmd *cobra.Command, args []string) error {
	table := keywords.Default()
	if me.keywordsFile != "" {
		var err error
		table, err = keywords.Load(me.fs, me.keywordsFile)
		if err != nil {
			return errors.Errorf("loading keyword config: %w", err)
		}
	}

	formatter, err := format.NewFormatter(table)
	if err != nil {
		return errors.Errorf("building formatter: %w", err)
	}

	files, err := me.expandArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Errorf("no files matched %v", args)
	}

	changed := 0
	for _, file := range files {
		didChange, err := me.formatFile(ctx, cmd, formatter, file)
		if err != nil {
			return err
		}
		if didChange {
			changed++
		}
	}

	if me.check && changed > 0 {
		return errors.Errorf("%d file(s) need formatting", changed)
	}

	return nil
}

// expandArgs resolves `**` glob patterns against the handler filesystem.
// Plain paths pass through untouched so missing files still error usefully.
func (me *Handler) expandArgs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			files = append(files, arg)
			continue
		}

		matches, err := doublestar.Glob(afero.NewIOFS(me.fs), arg)
		if err != nil {
			return nil, errors.Errorf("bad pattern %q: %w", arg, err)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func (me *Handler) formatFile(ctx context.Context, cmd *cobra.Command, formatter *format.Formatter, path string) (bool, error) {
	logger := zerolog.Ctx(ctx)

	raw, err := afero.ReadFile(me.fs, path)
	if err != nil {
		return false, errors.Errorf("reading %s: %w", path, err)
	}

	content := string(raw)
	formatted := formatter.FormatString(content)
	didChange := formatted != content

	switch {
	case me.stdout:
		if _, err := cmd.OutOrStdout().Write([]byte(formatted)); err != nil {
			return didChange, errors.Errorf("writing output: %w", err)
		}
	case me.check:
		if didChange {
			logger.Info().Str("file", path).Msg("needs formatting")
		}
	case didChange:
		info, err := me.fs.Stat(path)
		if err != nil {
			return didChange, errors.Errorf("stat %s: %w", path, err)
		}
		if err := afero.WriteFile(me.fs, path, []byte(formatted), info.Mode()); err != nil {
			return didChange, errors.Errorf("writing %s: %w", path, err)
		}
		logger.Info().Str("file", path).Msg("formatted")
	}

	return didChange, nil
}
