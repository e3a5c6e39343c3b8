package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	fmt_cmd "github.com/raydienull/SphereScripter/cmd/spherescripter/fmt"
	serve_lsp "github.com/raydienull/SphereScripter/cmd/spherescripter/serve-lsp"
	debughooks "github.com/raydienull/SphereScripter/pkg/debug"
	"github.com/raydienull/SphereScripter/pkg/grammar"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "spherescripter",
		Short:         "Language tooling for Sphere SCP scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "debug", false, "enable debug logging")

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	cmdGrammar := &cobra.Command{
		Use:   "grammar",
		Short: "print the embedded SCP TextMate grammar as JSON",
		RunE: func(cmdz *cobra.Command, args []string) error {
			_, err := cmdz.OutOrStdout().Write(grammar.Raw())
			return err
		},
	}

	rootCmd.AddCommand(cmdVersion)
	rootCmd.AddCommand(cmdGrammar)
	rootCmd.AddCommand(serve_lsp.NewServeLSPCommand())
	rootCmd.AddCommand(fmt_cmd.NewFmtCommand())

	ctx := buildContext(&verbose)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}

// buildContext sets up the console logger shared by every subcommand. The
// level is resolved lazily through a sampler-free hook so the persistent
// --debug flag, parsed after context construction, still applies.
func buildContext(verbose *bool) context.Context {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Logger().
		Hook(debughooks.CustomTimeHook{}).
		Hook(debughooks.CustomCallerHook{WithColor: true}).
		Hook(levelGate{verbose: verbose})

	return logger.WithContext(context.Background())
}

// levelGate discards debug and trace entries unless --debug was given.
type levelGate struct {
	verbose *bool
}

func (g levelGate) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	if level < zerolog.InfoLevel && !*g.verbose {
		e.Discard()
	}
}
