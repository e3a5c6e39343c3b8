package serve_lsp

import (
	"context"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/fsnotify.v1"

	"github.com/raydienull/SphereScripter/pkg/keywords"
	"github.com/raydienull/SphereScripter/pkg/lsp"
	"github.com/raydienull/SphereScripter/pkg/snippets"
)

type Handler struct {
	keywordsFile string
}

func NewServeLSPCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdin/stdout",
	}

	cmd.Flags().StringVar(&me.keywordsFile, "keywords", "", "HCL file extending the built-in keyword tables")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context())
	}

	return cmd
}

type RPCLogger struct{}

func (me *RPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	zerolog.Ctx(ctx).Info().Str("rpc_params", req.ParamString()).Str("rpc_id", req.ID()).Str("rpc_method", req.Method()).Msg("client request")
}

func (me *RPCLogger) LogResponse(ctx context.Context, res *jrpc2.Response) {
	zerolog.Ctx(ctx).Info().Str("rpc_params", res.ResultString()).Str("rpc_id", res.ID()).Msg("server response")
}

func (me *Handler) Run(ctx context.Context) error {
	fs := afero.NewOsFs()

	table := keywords.Default()
	if me.keywordsFile != "" {
		var err error
		table, err = keywords.Load(fs, me.keywordsFile)
		if err != nil {
			return errors.Errorf("loading keyword config: %w", err)
		}
	}

	library, err := snippets.Load()
	if err != nil {
		return errors.Errorf("loading snippet library: %w", err)
	}

	server, err := lsp.NewServer(ctx, table, library)
	if err != nil {
		return errors.Errorf("creating language server: %w", err)
	}

	if me.keywordsFile != "" {
		stop, err := me.watchKeywords(ctx, fs, server)
		if err != nil {
			return errors.Errorf("watching keyword config: %w", err)
		}
		defer stop()
	}

	opts := &jrpc2.ServerOptions{
		RPCLog: &RPCLogger{},
	}

	instance := server.BuildServerInstance(ctx, opts)

	if err := instance.StartAndWait(os.Stdin, os.Stdout); err != nil {
		return errors.Errorf("error running language server: %w", err)
	}

	return nil
}

// watchKeywords hot-reloads the keyword tables whenever the config file is
// rewritten. A config that fails validation is logged and skipped; the
// running formatter keeps its last good table.
func (me *Handler) watchKeywords(ctx context.Context, fs afero.Fs, server *lsp.Server) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating fs watcher: %w", err)
	}

	if err := watcher.Add(me.keywordsFile); err != nil {
		watcher.Close()
		return nil, errors.Errorf("watching %s: %w", me.keywordsFile, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				table, err := keywords.Load(fs, me.keywordsFile)
				if err != nil {
					zerolog.Ctx(ctx).Warn().Err(err).Str("file", me.keywordsFile).Msg("keyword config reload failed, keeping previous tables")
					continue
				}
				if err := server.Reload(ctx, table); err != nil {
					zerolog.Ctx(ctx).Warn().Err(err).Msg("formatter reload failed")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				zerolog.Ctx(ctx).Warn().Err(err).Msg("fs watcher error")
			}
		}
	}()

	return watcher.Close, nil
}
