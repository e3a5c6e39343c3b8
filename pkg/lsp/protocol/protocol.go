package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

var RequestCancelledError = &jrpc2.Error{Code: -32800, Message: "JSON RPC cancelled"}

// Server is the LSP surface this implementation exposes. Methods map 1:1 to
// LSP requests and notifications; see buildServerDispatchMap.
type Server interface {
	Initialize(ctx context.Context, params *InitializeParams) (*InitializeResult, error)
	Initialized(ctx context.Context, params *InitializedParams) error
	Shutdown(ctx context.Context) error
	Exit(ctx context.Context) error

	DidOpen(ctx context.Context, params *DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *DidChangeTextDocumentParams) error
	DidClose(ctx context.Context, params *DidCloseTextDocumentParams) error
	DidSave(ctx context.Context, params *DidSaveTextDocumentParams) error

	Formatting(ctx context.Context, params *DocumentFormattingParams) ([]TextEdit, error)
	Completion(ctx context.Context, params *CompletionParams) (*CompletionList, error)
}

// Client is the server-to-client callback surface.
type Client interface {
	LogMessage(ctx context.Context, params *LogMessageParams) error
}

func buildServerDispatchMap(server Server) handler.Map {
	return handler.Map{
		"initialize":              createHandler(server.Initialize),
		"initialized":             createEmptyResultHandler(server.Initialized),
		"shutdown":                createEmptyHandler(server.Shutdown),
		"exit":                    createEmptyHandler(server.Exit),
		"textDocument/didOpen":    createEmptyResultHandler(server.DidOpen),
		"textDocument/didChange":  createEmptyResultHandler(server.DidChange),
		"textDocument/didClose":   createEmptyResultHandler(server.DidClose),
		"textDocument/didSave":    createEmptyResultHandler(server.DidSave),
		"textDocument/formatting": createHandler(server.Formatting),
		"textDocument/completion": createHandler(server.Completion),
		"$/cancelRequest":         createEmptyResultHandler(cancelRequest),
	}
}

func cancelRequest(ctx context.Context, params *CancelParams) error {
	return nil
}

// CallbackClient sends notifications from the server to the client over the
// same jrpc2 connection.
type CallbackClient struct {
	server *jrpc2.Server
}

var _ Client = (*CallbackClient)(nil)

func NewCallbackClient(server *jrpc2.Server) *CallbackClient {
	return &CallbackClient{server: server}
}

func (c *CallbackClient) Notify(ctx context.Context, method string, params any) error {
	return c.server.Notify(ctx, method, params)
}

func (c *CallbackClient) LogMessage(ctx context.Context, params *LogMessageParams) error {
	return c.Notify(ctx, "window/logMessage", params)
}

// NewServerServer wraps a Server in a jrpc2 server instance. The returned
// CallbackClient is wired into request contexts so handlers can notify the
// client (and zerolog output reaches the editor's output channel).
func NewServerServer(ctx context.Context, server Server, opts *jrpc2.ServerOptions) (*jrpc2.Server, *CallbackClient) {
	methods := buildServerDispatchMap(server)
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}

	opts.AllowPush = true

	var callbackClient *CallbackClient

	opts.NewContext = func() context.Context {
		if callbackClient == nil {
			return ctx
		}
		return ApplyClientToZerolog(ctx, callbackClient)
	}

	result := jrpc2.NewServer(methods, opts)
	callbackClient = NewCallbackClient(result)

	return result, callbackClient
}

func newParseError(err error) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    -32700, // Parse error
		Message: err.Error(),
	}
}

func createHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}
		result, err := method(ctx, &params)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

func createEmptyResultHandler[T any](method func(ctx context.Context, params *T) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}
		return nil, method(ctx, &params)
	})
}

func createEmptyHandler(method func(ctx context.Context) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		return nil, method(ctx)
	})
}
