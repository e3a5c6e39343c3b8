package protocol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubServer struct{}

var _ Server = stubServer{}

func (stubServer) Initialize(context.Context, *InitializeParams) (*InitializeResult, error) {
	return &InitializeResult{}, nil
}
func (stubServer) Initialized(context.Context, *InitializedParams) error        { return nil }
func (stubServer) Shutdown(context.Context) error                               { return nil }
func (stubServer) Exit(context.Context) error                                   { return nil }
func (stubServer) DidOpen(context.Context, *DidOpenTextDocumentParams) error    { return nil }
func (stubServer) DidChange(context.Context, *DidChangeTextDocumentParams) error { return nil }
func (stubServer) DidClose(context.Context, *DidCloseTextDocumentParams) error  { return nil }
func (stubServer) DidSave(context.Context, *DidSaveTextDocumentParams) error    { return nil }
func (stubServer) Formatting(context.Context, *DocumentFormattingParams) ([]TextEdit, error) {
	return nil, nil
}
func (stubServer) Completion(context.Context, *CompletionParams) (*CompletionList, error) {
	return nil, nil
}

func TestDocumentURIPath(t *testing.T) {
	assert.Equal(t, "/scripts/test.scp", DocumentURI("file:///scripts/test.scp").Path())
	assert.Equal(t, "/scripts/test.scp", DocumentURI("/scripts/test.scp").Path())
}

func TestParseMessageTypeFromZerolog(t *testing.T) {
	assert.Equal(t, Error, ParseMessageTypeFromZerolog("error"))
	assert.Equal(t, Error, ParseMessageTypeFromZerolog("fatal"))
	assert.Equal(t, Warning, ParseMessageTypeFromZerolog("warn"))
	assert.Equal(t, Info, ParseMessageTypeFromZerolog("info"))
	assert.Equal(t, Debug, ParseMessageTypeFromZerolog("debug"))
	assert.Equal(t, Log, ParseMessageTypeFromZerolog("trace"))
}

func TestBuildServerDispatchMap(t *testing.T) {
	methods := buildServerDispatchMap(stubServer{})

	for _, method := range []string{
		"initialize",
		"initialized",
		"shutdown",
		"exit",
		"textDocument/didOpen",
		"textDocument/didChange",
		"textDocument/didClose",
		"textDocument/didSave",
		"textDocument/formatting",
		"textDocument/completion",
		"$/cancelRequest",
	} {
		assert.Contains(t, methods, method, "dispatch map must cover %s", method)
	}
}
