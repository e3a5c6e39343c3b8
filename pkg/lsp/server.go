package lsp

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/raydienull/SphereScripter/pkg/format"
	"github.com/raydienull/SphereScripter/pkg/keywords"
	"github.com/raydienull/SphereScripter/pkg/lsp/protocol"
	"github.com/raydienull/SphereScripter/pkg/snippets"
)

// Server is the SCP language server: document sync, keyword-case formatting,
// and snippet/keyword completion.
type Server struct {
	documents *DocumentManager

	// formatter is swapped atomically when the keyword config is reloaded;
	// in-flight requests keep the instance they loaded.
	formatter atomic.Pointer[format.Formatter]

	tableMu sync.RWMutex
	table   keywords.Table

	library *snippets.Library

	id          string
	initialized bool
	shutdown    bool

	callbackClient protocol.Client
}

var _ protocol.Server = (*Server)(nil)

func NewServer(ctx context.Context, table keywords.Table, library *snippets.Library) (*Server, error) {
	formatter, err := format.NewFormatter(table)
	if err != nil {
		return nil, errors.Errorf("building server formatter: %w", err)
	}

	s := &Server{
		id:        xid.New().String(),
		documents: NewDocumentManager(),
		table:     table,
		library:   library,
	}
	s.formatter.Store(formatter)

	return s, nil
}

func (s *Server) SetCallbackClient(client protocol.Client) {
	s.callbackClient = client
}

func (s *Server) Documents() *DocumentManager {
	return s.documents
}

// Reload replaces the active keyword table and formatter. Called by the
// config watcher; a table that fails validation leaves the old formatter in
// place.
func (s *Server) Reload(ctx context.Context, table keywords.Table) error {
	formatter, err := format.NewFormatter(table)
	if err != nil {
		return errors.Errorf("reloading formatter: %w", err)
	}

	s.tableMu.Lock()
	s.table = table
	s.tableMu.Unlock()
	s.formatter.Store(formatter)
	zerolog.Ctx(ctx).Info().Msg("keyword tables reloaded")

	return nil
}

// nopWriteCloser adapts an io.Writer to the io.WriteCloser required by
// channel.LSP; the underlying stream's lifetime is owned by the caller.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// ServerInstance couples a jrpc2 server with its stdio lifecycle.
type ServerInstance struct {
	server *jrpc2.Server
}

// BuildServerInstance wires the server into a jrpc2 instance and registers
// the callback client used for window/logMessage notifications.
func (s *Server) BuildServerInstance(ctx context.Context, opts *jrpc2.ServerOptions) *ServerInstance {
	instance, callbackClient := protocol.NewServerServer(ctx, s, opts)
	s.SetCallbackClient(callbackClient)
	return &ServerInstance{server: instance}
}

// StartAndWait serves LSP over the given stream (normally stdin/stdout)
// until the client disconnects.
func (i *ServerInstance) StartAndWait(r io.Reader, w io.Writer) error {
	i.server.Start(channel.LSP(r, nopWriteCloser{w}))
	if err := i.server.Wait(); err != nil {
		return errors.Errorf("language server terminated: %w", err)
	}
	return nil
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)
	if params.ClientInfo != nil {
		logger.Debug().Str("client", params.ClientInfo.Name).Str("client_version", params.ClientInfo.Version).Msg("initializing server")
	} else {
		logger.Debug().Msg("initializing server")
	}

	s.initialized = true

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync:           protocol.SyncFull,
			DocumentFormattingProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", "@"},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name: "spherescripter",
		},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	zerolog.Ctx(ctx).Debug().Str("server_id", s.id).Msg("server initialized")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown = true
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document opened")

	s.documents.Store(params.TextDocument.URI, &Document{
		URI:        string(params.TextDocument.URI),
		LanguageID: params.TextDocument.LanguageID,
		Version:    params.TextDocument.Version,
		Content:    params.TextDocument.Text,
	})

	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document changed")

	if len(params.ContentChanges) == 0 {
		return nil
	}

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	doc.Version = params.TextDocument.Version
	for _, change := range params.ContentChanges {
		if change.Range == nil {
			doc.Content = change.Text
		} else {
			doc.Content = replaceContentInRange(doc.Content, *change.Range, change.Text)
		}
	}

	s.documents.Store(params.TextDocument.URI, doc)

	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document closed")

	s.documents.Delete(params.TextDocument.URI)
	return nil
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document saved")

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	if params.Text != nil {
		doc.Content = *params.Text
		s.documents.Store(params.TextDocument.URI, doc)
	}

	return nil
}

// Formatting returns one full-line edit per line of the document, unchanged
// lines included, so the client applies the whole set atomically without
// diffing.
func (s *Server) Formatting(ctx context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	logger := zerolog.Ctx(ctx)

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	edits := s.formatter.Load().FormatText(doc.Content)
	logger.Debug().Str("uri", string(params.TextDocument.URI)).Int("edit_count", len(edits)).Msg("formatted document")

	result := make([]protocol.TextEdit, len(edits))
	for i, edit := range edits {
		result[i] = protocol.TextEdit{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(edit.Line), Character: uint32(edit.StartCharacter)},
				End:   protocol.Position{Line: uint32(edit.Line), Character: uint32(edit.EndCharacter)},
			},
			NewText: edit.NewText,
		}
	}

	return result, nil
}

// Completion serves the snippet library plus the configured control and
// command keywords.
func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	s.tableMu.RLock()
	table := s.table
	s.tableMu.RUnlock()

	items := make([]protocol.CompletionItem, 0, len(s.library.All())+len(table.Control)+len(table.Command))

	for _, snippet := range s.library.All() {
		items = append(items, protocol.CompletionItem{
			Label:            snippet.Prefix,
			Kind:             protocol.CompletionItemKindSnippet,
			Detail:           snippet.Name,
			Documentation:    snippet.Description,
			InsertText:       snippet.Body(),
			InsertTextFormat: protocol.InsertTextFormatSnippet,
		})
	}

	for _, token := range table.Control {
		items = append(items, keywordItem(token, "control keyword"))
	}
	for _, token := range table.Command {
		items = append(items, keywordItem(token, "command"))
	}

	return &protocol.CompletionList{Items: items}, nil
}

func keywordItem(token, detail string) protocol.CompletionItem {
	upper := strings.ToUpper(token)
	return protocol.CompletionItem{
		Label:      upper,
		Kind:       protocol.CompletionItemKindKeyword,
		Detail:     detail,
		FilterText: token,
		InsertText: upper,
	}
}

// replaceContentInRange applies an incremental change. The server advertises
// full sync, but some clients send ranges anyway.
func replaceContentInRange(content string, rng protocol.Range, text string) string {
	start := offsetAt(content, rng.Start)
	end := offsetAt(content, rng.End)
	return content[:start] + text + content[end:]
}

func offsetAt(content string, pos protocol.Position) int {
	lines := strings.SplitAfter(content, "\n")
	offset := 0
	for i := 0; i < int(pos.Line) && i < len(lines); i++ {
		offset += len(lines[i])
	}
	offset += int(pos.Character)
	if offset > len(content) {
		offset = len(content)
	}
	return offset
}
