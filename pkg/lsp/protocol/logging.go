package protocol

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/raydienull/SphereScripter/pkg/debug"
)

var myLoggerId = xid.New().String()

// ApplyRequestToZerolog tags the context logger with the request's method
// and id so every log line of a handler is attributable.
func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	return zerolog.Ctx(ctx).With().Str("rpc_method", req.Method()).Str("rpc_id", req.ID()).Logger().WithContext(ctx)
}

// ApplyClientToZerolog redirects the context logger to the client: a server
// speaking LSP over stdio must not write to its own stdout, so log output is
// delivered as window/logMessage notifications instead.
func ApplyClientToZerolog(ctx context.Context, client Client) context.Context {
	writer := &logWriter{
		client: client,
		ctx:    ctx,
	}

	level := zerolog.Ctx(ctx).GetLevel()

	return zerolog.New(writer).With().
		Str("id", myLoggerId).
		Str("lsp_role", "server").
		Logger().
		Level(level).
		Hook(debug.CustomTimeHook{}).
		Hook(debug.CustomCallerHook{}).
		WithContext(ctx)
}

type logWriter struct {
	client Client
	mu     sync.Mutex
	ctx    context.Context
}

// Write forwards one zerolog JSON entry to the client as a logMessage.
func (w *logWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var entry map[string]interface{}
	if err := json.Unmarshal(p, &entry); err != nil {
		// Not a structured entry; nothing useful to forward.
		return len(p), nil
	}

	params := &LogMessageParams{
		Type:    ParseMessageTypeFromZerolog(extractField(entry, "level", "info")),
		Message: extractField(entry, "message", ""),
		Time:    extractField(entry, "time", ""),
		Source:  extractField(entry, "caller", ""),
		Extra:   entry,
	}
	delete(entry, "id")

	if w.client != nil {
		err = w.client.LogMessage(w.ctx, params)
	}

	return len(p), err
}

func extractField(entry map[string]interface{}, key, defaultValue string) string {
	if v, ok := entry[key].(string); ok {
		delete(entry, key)
		return v
	}
	return defaultValue
}

// ParseMessageTypeFromZerolog converts a zerolog level name to the LSP
// MessageType used by window/logMessage.
func ParseMessageTypeFromZerolog(level string) MessageType {
	switch level {
	case "error", "fatal", "panic":
		return Error
	case "warn":
		return Warning
	case "info":
		return Info
	case "debug":
		return Debug
	default:
		return Log
	}
}
