// Package diff renders readable want/got diffs for test failures.
package diff

import (
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
)

// Exported pretty-prints both values (exported fields only, no color) and
// returns a line diff from got to want. Empty string means equal.
func Exported[T any](want T, got T) string {
	printer := pp.New()
	printer.SetExportedOnly(true)
	printer.SetColoringEnabled(false)

	out := diff.Diff(printer.Sprint(got), printer.Sprint(want))
	if out == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n(-got +want)\n")
	sb.WriteString(out)
	return sb.String()
}
