// Package format implements the SCP line formatting engine.
//
// Formatting is a deterministic, idempotent, line-local rewrite: each line is
// trimmed of trailing whitespace and, unless it is a comment, run through an
// ordered pipeline of rules that uppercase keyword regions. Rules never add,
// remove, or reorder characters; the only difference between input and output
// is casing inside matched keyword regions.
//
// The pipeline order is load-bearing:
//
//  1. section headers (bracket syntax would confuse the line-start anchors)
//  2. triggers (a trigger is itself an assignment; it must win over rule 4)
//  3. scoped assignments (prefix-only uppercase, e.g. TAG.myflag=1)
//  4. assignment keywords
//  5. control keywords
//  6. command calls (the only rule not anchored to line start; runs last so
//     it cannot touch an already-claimed prefix token)
package format

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/raydienull/SphereScripter/pkg/keywords"
	"gitlab.com/tozd/go/errors"
)

// Edit is one full-line replacement: line index, the column span of the
// original (untrimmed) line, and the formatted text. FormatDocument emits
// exactly one Edit per input line, no-op or not, so callers never diff.
type Edit struct {
	Line           int
	StartCharacter int
	EndCharacter   int
	NewText        string
}

// rule is a pure line-text rewrite. Every rule is comment-agnostic: the
// comment gate runs once, centrally, in FormatLine.
type rule struct {
	name  string
	apply func(line string) string
}

// Formatter applies the rewrite pipeline built from one keyword table. It is
// immutable after construction and safe for concurrent use.
type Formatter struct {
	rules []rule
}

// NewFormatter validates the keyword table and compiles it into the ordered
// rewrite pipeline. A table that fails validation is rejected here, at
// startup, rather than producing wrong matches at format time.
func NewFormatter(table keywords.Table) (*Formatter, error) {
	if err := table.Validate(); err != nil {
		return nil, errors.Errorf("compiling formatter: %w", err)
	}

	rules := []rule{
		sectionRule(),
		triggerRule(),
	}
	if len(table.Scoped) > 0 {
		rules = append(rules, prefixRule("scoped", `^\s*(?:`+alternation(table.Scoped)+`)[.=]`))
	}
	if len(table.Assignment) > 0 {
		rules = append(rules, prefixRule("assignment", `^\s*(?:`+alternation(table.Assignment)+`)=`))
	}
	if len(table.Control) > 0 {
		rules = append(rules, prefixRule("control", `^\s*(?:`+alternation(table.Control)+`)\b`))
	}
	if len(table.Command) > 0 {
		rules = append(rules, commandRule(table.Command))
	}

	return &Formatter{rules: rules}, nil
}

// FormatLine trims trailing whitespace, passes comments through untouched,
// and otherwise runs the pipeline. Pure; stateless across lines.
func (f *Formatter) FormatLine(raw string) string {
	line := strings.TrimRightFunc(raw, unicode.IsSpace)
	if isComment(line) {
		return line
	}
	for _, r := range f.rules {
		line = r.apply(line)
	}
	return line
}

// FormatDocument formats every line and returns one full-span Edit per line,
// in line order.
func (f *Formatter) FormatDocument(lines []string) []Edit {
	edits := make([]Edit, len(lines))
	for i, raw := range lines {
		edits[i] = Edit{
			Line:         i,
			EndCharacter: utf8.RuneCountInString(raw),
			NewText:      f.FormatLine(raw),
		}
	}
	return edits
}

// FormatText splits content on newlines and formats it. A trailing `\r` on a
// line counts as trailing whitespace.
func (f *Formatter) FormatText(content string) []Edit {
	return f.FormatDocument(strings.Split(content, "\n"))
}

// FormatString rewrites a whole document and returns the formatted text.
// Line endings are normalized to `\n` (a `\r` before the newline is trailing
// whitespace and is trimmed).
func (f *Formatter) FormatString(content string) string {
	lines := strings.Split(content, "\n")
	for i, raw := range lines {
		lines[i] = f.FormatLine(raw)
	}
	return strings.Join(lines, "\n")
}

// ruleNames exposes the pipeline order for tests.
func (f *Formatter) ruleNames() []string {
	names := make([]string, len(f.rules))
	for i, r := range f.rules {
		names[i] = r.name
	}
	return names
}

// isComment reports whether the line, after leading whitespace, starts with
// `//`. This is the single comment check for the whole pipeline; detection is
// whole-line only (a trailing `//` after code does not make a comment).
func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "//")
}

// sectionRule uppercases the leading word of a bracketed section header,
// e.g. `[itemdef 0x1]` -> `[ITEMDEF 0x1]`. It only fires when the entire
// line, modulo surrounding whitespace, is bracket syntax.
func sectionRule() rule {
	re := regexp.MustCompile(`^(\s*\[)(\w+)([^\]]*\])$`)
	return rule{
		name: "section",
		apply: func(line string) string {
			m := re.FindStringSubmatch(line)
			if m == nil {
				return line
			}
			return m[1] + strings.ToUpper(m[2]) + m[3]
		},
	}
}

// triggerRule uppercases every `on=@name...` occurrence. The match runs to
// the next whitespace but stops short of a comment-introducing `//`.
func triggerRule() rule {
	re := regexp.MustCompile(`(?i)\bon=@\w+(?:[^\s/]|/[^\s/])*`)
	return rule{
		name:  "trigger",
		apply: func(line string) string { return re.ReplaceAllStringFunc(line, strings.ToUpper) },
	}
}

// prefixRule uppercases a line-start match. The patterns passed here cover
// only leading whitespace, the keyword itself, and a case-invariant
// terminator, so uppercasing the whole match changes nothing but the token.
func prefixRule(name, pattern string) rule {
	re := regexp.MustCompile(`(?i)` + pattern)
	return rule{
		name: name,
		apply: func(line string) string {
			loc := re.FindStringIndex(line)
			if loc == nil {
				return line
			}
			return strings.ToUpper(line[:loc[1]]) + line[loc[1]:]
		},
	}
}

// commandRule uppercases every whole-word command occurrence followed by
// whitespace, `(`, or end of line, anywhere in the line.
func commandRule(tokens []string) rule {
	re := regexp.MustCompile(`(?i)\b(?:` + alternation(tokens) + `)(?:[\s(]|$)`)
	return rule{
		name:  "command",
		apply: func(line string) string { return re.ReplaceAllStringFunc(line, strings.ToUpper) },
	}
}

// alternation joins validated literal tokens into a regex alternation.
// Tokens are word characters only (enforced by keywords.Table.Validate), so
// no quoting is needed.
func alternation(tokens []string) string {
	return strings.Join(tokens, "|")
}
