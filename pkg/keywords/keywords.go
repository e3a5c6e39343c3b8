// Package keywords holds the SCP keyword tables consumed by the formatter.
//
// Tables are plain data: ordered lists of literal tokens partitioned by the
// rule category that uppercases them. Tokens are matched case-insensitively
// and must not contain regex metacharacters; Validate rejects any table that
// would compile into a pattern with surprises.
package keywords

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gitlab.com/tozd/go/errors"
)

// Table is one keyword configuration: the four token categories the rewrite
// pipeline draws from. See the package documentation for matching semantics.
type Table struct {
	// Assignment tokens are uppercased when they begin a line immediately
	// followed by `=` (e.g. `defname=`).
	Assignment []string

	// Scoped tokens are uppercased when they begin a line followed by `.` or
	// `=`, preserving the remainder's case (e.g. `tag.myflag` -> `TAG.myflag`).
	Scoped []string

	// Control tokens are uppercased when they begin a line as a whole word
	// (e.g. `if`, `endif`, `for`).
	Control []string

	// Command tokens are uppercased at every whole-word occurrence followed
	// by whitespace, `(`, or end of line (e.g. `say`, `emote`).
	Command []string
}

// tokenPattern is the full set of characters a table entry may contain.
// Anything else would act as a regex metacharacter once the tables are
// compiled into the rewrite rules.
var tokenPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Default returns the built-in Sphere 56x keyword set.
func Default() Table {
	return Table{
		Assignment: []string{
			"defname", "name", "id", "type", "value", "weight", "armor",
			"dam", "resources", "category", "subsection", "description",
			"skill", "duration", "color", "events", "flags",
		},
		Scoped: []string{
			"tag", "var", "local", "ctag", "region",
		},
		Control: []string{
			"if", "elif", "elseif", "else", "endif",
			"for", "endfor", "while", "endwhile",
			"begin", "end", "doswitch", "enddo", "return",
		},
		Command: []string{
			"say", "emote", "sysmessage", "message", "newitem", "newnpc",
			"remove", "update", "resendtooltip", "go", "sound", "effects",
			"dialog", "trigger", "timerf", "sfx",
		},
	}
}

// Validate checks every token in every category and reports all problems at
// once. A non-nil error means the table must not be compiled into rules.
func (t Table) Validate() error {
	var result *multierror.Error

	categories := []struct {
		name   string
		tokens []string
	}{
		{"assignment", t.Assignment},
		{"scoped", t.Scoped},
		{"control", t.Control},
		{"command", t.Command},
	}

	for _, category := range categories {
		tokens := category.tokens
		seen := make(map[string]bool, len(tokens))
		for _, token := range tokens {
			if !tokenPattern.MatchString(token) {
				result = multierror.Append(result, errors.Errorf("%s keyword %q: tokens must match %s", category.name, token, tokenPattern))
				continue
			}
			lower := strings.ToLower(token)
			if seen[lower] {
				result = multierror.Append(result, errors.Errorf("%s keyword %q: duplicate entry", category.name, token))
			}
			seen[lower] = true
		}
	}

	// A token claimed by both the scoped and assignment rules would be
	// rewritten twice with conflicting anchors.
	scoped := make(map[string]bool, len(t.Scoped))
	for _, token := range t.Scoped {
		scoped[strings.ToLower(token)] = true
	}
	for _, token := range t.Assignment {
		if scoped[strings.ToLower(token)] {
			result = multierror.Append(result, errors.Errorf("keyword %q appears in both scoped and assignment tables", token))
		}
	}

	return result.ErrorOrNil()
}

// Merge returns a copy of t extended with the entries of other. Duplicates
// (case-insensitive) collapse onto the existing entry; ordering of t is
// preserved and new entries are appended sorted for stable output.
func (t Table) Merge(other Table) Table {
	return Table{
		Assignment: mergeTokens(t.Assignment, other.Assignment),
		Scoped:     mergeTokens(t.Scoped, other.Scoped),
		Control:    mergeTokens(t.Control, other.Control),
		Command:    mergeTokens(t.Command, other.Command),
	}
}

func mergeTokens(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(extra))
	for _, token := range base {
		seen[strings.ToLower(token)] = true
		out = append(out, token)
	}

	var added []string
	for _, token := range extra {
		lower := strings.ToLower(token)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		added = append(added, token)
	}
	sort.Strings(added)

	return append(out, added...)
}
