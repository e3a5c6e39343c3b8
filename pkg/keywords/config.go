package keywords

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// fileConfig is the shape of a keyword override file:
//
//	keywords {
//	  assignment = ["morex", "morey"]
//	  command    = ["attack"]
//	}
//
// Every attribute is optional; entries extend the defaults.
type fileConfig struct {
	Keywords *keywordsBlock `hcl:"keywords,block"`
}

type keywordsBlock struct {
	Assignment []string `hcl:"assignment,optional"`
	Scoped     []string `hcl:"scoped,optional"`
	Control    []string `hcl:"control,optional"`
	Command    []string `hcl:"command,optional"`
}

// Load reads an HCL keyword override file and returns the default table
// extended with its entries. The merged table is validated before being
// returned so a bad config file fails at startup, not at format time.
func Load(fs afero.Fs, path string) (Table, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return Table{}, errors.Errorf("reading keyword config %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return Table{}, errors.Errorf("parsing keyword config %s: %w", path, diags)
	}

	var cfg fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return Table{}, errors.Errorf("decoding keyword config %s: %w", path, diags)
	}

	table := Default()
	if cfg.Keywords != nil {
		table = table.Merge(Table{
			Assignment: cfg.Keywords.Assignment,
			Scoped:     cfg.Keywords.Scoped,
			Control:    cfg.Keywords.Control,
			Command:    cfg.Keywords.Command,
		})
	}

	if err := table.Validate(); err != nil {
		return Table{}, errors.Errorf("validating keyword config %s: %w", path, err)
	}

	return table, nil
}
