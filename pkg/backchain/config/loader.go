package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cognicore/backchain/pkg/backchain/kbfile"
	"github.com/cognicore/backchain/pkg/backchain/kbstore/sqlite"
	"github.com/cognicore/backchain/pkg/backchain/rules"
	"github.com/cognicore/backchain/pkg/backchain/unify"
)

// Loader resolves a Config into ready-to-use components. Relative paths are
// taken from BaseDir.
type Loader struct {
	Config  *Config
	BaseDir string
}

// Components holds everything an engine needs from configuration.
type Components struct {
	Program  *kbfile.Program
	Selector rules.Selector
	Policy   unify.Policy
	MaxSteps int
}

// Load reads every configured knowledge source, in order: database, files,
// inline facts, inline rules.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comp := &Components{MaxSteps: cfg.Engine.MaxSteps}

	var err error
	if comp.Selector, err = rules.NewSelector(cfg.Engine.Selector, cfg.Engine.Seed); err != nil {
		return nil, err
	}
	if comp.Policy, err = unify.ParsePolicy(cfg.Engine.UnifyPolicy); err != nil {
		return nil, err
	}

	prog := &kbfile.Program{}
	if cfg.Knowledge.Database != "" {
		st, err := sqlite.OpenSQLite(ctx, l.resolve(cfg.Knowledge.Database))
		if err != nil {
			return nil, fmt.Errorf("open knowledge database: %w", err)
		}
		stored, err := st.LoadProgram(ctx)
		st.Close()
		if err != nil {
			return nil, fmt.Errorf("load knowledge database: %w", err)
		}
		prog.Append(stored)
	}

	for _, f := range cfg.Knowledge.Files {
		p, err := kbfile.LoadFile(l.resolve(f))
		if err != nil {
			return nil, fmt.Errorf("load knowledge file: %w", err)
		}
		prog.Append(p)
	}

	for i, line := range append(append([]string(nil), cfg.Knowledge.Facts...), cfg.Knowledge.Rules...) {
		fact, rule, err := kbfile.ParseStatement(line)
		if err != nil {
			return nil, fmt.Errorf("inline statement %d: %w", i+1, err)
		}
		if rule != nil {
			if rule.Name == "" {
				rule.Name = fmt.Sprintf("inline-%d", i+1)
			}
			prog.Rules = append(prog.Rules, rule)
			continue
		}
		prog.Facts = append(prog.Facts, fact)
	}

	comp.Program = prog
	return comp, nil
}

func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) || l.BaseDir == "" {
		return path
	}
	return filepath.Join(l.BaseDir, path)
}
