package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/backchain/pkg/backchain"
	"github.com/cognicore/backchain/pkg/backchain/config"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

type proveFlags struct {
	files    []string
	db       string
	maxSteps int
	selector string
	seed     int64
	policy   string
	parallel int
}

func newProveCmd(a *app) *cobra.Command {
	var f proveFlags

	cmd := &cobra.Command{
		Use:   "prove <goal> [goal...]",
		Short: "Find bindings for the variables of each goal",
		Example: `  backchain prove --kb family.kb 'Grandparent($X, ann)'
  backchain prove --db kb.db --max-steps 5000 --selector first 'Likes($X, cake)'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProve(cmd, a, f, args)
		},
	}

	cmd.Flags().StringSliceVar(&f.files, "kb", nil, "Knowledge base text file (repeatable)")
	cmd.Flags().StringVar(&f.db, "db", "", "Knowledge database written by the import command")
	cmd.Flags().IntVar(&f.maxSteps, "max-steps", 0, "Step bound per goal (default from config)")
	cmd.Flags().StringVar(&f.selector, "selector", "", "Rule selection: random or first")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed for the random selector (0 uses the clock)")
	cmd.Flags().StringVar(&f.policy, "policy", "", "Unification policy: exact or contains")
	cmd.Flags().IntVar(&f.parallel, "parallel", 4, "Goals proved at the same time")
	return cmd
}

func runProve(cmd *cobra.Command, a *app, f proveFlags, args []string) error {
	cfg := *a.cfg
	knowledge := cfg.Knowledge
	knowledge.Files = append(append([]string(nil), knowledge.Files...), f.files...)
	if f.db != "" {
		knowledge.Database = f.db
	}
	cfg.Knowledge = knowledge
	if f.maxSteps != 0 {
		cfg.Engine.MaxSteps = f.maxSteps
	}
	if f.selector != "" {
		cfg.Engine.Selector = f.selector
	}
	if f.seed != 0 {
		cfg.Engine.Seed = f.seed
	}
	if f.policy != "" {
		cfg.Engine.UnifyPolicy = f.policy
	}

	goals := make([]*term.Term, len(args))
	for i, arg := range args {
		g, err := term.Parse(arg)
		if err != nil {
			return fmt.Errorf("goal %d: %w", i+1, err)
		}
		goals[i] = g
	}

	baseDir := ""
	if a.configPath != "" {
		baseDir = filepath.Dir(a.configPath)
	}
	comp, err := (&config.Loader{Config: &cfg, BaseDir: baseDir}).Load(cmd.Context())
	if err != nil {
		return err
	}

	engine := backchain.New(backchain.Options{
		Selector: comp.Selector,
		Policy:   comp.Policy,
		Logger:   a.logger,
	})
	defer engine.Close()

	if err := engine.Load(comp.Program); err != nil {
		return err
	}

	answers, err := engine.ProveAll(cmd.Context(), goals, comp.MaxSteps, f.parallel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ans := range answers {
		a.logger.Info("goal proved",
			zap.String("session", ans.Session),
			zap.Stringer("goal", ans.Goal),
			zap.Stringer("status", ans.Outcome.Status),
			zap.Int("steps", ans.Outcome.Steps),
			zap.Int("rule_applications", ans.Stats.RuleApplications))
		printAnswer(out, ans)
	}
	return nil
}

func printAnswer(w io.Writer, ans *backchain.Answer) {
	fmt.Fprintf(w, "%s\n", ans.Goal)
	for _, v := range ans.Goal.FreeVars() {
		vals := ans.Values(v.Name())
		if len(vals) == 0 {
			fmt.Fprintf(w, "  %s: no bindings\n", v)
			continue
		}
		for _, val := range vals {
			fmt.Fprintf(w, "  %s = %s\n", v, val)
		}
	}
	if ans.Outcome.Exhausted() {
		fmt.Fprintf(w, "  (%v; answers may be incomplete)\n", ans.Outcome.Err())
		return
	}
	fmt.Fprintf(w, "  (completed in %d steps)\n", ans.Outcome.Steps)
}
