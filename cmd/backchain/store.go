package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/backchain/pkg/backchain/kbfile"
	"github.com/cognicore/backchain/pkg/backchain/kbstore/sqlite"
)

func newImportCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <file> [file...]",
		Short: "Parse knowledge base files and store them in a database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			progs := make([]*kbfile.Program, len(args))
			g, _ := errgroup.WithContext(ctx)
			for i, path := range args {
				g.Go(func() error {
					p, err := kbfile.LoadFile(path)
					if err != nil {
						return err
					}
					progs[i] = p
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			st, err := sqlite.OpenSQLite(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			for i, p := range progs {
				if err := st.SaveProgram(ctx, p); err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				a.logger.Info("imported",
					zap.String("file", args[i]),
					zap.Int("facts", len(p.Facts)),
					zap.Int("rules", len(p.Rules)))
			}

			facts, rules, err := st.Counts(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d facts, %d rules\n", dbPath, facts, rules)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "backchain.db", "Database file")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var dbPath, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the statements of a database as a knowledge base file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("database %s: %w", dbPath, err)
			}
			st, err := sqlite.OpenSQLite(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			prog, err := st.LoadProgram(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := kbfile.Export(w, prog); err != nil {
				return err
			}
			a.logger.Info("exported",
				zap.String("db", dbPath),
				zap.Int("facts", len(prog.Facts)),
				zap.Int("rules", len(prog.Rules)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "backchain.db", "Database file")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")
	return cmd
}
