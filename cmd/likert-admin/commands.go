package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"likert/internal/core/aggregate"
	"likert/internal/core/schema"
	"likert/internal/modkit"
	"likert/internal/platform/config"
	"likert/internal/platform/logger"
	"likert/internal/services/responses/domain"
	rmod "likert/internal/services/responses/module"
	rrepo "likert/internal/services/responses/repo"
	rsvc "likert/internal/services/responses/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// env is filled before any subcommand runs
type env struct {
	cfg     config.Conf
	catalog *schema.Catalog
	svc     domain.ServicePort
	closeFn modkit.Closer
}

func newRootCmd() *cobra.Command {
	e := &env{cfg: config.New().Prefix("LIKERT_")}

	root := &cobra.Command{
		Use:           "likert-admin",
		Short:         "Operator tasks for the survey store",
		Long:          "Reads LIKERT_* settings (STORE_DRIVER, CSV_PATH, S3_*, SHEETS_*, PG_*) and works on that store directly.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			deps, closeFn, err := modkit.OpenDeps(cmd.Context(), e.cfg, *logger.Named("admin"))
			if err != nil {
				return err
			}
			o := rmod.FromConfig(e.cfg)
			repo := rrepo.New(deps.Store, deps.Catalog,
				rrepo.WithStoreTimeout(o.StoreTimeout),
				rrepo.WithCacheTTL(0),
				rrepo.WithLogger(deps.Log),
			)
			e.catalog = deps.Catalog
			e.svc = rsvc.New(repo, deps.Clock, nil)
			e.closeFn = closeFn
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if e.closeFn == nil {
				return nil
			}
			return e.closeFn(cmd.Context())
		},
	}
	root.AddCommand(statsCmd(e), exportCmd(e), repairCmd(e), schemaCmd(e))
	return root
}

func statsCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print response counts, per question means and category tallies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := e.svc.Stats(cmd.Context())
			if st.Warning != "" {
				cmd.PrintErrln("warning:", st.Warning)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			return printStats(cmd.OutOrStdout(), e.svc.Schema(), st)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func printStats(w io.Writer, s *schema.Schema, st domain.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "responses\t%d\n", st.Total)
	fmt.Fprintf(tw, "malformed rows\t%d\n", st.MalformedCount)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "question\tmean\tanswered")
	for _, q := range s.Questions {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", q.Label, aggregate.Format(st.PerQuestion[q.ID]), st.Answered[q.ID])
	}
	for _, f := range s.CategoryFields() {
		t := st.PerCategory[f.ID]
		if t == nil || t.Len() == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s\tcount\n", f.Label)
		for _, k := range t.Keys() {
			fmt.Fprintf(tw, "%s\t%d\n", k, t.Count(k))
		}
	}
	return tw.Flush()
}

func exportCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every readable response as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dl, err := e.svc.Export(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(dl.Data)
				return err
			}
			if fi, err := os.Stat(out); err == nil && fi.IsDir() {
				out = filepath.Join(out, dl.Filename)
			}
			if err := os.WriteFile(out, dl.Data, 0o644); err != nil {
				return err
			}
			cmd.PrintErrln("wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file or directory to write (default stdout)")
	return cmd
}

func repairCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Rewrite the store under canonical column names",
		Long:  "Reads every row, renames legacy columns to their current ids and rewrites the whole store. Rows that do not parse are kept as they are.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("repair rewrites the whole store; pass --yes to continue")
			}
			rep, err := e.svc.Repair(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the rewrite")
	return cmd
}

func schemaCmd(e *env) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the current schema revision as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer func() { _ = enc.Close() }()
			if !all {
				return enc.Encode(e.catalog.Current())
			}
			for _, s := range e.catalog.Versions() {
				if err := enc.Encode(s); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every revision, oldest first")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
