package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/hostcat/internal/ingest"
	"github.com/yanizio/hostcat/internal/redirect"
	"github.com/yanizio/hostcat/internal/sheet"
)

type importFlags struct {
	categories []int64
	dryRun     bool
	favorite   bool
	resolve    bool
	verbose    bool
}

func newImportCmd(open Opener) *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a .xlsx, .ods, or .csv sheet",
		Long: `Reads the first (or active) sheet of FILE, normalizes every row, and
inserts new hostings in one transaction.  Rows whose name already exists
are reported as duplicates and left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeEnv()
			return runImport(cmd, env, args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.Int64SliceVar(&f.categories, "categories", nil, "category ids to link every inserted hosting to")
	fl.BoolVar(&f.dryRun, "dry-run", false, "normalize and count, then roll back")
	fl.BoolVar(&f.favorite, "favorite", false, "mark inserted hostings as favorites")
	fl.BoolVar(&f.resolve, "resolve-redirects", false, "resolve known redirector links to their targets")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "print every row, not only failures")
	return cmd
}

func runImport(cmd *cobra.Command, env *Env, path string, f importFlags) error {
	ic := env.Config.Import
	if cmd.Flags().Changed("categories") {
		ic.Categories = f.categories
	}
	if cmd.Flags().Changed("favorite") {
		ic.Favorite = f.favorite
	}
	if cmd.Flags().Changed("resolve-redirects") {
		ic.ResolveRedirects = f.resolve
	}

	t, err := sheet.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	env.Log.Info("sheet loaded", zap.String("file", path), zap.Int("rows", len(t.Rows)))

	opt := ingest.Options{
		Columns:          ic.Columns,
		Categories:       ic.Categories,
		Favorite:         ic.Favorite,
		DryRun:           f.dryRun,
		MessagingBaseURL: ic.MessagingBaseURL,
		Logger:           env.Log,
	}
	if ic.ResolveRedirects {
		opt.Resolver = redirect.New(ic.RedirectorDomains, ic.RedirectTimeout, env.Log)
	}

	rep, err := ingest.New(env.Store, opt).Run(cmd.Context(), t)
	out := cmd.OutOrStdout()
	if rep != nil {
		for _, r := range rep.Rows {
			if !worthPrinting(r, f.verbose) {
				continue
			}
			line := fmt.Sprintf("line %d: %s %q", r.Line, r.Outcome, r.Name)
			if r.Err != nil {
				line += ": " + r.Err.Error()
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, rep.String())
	}
	return err
}

// worthPrinting keeps the default output to rows that need attention.
func worthPrinting(r ingest.RowResult, verbose bool) bool {
	return verbose || r.Outcome == ingest.Failed || r.Kind == ingest.KindCategory
}
