package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/typeboard/typeboard/internal/catalog"
	"github.com/typeboard/typeboard/internal/dashboard"
	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/export"
	"github.com/typeboard/typeboard/internal/incident"
	"github.com/typeboard/typeboard/internal/locale"
	"github.com/typeboard/typeboard/internal/page"
	"github.com/typeboard/typeboard/internal/query"
	"github.com/typeboard/typeboard/internal/repository"
)

// loadCatalog returns the embedded catalog, merged with the overrides stored
// in the SQLite file at dbPath when one is given.
func loadCatalog(ctx context.Context, dbPath string) (*catalog.Catalog, error) {
	base, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		return base, nil
	}

	repo, err := repository.New(domain.RepositoryConfig{Driver: "sqlite", SQLitePath: dbPath})
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	reg := catalog.NewRegistry(base)
	if err := reg.Reload(ctx, repo); err != nil {
		return nil, err
	}
	return reg.Current(), nil
}

func resolveLocale(code string) (*locale.Locale, error) {
	bundle := locale.Default()
	if code == "" {
		return bundle.Fallback(), nil
	}
	loc, ok := bundle.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", code)
	}
	return loc, nil
}

func newPagesCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List lookup pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd.Context(), dbPath)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tCOVERAGE\tTITLE")
			for _, p := range page.List(c) {
				fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n", p.ID, p.Kind, p.Coverage, len(domain.Categories()), p.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file holding catalog overrides")
	return cmd
}

func newLookupCmd() *cobra.Command {
	var (
		dbPath string
		lang   string
	)

	cmd := &cobra.Command{
		Use:   "lookup <page> <category>",
		Short: "Render one page for one MBTI type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := resolveLocale(lang)
			if err != nil {
				return err
			}
			key, err := domain.ParseCategory(args[1])
			if err != nil {
				return err
			}
			c, err := loadCatalog(cmd.Context(), dbPath)
			if err != nil {
				return err
			}

			view, err := page.Render(c, args[0], key)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), localizeView(view, loc).Text())
			return err
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file holding catalog overrides")
	cmd.Flags().StringVar(&lang, "lang", "", "language for prompts and notices (ko, en)")
	return cmd
}

// localizeView swaps the page chrome for the locale's wording. Catalog
// content itself is only written in the fallback language.
func localizeView(v page.View, loc *locale.Locale) page.View {
	if loc.Code() == locale.Default().Fallback().Code() {
		return v
	}
	v.Prompt = loc.Text("lookup.prompt")
	if v.Notice != nil {
		n := *v.Notice
		n.Text = loc.Text("lookup.not_available")
		v.Notice = &n
	}
	return v
}

// filterFlags are the dashboard filters shared by export and trend.
// A dimension left unset takes its default.
type filterFlags struct {
	seed        uint64
	lang        string
	years       []int
	countries   []string
	attackTypes []string
	severities  []string
	expr        string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Uint64Var(&f.seed, "seed", domain.DefaultConfig().Dashboard.Seed, "dataset seed")
	fs.StringVar(&f.lang, "lang", "", "language for labels (ko, en)")
	fs.IntSliceVar(&f.years, "years", nil, "years to include")
	fs.StringSliceVar(&f.countries, "countries", nil, "countries to include")
	fs.StringSliceVar(&f.attackTypes, "attacks", nil, "attack types to include")
	fs.StringSliceVar(&f.severities, "severities", nil, "severity levels to include")
	fs.StringVar(&f.expr, "query", "", "CEL expression applied after the filters")
}

// view generates the dataset and returns the filtered incidents.
func (f *filterFlags) view(cmd *cobra.Command) ([]domain.Incident, *locale.Locale, error) {
	loc, err := resolveLocale(f.lang)
	if err != nil {
		return nil, nil, err
	}

	ds, err := incident.NewStore().Get(cmd.Context(), f.seed)
	if err != nil {
		return nil, nil, err
	}

	sel := dashboard.DefaultSelection(ds, loc)
	fs := cmd.Flags()
	if fs.Changed("years") {
		sel.Years = f.years
	}
	if fs.Changed("countries") {
		sel.Countries = f.countries
	}
	if fs.Changed("attacks") {
		sel.AttackTypes = f.attackTypes
	}
	if fs.Changed("severities") {
		sel.Severities = make([]domain.Severity, len(f.severities))
		for i, s := range f.severities {
			sel.Severities[i] = domain.Severity(strings.TrimSpace(s))
		}
	}
	sel = dashboard.Normalize(sel, loc)

	var pred dashboard.Predicate
	if f.expr != "" {
		compiler, err := query.NewCompiler()
		if err != nil {
			return nil, nil, err
		}
		p, err := compiler.Compile(f.expr)
		if err != nil {
			return nil, nil, err
		}
		pred = p
	}
	return dashboard.Filter(ds, sel, pred), loc, nil
}

func newExportCmd() *cobra.Command {
	var (
		filters filterFlags
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered dataset as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, loc, err := filters.view(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}

			n, err := export.WriteCSV(out, view, loc)
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", n, output)
			}
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newTrendCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Print the yearly trend and its prediction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, loc, err := filters.view(cmd)
			if err != nil {
				return err
			}

			tv := dashboard.Trend(view, loc)
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, tv.Title)
			for _, p := range tv.Historical {
				fmt.Fprintf(w, "  %d  %s\n", p.Year, loc.FormatCount(int64(p.Count)))
			}
			if tv.Warning != "" {
				fmt.Fprintln(w, tv.Warning)
				return nil
			}
			for _, note := range tv.Notes {
				fmt.Fprintln(w, note)
			}
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}
