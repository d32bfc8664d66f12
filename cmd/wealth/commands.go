package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/wealth/internal/compare"
	"github.com/mtlprog/wealth/internal/config"
	"github.com/mtlprog/wealth/internal/currency"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/export"
	"github.com/mtlprog/wealth/internal/fxrate"
	"github.com/mtlprog/wealth/internal/liquidity"
	"github.com/mtlprog/wealth/internal/valuation"
)

var fxFlag = &cli.StringFlag{
	Name:  "fx",
	Usage: "FX table JSON file; defaults to the rates stored in the snapshot",
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "compare two snapshot files under one FX table",
		ArgsUsage: "<a.json> <b.json>",
		Flags: []cli.Flag{
			fxFlag,
			&cli.StringFlag{Name: "scope", Value: string(compare.ScopeAll), Usage: "cash, fixed_income, private_equity, real_estate, public_equity, commodities or all"},
			&cli.IntFlag{Name: "top", Value: 10, Usage: "number of top movers"},
			&cli.StringFlag{Name: "xlsx", Usage: "also write the report to this workbook"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("compare needs exactly two snapshot files", 2)
			}
			cfg := config.Load()

			a, err := loadSnapshot(c.Args().Get(0))
			if err != nil {
				return err
			}
			b, err := loadSnapshot(c.Args().Get(1))
			if err != nil {
				return err
			}
			fx, err := ratesFor(c.String("fx"), b)
			if err != nil {
				return err
			}
			scope, err := compare.ParseScope(c.String("scope"))
			if err != nil {
				return err
			}

			all := append(domain.CloneAssets(a.Assets), b.Assets...)
			if err := checkRates(all, fx, domain.CurrencyUSD, cfg.StrictFXRates); err != nil {
				return err
			}

			report := compare.NewEngine(a, b, fx).Report(scope, c.Int("top"))
			printReport(c.App.Writer, report)

			if path := c.String("xlsx"); path != "" {
				if err := export.WriteFile(path, report); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "\nworkbook written to %s\n", path)
			}
			return nil
		},
	}
}

func liquidityCommand() *cli.Command {
	return &cli.Command{
		Name:      "liquidity",
		Usage:     "print the liquidity matrix of a snapshot file",
		ArgsUsage: "<snapshot.json>",
		Flags: []cli.Flag{
			fxFlag,
			&cli.StringFlag{Name: "view", Usage: "view currency; defaults to VIEW_CURRENCY"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("liquidity needs one snapshot file", 2)
			}
			cfg := config.Load()
			view := cfg.ViewCurrency
			if v := c.String("view"); v != "" {
				view = strings.ToUpper(v)
			}

			snap, err := loadSnapshot(c.Args().First())
			if err != nil {
				return err
			}
			fx, err := ratesFor(c.String("fx"), snap)
			if err != nil {
				return err
			}
			if err := checkRates(snap.Assets, fx, view, cfg.StrictFXRates); err != nil {
				return err
			}
			registry, err := cfg.Entities()
			if err != nil {
				return err
			}

			classifier := liquidity.NewClassifier(cfg.AlwaysFundsNames, cfg.LimitedLiquidityNames)
			m := liquidity.BuildMatrix(snap.Assets, classifier, fx, view, registry.Beneficiaries())
			printMatrix(c.App.Writer, m)
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check an asset list file and report every problem",
		ArgsUsage: "<assets.json>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("validate needs one asset file", 2)
			}
			registry, err := config.Load().Entities()
			if err != nil {
				return err
			}

			var assets []domain.Asset
			if err := readJSON(c.Args().First(), &assets); err != nil {
				return err
			}

			invalid := 0
			for i, a := range assets {
				final, errs := valuation.Edit(a, registry).Finalize()
				if len(errs) == 0 {
					if a.Beneficiary != "" && a.Beneficiary != final.Beneficiary {
						fmt.Fprintf(c.App.Writer, "#%d %s: beneficiary %s will be stored as %s\n", i, a.Name, a.Beneficiary, final.Beneficiary)
					}
					continue
				}
				invalid++
				fmt.Fprintf(c.App.Writer, "#%d %s\n", i, a.Name)
				for _, e := range errs {
					fmt.Fprintf(c.App.Writer, "  %s\n", e.Error())
				}
			}
			if invalid > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d assets invalid", invalid, len(assets)), 1)
			}
			fmt.Fprintf(c.App.Writer, "%d assets valid\n", len(assets))
			return nil
		},
	}
}

// loadSnapshot reads a snapshot file. A file without a name is named after the file.
func loadSnapshot(path string) (*domain.PortfolioSnapshot, error) {
	var s domain.PortfolioSnapshot
	if err := readJSON(path, &s); err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &s, nil
}

// ratesFor loads the FX file when given, otherwise the snapshot's own rates.
func ratesFor(path string, s *domain.PortfolioSnapshot) (domain.FXRates, error) {
	if path != "" {
		return fxrate.LoadFile(path)
	}
	return fxrate.Normalize(s.FXRates), nil
}

// checkRates values every asset once through a Converter so missing rates are
// logged, or rejected in strict mode.
func checkRates(assets []domain.Asset, fx domain.FXRates, view string, strict bool) error {
	_, err := valuation.ValuateAll(assets, currency.NewConverter(fx, view, strict))
	return err
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func printReport(out io.Writer, r compare.Report) {
	s := r.Summary
	fmt.Fprintf(out, "%s -> %s (USD, scope %s)\n\n", s.SnapshotA, s.SnapshotB, r.Scope)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Class\tA\tB\tDelta\t")
	for _, c := range s.ByClass {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", c.Class, usd(c.ValueA), usd(c.ValueB), usd(c.Delta))
	}
	fmt.Fprintf(w, "Total\t%s\t%s\t%s\t\n", usd(s.TotalA), usd(s.TotalB), usd(s.Delta))
	w.Flush()
	fmt.Fprintf(out, "Change: %s%%\n", s.DeltaPercent.StringFixed(2))

	if len(r.TopMovers) > 0 {
		fmt.Fprintln(out, "\nTop movers")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, d := range r.TopMovers {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", d.AssetName, d.Class, usd(d.DeltaUSD))
		}
		w.Flush()
	}

	if len(r.Positions) > 0 {
		fmt.Fprintln(out, "\nNew and deleted")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, p := range r.Positions {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", p.ChangeType, p.AssetName, p.Class, usd(p.Value))
		}
		w.Flush()
	}
}

func printMatrix(out io.Writer, m liquidity.Matrix) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "Category\t")
	for _, b := range m.Beneficiaries {
		fmt.Fprintf(w, "%s\t", b)
	}
	fmt.Fprintln(w, "Total\t")

	for _, cat := range m.Categories {
		fmt.Fprintf(w, "%s\t", cat)
		for _, b := range m.Beneficiaries {
			fmt.Fprintf(w, "%s\t", domain.FormatMoney(m.Cell(cat, b), m.ViewCurrency))
		}
		fmt.Fprintf(w, "%s\t\n", domain.FormatMoney(m.RowTotals[cat], m.ViewCurrency))
	}

	fmt.Fprint(w, "Total\t")
	for _, b := range m.Beneficiaries {
		fmt.Fprintf(w, "%s\t", domain.FormatMoney(m.ColumnTotals[b], m.ViewCurrency))
	}
	fmt.Fprintf(w, "%s\t\n", domain.FormatMoney(m.GrandTotal, m.ViewCurrency))
	w.Flush()

	if m.Skipped > 0 {
		fmt.Fprintf(out, "\n%d assets skipped: beneficiary not configured\n", m.Skipped)
	}
}

func usd(v decimal.Decimal) string {
	return domain.FormatMoney(v, domain.CurrencyUSD)
}
