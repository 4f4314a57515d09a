package cli

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/footprint/internal/app"
	"github.com/dukerupert/footprint/internal/equivalency"
	"github.com/dukerupert/footprint/internal/model"
	"github.com/dukerupert/footprint/internal/store"
)

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default emission factors and reduction tips",
		Long:  "Insert the configured emission factors and the reduction tip catalog. Existing rows are kept, so seeding twice is harmless.",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command) error {
			res, err := app.Seed(e.db, e.cfg)
			if err != nil {
				return err
			}
			if e.jsonOut {
				return e.printJSON(cmd.OutOrStdout(), res)
			}
			cmd.Printf("seeded %d emission factors and %d tips\n", res.Factors, res.Tips)
			return nil
		}),
	}
}

func newComputeCmd(e *env) *cobra.Command {
	var household int64
	var date string

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute and store one household's footprint",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command) error {
			if err := requireHousehold(household); err != nil {
				return err
			}
			on, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			fp, err := e.engine.ComputeFootprint(household, on)
			if err != nil {
				return err
			}
			if e.jsonOut {
				return e.printJSON(cmd.OutOrStdout(), fp)
			}
			printFootprint(cmd, fp)
			return nil
		}),
	}
	cmd.Flags().Int64Var(&household, "household", 0, "household id")
	cmd.Flags().StringVar(&date, "date", "", "calculation date (YYYY-MM-DD), default today")
	return cmd
}

func printFootprint(cmd *cobra.Command, fp *model.CarbonFootprint) {
	cmd.Printf("household %d on %s\n", fp.HouseholdID, fp.CalculationDate.Format(model.DateLayout))
	cmd.Printf("  energy          %s\n", equivalency.FormatKg(fp.EnergyEmissions))
	cmd.Printf("  transportation  %s\n", equivalency.FormatKg(fp.TransportationEmissions))
	cmd.Printf("  diet            %s\n", equivalency.FormatKg(fp.DietEmissions))
	cmd.Printf("  total           %s\n", equivalency.FormatKg(fp.TotalEmissions))
	cmd.Printf("  per capita      %s\n", equivalency.FormatKg(fp.PerCapitaEmissions))
}

type recomputeResult struct {
	Computed int     `json:"computed"`
	Failed   int     `json:"failed"`
	Failures []error `json:"-"`
}

func newRecomputeCmd(e *env) *cobra.Command {
	var all bool
	var concurrency int
	var date string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute the footprint of every household",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command) error {
			if !all {
				return fmt.Errorf("recompute needs --all")
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			on, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			households, err := store.NewHouseholdStore(e.db).List()
			if err != nil {
				return err
			}

			res := recomputeAll(cmd, e, households, on, concurrency)
			if e.jsonOut {
				if err := e.printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				cmd.Printf("recomputed %d households, %d failed\n", res.Computed, res.Failed)
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d households failed: %w", res.Failed, res.Failures[0])
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "recompute every household")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "households computed in parallel")
	cmd.Flags().StringVar(&date, "date", "", "calculation date (YYYY-MM-DD), default today")
	return cmd
}

// recomputeAll computes each household independently. A failure is recorded
// and does not stop the others.
func recomputeAll(cmd *cobra.Command, e *env, households []model.Household, on time.Time, concurrency int) recomputeResult {
	var (
		mu       sync.Mutex
		failures []error
		computed atomic.Int64
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(concurrency)
	for _, h := range households {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if _, err := e.engine.ComputeFootprint(h.ID, on); err != nil {
				e.logger.Error("recompute failed", "household_id", h.ID, "error", err)
				mu.Lock()
				failures = append(failures, fmt.Errorf("household %d: %w", h.ID, err))
				mu.Unlock()
				return nil
			}
			computed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return recomputeResult{
		Computed: int(computed.Load()),
		Failed:   len(failures),
		Failures: failures,
	}
}

func newRecommendCmd(e *env) *cobra.Command {
	var household int64

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print advice for the household's latest footprint",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command) error {
			if err := requireHousehold(household); err != nil {
				return err
			}
			fp, err := e.engine.Latest(household)
			if err != nil {
				return err
			}
			recs := e.engine.Recommend(fp)
			if e.jsonOut {
				return e.printJSON(cmd.OutOrStdout(), recs)
			}
			if len(recs) == 0 {
				cmd.Println("no category is above its threshold")
				return nil
			}
			for _, r := range recs {
				cmd.Printf("- %s\n", r)
			}
			return nil
		}),
	}
	cmd.Flags().Int64Var(&household, "household", 0, "household id")
	return cmd
}

func newTipsCmd(e *env) *cobra.Command {
	var household int64

	cmd := &cobra.Command{
		Use:   "tips",
		Short: "List reduction tips for the household's highest categories",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command) error {
			if err := requireHousehold(household); err != nil {
				return err
			}
			tips, err := e.engine.PersonalizedTips(household)
			if err != nil {
				return err
			}
			if e.jsonOut {
				return e.printJSON(cmd.OutOrStdout(), tips)
			}
			for _, t := range tips {
				cmd.Printf("%4d  %-15s %-40s saves %s/yr\n", t.ID, t.Category, t.Title, equivalency.FormatKg(t.PotentialSavings))
			}
			return nil
		}),
	}
	cmd.Flags().Int64Var(&household, "household", 0, "household id")
	return cmd
}

func newImpactCmd(e *env) *cobra.Command {
	var household, tip int64

	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Estimate how much a tip would reduce the household's footprint",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command) error {
			if err := requireHousehold(household); err != nil {
				return err
			}
			if tip <= 0 {
				return fmt.Errorf("--tip is required")
			}
			impact, err := e.engine.EstimateImpact(household, tip)
			if err != nil {
				return err
			}
			if e.jsonOut {
				return e.printJSON(cmd.OutOrStdout(), impact)
			}
			cmd.Printf("%s\n", impact.Tip.Title)
			cmd.Printf("  reduction  %s (%s%%)\n", equivalency.FormatKg(impact.Reduction), equivalency.FormatFloat(impact.ReductionPercentage, 1))
			cmd.Printf("  total      %s -> %s\n", equivalency.FormatKg(impact.CurrentTotal), equivalency.FormatKg(impact.ProjectedTotal))
			return nil
		}),
	}
	cmd.Flags().Int64Var(&household, "household", 0, "household id")
	cmd.Flags().Int64Var(&tip, "tip", 0, "reduction tip id")
	return cmd
}

func newSummaryCmd(e *env) *cobra.Command {
	var household int64

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the household's footprint summary",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command) error {
			if err := requireHousehold(household); err != nil {
				return err
			}
			s, err := e.engine.Summary(household)
			if err != nil {
				return err
			}
			if e.jsonOut {
				return e.printJSON(cmd.OutOrStdout(), s)
			}
			cmd.Printf("household %d on %s: %s total, %s per person\n",
				s.HouseholdID, s.CalculationDate, s.Display["total"], s.Display["per_capita"])
			cmd.Printf("national average %s, global average %s per person\n",
				equivalency.FormatKg(s.Comparison.National), equivalency.FormatKg(s.Comparison.Global))
			if !s.Equivalencies.IsEmpty {
				cmd.Println(s.Equivalencies.DisplayText)
			}
			for _, p := range s.Trend {
				cmd.Printf("  %s  %s\n", p.Month, equivalency.FormatKg(p.TotalEmissions))
			}
			return nil
		}),
	}
	cmd.Flags().Int64Var(&household, "household", 0, "household id")
	return cmd
}

func newBaselinesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "baselines",
		Short: "Print the per-person comparison baselines",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command) error {
			b := e.engine.Baselines()
			if e.jsonOut {
				return e.printJSON(cmd.OutOrStdout(), b)
			}
			cmd.Printf("national  %s per person/yr\n", equivalency.FormatKg(b.National))
			cmd.Printf("global    %s per person/yr\n", equivalency.FormatKg(b.Global))
			return nil
		}),
	}
}
