package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/perfumatch/internal/services"
)

var similaritiesCmd = &cobra.Command{
	Use:     "similarities",
	Aliases: []string{"sim"},
	Short:   "Compute and inspect luxury/alternative similarity edges",
}

var similaritiesComputeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Score every luxury perfume against every alternative",
	RunE:  runSimilaritiesCompute,
}

var similaritiesTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the highest scoring stored edges",
	RunE:  runSimilaritiesTop,
}

var (
	similaritiesFresh bool
	similaritiesLimit int
)

func init() {
	rootCmd.AddCommand(similaritiesCmd)
	similaritiesCmd.AddCommand(similaritiesComputeCmd, similaritiesTopCmd)
	similaritiesComputeCmd.Flags().BoolVar(&similaritiesFresh, "fresh", false, "Delete stored edges before computing")
	similaritiesTopCmd.Flags().IntVarP(&similaritiesLimit, "limit", "l", 10, "Maximum edges to show")
}

func newSimilarityService(rt *appEnv) *services.SimilarityService {
	return services.NewSimilarityService(rt.db, rt.log, nil, rt.cfg.SimilarityBatchSize, rt.cfg.SimilarityThreshold)
}

func runSimilaritiesCompute(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	svc := newSimilarityService(rt)
	ctx := cmd.Context()

	if similaritiesFresh {
		deleted, err := svc.DeleteAll(ctx)
		if err != nil {
			return err
		}
		rt.log.Info("stored similarities removed", "count", deleted)
	}

	res, err := svc.ComputeAll(ctx)
	if err != nil {
		return fmt.Errorf("similarity computation failed: %w", err)
	}

	notifier := services.NewTelegramNotifier(rt.cfg.TelegramBotToken, rt.cfg.TelegramAdminChat, rt.log)
	if err := notifier.NotifySimilarities(res); err != nil {
		rt.log.Warn("similarity notification failed", "error", err)
	}

	if jsonOutput {
		return printJSON(res)
	}
	fmt.Printf("\n%s %s new edges (%d pairs, %d already stored, %d below threshold)\n\n",
		titleStyle.Render("SIMILARITIES:"),
		scoreStyle.Render(fmt.Sprint(res.NewEdges)),
		res.Pairs, res.SkippedExisting, res.BelowThreshold)
	return nil
}

func runSimilaritiesTop(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	edges, err := newSimilarityService(rt).Top(cmd.Context(), similaritiesLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(edges)
	}

	if len(edges) == 0 {
		fmt.Println("No similarities stored yet. Run 'perfumatch similarities compute'.")
		return nil
	}

	fmt.Printf("\n%s\n\n", titleStyle.Render("TOP SIMILARITIES"))
	for i, e := range edges {
		fmt.Printf("%s %s %s → %s %s  %s\n",
			idStyle.Render(fmt.Sprintf("%2d.", i+1)),
			brandStyle.Render(e.LuxuryBrand), e.LuxuryPerfume,
			brandStyle.Render(e.AlternativeBrand), e.Alternative,
			scoreStyle.Render(fmt.Sprintf("%.2f", e.SimilarityScore)))
	}
	fmt.Println()
	return nil
}
