package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/store"
	"github.com/sells-group/leadscout/internal/summary"
	"github.com/sells-group/leadscout/pkg/anthropic"
)

var (
	summarizeMinScore int
	summarizeLimit    int
	summarizeWorkers  int
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate AI sales summaries for high-scoring leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic.key is required for summarize")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		minScore := summarizeMinScore
		if minScore <= 0 {
			minScore = cfg.Summary.ScoreThreshold
		}

		companies, err := st.ListCompanies(ctx, store.CompanyFilter{
			MinScore: minScore,
			Limit:    summarizeLimit,
		})
		if err != nil {
			return err
		}
		// Only fill in missing summaries; regeneration is a manual decision.
		pending := companies[:0]
		for _, c := range companies {
			if c.Summary == "" {
				pending = append(pending, c)
			}
		}

		gen := summary.New(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			int64(cfg.Anthropic.MaxTokens),
		)
		stored, err := gen.GenerateBatch(ctx, st, pending, summarizeWorkers)
		if err != nil {
			return err
		}

		zap.L().Info("summaries generated",
			zap.Int("candidates", len(pending)),
			zap.Int("stored", stored))
		return nil
	},
}

func init() {
	summarizeCmd.Flags().IntVar(&summarizeMinScore, "min-score", 0, "minimum overall score (default summary.score_threshold)")
	summarizeCmd.Flags().IntVar(&summarizeLimit, "limit", 100, "maximum companies to summarize")
	summarizeCmd.Flags().IntVar(&summarizeWorkers, "workers", 5, "concurrent summary requests")
	rootCmd.AddCommand(summarizeCmd)
}
