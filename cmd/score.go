package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/scoring"
	"github.com/sells-group/leadscout/internal/store"
)

var (
	scoreModelPath string
	scoreMinScore  int
	scoreLimit     int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rescore stored companies",
	Long:  "Recomputes the lead score and explanations for stored companies. With --model, applies a custom YAML scoring model instead of the built-in signals.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var custom *scoring.CustomModel
		if scoreModelPath != "" {
			f, err := os.Open(scoreModelPath)
			if err != nil {
				return eris.Wrapf(err, "open scoring model %s", scoreModelPath)
			}
			custom, err = scoring.LoadModel(f)
			f.Close() //nolint:errcheck,gosec
			if err != nil {
				return err
			}
			zap.L().Info("using custom scoring model",
				zap.String("name", custom.Name),
				zap.Int("signals", len(custom.Signals)))
		}

		companies, err := st.ListCompanies(ctx, store.CompanyFilter{
			MinScore: scoreMinScore,
			Limit:    scoreLimit,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		scored := 0
		for i := range companies {
			c := &companies[i]

			subCount, err := st.CountSubEntities(ctx, c.Orgnr)
			if err != nil {
				zap.L().Warn("sub-entity count failed", zap.String("orgnr", c.Orgnr), zap.Error(err))
				continue
			}
			related := scoring.Related{SubEntityCount: subCount}

			var res scoring.Result
			if custom != nil {
				res = scoring.ScoreCustom(custom, c, related)
				// Custom models only produce an overall score; the built-in
				// sub-scores are kept as stored.
				res.UseCaseFit = c.UseCaseFit
				res.Urgency = c.UrgencyScore
				res.DataQuality = c.DataQualityScore
			} else {
				res = scoring.Score(c, related, now)
			}

			if err := st.UpdateScores(ctx, c.ID, res.Overall, res.UseCaseFit, res.Urgency, res.DataQuality); err != nil {
				zap.L().Warn("score update failed", zap.String("orgnr", c.Orgnr), zap.Error(err))
				continue
			}
			if err := st.ReplaceExplanations(ctx, c.ID, res.Explanations(c.ID)); err != nil {
				zap.L().Warn("explanation update failed", zap.String("orgnr", c.Orgnr), zap.Error(err))
				continue
			}
			scored++
		}

		zap.L().Info("rescoring complete",
			zap.Int("companies", len(companies)),
			zap.Int("scored", scored))
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreModelPath, "model", "", "path to a custom YAML scoring model")
	scoreCmd.Flags().IntVar(&scoreMinScore, "min-score", 0, "only rescore companies at or above this stored score")
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", 0, "maximum companies to rescore (0 = all)")
	rootCmd.AddCommand(scoreCmd)
}
