package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/export"
	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/store"
)

var (
	exportFormat   string
	exportOut      string
	exportMinScore int
	exportStatus   string
	exportCounty   string
	exportLimit    int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export ranked leads as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter := store.CompanyFilter{
			Status:   model.CompanyStatus(exportStatus),
			MinScore: exportMinScore,
			County:   exportCounty,
			Limit:    exportLimit,
		}

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", exportOut)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		exp := export.New(st)
		var n int
		switch exportFormat {
		case "csv":
			n, err = exp.WriteCSV(ctx, out, filter)
		case "xlsx":
			if exportOut == "" {
				return eris.New("xlsx export requires --out")
			}
			n, err = exp.WriteXLSX(ctx, out, filter)
		default:
			return eris.Errorf("unknown format %q (want csv or xlsx)", exportFormat)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("format", exportFormat),
			zap.String("out", exportOut),
			zap.Int("companies", n))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout for csv)")
	exportCmd.Flags().IntVar(&exportMinScore, "min-score", 0, "minimum overall score")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "filter by status (active, inactive)")
	exportCmd.Flags().StringVar(&exportCounty, "county", "", "filter by county")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum companies to export (0 = all)")
	rootCmd.AddCommand(exportCmd)
}
