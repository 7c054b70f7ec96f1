// Package export writes company lead lists as CSV or XLSX.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/store"
)

// header is the fixed column set of both export formats.
var header = []string{
	"Name", "Org Number", "Status", "Industry", "Employees",
	"Municipality", "County", "Phone", "Website", "Email",
	"Lead Score", "Use Case Fit", "Urgency", "Data Quality", "Top Reasons",
}

// Exporter renders company lists. Companies are ordered by score descending,
// names collated with Norwegian rules within equal scores.
type Exporter struct {
	store    store.Store
	collator *collate.Collator
}

// New creates an Exporter.
func New(st store.Store) *Exporter {
	return &Exporter{
		store:    st,
		collator: collate.New(language.Norwegian, collate.IgnoreCase),
	}
}

// WriteCSV writes companies matching the filter to w as CSV.
func (e *Exporter) WriteCSV(ctx context.Context, w io.Writer, filter store.CompanyFilter) (int, error) {
	companies, err := e.load(ctx, filter)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, eris.Wrap(err, "export: write csv header")
	}
	for i := range companies {
		row, err := e.row(ctx, &companies[i])
		if err != nil {
			return 0, err
		}
		if err := cw.Write(row); err != nil {
			return 0, eris.Wrapf(err, "export: write csv row %s", companies[i].Orgnr)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, eris.Wrap(err, "export: flush csv")
	}
	return len(companies), nil
}

// WriteXLSX writes companies matching the filter to w as an XLSX workbook
// with a single "Leads" sheet.
func (e *Exporter) WriteXLSX(ctx context.Context, w io.Writer, filter store.CompanyFilter) (int, error) {
	companies, err := e.load(ctx, filter)
	if err != nil {
		return 0, err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range header {
		cell := hr.AddCell()
		cell.SetString(h)
	}

	for i := range companies {
		row, err := e.row(ctx, &companies[i])
		if err != nil {
			return 0, err
		}
		xr := sheet.AddRow()
		for j, v := range row {
			cell := xr.AddCell()
			switch header[j] {
			case "Employees", "Lead Score", "Use Case Fit", "Urgency", "Data Quality":
				n, convErr := strconv.Atoi(v)
				if convErr == nil {
					cell.SetInt(n)
				} else {
					cell.SetString(v)
				}
			default:
				cell.SetString(v)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return 0, eris.Wrap(err, "export: write xlsx")
	}
	return len(companies), nil
}

func (e *Exporter) load(ctx context.Context, filter store.CompanyFilter) ([]model.Company, error) {
	companies, err := e.store.ListCompanies(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "export: list companies")
	}
	sort.SliceStable(companies, func(i, j int) bool {
		if companies[i].OverallScore != companies[j].OverallScore {
			return companies[i].OverallScore > companies[j].OverallScore
		}
		return e.collator.CompareString(companies[i].Name, companies[j].Name) < 0
	})
	return companies, nil
}

func (e *Exporter) row(ctx context.Context, c *model.Company) ([]string, error) {
	explanations, err := e.store.ListExplanations(ctx, c.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "export: explanations for %s", c.Orgnr)
	}
	var reasons []string
	for _, ex := range explanations {
		if ex.Active && len(reasons) < 3 {
			reasons = append(reasons, ex.Reason)
		}
	}

	return []string{
		c.Name,
		c.Orgnr,
		string(c.Status),
		c.IndustryDescription,
		strconv.Itoa(c.EmployeeCount),
		c.Municipality,
		c.County,
		c.Phone,
		c.Website,
		c.Email,
		strconv.Itoa(c.OverallScore),
		strconv.Itoa(c.UseCaseFit),
		strconv.Itoa(c.UrgencyScore),
		strconv.Itoa(c.DataQualityScore),
		strings.Join(reasons, "; "),
	}, nil
}
