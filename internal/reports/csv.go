package reports

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

func formatAmount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return amountPrinter.Sprintf("%.2f", f)
}

// WriteLedgerCSV serialises a ledger report to CSV.
func WriteLedgerCSV(w io.Writer, report LedgerReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Narration", "Reference", "Debit", "Credit", "Running Balance"}); err != nil {
		return err
	}
	if err := writer.Write([]string{"", "Opening Balance", "", "", "", formatAmount(report.Opening)}); err != nil {
		return err
	}
	for _, row := range report.Rows {
		ref := row.RefModule
		if row.RefID != "" {
			ref += " " + row.RefID
		}
		if err := writer.Write([]string{
			row.Date.Format("2006-01-02"),
			row.Narration,
			ref,
			formatAmount(row.Debit),
			formatAmount(row.Credit),
			formatAmount(row.Running),
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "Closing Balance", "", "", "", formatAmount(report.Closing)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteExpenseSummaryCSV serialises the expense summary to CSV.
func WriteExpenseSummaryCSV(w io.Writer, report ExpenseSummaryReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Head", "Vouchers", "Total"}); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := writer.Write([]string{
			row.HeadName,
			amountPrinter.Sprintf("%d", row.Count),
			formatAmount(row.Total),
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"Total", "", formatAmount(report.Total)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
