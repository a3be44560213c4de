// Package report renders the monthly leave ledger to PDF. The ledger
// rows are taken verbatim from leave.BuildMonthlyLedger output so the
// exported document can never disagree with the on-screen ledger.
package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaja-erp/leave-engine/calendar"
	"github.com/gaja-erp/leave-engine/leave"
)

// WriteLedgerPDF renders the employee's monthly ledger to w.
func WriteLedgerPDF(w io.Writer, emp leave.Employee, entries []leave.LedgerEntry, summary leave.BalanceSummary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave Balance Ledger")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s", emp.Name))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Contract start: %s", calendar.ToISO(emp.ContractStart)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Annual entitlement: %d days", summary.Entitlement))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Used: %s   Remaining: %s",
		summary.Used.StringFixed(2), summary.Remaining.StringFixed(2)))
	pdf.Ln(10)

	// Table header
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(28, 8, "Month", "1", 0, "L", true, 0, "")
	pdf.CellFormat(22, 8, "Credit", "1", 0, "R", true, 0, "")
	pdf.CellFormat(22, 8, "Debit", "1", 0, "R", true, 0, "")
	pdf.CellFormat(24, 8, "Balance", "1", 0, "R", true, 0, "")
	pdf.CellFormat(94, 8, "Details", "1", 0, "L", true, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	for _, entry := range entries {
		if entry.Reset {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(28, 7, entry.Label, "1", 0, "L", false, 0, "")
			pdf.CellFormat(68, 7, "", "1", 0, "R", false, 0, "")
			pdf.CellFormat(94, 7, entry.Details, "1", 0, "L", false, 0, "")
			pdf.Ln(7)
			pdf.SetFont("Helvetica", "", 9)
			continue
		}
		pdf.CellFormat(28, 7, entry.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 7, entry.Credit.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(22, 7, entry.Debit.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 7, entry.Balance.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(94, 7, entry.Details, "1", 0, "L", false, 0, "")
		pdf.Ln(7)
	}

	return pdf.Output(w)
}
