package leave

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"ID", "Employee Code", "Employee Name", "Type", "Start Date", "End Date",
	"Duration", "Days", "Status", "Applied Date", "Action By", "Action Date", "Reason",
}

func exportRow(req LeaveRequest) []string {
	days := ""
	if d, err := RequestDays(req); err == nil {
		days = strconv.FormatFloat(d, 'f', -1, 64)
	}
	return []string{
		req.ID, req.EmployeeCode, req.EmployeeName, string(req.Type), req.StartDate, req.EndDate,
		string(req.Duration), days, string(req.Status), req.AppliedDate, req.ActionBy, req.ActionDate, req.ReasonForAction,
	}
}

// spreadsheetRow is exportRow with every cell made safe to open in a
// spreadsheet.
func spreadsheetRow(req LeaveRequest) []string {
	row := exportRow(req)
	for i, v := range row {
		row[i] = spreadsheetSafe(v)
	}
	return row
}

// spreadsheetSafe prefixes a quote to values a spreadsheet would read as a
// formula.
func spreadsheetSafe(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

// WriteCSV writes one header row followed by one row per request.
func WriteCSV(w io.Writer, requests []LeaveRequest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return err
	}
	for _, req := range requests {
		if err := cw.Write(spreadsheetRow(req)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const xlsxSheet = "Leaves"

func XLSX(requests []LeaveRequest) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeXLSXRow(f, 1, exportHeaders); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, req := range requests {
		if err := writeXLSXRow(f, i+2, spreadsheetRow(req)); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.WriteToBuffer()
}

func writeXLSXRow(f *excelize.File, row int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// WritePDF renders a landscape report: the breakdown totals, then one line per
// request.
func WritePDF(w io.Writer, title string, requests []LeaveRequest) error {
	breakdown := ComputeBreakdown(requests)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Total requests: %d", breakdown.Total))
	pdf.Ln(6)
	for _, st := range Statuses() {
		pdf.Cell(0, 7, fmt.Sprintf("%s: %d", st, breakdown.ByStatus[st]))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	widths := []float64{22, 50, 20, 24, 24, 20, 12, 22, 24}
	header := []string{"Code", "Name", "Type", "Start", "End", "Duration", "Days", "Status", "Applied"}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, req := range requests {
		row := exportRow(req)
		cells := []string{row[1], row[2], row[3], row[4], row[5], row[6], row[7], row[8], row[9]}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.Output(w)
}
