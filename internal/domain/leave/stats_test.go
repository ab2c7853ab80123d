package leave

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"leaveportal/internal/domain/auth"
	"leaveportal/internal/domain/core"
)

func sampleRequests() []LeaveRequest {
	return []LeaveRequest{
		{ID: "101", EmployeeCode: "E0041", EmployeeName: "MOHAN RAJ C", Type: TypeSick, StartDate: "2025-10-10", EndDate: "2025-10-12", Duration: DurationFullDay, Status: StatusApproved, AppliedDate: "2025-10-09"},
		{ID: "102", EmployeeCode: "E0042", EmployeeName: "YUVARAJ S", Type: TypeCasual, StartDate: "2025-10-15", EndDate: "2025-10-15", Duration: DurationHalfDay, Status: StatusPending, AppliedDate: "2025-10-13"},
		{ID: "103", EmployeeCode: "E0041", EmployeeName: "MOHAN RAJ C", Type: TypeCasual, StartDate: "2025-10-20", EndDate: "2025-10-20", Duration: DurationFullDay, Status: StatusRejected, AppliedDate: "2025-10-18"},
	}
}

func TestEmployeeSummary(t *testing.T) {
	svc := newTestService(&fakeStore{requests: sampleRequests()})

	got, err := svc.EmployeeSummary(context.Background(), "E0041")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Approved != 1 || got.Rejected != 1 || got.Pending != 0 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if len(got.Recent) != 2 || got.Recent[0].ID != "101" || got.Recent[1].ID != "103" {
		t.Fatalf("expected storage order: %+v", got.Recent)
	}
	if got.Balance.Sick.Remaining != 4 {
		t.Fatalf("unexpected balance: %+v", got.Balance)
	}
}

func TestEmployeeSummaryRecentKeepsFirstFive(t *testing.T) {
	store := &fakeStore{}
	for i, applied := range []string{"2025-10-01", "2025-10-09", "2025-10-03", "2025-10-30", "2025-10-02", "2025-10-31"} {
		store.requests = append(store.requests, LeaveRequest{ID: string(rune('a' + i)), EmployeeCode: "E0041", Type: TypeCasual, Status: StatusPending, AppliedDate: applied})
	}
	svc := newTestService(store)

	got, err := svc.EmployeeSummary(context.Background(), "E0041")
	if err != nil {
		t.Fatal(err)
	}
	var ids string
	for _, req := range got.Recent {
		ids += req.ID
	}
	if ids != "abcde" {
		t.Fatalf("expected first five in storage order, got %q", ids)
	}
}

func TestAdminSummary(t *testing.T) {
	svc := newTestService(&fakeStore{requests: sampleRequests()})
	users := []core.User{
		{Code: "A0001", Role: auth.RoleAdmin, Department: "Administration"},
		{Code: "E0041", Role: auth.RoleEmployee, Department: "Engineering"},
		{Code: "E0042", Role: auth.RoleEmployee, Department: "Engineering"},
		{Code: "E0043", Role: auth.RoleEmployee, Department: "Finance"},
	}

	got, err := svc.AdminSummary(context.Background(), users)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Pending != 1 || got.Approved != 1 || got.Rejected != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.Employees != 3 || got.Departments != 3 {
		t.Fatalf("unexpected people counts: employees=%d departments=%d", got.Employees, got.Departments)
	}
	if len(got.PendingPreview) != 1 || got.PendingPreview[0].ID != "102" {
		t.Fatalf("unexpected preview: %+v", got.PendingPreview)
	}
}

func TestBreakdownHasEveryKey(t *testing.T) {
	got := ComputeBreakdown(sampleRequests())
	if len(got.ByType) != len(Types()) || len(got.ByStatus) != len(Statuses()) {
		t.Fatalf("missing keys: %+v", got)
	}
	if got.ByType[TypeCasual] != 2 || got.ByType[TypeEarned] != 0 || got.ByStatus[StatusCancelled] != 0 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.Total != 3 {
		t.Fatalf("expected total 3, got %d", got.Total)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRequests()); err != nil {
		t.Fatalf("csv: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[2][7] != "0.5" {
		t.Fatalf("expected half day to export 0.5 days, got %q", rows[2][7])
	}
}

func TestXLSX(t *testing.T) {
	buf, err := XLSX(sampleRequests())
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	v, err := f.GetCellValue(xlsxSheet, "B2")
	if err != nil || v != "E0041" {
		t.Fatalf("unexpected B2 %q err=%v", v, err)
	}
}

func TestExportsQuoteFormulaLikeCells(t *testing.T) {
	requests := []LeaveRequest{{
		ID: "201", EmployeeCode: "E0041", EmployeeName: "@SUM(A1:A9)", Type: TypeCasual,
		Status: StatusRejected, ActionBy: "+A0001", ReasonForAction: `=HYPERLINK("http://x","y")`,
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, requests); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if rows[1][2] != "'@SUM(A1:A9)" || rows[1][10] != "'+A0001" || rows[1][12] != `'=HYPERLINK("http://x","y")` {
		t.Fatalf("formula-like cells not quoted: %q", rows[1])
	}
	if rows[1][1] != "E0041" {
		t.Fatalf("plain cell changed: %q", rows[1][1])
	}

	xbuf, err := XLSX(requests)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(xbuf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	v, err := f.GetCellValue(xlsxSheet, "M2")
	if err != nil || v != `'=HYPERLINK("http://x","y")` {
		t.Fatalf("unexpected M2 %q err=%v", v, err)
	}
	if formula, _ := f.GetCellFormula(xlsxSheet, "M2"); formula != "" {
		t.Fatalf("M2 stored as formula %q", formula)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, "Leave report", sampleRequests()); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF-") {
		t.Fatal("output is not a PDF")
	}
}
