package leave

import (
	"context"
	"time"

	"leaveportal/internal/domain/auth"
	"leaveportal/internal/domain/core"
)

const previewSize = 5

type EmployeeSummary struct {
	Pending  int            `json:"pending"`
	Approved int            `json:"approved"`
	Rejected int            `json:"rejected"`
	Recent   []LeaveRequest `json:"recent"`
	Balance  Balance        `json:"balance"`
}

// EmployeeSummary backs the employee dashboard: own counts, the first
// previewSize own requests in storage order and the current balance.
func (s *Service) EmployeeSummary(ctx context.Context, code string) (EmployeeSummary, error) {
	requests, err := s.Store.LoadLeaveRequests(ctx)
	if err != nil {
		return EmployeeSummary{}, err
	}

	summary := EmployeeSummary{Recent: []LeaveRequest{}}
	var own []LeaveRequest
	for _, req := range requests {
		if req.EmployeeCode != code {
			continue
		}
		own = append(own, req)
		switch req.Status {
		case StatusPending:
			summary.Pending++
		case StatusApproved:
			summary.Approved++
		case StatusRejected:
			summary.Rejected++
		}
	}

	if len(own) > previewSize {
		own = own[:previewSize]
	}
	summary.Recent = append(summary.Recent, own...)
	summary.Balance = ComputeBalance(requests, code)
	summary.Balance.AsOf = s.today()
	return summary, nil
}

type AdminSummary struct {
	Pending        int            `json:"pending"`
	Approved       int            `json:"approved"`
	Rejected       int            `json:"rejected"`
	Employees      int            `json:"employees"`
	Departments    int            `json:"departments"`
	PendingPreview []LeaveRequest `json:"pendingPreview"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}

// AdminSummary backs the admin dashboard. Employees counts users whose role
// is Employee; Departments counts distinct non-empty departments.
func (s *Service) AdminSummary(ctx context.Context, users []core.User) (AdminSummary, error) {
	requests, err := s.Store.LoadLeaveRequests(ctx)
	if err != nil {
		return AdminSummary{}, err
	}

	summary := AdminSummary{PendingPreview: []LeaveRequest{}, GeneratedAt: s.Now().UTC()}
	for _, req := range requests {
		switch req.Status {
		case StatusPending:
			summary.Pending++
			if len(summary.PendingPreview) < previewSize {
				summary.PendingPreview = append(summary.PendingPreview, req)
			}
		case StatusApproved:
			summary.Approved++
		case StatusRejected:
			summary.Rejected++
		}
	}

	departments := map[string]struct{}{}
	for _, u := range users {
		if u.Role == auth.RoleEmployee {
			summary.Employees++
		}
		if u.Department != "" {
			departments[u.Department] = struct{}{}
		}
	}
	summary.Departments = len(departments)
	return summary, nil
}

type Breakdown struct {
	ByType   map[Type]int   `json:"byType"`
	ByStatus map[Status]int `json:"byStatus"`
	Total    int            `json:"total"`
}

// Breakdown counts every request by type and by status. All enumerated keys
// are present, zero when unused.
func (s *Service) Breakdown(ctx context.Context) (Breakdown, error) {
	requests, err := s.Store.LoadLeaveRequests(ctx)
	if err != nil {
		return Breakdown{}, err
	}
	return ComputeBreakdown(requests), nil
}

func ComputeBreakdown(requests []LeaveRequest) Breakdown {
	out := Breakdown{ByType: map[Type]int{}, ByStatus: map[Status]int{}}
	for _, t := range Types() {
		out.ByType[t] = 0
	}
	for _, st := range Statuses() {
		out.ByStatus[st] = 0
	}
	for _, req := range requests {
		out.ByType[req.Type]++
		out.ByStatus[req.Status]++
		out.Total++
	}
	return out
}
