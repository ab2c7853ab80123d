package leave

import (
	"context"
	"time"
)

const (
	CasualQuota = 10
	SickQuota   = 5
)

// Quota returns the yearly allotment for t. Only Casual and Sick are tracked.
func Quota(t Type) (int, bool) {
	switch t {
	case TypeCasual:
		return CasualQuota, true
	case TypeSick:
		return SickQuota, true
	}
	return 0, false
}

type TypeBalance struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

type Balance struct {
	EmployeeCode string      `json:"employeeCode"`
	AsOf         string      `json:"asOf,omitempty"`
	Casual       TypeBalance `json:"casual"`
	Sick         TypeBalance `json:"sick"`
}

// ComputeBalance counts one unit per Approved request of a tracked type,
// whatever its date span or Full/Half Day duration. Remaining never drops
// below zero.
func ComputeBalance(requests []LeaveRequest, employeeCode string) Balance {
	used := map[Type]int{}
	for _, req := range requests {
		if req.EmployeeCode != employeeCode || req.Status != StatusApproved {
			continue
		}
		used[req.Type]++
	}
	return Balance{
		EmployeeCode: employeeCode,
		Casual:       typeBalance(TypeCasual, used[TypeCasual]),
		Sick:         typeBalance(TypeSick, used[TypeSick]),
	}
}

func typeBalance(t Type, used int) TypeBalance {
	total, _ := Quota(t)
	return TypeBalance{Total: total, Used: used, Remaining: max(0, total-used)}
}

// BalanceFor recomputes the balance from the full request history on every
// call. asOf is reported back but does not filter the history.
func (s *Service) BalanceFor(ctx context.Context, employeeCode string, asOf time.Time) (Balance, error) {
	requests, err := s.Store.LoadLeaveRequests(ctx)
	if err != nil {
		return Balance{}, err
	}
	balance := ComputeBalance(requests, employeeCode)
	if !asOf.IsZero() {
		balance.AsOf = Today(asOf)
	}
	return balance, nil
}
