package leave

import "time"

// DateLayout is the calendar-date format used for every date field.
const DateLayout = "2006-01-02"

type Type string

const (
	TypeCasual Type = "Casual"
	TypeSick   Type = "Sick"
	TypeStudy  Type = "Study"
	TypeLWP    Type = "LWP"
	TypeEarned Type = "Earned"
)

func Types() []Type {
	return []Type{TypeCasual, TypeSick, TypeStudy, TypeLWP, TypeEarned}
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

func Statuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled}
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type Duration string

const (
	DurationFullDay Duration = "Full Day"
	DurationHalfDay Duration = "Half Day"
)

// LeaveRequest is one employee ask for time off. Employee fields are a
// snapshot taken at submission. ActionBy, ActionDate and ReasonForAction are
// only set once the request has been decided.
type LeaveRequest struct {
	ID              string   `json:"id"`
	EmployeeID      string   `json:"employeeId"`
	EmployeeName    string   `json:"employeeName"`
	EmployeeCode    string   `json:"employeeCode"`
	Type            Type     `json:"type"`
	StartDate       string   `json:"startDate"`
	EndDate         string   `json:"endDate"`
	Duration        Duration `json:"duration"`
	Description     string   `json:"description"`
	Status          Status   `json:"status"`
	Attachment      string   `json:"attachment,omitempty"`
	ReasonForAction string   `json:"reasonForAction,omitempty"`
	ActionBy        string   `json:"actionBy,omitempty"`
	ActionDate      string   `json:"actionDate,omitempty"`
	AppliedDate     string   `json:"appliedDate"`
}

// Draft is what an employee fills in on the apply form.
type Draft struct {
	Type        Type
	StartDate   string
	EndDate     string
	Duration    Duration
	Description string
	Attachment  string
}

// Today formats now as a calendar date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}
