package records

import (
	"leaveportal/internal/domain/auth"
	"leaveportal/internal/domain/core"
	"leaveportal/internal/domain/leave"
)

// Seed is the data written to an empty store on first access.
type Seed struct {
	Users  []core.User
	Leaves []leave.LeaveRequest
}

// DefaultSeed returns the bootstrap accounts. withSampleLeaves adds the two
// example requests shown on a fresh install.
func DefaultSeed(withSampleLeaves bool) Seed {
	seed := Seed{Users: bootstrapUsers(), Leaves: []leave.LeaveRequest{}}
	if withSampleLeaves {
		seed.Leaves = sampleLeaves()
	}
	return seed
}

func bootstrapUsers() []core.User {
	admin := func(id, code, name string) core.User {
		return core.User{ID: id, Code: code, Name: name, Role: auth.RoleAdmin}
	}
	employee := func(id, code, name, department string) core.User {
		return core.User{ID: id, Code: code, Name: name, Role: auth.RoleEmployee, Department: department}
	}
	return []core.User{
		admin("1", "A0001", "SAM PARKESH"),
		admin("2", "A0002", "LEO CLESTINE"),
		admin("3", "A0003", "SUJI"),
		employee("4", "E0041", "MOHAN RAJ C", "Engineering"),
		employee("5", "E0042", "YUVARAJ S", "Engineering"),
		employee("6", "E0043", "ATMAKUR RAJESH", "Sales"),
		employee("7", "E0032", "SIVARAM C", "Marketing"),
		employee("8", "E0040", "UMAR FAROOQUE", "Operations"),
		employee("9", "E0028", "KAALIPUSHPA R", "HR"),
		employee("10", "E0035", "DENNIS RAJU", "Engineering"),
		employee("11", "E0009", "RANJITH", "Sales"),
		employee("12", "E0044", "PRIYA P", "Marketing"),
		employee("13", "E0045", "RATCHITHA", "Operations"),
		employee("14", "E0047", "Samyuktha S", "HR"),
		employee("15", "E0046", "Rebecasuji.A", "Engineering"),
		employee("16", "E0048", "DurgaDevi E", "Sales"),
		employee("17", "E0050", "ZAMEELA BEGAM N.", "Marketing"),
		employee("18", "E0051", "ARUN KUMAR V.", "Operations"),
		employee("19", "E0052", "D K JYOTHSNA PRIYA", "HR"),
		employee("20", "E0049", "P PUSHPA", "Engineering"),
		employee("21", "-", "FAREETHA", "General"),
	}
}

func sampleLeaves() []leave.LeaveRequest {
	return []leave.LeaveRequest{
		{
			ID:           "101",
			EmployeeID:   "4",
			EmployeeName: "MOHAN RAJ C",
			EmployeeCode: "E0041",
			Type:         leave.TypeSick,
			StartDate:    "2025-10-10",
			EndDate:      "2025-10-12",
			Duration:     leave.DurationFullDay,
			Description:  "Viral fever",
			Status:       leave.StatusApproved,
			ActionBy:     "A0001 (SAM PARKESH)",
			ActionDate:   "2025-10-09",
			AppliedDate:  "2025-10-09",
		},
		{
			ID:           "102",
			EmployeeID:   "5",
			EmployeeName: "YUVARAJ S",
			EmployeeCode: "E0042",
			Type:         leave.TypeCasual,
			StartDate:    "2025-10-15",
			EndDate:      "2025-10-15",
			Duration:     leave.DurationFullDay,
			Description:  "Personal work",
			Status:       leave.StatusPending,
			AppliedDate:  "2025-10-13",
		},
	}
}
