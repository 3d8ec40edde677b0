package employee

import "github.com/shopspring/decimal"

type EmployeeResponse struct {
	ID            string          `json:"id"`
	FullName      string          `json:"full_name"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
	PayCycle      string          `json:"pay_cycle"`
	Status        string          `json:"status"`
}

type ListEmployeeResponse struct {
	Employees []EmployeeResponse `json:"employees"`
	Total     int                `json:"total"`
}

func ToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:            e.ID,
		FullName:      e.FullName,
		MonthlySalary: e.MonthlySalary,
		PayCycle:      e.PayCycle,
		Status:        string(e.Status),
	}
}
