package events

import "time"

const PayrollGeneratedTopic = "textlaire.payroll.generated.v1"

// PayrollGeneratedEvent is published through the outbox whenever a payroll
// record is generated or recalculated. Downstream consumers (payslip
// rendering, reporting) live outside this service.
type PayrollGeneratedEvent struct {
	EventType   string    `json:"event_type"`
	PayrollID   string    `json:"payroll_id"`
	EmployeeID  string    `json:"employee_id"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	NetSalary   string    `json:"net_salary"`
	OccurredAt  time.Time `json:"occurred_at"`
}
