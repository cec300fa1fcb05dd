package payroll

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// RuleInput is the wire form of an allowance/deduction rule. Parsing is
// deliberately lenient: an unknown type falls back to fixed and an
// unparseable value becomes 0, so malformed rules never fail a calculation.
type RuleInput struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func ParseRule(in *RuleInput) Rule {
	if in == nil {
		return Rule{Kind: RuleFixed, Value: decimal.Zero}
	}

	kind := RuleFixed
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "percentage", "percent":
		kind = RulePercentage
	}

	return Rule{Kind: kind, Value: parseAmount(in.Value)}
}

// parseAmount coerces arbitrary JSON values to a decimal amount, treating
// anything unparseable as zero.
func parseAmount(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case json.Number:
		if d, err := decimal.NewFromString(val.String()); err == nil {
			return d
		}
		return decimal.Zero
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(val)); err == nil {
			return d
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

type CustomItemInput struct {
	Name   string `json:"name"`
	Amount any    `json:"amount"`
}

func ParseCustomItems(inputs []CustomItemInput) []CustomItem {
	if len(inputs) == 0 {
		return nil
	}
	items := make([]CustomItem, len(inputs))
	for i, in := range inputs {
		items[i] = CustomItem{Name: in.Name, Amount: parseAmount(in.Amount)}
	}
	return items
}

type AllowanceRulesInput struct {
	Housing   *RuleInput `json:"housing"`
	Transport *RuleInput `json:"transport"`
	Meal      *RuleInput `json:"meal"`
	Other     *RuleInput `json:"other"`
}

func (in AllowanceRulesInput) Parse() AllowanceRules {
	return AllowanceRules{
		Housing:   ParseRule(in.Housing),
		Transport: ParseRule(in.Transport),
		Meal:      ParseRule(in.Meal),
		Other:     ParseRule(in.Other),
	}
}

type DeductionRulesInput struct {
	Tax       *RuleInput `json:"tax"`
	Insurance *RuleInput `json:"insurance"`
	Other     *RuleInput `json:"other"`
}

func (in DeductionRulesInput) Parse() DeductionRules {
	return DeductionRules{
		Tax:       ParseRule(in.Tax),
		Insurance: ParseRule(in.Insurance),
		Other:     ParseRule(in.Other),
	}
}

// CalculationOptions are shared by preview and generation requests.
type CalculationOptions struct {
	Mode                string   `json:"mode" binding:"omitempty,oneof=automatic manual"`
	ManualWorkingDays   *float64 `json:"manual_working_days" binding:"omitempty,gte=0"`
	ManualOvertimeHours *float64 `json:"manual_overtime_hours" binding:"omitempty,gte=0"`
	IncludeOvertime     *bool    `json:"include_overtime"`
	IncludeAllowances   *bool    `json:"include_allowances"`
	IncludeDeductions   *bool    `json:"include_deductions"`
	TaxCalculation      *bool    `json:"tax_calculation"`

	Allowances       AllowanceRulesInput `json:"allowances"`
	Deductions       DeductionRulesInput `json:"deductions"`
	CustomAllowances []CustomItemInput   `json:"custom_allowances"`
	CustomDeductions []CustomItemInput   `json:"custom_deductions"`
}

type PreviewRequest struct {
	EmployeeID  string `json:"employee_id" binding:"required,uuid"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
	CalculationOptions
}

type GeneratePayrollRequest struct {
	EmployeeID  string `json:"employee_id" binding:"required,uuid"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
	CalculationOptions
}

type GenerateAllRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=2000,max=2100"`
}

type RecalculateRequest struct {
	CalculationOptions
}

type UpdatePaymentStatusRequest struct {
	Status      string  `json:"status" binding:"required,oneof=Pending Processed Paid"`
	PaymentDate *string `json:"payment_date"`
}

type CheckOverlapRequest struct {
	EmployeeID  string `form:"employee_id" binding:"required,uuid"`
	PeriodStart string `form:"period_start" binding:"required"`
	PeriodEnd   string `form:"period_end" binding:"required"`
}

// --- Responses ---

type PeriodResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AttendanceSummaryResponse struct {
	PresentDays   int             `json:"present_days"`
	AbsentDays    int             `json:"absent_days"`
	LateDays      int             `json:"late_days"`
	HalfDays      int             `json:"half_days"`
	LeaveDays     int             `json:"leave_days"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

type OvertimeResponse struct {
	Hours  decimal.Decimal `json:"hours"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type CustomItemResponse struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type AllowancesResponse struct {
	Housing   decimal.Decimal      `json:"housing"`
	Transport decimal.Decimal      `json:"transport"`
	Meal      decimal.Decimal      `json:"meal"`
	Other     decimal.Decimal      `json:"other"`
	Custom    []CustomItemResponse `json:"custom,omitempty"`
	Total     decimal.Decimal      `json:"total"`
}

type DeductionsResponse struct {
	Tax       decimal.Decimal      `json:"tax"`
	Insurance decimal.Decimal      `json:"insurance"`
	Other     decimal.Decimal      `json:"other"`
	Custom    []CustomItemResponse `json:"custom,omitempty"`
	Total     decimal.Decimal      `json:"total"`
}

type PreviewResponse struct {
	EmployeeID           string                    `json:"employee_id"`
	Period               PeriodResponse            `json:"period"`
	Mode                 string                    `json:"mode"`
	Attendance           AttendanceSummaryResponse `json:"attendance"`
	EffectiveWorkingDays decimal.Decimal           `json:"effective_working_days"`
	BasicSalary          decimal.Decimal           `json:"basic_salary"`
	Overtime             OvertimeResponse          `json:"overtime"`
	Allowances           AllowancesResponse        `json:"allowances"`
	Deductions           DeductionsResponse        `json:"deductions"`
	TotalEarnings        decimal.Decimal           `json:"total_earnings"`
	TotalDeductions      decimal.Decimal           `json:"total_deductions"`
	NetSalary            decimal.Decimal           `json:"net_salary"`
}

type PayrollResponse struct {
	ID                   string                    `json:"id"`
	EmployeeID           string                    `json:"employee_id"`
	Period               PeriodResponse            `json:"period"`
	Month                int                       `json:"month"`
	Year                 int                       `json:"year"`
	Mode                 string                    `json:"mode"`
	Attendance           AttendanceSummaryResponse `json:"attendance"`
	EffectiveWorkingDays decimal.Decimal           `json:"effective_working_days"`
	BasicSalary          decimal.Decimal           `json:"basic_salary"`
	Overtime             OvertimeResponse          `json:"overtime"`
	Allowances           AllowancesResponse        `json:"allowances"`
	Deductions           DeductionsResponse        `json:"deductions"`
	TotalEarnings        decimal.Decimal           `json:"total_earnings"`
	TotalDeductions      decimal.Decimal           `json:"total_deductions"`
	NetSalary            decimal.Decimal           `json:"net_salary"`
	PaymentStatus        string                    `json:"payment_status"`
	ProcessedAt          *string                   `json:"processed_at,omitempty"`
	PaidAt               *string                   `json:"paid_at,omitempty"`
}

type OverlapResponse struct {
	Overlapping       bool            `json:"overlapping"`
	ConflictingPeriod *PeriodResponse `json:"conflicting_period,omitempty"`
}

type BulkFailure struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Message      string `json:"message"`
}

type BulkGenerateResponse struct {
	Succeeded []PayrollResponse `json:"succeeded"`
	Failed    []BulkFailure     `json:"failed"`
}

type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	Warning string `json:"warning,omitempty"`
}
