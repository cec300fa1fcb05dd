package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kartikpanaganti/textlaire-sub002/internal/attendance"
	payrollerrors "github.com/kartikpanaganti/textlaire-sub002/internal/payroll/errors"
)

// This file is the single calculation path. Both the live preview and the
// persisting generation flow go through Calculate; the formulas are never
// reimplemented elsewhere.

type Mode string

const (
	ModeAutomatic Mode = "automatic"
	ModeManual    Mode = "manual"
)

var (
	two          = decimal.NewFromInt(2)
	oneHundred   = decimal.NewFromInt(100)
	hoursPerDay  = decimal.NewFromInt(8)
	overtimeMult = decimal.NewFromFloat(1.5)
)

// round2 rounds to 2 decimal places, half up. Applied to every intermediate
// monetary value before it feeds a subsequent sum.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// --- Pay period ---

// Period is an inclusive date range. End >= Start.
type Period struct {
	Start time.Time
	End   time.Time
}

func NewPeriod(start, end time.Time) (Period, error) {
	start = dateOnly(start)
	end = dateOnly(end)
	if end.Before(start) {
		return Period{}, payrollerrors.ErrInvalidDateRange
	}
	return Period{Start: start, End: end}, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (p Period) SameMonth() bool {
	return p.Start.Year() == p.End.Year() && p.Start.Month() == p.End.Month()
}

// Days is the inclusive calendar day count of the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Month and Year identify the payroll bucket; derived from the period end.
func (p Period) Month() int { return int(p.End.Month()) }
func (p Period) Year() int  { return p.End.Year() }

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// --- Weekend policy ---

// Weekend is the set of weekday indices excluded from "working days".
type Weekend map[time.Weekday]bool

func DefaultWeekend() Weekend {
	return Weekend{time.Saturday: true, time.Sunday: true}
}

func (w Weekend) Contains(d time.Weekday) bool {
	if w == nil {
		return d == time.Saturday || d == time.Sunday
	}
	return w[d]
}

// ParseWeekend reads a comma-separated list of weekday names, e.g.
// "friday,saturday". Empty input and unrecognized names fall back to the
// default policy.
func ParseWeekend(s string) Weekend {
	names := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}

	w := Weekend{}
	for _, part := range strings.Split(s, ",") {
		if d, ok := names[strings.ToLower(strings.TrimSpace(part))]; ok {
			w[d] = true
		}
	}
	if len(w) == 0 {
		return DefaultWeekend()
	}
	return w
}

// --- Attendance aggregation ---

type AttendanceSummary struct {
	PresentDays   int
	AbsentDays    int
	LateDays      int
	HalfDays      int
	LeaveDays     int
	OvertimeHours decimal.Decimal
	RecordIDs     []string
}

// SummarizeAttendance reduces the raw records of one employee over the
// period into per-status counts. A working day with no record counts as
// Absent: silence is penalized, not ignored. Weekend days never generate
// implicit absences.
func SummarizeAttendance(records []attendance.Attendance, period Period, weekend Weekend) AttendanceSummary {
	summary := AttendanceSummary{OvertimeHours: decimal.Zero}
	recorded := make(map[string]bool, len(records))

	for _, rec := range records {
		day := dateOnly(rec.AttendanceDate)
		if day.Before(period.Start) || day.After(period.End) {
			continue
		}

		recorded[day.Format("2006-01-02")] = true
		summary.RecordIDs = append(summary.RecordIDs, rec.ID.String())
		summary.OvertimeHours = summary.OvertimeHours.Add(rec.OvertimeHours)

		switch rec.Status {
		case attendance.StatusPresent:
			summary.PresentDays++
		case attendance.StatusAbsent:
			summary.AbsentDays++
		case attendance.StatusLate:
			summary.LateDays++
		case attendance.StatusHalfDay:
			summary.HalfDays++
		case attendance.StatusOnLeave:
			summary.LeaveDays++
		}
	}

	for day := period.Start; !day.After(period.End); day = day.AddDate(0, 0, 1) {
		if weekend.Contains(day.Weekday()) {
			continue
		}
		if !recorded[day.Format("2006-01-02")] {
			summary.AbsentDays++
		}
	}

	return summary
}

// EffectiveWorkingDays is the pro-ration numerator. Late days count as
// present; half days count half. Manual mode swaps the attendance-derived
// present count for the supplied figure.
func EffectiveWorkingDays(summary AttendanceSummary, mode Mode, manualWorkingDays decimal.Decimal) decimal.Decimal {
	half := decimal.NewFromInt(int64(summary.HalfDays)).Div(two)
	if mode == ModeManual {
		return manualWorkingDays.Add(half)
	}
	present := decimal.NewFromInt(int64(summary.PresentDays + summary.LateDays))
	return present.Add(half)
}

// --- Pro-ration ---

// ProRateBasicSalary converts the monthly base salary into the basic salary
// for the period.
//
// Same-month periods use the start month's daily rate, with an exact
// full-month shortcut when the period covers the whole calendar month.
//
// Multi-month periods split into start-month remainder, interior full
// months, and end-month lead only when effectiveWorkingDays equals the exact
// day count of the period. Any other effectiveWorkingDays figure is priced
// uniformly at the start month's daily rate; that approximation is the
// established behavior for manually entered day counts and is kept as is.
func ProRateBasicSalary(monthlySalary decimal.Decimal, period Period, effectiveWorkingDays decimal.Decimal) decimal.Decimal {
	startMonthDays := daysInMonth(period.Start)
	startDailyRate := monthlySalary.Div(decimal.NewFromInt(int64(startMonthDays)))

	if period.SameMonth() {
		if period.Start.Day() == 1 && period.End.Day() == startMonthDays {
			return monthlySalary
		}
		return round2(startDailyRate.Mul(effectiveWorkingDays))
	}

	if effectiveWorkingDays.Equal(decimal.NewFromInt(int64(period.Days()))) {
		return calendarProRate(monthlySalary, period)
	}

	return round2(startDailyRate.Mul(effectiveWorkingDays))
}

// calendarProRate prices each partial month at its own daily rate and every
// interior full month at the full monthly salary.
func calendarProRate(monthlySalary decimal.Decimal, period Period) decimal.Decimal {
	startMonthDays := daysInMonth(period.Start)
	endMonthDays := daysInMonth(period.End)

	startRemainder := startMonthDays - period.Start.Day() + 1
	startPortion := round2(monthlySalary.
		Div(decimal.NewFromInt(int64(startMonthDays))).
		Mul(decimal.NewFromInt(int64(startRemainder))))

	endPortion := round2(monthlySalary.
		Div(decimal.NewFromInt(int64(endMonthDays))).
		Mul(decimal.NewFromInt(int64(period.End.Day()))))

	total := startPortion.Add(endPortion)

	cursor := firstOfMonth(period.Start).AddDate(0, 1, 0)
	endMonth := firstOfMonth(period.End)
	for cursor.Before(endMonth) {
		total = total.Add(monthlySalary)
		cursor = cursor.AddDate(0, 1, 0)
	}

	return round2(total)
}

// --- Overtime ---

type OvertimeDetail struct {
	Hours  decimal.Decimal
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// OvertimeRate derives the hourly overtime rate from the start month of the
// period, at a fixed 1.5 multiplier, regardless of the period span.
func OvertimeRate(monthlySalary decimal.Decimal, period Period) decimal.Decimal {
	startMonthDays := decimal.NewFromInt(int64(daysInMonth(period.Start)))
	hourly := monthlySalary.Div(startMonthDays.Mul(hoursPerDay))
	return round2(hourly.Mul(overtimeMult))
}

func ComputeOvertime(monthlySalary decimal.Decimal, period Period, hours decimal.Decimal) OvertimeDetail {
	rate := OvertimeRate(monthlySalary, period)
	return OvertimeDetail{
		Hours:  hours,
		Rate:   rate,
		Amount: round2(hours.Mul(rate)),
	}
}

// --- Allowance / deduction rules ---

type RuleKind string

const (
	RuleFixed      RuleKind = "fixed"
	RulePercentage RuleKind = "percentage"
)

// Rule is the tagged variant replacing the legacy "object with a type
// string" pattern. Lenient parsing happens once, at the boundary
// (ParseRule); evaluation is an exhaustive match.
type Rule struct {
	Kind  RuleKind
	Value decimal.Decimal
}

// Evaluate resolves the rule against the given base. Percentage rules take
// Value percent of the base; fixed rules ignore it.
func (r Rule) Evaluate(base decimal.Decimal) decimal.Decimal {
	switch r.Kind {
	case RulePercentage:
		return round2(base.Mul(r.Value).Div(oneHundred))
	default:
		return round2(r.Value)
	}
}

type CustomItem struct {
	Name   string
	Amount decimal.Decimal
}

type AllowanceRules struct {
	Housing   Rule
	Transport Rule
	Meal      Rule
	Other     Rule
}

type DeductionRules struct {
	Tax       Rule
	Insurance Rule
	Other     Rule
}

type AllowanceBreakdown struct {
	Housing   decimal.Decimal
	Transport decimal.Decimal
	Meal      decimal.Decimal
	Other     decimal.Decimal
	Custom    []CustomItem
	Total     decimal.Decimal
}

type DeductionBreakdown struct {
	Tax       decimal.Decimal
	Insurance decimal.Decimal
	Other     decimal.Decimal
	Custom    []CustomItem
	Total     decimal.Decimal
}

// EvaluateAllowances resolves allowance rules against the MONTHLY base
// salary. Each entry is rounded individually before summation and the total
// is rounded again.
func EvaluateAllowances(rules AllowanceRules, monthlySalary decimal.Decimal, custom []CustomItem) AllowanceBreakdown {
	b := AllowanceBreakdown{
		Housing:   rules.Housing.Evaluate(monthlySalary),
		Transport: rules.Transport.Evaluate(monthlySalary),
		Meal:      rules.Meal.Evaluate(monthlySalary),
		Other:     rules.Other.Evaluate(monthlySalary),
		Custom:    roundCustomItems(custom),
	}

	total := b.Housing.Add(b.Transport).Add(b.Meal).Add(b.Other)
	for _, item := range b.Custom {
		total = total.Add(item.Amount)
	}
	b.Total = round2(total)
	return b
}

// EvaluateDeductions resolves deduction rules against the PRORATED basic
// salary. The asymmetry with allowances is the established business rule.
func EvaluateDeductions(rules DeductionRules, basicSalary decimal.Decimal, custom []CustomItem, taxCalculation bool) DeductionBreakdown {
	b := DeductionBreakdown{
		Insurance: rules.Insurance.Evaluate(basicSalary),
		Other:     rules.Other.Evaluate(basicSalary),
		Custom:    roundCustomItems(custom),
	}
	if taxCalculation {
		b.Tax = rules.Tax.Evaluate(basicSalary)
	} else {
		b.Tax = decimal.Zero
	}

	total := b.Tax.Add(b.Insurance).Add(b.Other)
	for _, item := range b.Custom {
		total = total.Add(item.Amount)
	}
	b.Total = round2(total)
	return b
}

func roundCustomItems(items []CustomItem) []CustomItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]CustomItem, len(items))
	for i, item := range items {
		out[i] = CustomItem{Name: item.Name, Amount: round2(item.Amount)}
	}
	return out
}

// --- Assembly ---

// CalcInput is everything Calculate needs; it performs no I/O.
type CalcInput struct {
	MonthlySalary     decimal.Decimal
	Period            Period
	Mode              Mode
	ManualWorkingDays decimal.Decimal
	Summary           AttendanceSummary

	OvertimeHours    decimal.Decimal // effective only when OvertimeOverride
	OvertimeOverride bool

	IncludeOvertime   bool
	IncludeAllowances bool
	IncludeDeductions bool
	TaxCalculation    bool

	Allowances       AllowanceRules
	Deductions       DeductionRules
	CustomAllowances []CustomItem
	CustomDeductions []CustomItem
}

// Calculation is the immutable result snapshot. Persistence is decided by
// the caller.
type Calculation struct {
	Period               Period
	Mode                 Mode
	Summary              AttendanceSummary
	EffectiveWorkingDays decimal.Decimal
	BasicSalary          decimal.Decimal
	Overtime             OvertimeDetail
	Allowances           AllowanceBreakdown
	Deductions           DeductionBreakdown
	TotalEarnings        decimal.Decimal
	TotalDeductions      decimal.Decimal
	NetSalary            decimal.Decimal
}

func Calculate(in CalcInput) (Calculation, error) {
	if !in.MonthlySalary.IsPositive() {
		return Calculation{}, payrollerrors.ErrInvalidSalary
	}
	if in.Period.End.Before(in.Period.Start) {
		return Calculation{}, payrollerrors.ErrInvalidDateRange
	}
	if in.Mode == ModeManual && in.ManualWorkingDays.IsNegative() {
		return Calculation{}, payrollerrors.ErrInvalidWorkingDays
	}

	ewd := EffectiveWorkingDays(in.Summary, in.Mode, in.ManualWorkingDays)
	basic := ProRateBasicSalary(in.MonthlySalary, in.Period, ewd)

	overtime := OvertimeDetail{Hours: decimal.Zero, Rate: decimal.Zero, Amount: decimal.Zero}
	if in.IncludeOvertime {
		hours := in.Summary.OvertimeHours
		if in.OvertimeOverride {
			hours = in.OvertimeHours
		}
		overtime = ComputeOvertime(in.MonthlySalary, in.Period, hours)
	}

	allowances := AllowanceBreakdown{Total: decimal.Zero}
	if in.IncludeAllowances {
		allowances = EvaluateAllowances(in.Allowances, in.MonthlySalary, in.CustomAllowances)
	}

	deductions := DeductionBreakdown{Total: decimal.Zero}
	if in.IncludeDeductions {
		deductions = EvaluateDeductions(in.Deductions, basic, in.CustomDeductions, in.TaxCalculation)
	}

	totalEarnings := round2(basic.Add(overtime.Amount).Add(allowances.Total))
	totalDeductions := deductions.Total
	netSalary := round2(totalEarnings.Sub(totalDeductions))

	return Calculation{
		Period:               in.Period,
		Mode:                 in.Mode,
		Summary:              in.Summary,
		EffectiveWorkingDays: ewd,
		BasicSalary:          basic,
		Overtime:             overtime,
		Allowances:           allowances,
		Deductions:           deductions,
		TotalEarnings:        totalEarnings,
		TotalDeductions:      totalDeductions,
		NetSalary:            netSalary,
	}, nil
}
