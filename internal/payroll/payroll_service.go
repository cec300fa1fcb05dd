package payroll

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kartikpanaganti/textlaire-sub002/internal/attendance"
	"github.com/kartikpanaganti/textlaire-sub002/internal/employee"
	"github.com/kartikpanaganti/textlaire-sub002/internal/events"
	"github.com/kartikpanaganti/textlaire-sub002/internal/messaging/kafka"
	payrollerrors "github.com/kartikpanaganti/textlaire-sub002/internal/payroll/errors"
	"github.com/kartikpanaganti/textlaire-sub002/internal/shared/apperror"
	"github.com/kartikpanaganti/textlaire-sub002/internal/shared/contextutil"
)

//go:generate mockgen -source=payroll_service.go -destination=mock/payroll_service_mock.go -package=mock
type Service interface {
	ComputePreview(ctx context.Context, req PreviewRequest) (PreviewResponse, error)
	Generate(ctx context.Context, req GeneratePayrollRequest) (PayrollResponse, error)
	GenerateAll(ctx context.Context, req GenerateAllRequest) (BulkGenerateResponse, error)
	CheckOverlap(ctx context.Context, req CheckOverlapRequest) (OverlapResponse, error)
	Recalculate(ctx context.Context, id string, req RecalculateRequest) (PayrollResponse, error)
	UpdatePaymentStatus(ctx context.Context, id string, req UpdatePaymentStatusRequest) (PayrollResponse, error)
	GetByID(ctx context.Context, id string) (PayrollResponse, error)
	GetAllByEmployee(ctx context.Context, employeeID string) ([]PayrollResponse, error)
	Delete(ctx context.Context, id string) (DeleteResponse, error)
}

type service struct {
	db             *sql.DB
	repo           Repository
	attendanceRepo attendance.Repository
	employeeRepo   employee.Repository
	outboxRepo     kafka.OutboxRepository
	weekend        Weekend
}

// NewService wires the payroll core. outboxRepo may be nil when event
// publishing is disabled; weekend may be nil for the default Saturday and
// Sunday policy.
func NewService(
	db *sql.DB,
	repo Repository,
	attendanceRepo attendance.Repository,
	employeeRepo employee.Repository,
	outboxRepo kafka.OutboxRepository,
	weekend Weekend,
) Service {
	return &service{
		db:             db,
		repo:           repo,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		outboxRepo:     outboxRepo,
		weekend:        weekend,
	}
}

const deletePaidWarning = "payroll was already marked as Paid; the payment itself is not reversed by this deletion"

// Payment status transitions. Paid is terminal.
var statusTransitions = map[string]map[string]bool{
	StatusPending:   {StatusProcessed: true, StatusPaid: true},
	StatusProcessed: {StatusPaid: true},
	StatusPaid:      {},
}

// --- Option parsing ---

// parsedOptions is the service-level form of CalculationOptions with
// defaults applied: automatic mode, every component included, tax on.
type parsedOptions struct {
	Mode              Mode
	ManualWorkingDays decimal.Decimal
	OvertimeOverride  bool
	OvertimeHours     decimal.Decimal
	IncludeOvertime   bool
	IncludeAllowances bool
	IncludeDeductions bool
	TaxCalculation    bool
	Allowances        AllowanceRules
	Deductions        DeductionRules
	CustomAllowances  []CustomItem
	CustomDeductions  []CustomItem
}

func parseOptions(in CalculationOptions) parsedOptions {
	opts := parsedOptions{
		Mode:              ModeAutomatic,
		IncludeOvertime:   boolOrDefault(in.IncludeOvertime, true),
		IncludeAllowances: boolOrDefault(in.IncludeAllowances, true),
		IncludeDeductions: boolOrDefault(in.IncludeDeductions, true),
		TaxCalculation:    boolOrDefault(in.TaxCalculation, true),
		Allowances:        in.Allowances.Parse(),
		Deductions:        in.Deductions.Parse(),
		CustomAllowances:  ParseCustomItems(in.CustomAllowances),
		CustomDeductions:  ParseCustomItems(in.CustomDeductions),
	}

	if in.Mode == string(ModeManual) {
		opts.Mode = ModeManual
	}
	if in.ManualWorkingDays != nil {
		opts.ManualWorkingDays = decimal.NewFromFloat(*in.ManualWorkingDays)
	}
	if in.ManualOvertimeHours != nil {
		opts.OvertimeOverride = true
		opts.OvertimeHours = decimal.NewFromFloat(*in.ManualOvertimeHours)
	}

	return opts
}

func boolOrDefault(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, payrollerrors.ErrInvalidDateFormat
	}
	return t, nil
}

// --- Preview ---

func (s *service) ComputePreview(ctx context.Context, req PreviewRequest) (PreviewResponse, error) {
	emp, period, err := s.loadEmployeeAndPeriod(ctx, req.EmployeeID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return PreviewResponse{}, err
	}

	calc, err := s.calculate(ctx, emp, period, parseOptions(req.CalculationOptions))
	if err != nil {
		return PreviewResponse{}, err
	}

	return PreviewResponse{
		EmployeeID:           emp.ID.String(),
		Period:               periodResponse(calc.Period),
		Mode:                 string(calc.Mode),
		Attendance:           summaryResponse(calc.Summary),
		EffectiveWorkingDays: calc.EffectiveWorkingDays,
		BasicSalary:          calc.BasicSalary,
		Overtime:             overtimeResponse(calc.Overtime),
		Allowances:           allowancesResponse(calc.Allowances),
		Deductions:           deductionsResponse(calc.Deductions),
		TotalEarnings:        calc.TotalEarnings,
		TotalDeductions:      calc.TotalDeductions,
		NetSalary:            calc.NetSalary,
	}, nil
}

// --- Generation ---

func (s *service) Generate(ctx context.Context, req GeneratePayrollRequest) (PayrollResponse, error) {
	emp, period, err := s.loadEmployeeAndPeriod(ctx, req.EmployeeID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return PayrollResponse{}, err
	}

	p, err := s.generateOne(ctx, emp, period, parseOptions(req.CalculationOptions), true)
	if err != nil {
		return PayrollResponse{}, err
	}
	return mapToResponse(p), nil
}

func (s *service) GenerateAll(ctx context.Context, req GenerateAllRequest) (BulkGenerateResponse, error) {
	if req.Month < 1 || req.Month > 12 {
		return BulkGenerateResponse{}, payrollerrors.ErrInvalidMonth
	}

	start := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	period, err := NewPeriod(start, end)
	if err != nil {
		return BulkGenerateResponse{}, err
	}

	employees, err := s.employeeRepo.FindAllActive(ctx)
	if err != nil {
		return BulkGenerateResponse{}, apperror.Wrap(
			err, apperror.CodeInternalError, "failed to list active employees", http.StatusInternalServerError,
		)
	}

	logger := contextutil.GetLogger(ctx, zap.L()).Named("payroll.generate_all")
	result := BulkGenerateResponse{
		Succeeded: []PayrollResponse{},
		Failed:    []BulkFailure{},
	}

	opts := parsedOptions{
		Mode:              ModeAutomatic,
		IncludeOvertime:   true,
		IncludeAllowances: true,
		IncludeDeductions: true,
		TaxCalculation:    true,
	}

	for i := range employees {
		emp := &employees[i]

		p, err := s.generateOne(ctx, emp, period, opts, false)
		if err != nil {
			logger.Warn("bulk generation skipped employee",
				zap.String("employee_id", emp.ID.String()),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, BulkFailure{
				EmployeeID:   emp.ID.String(),
				EmployeeName: emp.FullName,
				Message:      err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, mapToResponse(p))
	}

	logger.Info("bulk generation finished",
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)

	return result, nil
}

// generateOne runs the full pipeline for one employee: summarize
// attendance, calculate, and persist atomically together with the
// attendance-processed flags and the outbox event.
//
// allowUpdate controls what happens when a payroll already exists for the
// (employee, month, year) bucket: the single-employee endpoint regenerates
// it in place, bulk generation reports it as a failure.
func (s *service) generateOne(ctx context.Context, emp *employee.Employee, period Period, opts parsedOptions, allowUpdate bool) (*Payroll, error) {
	existing, err := s.findExisting(ctx, emp.ID.String(), period)
	if err != nil {
		return nil, err
	}
	if existing != nil && !allowUpdate {
		return nil, payrollerrors.ErrPayrollExists
	}

	var excludeID *string
	if existing != nil {
		id := existing.ID.String()
		excludeID = &id
	}
	if err := s.ensureNoOverlap(ctx, emp.ID.String(), period, excludeID); err != nil {
		return nil, err
	}

	calc, err := s.calculate(ctx, emp, period, opts)
	if err != nil {
		return nil, err
	}

	p := buildEntity(emp.ID, calc, opts)
	if existing != nil {
		p.ID = existing.ID
		p.PaymentStatus = existing.PaymentStatus
		p.ProcessedAt = existing.ProcessedAt
		p.PaidAt = existing.PaidAt
	}

	err = s.persistGeneration(ctx, p, calc, existing != nil)
	if IsUniqueViolation(err) {
		// Lost a concurrent-insert race on the unique bucket index.
		if !allowUpdate {
			return nil, payrollerrors.ErrPayrollExists
		}
		winner, ferr := s.findExisting(ctx, emp.ID.String(), period)
		if ferr != nil {
			return nil, ferr
		}
		if winner == nil {
			return nil, err
		}
		p.ID = winner.ID
		p.PaymentStatus = winner.PaymentStatus
		p.ProcessedAt = winner.ProcessedAt
		p.PaidAt = winner.PaidAt
		err = s.persistGeneration(ctx, p, calc, true)
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (s *service) persistGeneration(ctx context.Context, p *Payroll, calc Calculation, update bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if update {
		err = qtx.Update(ctx, p)
	} else {
		err = qtx.Create(ctx, p)
	}
	if err != nil {
		return err
	}

	if err := qtx.ReplaceItems(ctx, p.ID.String(), p.Items); err != nil {
		return err
	}

	if len(calc.Summary.RecordIDs) > 0 {
		if err := s.attendanceRepo.WithTx(tx).MarkProcessed(ctx, calc.Summary.RecordIDs); err != nil {
			return err
		}
	}

	if s.outboxRepo != nil {
		event, err := s.buildOutboxEvent(ctx, p)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.WithTx(tx).Create(ctx, event); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *service) buildOutboxEvent(ctx context.Context, p *Payroll) (kafka.OutboxEvent, error) {
	payload, err := json.Marshal(events.PayrollGeneratedEvent{
		EventType:   "payroll.generated",
		PayrollID:   p.ID.String(),
		EmployeeID:  p.EmployeeID.String(),
		PeriodStart: p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   p.PeriodEnd.Format("2006-01-02"),
		NetSalary:   p.NetSalary.StringFixed(2),
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return kafka.OutboxEvent{}, err
	}

	return kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "payroll",
		AggregateID:   p.ID.String(),
		EventType:     "payroll.generated",
		Topic:         events.PayrollGeneratedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}, nil
}

// --- Overlap ---

func (s *service) CheckOverlap(ctx context.Context, req CheckOverlapRequest) (OverlapResponse, error) {
	start, err := parseDate(req.PeriodStart)
	if err != nil {
		return OverlapResponse{}, err
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		return OverlapResponse{}, err
	}
	period, err := NewPeriod(start, end)
	if err != nil {
		return OverlapResponse{}, err
	}

	conflict, err := s.repo.FindOverlapping(ctx, req.EmployeeID, period.Start, period.End, nil)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return OverlapResponse{Overlapping: false}, nil
	}
	if err != nil {
		return OverlapResponse{}, err
	}

	p := periodResponse(Period{Start: conflict.PeriodStart, End: conflict.PeriodEnd})
	return OverlapResponse{Overlapping: true, ConflictingPeriod: &p}, nil
}

func (s *service) ensureNoOverlap(ctx context.Context, employeeID string, period Period, excludeID *string) error {
	_, err := s.repo.FindOverlapping(ctx, employeeID, period.Start, period.End, excludeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return payrollerrors.ErrPayrollOverlap
}

// --- Recalculation ---

// Recalculate re-derives basic salary and overtime from the current
// attendance records while keeping the stored allowance and deduction
// amounts as fixed overrides, unless the request supplies fresh rules.
// Payment status and its timestamps survive unchanged.
func (s *service) Recalculate(ctx context.Context, id string, req RecalculateRequest) (PayrollResponse, error) {
	existing, err := s.findPayroll(ctx, id)
	if err != nil {
		return PayrollResponse{}, err
	}

	emp, err := s.findEmployee(ctx, existing.EmployeeID.String())
	if err != nil {
		return PayrollResponse{}, err
	}

	period, err := NewPeriod(existing.PeriodStart, existing.PeriodEnd)
	if err != nil {
		return PayrollResponse{}, err
	}

	opts := s.recalculateOptions(existing, req.CalculationOptions)

	calc, err := s.calculate(ctx, emp, period, opts)
	if err != nil {
		return PayrollResponse{}, err
	}

	p := buildEntity(existing.EmployeeID, calc, opts)
	p.ID = existing.ID
	p.PaymentStatus = existing.PaymentStatus
	p.ProcessedAt = existing.ProcessedAt
	p.PaidAt = existing.PaidAt

	if err := s.persistGeneration(ctx, p, calc, true); err != nil {
		return PayrollResponse{}, err
	}

	return mapToResponse(p), nil
}

// recalculateOptions merges the stored generation inputs with any
// overrides from the request. Absent rule inputs fall back to the stored
// line amounts as fixed rules so a bare recalculation is idempotent apart
// from attendance changes.
func (s *service) recalculateOptions(existing *Payroll, in CalculationOptions) parsedOptions {
	opts := parseOptions(in)

	if in.Mode == "" {
		opts.Mode = Mode(existing.Mode)
	}
	if in.ManualWorkingDays == nil && existing.ManualWorkingDays != nil {
		opts.ManualWorkingDays = *existing.ManualWorkingDays
	}
	if in.ManualOvertimeHours == nil && opts.Mode == ModeManual {
		opts.OvertimeOverride = true
		opts.OvertimeHours = existing.OvertimeHours
	}

	if !allowanceRulesProvided(in.Allowances) {
		opts.Allowances = AllowanceRules{
			Housing:   Rule{Kind: RuleFixed, Value: existing.AllowanceHousing},
			Transport: Rule{Kind: RuleFixed, Value: existing.AllowanceTransport},
			Meal:      Rule{Kind: RuleFixed, Value: existing.AllowanceMeal},
			Other:     Rule{Kind: RuleFixed, Value: existing.AllowanceOther},
		}
	}
	if !deductionRulesProvided(in.Deductions) {
		opts.Deductions = DeductionRules{
			Tax:       Rule{Kind: RuleFixed, Value: existing.DeductionTax},
			Insurance: Rule{Kind: RuleFixed, Value: existing.DeductionInsurance},
			Other:     Rule{Kind: RuleFixed, Value: existing.DeductionOther},
		}
	}
	if len(in.CustomAllowances) == 0 {
		opts.CustomAllowances = itemsToCustom(existing.Items, ItemKindAllowance)
	}
	if len(in.CustomDeductions) == 0 {
		opts.CustomDeductions = itemsToCustom(existing.Items, ItemKindDeduction)
	}

	return opts
}

func allowanceRulesProvided(in AllowanceRulesInput) bool {
	return in.Housing != nil || in.Transport != nil || in.Meal != nil || in.Other != nil
}

func deductionRulesProvided(in DeductionRulesInput) bool {
	return in.Tax != nil || in.Insurance != nil || in.Other != nil
}

func itemsToCustom(items []PayrollItem, kind string) []CustomItem {
	var out []CustomItem
	for _, item := range items {
		if item.Kind == kind {
			out = append(out, CustomItem{Name: item.Name, Amount: item.Amount})
		}
	}
	return out
}

// --- Payment status ---

func (s *service) UpdatePaymentStatus(ctx context.Context, id string, req UpdatePaymentStatusRequest) (PayrollResponse, error) {
	if _, ok := statusTransitions[req.Status]; !ok {
		return PayrollResponse{}, payrollerrors.ErrInvalidPaymentStatus
	}

	p, err := s.findPayroll(ctx, id)
	if err != nil {
		return PayrollResponse{}, err
	}

	if !statusTransitions[p.PaymentStatus][req.Status] {
		return PayrollResponse{}, payrollerrors.ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	switch req.Status {
	case StatusProcessed:
		p.ProcessedAt = &now
	case StatusPaid:
		paidAt := now
		if req.PaymentDate != nil && *req.PaymentDate != "" {
			parsed, err := parseDate(*req.PaymentDate)
			if err != nil {
				return PayrollResponse{}, err
			}
			paidAt = parsed
		}
		p.PaidAt = &paidAt
	}
	p.PaymentStatus = req.Status

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Update(ctx, p); err != nil {
		return PayrollResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return PayrollResponse{}, err
	}

	return mapToResponse(p), nil
}

// --- Reads ---

func (s *service) GetByID(ctx context.Context, id string) (PayrollResponse, error) {
	p, err := s.findPayroll(ctx, id)
	if err != nil {
		return PayrollResponse{}, err
	}
	return mapToResponse(p), nil
}

func (s *service) GetAllByEmployee(ctx context.Context, employeeID string) ([]PayrollResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, payrollerrors.ErrInvalidEmployeeID
	}

	rows, err := s.repo.FindAllByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	out := make([]PayrollResponse, len(rows))
	for i := range rows {
		out[i] = mapToResponse(&rows[i])
	}
	return out, nil
}

// --- Delete ---

// Delete removes the record regardless of payment status. Deleting a Paid
// payroll is allowed but flagged, since the disbursement already happened.
func (s *service) Delete(ctx context.Context, id string) (DeleteResponse, error) {
	p, err := s.findPayroll(ctx, id)
	if err != nil {
		return DeleteResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DeleteResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
		return DeleteResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return DeleteResponse{}, err
	}

	logger := contextutil.GetLogger(ctx, zap.L()).Named("payroll.delete")
	resp := DeleteResponse{Deleted: true}
	if p.PaymentStatus == StatusPaid {
		resp.Warning = deletePaidWarning
		logger.Warn("paid payroll deleted",
			zap.String("payroll_id", id),
			zap.String("actor_id", contextutil.GetActorID(ctx)),
		)
	}
	return resp, nil
}

// --- Shared lookups ---

func (s *service) loadEmployeeAndPeriod(ctx context.Context, employeeID, startStr, endStr string) (*employee.Employee, Period, error) {
	emp, err := s.findEmployee(ctx, employeeID)
	if err != nil {
		return nil, Period{}, err
	}

	start, err := parseDate(startStr)
	if err != nil {
		return nil, Period{}, err
	}
	end, err := parseDate(endStr)
	if err != nil {
		return nil, Period{}, err
	}

	period, err := NewPeriod(start, end)
	if err != nil {
		return nil, Period{}, err
	}

	return emp, period, nil
}

func (s *service) findEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, payrollerrors.ErrInvalidEmployeeID
	}

	emp, err := s.employeeRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payrollerrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

func (s *service) findPayroll(ctx context.Context, id string) (*Payroll, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, payrollerrors.ErrPayrollNotFound
	}

	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payrollerrors.ErrPayrollNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) findExisting(ctx context.Context, employeeID string, period Period) (*Payroll, error) {
	p, err := s.repo.FindByEmployeePeriod(ctx, employeeID, period.Month(), period.Year())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// calculate summarizes attendance over the period and runs the pure
// calculation. It performs the only attendance read in the pipeline.
func (s *service) calculate(ctx context.Context, emp *employee.Employee, period Period, opts parsedOptions) (Calculation, error) {
	records, err := s.attendanceRepo.FindByEmployeeAndRange(ctx, emp.ID.String(), period.Start, period.End)
	if err != nil {
		return Calculation{}, err
	}

	summary := SummarizeAttendance(records, period, s.weekend)

	return Calculate(CalcInput{
		MonthlySalary:     emp.MonthlySalary,
		Period:            period,
		Mode:              opts.Mode,
		ManualWorkingDays: opts.ManualWorkingDays,
		Summary:           summary,
		OvertimeHours:     opts.OvertimeHours,
		OvertimeOverride:  opts.OvertimeOverride,
		IncludeOvertime:   opts.IncludeOvertime,
		IncludeAllowances: opts.IncludeAllowances,
		IncludeDeductions: opts.IncludeDeductions,
		TaxCalculation:    opts.TaxCalculation,
		Allowances:        opts.Allowances,
		Deductions:        opts.Deductions,
		CustomAllowances:  opts.CustomAllowances,
		CustomDeductions:  opts.CustomDeductions,
	})
}

// --- Mapping ---

func buildEntity(employeeID uuid.UUID, calc Calculation, opts parsedOptions) *Payroll {
	p := &Payroll{
		ID:          uuid.New(),
		EmployeeID:  employeeID,
		PeriodStart: calc.Period.Start,
		PeriodEnd:   calc.Period.End,
		PeriodMonth: calc.Period.Month(),
		PeriodYear:  calc.Period.Year(),

		Mode: string(calc.Mode),

		PresentDays:          calc.Summary.PresentDays,
		AbsentDays:           calc.Summary.AbsentDays,
		LateDays:             calc.Summary.LateDays,
		HalfDays:             calc.Summary.HalfDays,
		LeaveDays:            calc.Summary.LeaveDays,
		EffectiveWorkingDays: calc.EffectiveWorkingDays,

		BasicSalary: calc.BasicSalary,

		OvertimeHours:  calc.Overtime.Hours,
		OvertimeRate:   calc.Overtime.Rate,
		OvertimeAmount: calc.Overtime.Amount,

		AllowanceHousing:   calc.Allowances.Housing,
		AllowanceTransport: calc.Allowances.Transport,
		AllowanceMeal:      calc.Allowances.Meal,
		AllowanceOther:     calc.Allowances.Other,

		DeductionTax:       calc.Deductions.Tax,
		DeductionInsurance: calc.Deductions.Insurance,
		DeductionOther:     calc.Deductions.Other,

		TotalEarnings:   calc.TotalEarnings,
		TotalDeductions: calc.TotalDeductions,
		NetSalary:       calc.NetSalary,

		PaymentStatus: StatusPending,
	}

	if calc.Mode == ModeManual {
		days := opts.ManualWorkingDays
		p.ManualWorkingDays = &days
	}

	for _, item := range calc.Allowances.Custom {
		p.Items = append(p.Items, PayrollItem{
			ID:        uuid.New(),
			PayrollID: p.ID,
			Kind:      ItemKindAllowance,
			Name:      item.Name,
			Amount:    item.Amount,
		})
	}
	for _, item := range calc.Deductions.Custom {
		p.Items = append(p.Items, PayrollItem{
			ID:        uuid.New(),
			PayrollID: p.ID,
			Kind:      ItemKindDeduction,
			Name:      item.Name,
			Amount:    item.Amount,
		})
	}

	return p
}

func mapToResponse(p *Payroll) PayrollResponse {
	return PayrollResponse{
		ID:         p.ID.String(),
		EmployeeID: p.EmployeeID.String(),
		Period: PeriodResponse{
			Start: p.PeriodStart.Format("2006-01-02"),
			End:   p.PeriodEnd.Format("2006-01-02"),
		},
		Month: p.PeriodMonth,
		Year:  p.PeriodYear,
		Mode:  p.Mode,
		Attendance: AttendanceSummaryResponse{
			PresentDays:   p.PresentDays,
			AbsentDays:    p.AbsentDays,
			LateDays:      p.LateDays,
			HalfDays:      p.HalfDays,
			LeaveDays:     p.LeaveDays,
			OvertimeHours: p.OvertimeHours,
		},
		EffectiveWorkingDays: p.EffectiveWorkingDays,
		BasicSalary:          p.BasicSalary,
		Overtime: OvertimeResponse{
			Hours:  p.OvertimeHours,
			Rate:   p.OvertimeRate,
			Amount: p.OvertimeAmount,
		},
		Allowances: AllowancesResponse{
			Housing:   p.AllowanceHousing,
			Transport: p.AllowanceTransport,
			Meal:      p.AllowanceMeal,
			Other:     p.AllowanceOther,
			Custom:    itemResponses(p.Items, ItemKindAllowance),
			Total:     round2(p.TotalEarnings.Sub(p.BasicSalary).Sub(p.OvertimeAmount)),
		},
		Deductions: DeductionsResponse{
			Tax:       p.DeductionTax,
			Insurance: p.DeductionInsurance,
			Other:     p.DeductionOther,
			Custom:    itemResponses(p.Items, ItemKindDeduction),
			Total:     p.TotalDeductions,
		},
		TotalEarnings:   p.TotalEarnings,
		TotalDeductions: p.TotalDeductions,
		NetSalary:       p.NetSalary,
		PaymentStatus:   p.PaymentStatus,
		ProcessedAt:     formatTimestamp(p.ProcessedAt),
		PaidAt:          formatTimestamp(p.PaidAt),
	}
}

func itemResponses(items []PayrollItem, kind string) []CustomItemResponse {
	var out []CustomItemResponse
	for _, item := range items {
		if item.Kind == kind {
			out = append(out, CustomItemResponse{Name: item.Name, Amount: item.Amount})
		}
	}
	return out
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func periodResponse(p Period) PeriodResponse {
	return PeriodResponse{
		Start: p.Start.Format("2006-01-02"),
		End:   p.End.Format("2006-01-02"),
	}
}

func summaryResponse(s AttendanceSummary) AttendanceSummaryResponse {
	return AttendanceSummaryResponse{
		PresentDays:   s.PresentDays,
		AbsentDays:    s.AbsentDays,
		LateDays:      s.LateDays,
		HalfDays:      s.HalfDays,
		LeaveDays:     s.LeaveDays,
		OvertimeHours: s.OvertimeHours,
	}
}

func overtimeResponse(o OvertimeDetail) OvertimeResponse {
	return OvertimeResponse{Hours: o.Hours, Rate: o.Rate, Amount: o.Amount}
}

func allowancesResponse(a AllowanceBreakdown) AllowancesResponse {
	return AllowancesResponse{
		Housing:   a.Housing,
		Transport: a.Transport,
		Meal:      a.Meal,
		Other:     a.Other,
		Custom:    customResponses(a.Custom),
		Total:     a.Total,
	}
}

func deductionsResponse(d DeductionBreakdown) DeductionsResponse {
	return DeductionsResponse{
		Tax:       d.Tax,
		Insurance: d.Insurance,
		Other:     d.Other,
		Custom:    customResponses(d.Custom),
		Total:     d.Total,
	}
}

func customResponses(items []CustomItem) []CustomItemResponse {
	if len(items) == 0 {
		return nil
	}
	out := make([]CustomItemResponse, len(items))
	for i, item := range items {
		out[i] = CustomItemResponse{Name: item.Name, Amount: item.Amount}
	}
	return out
}
