package payroll

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

//go:generate mockgen -source=payroll_repo.go -destination=mock/payroll_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *Payroll) error
	Update(ctx context.Context, p *Payroll) error
	ReplaceItems(ctx context.Context, payrollID string, items []PayrollItem) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Payroll, error)
	FindByEmployeePeriod(ctx context.Context, employeeID string, month, year int) (*Payroll, error)
	FindAllByEmployee(ctx context.Context, employeeID string) ([]Payroll, error)
	FindOverlapping(ctx context.Context, employeeID string, start, end time.Time, excludeID *string) (*Payroll, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// Mutations run raw SQL through the attached transaction so a generation
// commits or rolls back as one unit with the attendance-processed flags and
// the outbox event.

const payrollColumns = `
	id, employee_id, period_start, period_end, period_month, period_year,
	mode, manual_working_days,
	present_days, absent_days, late_days, half_days, leave_days, effective_working_days,
	basic_salary, overtime_hours, overtime_rate, overtime_amount,
	allowance_housing, allowance_transport, allowance_meal, allowance_other,
	deduction_tax, deduction_insurance, deduction_other,
	total_earnings, total_deductions, net_salary,
	payment_status, processed_at, paid_at`

func (r *repository) Create(ctx context.Context, p *Payroll) error {
	query := `
INSERT INTO payrolls (` + payrollColumns + `, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
        $29, $30, $31, NOW(), NOW())
`
	_, err := r.execer().ExecContext(ctx, query, r.args(p)...)
	return err
}

func (r *repository) Update(ctx context.Context, p *Payroll) error {
	query := `
UPDATE payrolls SET
	employee_id = $2, period_start = $3, period_end = $4,
	period_month = $5, period_year = $6, mode = $7, manual_working_days = $8,
	present_days = $9, absent_days = $10, late_days = $11, half_days = $12,
	leave_days = $13, effective_working_days = $14,
	basic_salary = $15, overtime_hours = $16, overtime_rate = $17, overtime_amount = $18,
	allowance_housing = $19, allowance_transport = $20, allowance_meal = $21, allowance_other = $22,
	deduction_tax = $23, deduction_insurance = $24, deduction_other = $25,
	total_earnings = $26, total_deductions = $27, net_salary = $28,
	payment_status = $29, processed_at = $30, paid_at = $31,
	updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`
	_, err := r.execer().ExecContext(ctx, query, r.args(p)...)
	return err
}

func (r *repository) args(p *Payroll) []any {
	return []any{
		p.ID, p.EmployeeID, p.PeriodStart, p.PeriodEnd, p.PeriodMonth, p.PeriodYear,
		p.Mode, p.ManualWorkingDays,
		p.PresentDays, p.AbsentDays, p.LateDays, p.HalfDays, p.LeaveDays, p.EffectiveWorkingDays,
		p.BasicSalary, p.OvertimeHours, p.OvertimeRate, p.OvertimeAmount,
		p.AllowanceHousing, p.AllowanceTransport, p.AllowanceMeal, p.AllowanceOther,
		p.DeductionTax, p.DeductionInsurance, p.DeductionOther,
		p.TotalEarnings, p.TotalDeductions, p.NetSalary,
		p.PaymentStatus, p.ProcessedAt, p.PaidAt,
	}
}

func (r *repository) ReplaceItems(ctx context.Context, payrollID string, items []PayrollItem) error {
	exec := r.execer()

	if _, err := exec.ExecContext(ctx, `DELETE FROM payroll_items WHERE payroll_id = $1`, payrollID); err != nil {
		return err
	}

	query := `
INSERT INTO payroll_items (id, payroll_id, kind, name, amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
`
	for _, item := range items {
		if _, err := exec.ExecContext(ctx, query, item.ID, payrollID, item.Kind, item.Name, item.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	_, err := r.execer().ExecContext(ctx,
		`UPDATE payrolls SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

// Reads go through gorm.

func (r *repository) FindByID(ctx context.Context, id string) (*Payroll, error) {
	var p Payroll
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *repository) FindByEmployeePeriod(ctx context.Context, employeeID string, month, year int) (*Payroll, error) {
	var p Payroll
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("employee_id = ?", employeeID).
		Where("period_month = ?", month).
		Where("period_year = ?", year).
		First(&p).Error
	return &p, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID string) ([]Payroll, error) {
	var rows []Payroll
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("employee_id = ?", employeeID).
		Order("period_start DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindOverlapping(ctx context.Context, employeeID string, start, end time.Time, excludeID *string) (*Payroll, error) {
	db := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("NOT (period_end < ? OR period_start > ?)", start, end)

	if excludeID != nil && *excludeID != "" {
		db = db.Where("id <> ?", *excludeID)
	}

	var rows []Payroll
	if err := db.Order("period_start ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return failingExecer{err: err}
	}
	return sqlDB
}

type failingExecer struct{ err error }

func (f failingExecer) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, f.err
}

// IsUniqueViolation reports whether err is a postgres unique constraint
// violation. The (employee, month, year) index is the source of truth for
// at-most-one payroll per bucket; this maps the concurrent-insert race onto
// the update path.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
