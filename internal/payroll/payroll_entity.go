package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusPending   = "Pending"
	StatusProcessed = "Processed"
	StatusPaid      = "Paid"
)

const (
	ItemKindAllowance = "allowance"
	ItemKindDeduction = "deduction"
)

// Payroll is the persisted record for one employee and one pay period.
// The (employee, month, year) bucket is derived from the period end and is
// unique at the database level; the application-level existence check is an
// optimization, the index is the source of truth. The index is partial over
// live rows so a soft-deleted record releases its bucket and the period can
// be regenerated.
type Payroll struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_employee_month_year,unique,where:deleted_at IS NULL"`

	PeriodStart time.Time `gorm:"type:date;not null"`
	PeriodEnd   time.Time `gorm:"type:date;not null"`
	PeriodMonth int       `gorm:"not null;index:idx_employee_month_year,unique"`
	PeriodYear  int       `gorm:"not null;index:idx_employee_month_year,unique"`

	// Generation inputs kept for recalculation.
	Mode              string           `gorm:"type:varchar(12);not null;default:'automatic'"`
	ManualWorkingDays *decimal.Decimal `gorm:"type:numeric(6,2)"`

	// Attendance snapshot at generation time.
	PresentDays          int             `gorm:"not null;default:0"`
	AbsentDays           int             `gorm:"not null;default:0"`
	LateDays             int             `gorm:"not null;default:0"`
	HalfDays             int             `gorm:"not null;default:0"`
	LeaveDays            int             `gorm:"not null;default:0"`
	EffectiveWorkingDays decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`

	BasicSalary decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	OvertimeHours  decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	OvertimeRate   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	OvertimeAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	AllowanceHousing   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	AllowanceTransport decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	AllowanceMeal      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	AllowanceOther     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	DeductionTax       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	DeductionInsurance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	DeductionOther     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	TotalEarnings   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TotalDeductions decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	NetSalary       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	PaymentStatus string     `gorm:"type:varchar(20);not null;default:'Pending';index"`
	ProcessedAt   *time.Time `gorm:"index"`
	PaidAt        *time.Time `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Items []PayrollItem `gorm:"foreignKey:PayrollID"`
}

func (Payroll) TableName() string {
	return "payrolls"
}

// PayrollItem is a custom allowance or deduction line with no rule
// semantics; the amount passes through as entered.
type PayrollItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayrollID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind      string          `gorm:"type:varchar(12);not null;index"`
	Name      string          `gorm:"type:varchar(120);not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PayrollItem) TableName() string {
	return "payroll_items"
}
