package attendance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Attendance statuses as recorded by the attendance service.
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLate    = "Late"
	StatusHalfDay = "Half Day"
	StatusOnLeave = "On Leave"
)

// Attendance is one employee-day record. Owned by the attendance service;
// the payroll core reads it and, after generating a payroll from it, marks
// it processed.
type Attendance struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID     uuid.UUID       `gorm:"column:employee_id;type:uuid;not null;index:idx_employee_date,unique"`
	AttendanceDate time.Time       `gorm:"column:attendance_date;type:date;not null;index:idx_employee_date,unique"`
	Status         string          `gorm:"column:status;type:varchar(20);not null;default:'Present'"`
	CheckIn        *time.Time      `gorm:"column:check_in;type:timestamptz"`
	CheckOut       *time.Time      `gorm:"column:check_out;type:timestamptz"`
	OvertimeHours  decimal.Decimal `gorm:"column:overtime_hours;type:numeric(6,2);not null;default:0"`
	Processed      bool            `gorm:"column:processed;not null;default:false;index"`
	ProcessedAt    *time.Time      `gorm:"column:processed_at"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

func (Attendance) TableName() string {
	return "attendances"
}
