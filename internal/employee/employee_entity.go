package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Employee is the workforce profile. The payroll core only reads it; the
// CRUD surface lives in a separate admin service.
type Employee struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName      string          `gorm:"type:varchar(120);not null"`
	Department    string          `gorm:"type:varchar(80)"`
	Position      string          `gorm:"type:varchar(80)"`
	MonthlySalary decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	IsActive      bool            `gorm:"not null;default:true;index"`
	JoiningDate   *time.Time      `gorm:"type:date"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}
