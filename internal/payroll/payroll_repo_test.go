package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kartikpanaganti/textlaire-sub002/internal/payroll"
)

func setupGormRepo(t *testing.T) (*gorm.DB, payroll.Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	return gdb, payroll.NewRepository(gdb), mock
}

// A deleted record must release its (employee, month, year) bucket so the
// period can be regenerated; the unique index is therefore partial over
// live rows.
func TestPayrollBucketIndexIgnoresDeletedRows(t *testing.T) {
	gdb, _, mock := setupGormRepo(t)

	mock.ExpectExec(`CREATE UNIQUE INDEX .*"idx_employee_month_year" ON "payrolls" \("employee_id",\s*"period_month",\s*"period_year"\) WHERE deleted_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, gdb.Migrator().CreateIndex(&payroll.Payroll{}, "idx_employee_month_year"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryFindOverlapping(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	overlapPattern := `NOT \(period_end < \$2 OR period_start > \$3\)`

	t.Run("adjacent periods do not match", func(t *testing.T) {
		_, repo, mock := setupGormRepo(t)

		// January ends the day before this period starts; the strict
		// inequalities keep day-adjacent periods apart.
		start := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(overlapPattern).
			WithArgs(employeeID, start, end).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindOverlapping(ctx, employeeID, start, end, nil)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("overlapping row is returned", func(t *testing.T) {
		_, repo, mock := setupGormRepo(t)

		start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC)
		existingID := uuid.New()

		mock.ExpectQuery(overlapPattern).
			WithArgs(employeeID, start, end).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "payment_status"}).
				AddRow(existingID.String(), employeeID, payroll.StatusPending))

		p, err := repo.FindOverlapping(ctx, employeeID, start, end, nil)
		require.NoError(t, err)
		assert.Equal(t, existingID, p.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("excluded record is not its own overlap", func(t *testing.T) {
		_, repo, mock := setupGormRepo(t)

		start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
		excludeID := uuid.New().String()

		mock.ExpectQuery(overlapPattern + ` AND id <> \$4`).
			WithArgs(employeeID, start, end, excludeID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindOverlapping(ctx, employeeID, start, end, &excludeID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
