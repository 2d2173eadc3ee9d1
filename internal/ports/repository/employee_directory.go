package repository

import (
	"context"
	"database/sql"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

// PostgresEmployeeDirectory reads employee facts from the shared HR tables.
// The core only consumes this read-side; employee records are owned by the
// HR collaborator.
type PostgresEmployeeDirectory struct {
	DB *sql.DB
}

func NewPostgresEmployeeDirectory(db *sql.DB) *PostgresEmployeeDirectory {
	return &PostgresEmployeeDirectory{DB: db}
}

const employeeSelect = `SELECT id, external_id, full_name, card_number, email, daily_hours, work_fraction, is_active
FROM employees`

func (d *PostgresEmployeeDirectory) Get(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	row := d.DB.QueryRowContext(ctx, employeeSelect+` WHERE id = $1`, id)
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, ErrEmployeeNotFound
	}
	return emp, err
}

func (d *PostgresEmployeeDirectory) FindByCard(ctx context.Context, cardNumber string) (*model.Employee, error) {
	row := d.DB.QueryRowContext(ctx, employeeSelect+` WHERE card_number = $1`, cardNumber)
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return emp, err
}

func (d *PostgresEmployeeDirectory) ListActive(ctx context.Context) ([]model.Employee, error) {
	rows, err := d.DB.QueryContext(ctx, employeeSelect+` WHERE is_active ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

// HasVacationOnDate reports whether an approved or taken vacation covers the date.
func (d *PostgresEmployeeDirectory) HasVacationOnDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (bool, error) {
	query := `SELECT EXISTS (
                SELECT 1 FROM vacations
                WHERE employee_id = $1 AND start_date <= $2 AND end_date >= $2
                  AND status IN ('approved', 'taken'))`
	var exists bool
	err := d.DB.QueryRowContext(ctx, query, employeeID, date).Scan(&exists)
	return exists, err
}

// HasBusinessTripOnDate reports whether an approved or running business trip covers the date.
func (d *PostgresEmployeeDirectory) HasBusinessTripOnDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (bool, error) {
	query := `SELECT EXISTS (
                SELECT 1 FROM business_trips
                WHERE employee_id = $1 AND start_date <= $2 AND end_date >= $2
                  AND status IN ('approved', 'in_progress'))`
	var exists bool
	err := d.DB.QueryRowContext(ctx, query, employeeID, date).Scan(&exists)
	return exists, err
}

func scanEmployee(row rowScanner) (*model.Employee, error) {
	var emp model.Employee
	err := row.Scan(&emp.ID, &emp.ExternalID, &emp.FullName, &emp.CardNumber, &emp.Email,
		&emp.DailyHours, &emp.WorkFraction, &emp.IsActive)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}
