package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hospital-service/internal/models"
)

// CreateLeaveRequest creates a new leave request
func (s *Store) CreateLeaveRequest(ctx context.Context, leave *models.LeaveRequest) error {
	query := `
		INSERT INTO leave_requests (employee_id, start_date, end_date, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, leave, query,
		leave.EmployeeID, leave.StartDate, leave.EndDate, leave.Reason, leave.Status)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

// GetLeaveRequestByID retrieves a leave request by ID
func (s *Store) GetLeaveRequestByID(ctx context.Context, id int64) (*models.LeaveRequest, error) {
	var leave models.LeaveRequest
	err := s.db.GetContext(ctx, &leave, "SELECT * FROM leave_requests WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("leave request not found: %d", id)
	}
	if err != nil {
		return nil, mapDBError(err)
	}
	return &leave, nil
}

// GetLeaveRequestsByEmployeeID retrieves leave requests for an employee
func (s *Store) GetLeaveRequestsByEmployeeID(ctx context.Context, employeeID int64) ([]models.LeaveRequest, error) {
	var leaves []models.LeaveRequest
	err := s.db.SelectContext(ctx, &leaves,
		"SELECT * FROM leave_requests WHERE employee_id = $1 ORDER BY created_at DESC", employeeID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return leaves, nil
}

// UpdateLeaveRequestStatus updates a leave request's status
func (s *Store) UpdateLeaveRequestStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE leave_requests SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("leave request not found: %d", id)
	}
	return nil
}
