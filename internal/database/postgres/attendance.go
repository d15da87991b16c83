package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// AttendanceRepository keeps the attendance log in PostgreSQL
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

var _ database.AttendanceStore = (*AttendanceRepository)(nil)

// Append stores one record. A single INSERT is atomic, so a failure leaves no partial row.
// A repeated (session, label) pair is ignored.
func (r *AttendanceRepository) Append(ctx context.Context, rec attendance.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (session_id, label, observed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, label) DO NOTHING
	`, rec.SessionID, rec.Label, rec.ObservedAt)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// List returns the records observed at or after since, oldest first
func (r *AttendanceRepository) List(ctx context.Context, since time.Time) ([]attendance.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, label, observed_at
		FROM attendance
		WHERE observed_at >= $1
		ORDER BY observed_at, id
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(&rec.SessionID, &rec.Label, &rec.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.ObservedAt = rec.ObservedAt.Local()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}
