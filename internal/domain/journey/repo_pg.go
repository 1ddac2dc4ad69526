package journey

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// eventStorePG persists journey events in PostgreSQL. The table is
// append-only: this adapter issues no UPDATE or DELETE statements, and the
// per-patient seq is assigned inside the insert so interleaved appends keep
// a single authoritative order per patient.
type eventStorePG struct{ pool *pgxpool.Pool }

// NewEventStorePG creates a pg-backed EventStore.
func NewEventStorePG(pool *pgxpool.Pool) EventStore { return &eventStorePG{pool: pool} }

const eventCols = `id, patient_id, seq, ts, kind, label, detail, actor_role, actor_name, severity`

func scanEvent(row pgx.Row) (*Event, error) {
	var (
		e         Event
		actorRole *string
		actorName *string
	)
	err := row.Scan(&e.ID, &e.PatientID, &e.Seq, &e.Timestamp, &e.Kind, &e.Label,
		&e.Detail, &actorRole, &actorName, &e.Severity)
	if err != nil {
		return nil, err
	}
	if actorRole != nil {
		e.Actor = &Actor{Role: *actorRole}
		if actorName != nil {
			e.Actor.Name = *actorName
		}
	}
	return &e, nil
}

// appendRetries bounds how often a lost seq race is retried before the
// append fails.
const appendRetries = 3

func (r *eventStorePG) Append(ctx context.Context, e *Event) error {
	// Two concurrent appends for one patient can compute the same next seq;
	// the loser hits the (patient_id, seq) unique constraint and retries, so
	// interleaved appends serialize instead of erroring.
	var err error
	for attempt := 0; attempt <= appendRetries; attempt++ {
		if err = r.insert(ctx, e); err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			break
		}
	}
	return fmt.Errorf("append journey event: %w", err)
}

func (r *eventStorePG) insert(ctx context.Context, e *Event) error {
	var actorRole, actorName *string
	if e.Actor != nil {
		actorRole = &e.Actor.Role
		if e.Actor.Name != "" {
			actorName = &e.Actor.Name
		}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO journey_event (id, patient_id, seq, ts, kind, label, detail, actor_role, actor_name, severity)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM journey_event WHERE patient_id = $2),
			$3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`,
		e.ID, e.PatientID, e.Timestamp, e.Kind, e.Label, e.Detail, actorRole, actorName, e.Severity)
	return row.Scan(&e.Seq)
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *eventStorePG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Event, error) {
	return r.list(ctx, `SELECT `+eventCols+` FROM journey_event WHERE patient_id = $1 ORDER BY seq`, patientID)
}

func (r *eventStorePG) ListByPatientSince(ctx context.Context, patientID uuid.UUID, afterSeq int64) ([]*Event, error) {
	return r.list(ctx, `SELECT `+eventCols+` FROM journey_event WHERE patient_id = $1 AND seq > $2 ORDER BY seq`, patientID, afterSeq)
}

func (r *eventStorePG) list(ctx context.Context, query string, args ...interface{}) ([]*Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventStorePG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journey_event WHERE patient_id = $1`, patientID).Scan(&n)
	return n, err
}

func (r *eventStorePG) Patients(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT patient_id FROM journey_event GROUP BY patient_id ORDER BY MIN(gseq)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
