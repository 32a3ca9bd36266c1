package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"docverify/internal/records/models"
	"docverify/pkg/platform/sentinel"
)

// PostgresStore persists records in the verification_records table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, category, name, email, contact, college_name, college_id, government_id,
	files, status, reason, rule, message, extracted, face_distance, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	files, err := json.Marshal(record.Files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	extracted, err := marshalExtracted(record.Extracted)
	if err != nil {
		return err
	}

	query := `INSERT INTO verification_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.Category, record.Name, record.Email, record.Contact,
		record.CollegeName, record.CollegeID, record.GovernmentID,
		files, string(record.Status), record.Reason, record.Rule, record.Message,
		extracted, nullFloat(record.FaceDistance), record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("record %s: %w", record.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateOutcome(ctx context.Context, id uuid.UUID, outcome models.Outcome) error {
	extracted, err := marshalExtracted(outcome.Extracted)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE verification_records
		SET status = $2, reason = $3, rule = $4, message = $5,
			extracted = $6, face_distance = $7, updated_at = $8
		WHERE id = $1`,
		id, string(outcome.Status), outcome.Reason, outcome.Rule, outcome.Message,
		extracted, nullFloat(outcome.FaceDistance), outcome.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("update record outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record outcome: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM verification_records WHERE id = $1`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	return record, nil
}

// List returns matching records, newest first.
func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Record, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses = append(statuses, string(st))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM verification_records
		WHERE (cardinality($1::text[]) = 0 OR status = ANY($1::text[]))
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		pq.Array(statuses), filter.Category, filter.EffectiveLimit(),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		r         models.Record
		status    string
		files     []byte
		extracted []byte
		distance  sql.NullFloat64
	)
	err := row.Scan(
		&r.ID, &r.Category, &r.Name, &r.Email, &r.Contact,
		&r.CollegeName, &r.CollegeID, &r.GovernmentID,
		&files, &status, &r.Reason, &r.Rule, &r.Message,
		&extracted, &distance, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = models.Status(status)
	if len(files) > 0 {
		if err := json.Unmarshal(files, &r.Files); err != nil {
			return nil, fmt.Errorf("decode files: %w", err)
		}
	}
	if len(extracted) > 0 {
		if err := json.Unmarshal(extracted, &r.Extracted); err != nil {
			return nil, fmt.Errorf("decode extracted: %w", err)
		}
	}
	if distance.Valid {
		d := distance.Float64
		r.FaceDistance = &d
	}
	return &r, nil
}

func marshalExtracted(fields map[string]*string) ([]byte, error) {
	if fields == nil {
		return nil, nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal extracted fields: %w", err)
	}
	return b, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
