package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxErrorBytes = 8 * 1024

// timeLayout is fixed width so TEXT comparison in SQL matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLStore persists generation jobs in SQLite. Every status change is a
// single compare-and-set UPDATE keyed on (job_id, expected status).
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a new pending job.
func (s *SQLStore) Create(ctx context.Context, kind Kind, in Inputs) (*Job, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	inputs, err := MarshalInputs(in)
	if err != nil {
		return nil, fmt.Errorf("encode inputs: %w", err)
	}

	now := s.now()
	j := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusPending,
		Inputs:    in,
		CreatedAt: now,
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO generation_jobs(job_id, kind, status, inputs, created_at)
VALUES(?, ?, ?, ?, ?);
`, j.ID, j.Kind, j.Status, string(inputs), now.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

// Get loads a job by id. Returns ErrJobNotFound if no record exists.
func (s *SQLStore) Get(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT job_id, kind, status, inputs, result, error, created_at, started_at, completed_at
FROM generation_jobs
WHERE job_id = ?;
`, jobID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return j, nil
}

// MarkProcessing moves a pending job to processing.
func (s *SQLStore) MarkProcessing(ctx context.Context, jobID string) error {
	now := s.now().Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `
UPDATE generation_jobs
SET status = ?, started_at = ?
WHERE job_id = ? AND status = ?;
`, StatusProcessing, now, jobID, StatusPending)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	return s.checkTransition(ctx, res, jobID, StatusPending)
}

// MarkCompleted moves a processing job to completed with its result.
func (s *SQLStore) MarkCompleted(ctx context.Context, jobID, result string) error {
	return s.finish(ctx, jobID, StatusCompleted, &result, nil)
}

// MarkFailed moves a processing job to failed with an error description.
func (s *SQLStore) MarkFailed(ctx context.Context, jobID, errMsg string) error {
	errMsg = truncateUTF8(errMsg, maxErrorBytes)
	return s.finish(ctx, jobID, StatusFailed, nil, &errMsg)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// finish performs the terminal transition and appends a job_log row in the
// same transaction.
func (s *SQLStore) finish(ctx context.Context, jobID string, status Status, result, errMsg *string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	completedAt := s.now().Format(timeLayout)

	var (
		kind      string
		createdAt string
	)
	err = tx.QueryRowContext(ctx, `
UPDATE generation_jobs
SET status = ?, result = ?, error = ?, completed_at = ?
WHERE job_id = ? AND status = ?
RETURNING kind, created_at;
`, status, result, errMsg, completedAt, jobID, StatusProcessing).Scan(&kind, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return s.transitionError(ctx, jobID, StatusProcessing)
	}
	if err != nil {
		return fmt.Errorf("update job %s to %s: %w", jobID, status, err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO job_log(job_id, kind, status, error, created_at, completed_at)
VALUES(?, ?, ?, ?, ?, ?);
`, jobID, kind, status, errMsg, createdAt, completedAt)
	if err != nil {
		return fmt.Errorf("insert job_log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// NextPending returns the ids of the oldest pending jobs, up to limit.
func (s *SQLStore) NextPending(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT job_id
FROM generation_jobs
WHERE status = ?
ORDER BY created_at ASC, rowid ASC
LIMIT ?;
`, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending job: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByStatus returns how many jobs are currently in status.
func (s *SQLStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generation_jobs WHERE status = ?;`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s jobs: %w", status, err)
	}
	return n, nil
}

// FindByStatus returns all jobs in status, oldest first.
func (s *SQLStore) FindByStatus(ctx context.Context, status Status) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT job_id, kind, status, inputs, result, error, created_at, started_at, completed_at
FROM generation_jobs
WHERE status = ?
ORDER BY created_at ASC, rowid ASC;
`, status)
	if err != nil {
		return nil, fmt.Errorf("find %s jobs: %w", status, err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// PruneTerminal deletes completed/failed jobs that finished before cutoff.
// job_log rows are kept.
func (s *SQLStore) PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM generation_jobs
WHERE status IN (?, ?) AND completed_at IS NOT NULL AND completed_at < ?;
`, StatusCompleted, StatusFailed, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune terminal jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) checkTransition(ctx context.Context, res sql.Result, jobID string, from Status) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	return s.transitionError(ctx, jobID, from)
}

// transitionError explains why a compare-and-set matched no row.
func (s *SQLStore) transitionError(ctx context.Context, jobID string, from Status) error {
	var current Status
	err := s.db.QueryRowContext(ctx, `SELECT status FROM generation_jobs WHERE job_id = ?;`, jobID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("load job status: %w", err)
	}
	return fmt.Errorf("%w: job %s is %s, expected %s", ErrInvalidJobState, jobID, current, from)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		j            Job
		kind         string
		status       string
		inputs       sql.NullString
		result       sql.NullString
		errMsg       sql.NullString
		createdAtS   string
		startedAtS   sql.NullString
		completedAtS sql.NullString
	)
	if err := row.Scan(&j.ID, &kind, &status, &inputs, &result, &errMsg, &createdAtS, &startedAtS, &completedAtS); err != nil {
		return nil, err
	}

	j.Kind = Kind(kind)
	j.Status = Status(status)
	if inputs.Valid && inputs.String != "" {
		if err := json.Unmarshal([]byte(inputs.String), &j.Inputs); err != nil {
			return nil, fmt.Errorf("decode inputs: %w", err)
		}
	}
	if result.Valid {
		j.Result = &result.String
	}
	if errMsg.Valid {
		j.Error = &errMsg.String
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
		j.CreatedAt = t
	}
	j.StartedAt = parseNullTime(startedAtS)
	j.CompletedAt = parseNullTime(completedAtS)
	return &j, nil
}

func parseNullTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil
	}
	return &t
}
