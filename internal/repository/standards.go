package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/joseph-ayodele/bid-docs/internal/common"
)

// Standard is a registered specification document.
type Standard struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	StoredPath string    `json:"stored_path"`
	FileHash   string    `json:"file_hash"`
	FileSize   int64     `json:"file_size"`
	Preview    string    `json:"preview"`
	CreatedAt  time.Time `json:"created_at"`
}

type StandardRepository interface {
	Create(ctx context.Context, s *Standard) error
	GetByID(ctx context.Context, id uuid.UUID) (*Standard, error)
	GetByHash(ctx context.Context, hash string) (*Standard, error)
	GetByCode(ctx context.Context, code string) (*Standard, error)
	List(ctx context.Context, category string) ([]*Standard, error)
	Search(ctx context.Context, keyword string) ([]*Standard, error)
	CountByCategory(ctx context.Context) (map[string]int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type standardRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewStandardRepository(db *DB, logger *slog.Logger) StandardRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &standardRepo{
		db:     db,
		logger: logger,
	}
}

const standardColumns = `id, code, name, category, file_name, file_type, stored_path, file_hash, file_size, preview, created_at`

func (r *standardRepo) Create(ctx context.Context, s *Standard) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	q := r.db.rebind(`INSERT INTO standards (` + standardColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.SQL.ExecContext(ctx, q,
		s.ID.String(), s.Code, s.Name, s.Category, s.FileName, s.FileType,
		s.StoredPath, s.FileHash, s.FileSize, s.Preview, s.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: standard %s", common.ErrDuplicate, s.Code)
		}
		r.logger.Error("failed to create standard", "code", s.Code, "file_name", s.FileName, "error", err)
		return fmt.Errorf("%w: insert standard: %v", common.ErrDatabase, err)
	}
	return nil
}

func (r *standardRepo) GetByID(ctx context.Context, id uuid.UUID) (*Standard, error) {
	return r.getOne(ctx, "id", id.String())
}

func (r *standardRepo) GetByHash(ctx context.Context, hash string) (*Standard, error) {
	return r.getOne(ctx, "file_hash", hash)
}

func (r *standardRepo) GetByCode(ctx context.Context, code string) (*Standard, error) {
	return r.getOne(ctx, "code", code)
}

func (r *standardRepo) getOne(ctx context.Context, column, value string) (*Standard, error) {
	q := r.db.rebind(`SELECT ` + standardColumns + ` FROM standards WHERE ` + column + ` = ?`)
	s, err := scanStandard(r.db.SQL.QueryRowContext(ctx, q, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: standard %s=%s", common.ErrNotFound, column, value)
	}
	if err != nil {
		r.logger.Error("failed to get standard", column, value, "error", err)
		return nil, fmt.Errorf("%w: get standard: %v", common.ErrDatabase, err)
	}
	return s, nil
}

// List returns standards ordered by code. An empty category (or the
// all-categories label handled by callers) lists everything.
func (r *standardRepo) List(ctx context.Context, category string) ([]*Standard, error) {
	q := `SELECT ` + standardColumns + ` FROM standards`
	var args []any
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY code`

	return r.query(ctx, q, args...)
}

// Search matches keyword against code and name.
func (r *standardRepo) Search(ctx context.Context, keyword string) ([]*Standard, error) {
	like := "%" + keyword + "%"
	q := `SELECT ` + standardColumns + ` FROM standards WHERE code LIKE ? OR name LIKE ? ORDER BY code`
	return r.query(ctx, q, like, like)
}

func (r *standardRepo) CountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `SELECT category, COUNT(*) FROM standards GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("%w: count standards: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("%w: scan count: %v", common.ErrDatabase, err)
		}
		out[cat] = n
	}
	return out, rows.Err()
}

func (r *standardRepo) query(ctx context.Context, q string, args ...any) ([]*Standard, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		r.logger.Error("failed to query standards", "error", err)
		return nil, fmt.Errorf("%w: query standards: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*Standard
	for rows.Next() {
		s, err := scanStandard(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan standard: %v", common.ErrDatabase, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query standards: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *standardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.SQL.ExecContext(ctx, r.db.rebind(`DELETE FROM standards WHERE id = ?`), id.String())
	if err != nil {
		r.logger.Error("failed to delete standard", "id", id, "error", err)
		return fmt.Errorf("%w: delete standard: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: standard %s", common.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStandard(row rowScanner) (*Standard, error) {
	var (
		s         Standard
		id        string
		createdAt string
	)
	if err := row.Scan(&id, &s.Code, &s.Name, &s.Category, &s.FileName, &s.FileType,
		&s.StoredPath, &s.FileHash, &s.FileSize, &s.Preview, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad id %q: %w", id, err)
	}
	s.ID = parsed
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		s.CreatedAt = t
	}
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
