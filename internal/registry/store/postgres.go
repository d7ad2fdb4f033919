package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"deedledger/internal/registry/models"
	"deedledger/pkg/domain"
	"deedledger/pkg/platform/sentinel"
	txcontext "deedledger/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres persists registry records. The primary key on property_id is the
// uniqueness commit point; racing creations resolve in the database.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, record *models.PropertyRecord) error {
	query := `
		INSERT INTO property_records (property_id, artifact_id, artifact_kind, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.PropertyID.String(),
		record.ArtifactID.String(),
		record.Kind.String(),
		record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("property %s: %w", record.PropertyID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert property record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, propertyID domain.PropertyID) (*models.PropertyRecord, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT property_id, artifact_id, artifact_kind, created_at
		FROM property_records WHERE property_id = $1
	`, propertyID.String())
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("property %s: %w", propertyID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find property record: %w", err)
	}
	return record, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.PropertyRecord, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT property_id, artifact_id, artifact_kind, created_at
		FROM property_records ORDER BY created_at, property_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list property records: %w", err)
	}
	defer rows.Close()

	var records []*models.PropertyRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate property records: %w", err)
	}
	return records, nil
}

func (s *Postgres) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM property_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count property records: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.PropertyRecord, error) {
	var (
		rawPropertyID, rawArtifactID, rawKind string
		createdAt                             time.Time
	)
	if err := row.Scan(&rawPropertyID, &rawArtifactID, &rawKind, &createdAt); err != nil {
		return nil, err
	}
	artifactID, err := domain.ParseArtifactID(rawArtifactID)
	if err != nil {
		return nil, fmt.Errorf("stored artifact id: %w", err)
	}
	kind, err := domain.ParseArtifactKind(rawKind)
	if err != nil {
		return nil, fmt.Errorf("stored artifact kind: %w", err)
	}
	return &models.PropertyRecord{
		PropertyID: domain.PropertyID(rawPropertyID),
		ArtifactID: artifactID,
		Kind:       kind,
		CreatedAt:  createdAt,
	}, nil
}
