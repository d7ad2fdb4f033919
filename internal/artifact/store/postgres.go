package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/lib/pq"

	"deedledger/internal/artifact/models"
	"deedledger/pkg/domain"
	"deedledger/pkg/platform/sentinel"
	txcontext "deedledger/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres persists artifacts in PostgreSQL. Execute serializes writers with
// SELECT ... FOR UPDATE, giving the same atomic validate-then-apply contract
// as the in-memory store's mutex.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const artifactColumns = `id, property_id, kind, name, symbol, issuer, valuation, details_ref, base_metadata_uri, administrator, total_supply, max_supply, issued, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, artifact *models.Artifact) error {
	query := `
		INSERT INTO artifacts (` + artifactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		artifact.ID.String(),
		artifact.PropertyID.String(),
		artifact.Kind.String(),
		artifact.Name,
		artifact.Symbol,
		artifact.Issuer.String(),
		artifact.Valuation.Dec(),
		artifact.DetailsRef,
		artifact.BaseMetadataURI,
		artifact.Administrator.String(),
		int64(artifact.TotalSupply),
		int64(artifact.MaxSupply()),
		int64(artifact.Issued()),
		artifact.CreatedAt,
		artifact.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("artifact %s: %w", artifact.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ArtifactID) (*models.Artifact, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE id = $1`, id.String())
	artifact, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("artifact %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find artifact: %w", err)
	}
	return artifact, nil
}

func (s *Postgres) Execute(ctx context.Context, id domain.ArtifactID, validate func(*models.Artifact) error, apply func(*models.Artifact)) (*models.Artifact, error) {
	sqlTx, owned, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin artifact tx: %w", err)
	}
	finish := func(err error) error {
		if !owned {
			return err
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				return fmt.Errorf("rollback after %w: %v", err, rbErr)
			}
			return err
		}
		return sqlTx.Commit()
	}

	row := sqlTx.QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE id = $1 FOR UPDATE`, id.String())
	artifact, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("artifact %s: %w", id, sentinel.ErrNotFound)
		} else {
			err = fmt.Errorf("lock artifact: %w", err)
		}
		_ = finish(err)
		return nil, err
	}

	if err := validate(artifact); err != nil {
		// Validation failures are domain errors; the rollback only releases
		// the row lock.
		_ = finish(err)
		return nil, err
	}
	apply(artifact)

	_, err = sqlTx.ExecContext(ctx, `
		UPDATE artifacts
		SET details_ref = $2, base_metadata_uri = $3, administrator = $4, issued = $5, updated_at = $6
		WHERE id = $1
	`,
		artifact.ID.String(),
		artifact.DetailsRef,
		artifact.BaseMetadataURI,
		artifact.Administrator.String(),
		int64(artifact.Issued()),
		artifact.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("update artifact: %w", err)
		_ = finish(err)
		return nil, err
	}
	if err := finish(nil); err != nil {
		return nil, fmt.Errorf("commit artifact tx: %w", err)
	}
	return artifact, nil
}

// begin joins a transaction already carried in context, or opens one of its
// own (owned=true means Execute commits it).
func (s *Postgres) begin(ctx context.Context) (*sql.Tx, bool, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return tx, false, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	return tx, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*models.Artifact, error) {
	var (
		rawID, rawPropertyID, rawKind     string
		name, symbol, rawIssuer           string
		rawValuation, detailsRef, baseURI string
		rawAdministrator                  string
		totalSupply, maxSupply, issued    int64
		createdAt, updatedAt              time.Time
	)
	if err := row.Scan(&rawID, &rawPropertyID, &rawKind, &name, &symbol, &rawIssuer,
		&rawValuation, &detailsRef, &baseURI, &rawAdministrator,
		&totalSupply, &maxSupply, &issued, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := domain.ParseArtifactID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored artifact id: %w", err)
	}
	kind, err := domain.ParseArtifactKind(rawKind)
	if err != nil {
		return nil, fmt.Errorf("stored artifact kind: %w", err)
	}
	valuation, err := uint256.FromDecimal(rawValuation)
	if err != nil {
		return nil, fmt.Errorf("stored valuation: %w", err)
	}

	return models.Restore(
		id,
		domain.PropertyID(rawPropertyID),
		kind,
		name,
		symbol,
		domain.Address(rawIssuer),
		valuation,
		detailsRef,
		baseURI,
		domain.Address(rawAdministrator),
		uint64(totalSupply),
		uint64(maxSupply),
		uint64(issued),
		createdAt,
		updatedAt,
	), nil
}
