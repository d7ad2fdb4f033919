// Package service orchestrates artifact administration and minting. Every
// privileged operation starts with an explicit capability check against the
// artifact's stored administrator; transport-level authentication only
// establishes who the caller is.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	artifactmetrics "deedledger/internal/artifact/metrics"
	"deedledger/internal/artifact/models"
	"deedledger/internal/artifact/store"
	"deedledger/internal/events"
	"deedledger/internal/ledger"
	"deedledger/pkg/domain"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/sentinel"
	txcontext "deedledger/pkg/platform/tx"
	"deedledger/pkg/requestcontext"
)

// maxBatchMint bounds a single batch request. It caps the allocation buffer
// and the per-unit event fan-out; it is not a supply limit — larger runs are
// several requests.
const maxBatchMint = 1000

// Service exposes artifact operations.
type Service struct {
	artifacts store.Store
	units     ledger.UnitLedger
	publisher events.Publisher
	txRunner  txcontext.Runner
	metrics   *artifactmetrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *artifactmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets a logger for operational reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTxRunner sets the transaction boundary for mutate-then-notify
// operations.
func WithTxRunner(runner txcontext.Runner) Option {
	return func(s *Service) { s.txRunner = runner }
}

func New(artifacts store.Store, units ledger.UnitLedger, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		artifacts: artifacts,
		units:     units,
		publisher: publisher,
		txRunner:  txcontext.NoopRunner{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("deedledger/artifact"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the artifact's current state.
func (s *Service) Get(ctx context.Context, artifactID domain.ArtifactID) (*models.Artifact, error) {
	artifact, err := s.artifacts.FindByID(ctx, artifactID)
	if err != nil {
		return nil, wrapArtifactErr(err)
	}
	return artifact, nil
}

// MintOne allocates the next unit identifier and assigns it to the holder.
// Administrator-only. Capacity exhaustion propagates to the caller.
func (s *Service) MintOne(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, to domain.Address) (uint64, error) {
	ids, err := s.mint(ctx, caller, artifactID, to, 1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// MintBatch allocates count consecutive unit identifiers and assigns each to
// the holder. All-or-nothing: if the batch does not fit under the cap, no
// identifier is allocated and the issued count is unchanged.
func (s *Service) MintBatch(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, to domain.Address, count uint64) ([]uint64, error) {
	return s.mint(ctx, caller, artifactID, to, count)
}

func (s *Service) mint(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, to domain.Address, count uint64) ([]uint64, error) {
	ctx, span := s.tracer.Start(ctx, "artifact.Mint")
	defer span.End()
	start := time.Now()

	if to.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "mint recipient is required")
	}
	if count > maxBatchMint {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("batch size exceeds the per-request limit of %d", maxBatchMint))
	}

	now := requestcontext.Now(ctx)
	var first uint64
	// The whole range is allocated in one atomic store step; assignment and
	// notification happen after the committed allocation, per unit, in order.
	artifact, err := s.artifacts.Execute(ctx, artifactID,
		func(a *models.Artifact) error {
			if err := a.RequireAdministrator(caller); err != nil {
				return err
			}
			return a.CanAllocate(count)
		},
		func(a *models.Artifact) {
			first = a.ApplyAllocate(count, now)
		},
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeCapacityExceeded) {
			s.incCapacityRejections()
		}
		return nil, wrapArtifactErr(err)
	}

	unitIDs := make([]uint64, count)
	for i := range unitIDs {
		unitIDs[i] = first + uint64(i)
	}

	for _, unitID := range unitIDs {
		// A committed allocation is never rolled back; a fresh identifier can
		// only fail assignment if the ledger itself is broken.
		if err := s.units.Assign(ctx, artifact.ID, to, unitID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal,
				fmt.Sprintf("assign unit %d", unitID))
		}
		if err := s.publisher.Publish(ctx, events.NewUnitMinted(now, artifact.ID, to, unitID)); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "publish unit minted")
		}
	}

	s.logger.InfoContext(ctx, "units minted",
		"artifact_id", artifact.ID.String(),
		"to", to.String(),
		"first_unit", first,
		"count", count,
	)
	s.addUnitsMinted(count)
	s.observeMint(start)
	return unitIDs, nil
}

// UpdateDetails replaces the artifact's off-chain details reference.
// Administrator-only; constant-size effect, no supply impact.
func (s *Service) UpdateDetails(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, detailsRef string) (*models.Artifact, error) {
	ctx, span := s.tracer.Start(ctx, "artifact.UpdateDetails")
	defer span.End()

	now := requestcontext.Now(ctx)
	var artifact *models.Artifact
	// Update and notification commit together; a publish failure reverts the
	// stored reference.
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := s.artifacts.Execute(ctx, artifactID,
			func(a *models.Artifact) error {
				return a.RequireAdministrator(caller)
			},
			func(a *models.Artifact) {
				a.ApplyDetailsUpdate(detailsRef, now)
			},
		)
		if err != nil {
			return err
		}
		artifact = updated
		if err := s.publisher.Publish(ctx, events.NewDetailsUpdated(now, artifact.ID, detailsRef)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "publish details updated")
		}
		return nil
	})
	if err != nil {
		return nil, wrapArtifactErr(err)
	}
	return artifact, nil
}

// SetBaseMetadataURI replaces the unit metadata URI prefix.
// Administrator-only; unit artifacts only.
func (s *Service) SetBaseMetadataURI(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, baseURI string) (*models.Artifact, error) {
	ctx, span := s.tracer.Start(ctx, "artifact.SetBaseMetadataURI")
	defer span.End()

	now := requestcontext.Now(ctx)
	artifact, err := s.artifacts.Execute(ctx, artifactID,
		func(a *models.Artifact) error {
			if err := a.RequireAdministrator(caller); err != nil {
				return err
			}
			return a.CanSetBaseMetadataURI()
		},
		func(a *models.Artifact) {
			a.ApplyBaseMetadataURI(baseURI, now)
		},
	)
	if err != nil {
		return nil, wrapArtifactErr(err)
	}
	return artifact, nil
}

// TransferAdministration hands control of the artifact to a new
// administrator. Only the current administrator may initiate it.
func (s *Service) TransferAdministration(ctx context.Context, caller domain.Address, artifactID domain.ArtifactID, to domain.Address) (*models.Artifact, error) {
	ctx, span := s.tracer.Start(ctx, "artifact.TransferAdministration")
	defer span.End()

	now := requestcontext.Now(ctx)
	var artifact *models.Artifact
	// Hand-off and notification commit together; a publish failure leaves the
	// current administrator in place.
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := s.artifacts.Execute(ctx, artifactID,
			func(a *models.Artifact) error {
				if err := a.RequireAdministrator(caller); err != nil {
					return err
				}
				return a.CanTransferAdministration(to)
			},
			func(a *models.Artifact) {
				a.ApplyTransferAdministration(to, now)
			},
		)
		if err != nil {
			return err
		}
		artifact = updated
		if err := s.publisher.Publish(ctx, events.NewAdministrationTransferred(now, artifact.ID, caller, to)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "publish administration transferred")
		}
		return nil
	})
	if err != nil {
		return nil, wrapArtifactErr(err)
	}
	s.incAdministrationTransfers()
	return artifact, nil
}

// UnitMetadataURI resolves the metadata pointer for an assigned unit.
func (s *Service) UnitMetadataURI(ctx context.Context, artifactID domain.ArtifactID, unitID uint64) (string, error) {
	artifact, err := s.artifacts.FindByID(ctx, artifactID)
	if err != nil {
		return "", wrapArtifactErr(err)
	}
	if _, err := s.units.OwnerOf(ctx, artifactID, unitID); err != nil {
		return "", wrapArtifactErr(err)
	}
	return fmt.Sprintf("%s%d", artifact.BaseMetadataURI, unitID), nil
}

func wrapArtifactErr(err error) error {
	switch {
	case err == nil:
		return nil
	case dErrors.HasCode(err, dErrors.CodeCapacityExceeded),
		dErrors.HasCode(err, dErrors.CodeUnauthorized),
		dErrors.HasCode(err, dErrors.CodeValidation),
		dErrors.HasCode(err, dErrors.CodeInvariantViolation),
		dErrors.HasCode(err, dErrors.CodeInternal):
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "artifact not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "artifact operation failed")
}

func (s *Service) addUnitsMinted(n uint64) {
	if s.metrics != nil {
		s.metrics.AddUnitsMinted(n)
	}
}

func (s *Service) incCapacityRejections() {
	if s.metrics != nil {
		s.metrics.IncCapacityRejections()
	}
}

func (s *Service) incAdministrationTransfers() {
	if s.metrics != nil {
		s.metrics.IncAdministrationTransfers()
	}
}

func (s *Service) observeMint(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveMint(start)
	}
}
