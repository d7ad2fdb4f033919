// Package service orchestrates property registration. Registration is a
// single conceptual step: deploy the artifact, bind the property id to it,
// and announce both. Only the configured authority may register.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"deedledger/internal/artifact/models"
	artifactstore "deedledger/internal/artifact/store"
	"deedledger/internal/events"
	"deedledger/internal/ledger"
	registrymetrics "deedledger/internal/registry/metrics"
	registrymodels "deedledger/internal/registry/models"
	"deedledger/internal/registry/store"
	"deedledger/pkg/domain"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/sentinel"
	txcontext "deedledger/pkg/platform/tx"
	"deedledger/pkg/requestcontext"
)

// Service exposes registry operations.
type Service struct {
	records   store.Store
	artifacts artifactstore.Store
	fungible  ledger.FungibleLedger
	publisher events.Publisher
	txRunner  txcontext.Runner
	metrics   *registrymetrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer

	// authority is the only address allowed to register properties, and the
	// administrator every new artifact ends up delegated to.
	authority domain.Address

	// registryAddr is the address unit artifacts are constructed under before
	// administration is handed to the authority.
	registryAddr domain.Address
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets a logger for operational reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTxRunner sets the transaction boundary for multi-store writes.
func WithTxRunner(runner txcontext.Runner) Option {
	return func(s *Service) { s.txRunner = runner }
}

func New(records store.Store, artifacts artifactstore.Store, fungible ledger.FungibleLedger, publisher events.Publisher, authority, registryAddr domain.Address, opts ...Option) *Service {
	s := &Service{
		records:      records,
		artifacts:    artifacts,
		fungible:     fungible,
		publisher:    publisher,
		txRunner:     txcontext.NoopRunner{},
		logger:       slog.Default(),
		tracer:       otel.Tracer("deedledger/registry"),
		authority:    authority,
		registryAddr: registryAddr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDivisibleParams carries the raw inputs for registering a property
// backed by a divisible artifact.
type CreateDivisibleParams struct {
	PropertyID  string
	Name        string
	Symbol      string
	TotalSupply uint64
	Issuer      string
	Valuation   string
	DetailsRef  string
}

// CreateUnitParams carries the raw inputs for registering a property backed
// by a unit artifact.
type CreateUnitParams struct {
	PropertyID      string
	Name            string
	Symbol          string
	MaxSupply       uint64
	Issuer          string
	Valuation       string
	DetailsRef      string
	BaseMetadataURI string
}

// CreateDivisible registers a property backed by a divisible artifact.
// The full scaled supply is credited to the authority at creation; the
// property id is bound atomically with the artifact record.
func (s *Service) CreateDivisible(ctx context.Context, caller domain.Address, params CreateDivisibleParams) (*registrymodels.PropertyRecord, *models.Artifact, error) {
	ctx, span := s.tracer.Start(ctx, "registry.CreateDivisible")
	defer span.End()
	start := time.Now()

	if err := s.requireAuthority(caller); err != nil {
		return nil, nil, err
	}
	propertyID, issuer, valuation, err := parseCreateCommon(params.PropertyID, params.Issuer, params.Valuation)
	if err != nil {
		return nil, nil, err
	}

	now := requestcontext.Now(ctx)
	artifact, err := models.NewDivisible(domain.NewArtifactID(), propertyID, params.Name, params.Symbol,
		params.TotalSupply, issuer, valuation, params.DetailsRef, s.authority, now)
	if err != nil {
		return nil, nil, err
	}
	record, err := registrymodels.NewPropertyRecord(propertyID, artifact.ID, artifact.Kind, now)
	if err != nil {
		return nil, nil, err
	}

	err = s.commit(ctx, record, artifact, func(ctx context.Context) error {
		// The authority administers the artifact and holds the entire supply.
		if err := s.fungible.MintInitial(ctx, artifact.ID, s.authority, artifact.ScaledInitialSupply()); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "credit initial supply")
		}
		return s.announceCreation(ctx, now, record, artifact, nil)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "property registered",
		"property_id", propertyID.String(),
		"artifact_id", artifact.ID.String(),
		"kind", artifact.Kind.String(),
		"total_supply", params.TotalSupply,
	)
	s.recordCreated(domain.KindDivisible, start)
	return record, artifact, nil
}

// CreateUnit registers a property backed by a unit artifact. The artifact is
// constructed under the registry's own address and administration is then
// handed to the authority as a second, explicit step.
func (s *Service) CreateUnit(ctx context.Context, caller domain.Address, params CreateUnitParams) (*registrymodels.PropertyRecord, *models.Artifact, error) {
	ctx, span := s.tracer.Start(ctx, "registry.CreateUnit")
	defer span.End()
	start := time.Now()

	if err := s.requireAuthority(caller); err != nil {
		return nil, nil, err
	}
	propertyID, issuer, valuation, err := parseCreateCommon(params.PropertyID, params.Issuer, params.Valuation)
	if err != nil {
		return nil, nil, err
	}

	now := requestcontext.Now(ctx)
	artifact, err := models.NewUnit(domain.NewArtifactID(), propertyID, params.Name, params.Symbol,
		params.MaxSupply, issuer, valuation, params.DetailsRef, params.BaseMetadataURI, s.registryAddr, now)
	if err != nil {
		return nil, nil, err
	}
	record, err := registrymodels.NewPropertyRecord(propertyID, artifact.ID, artifact.Kind, now)
	if err != nil {
		return nil, nil, err
	}

	err = s.commit(ctx, record, artifact, func(ctx context.Context) error {
		// Delegation step: the registry constructed the artifact, the
		// authority administers it from here on.
		delegated, err := s.artifacts.Execute(ctx, artifact.ID,
			func(a *models.Artifact) error {
				if err := a.RequireAdministrator(s.registryAddr); err != nil {
					return err
				}
				return a.CanTransferAdministration(s.authority)
			},
			func(a *models.Artifact) {
				a.ApplyTransferAdministration(s.authority, now)
			},
		)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delegate administration")
		}
		artifact = delegated

		transferred := events.NewAdministrationTransferred(now, artifact.ID, s.registryAddr, s.authority)
		return s.announceCreation(ctx, now, record, artifact, &transferred)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "property registered",
		"property_id", propertyID.String(),
		"artifact_id", artifact.ID.String(),
		"kind", artifact.Kind.String(),
		"max_supply", params.MaxSupply,
	)
	s.recordCreated(domain.KindUnit, start)
	return record, artifact, nil
}

// Lookup resolves a property id to its registry record.
func (s *Service) Lookup(ctx context.Context, propertyID domain.PropertyID) (*registrymodels.PropertyRecord, error) {
	start := time.Now()
	record, err := s.records.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "lookup property")
	}
	s.observeLookup(start)
	return record, nil
}

// List enumerates all records in registration order.
func (s *Service) List(ctx context.Context) ([]*registrymodels.PropertyRecord, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list properties")
	}
	return records, nil
}

// Count returns the number of registered properties.
func (s *Service) Count(ctx context.Context) (int64, error) {
	count, err := s.records.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "count properties")
	}
	return count, nil
}

// commit runs the whole registration inside one transaction boundary: bind
// the property id, persist the artifact, then the remaining steps (supply
// credit, delegation, notifications). Any failure aborts the registration
// with no partial state: SQL stores roll the transaction back, in-memory
// collaborators unwind their compensations. The record insert is the
// uniqueness commit point: a duplicate property id fails there and nothing
// else happens.
func (s *Service) commit(ctx context.Context, record *registrymodels.PropertyRecord, artifact *models.Artifact, then func(ctx context.Context) error) error {
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.records.Create(ctx, record); err != nil {
			return err
		}
		if err := s.artifacts.Create(ctx, artifact); err != nil {
			return err
		}
		return then(ctx)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeDuplicateProperty, "property id is already registered")
	default:
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist registration")
	}
}

// announceCreation publishes the creation events in order: ArtifactCreated,
// then the optional delegation hand-off, then RegistryEntryCreated last, once
// the registration is fully in effect.
func (s *Service) announceCreation(ctx context.Context, now time.Time, record *registrymodels.PropertyRecord, artifact *models.Artifact, transferred *events.Event) error {
	created := events.NewArtifactCreated(now, record.PropertyID, artifact.ID,
		artifact.Issuer, artifact.PrimarySize(), artifact.Valuation.Dec())
	if err := s.publisher.Publish(ctx, created); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "publish artifact created")
	}
	if transferred != nil {
		if err := s.publisher.Publish(ctx, *transferred); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "publish administration transferred")
		}
	}
	entry := events.NewRegistryEntryCreated(now, record.PropertyID, artifact.ID, artifact.Kind.String())
	if err := s.publisher.Publish(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "publish registry entry created")
	}
	return nil
}

func (s *Service) requireAuthority(caller domain.Address) error {
	if caller.IsNil() || caller != s.authority {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the registry authority")
	}
	return nil
}

func parseCreateCommon(rawPropertyID, rawIssuer, rawValuation string) (domain.PropertyID, domain.Address, *uint256.Int, error) {
	propertyID, err := domain.ParsePropertyID(rawPropertyID)
	if err != nil {
		return "", "", nil, dErrors.Wrap(err, dErrors.CodeValidation, "property id")
	}
	issuer, err := domain.ParseAddress(rawIssuer)
	if err != nil {
		return "", "", nil, dErrors.Wrap(err, dErrors.CodeValidation, "issuer")
	}
	valuation, err := uint256.FromDecimal(rawValuation)
	if err != nil {
		return "", "", nil, dErrors.New(dErrors.CodeValidation, "valuation must be a decimal integer")
	}
	return propertyID, issuer, valuation, nil
}

func (s *Service) recordCreated(kind domain.ArtifactKind, start time.Time) {
	if s.metrics != nil {
		s.metrics.IncPropertiesCreated(kind.String())
		s.metrics.ObserveCreate(start)
	}
}

func (s *Service) observeLookup(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveLookup(start)
	}
}
