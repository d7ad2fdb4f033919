package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"deedledger/internal/artifact/models"
	"deedledger/internal/artifact/service"
	"deedledger/internal/artifact/store"
	"deedledger/internal/events"
	"deedledger/internal/ledger"
	"deedledger/pkg/domain"
	"deedledger/pkg/requestcontext"
)

const admin = domain.Address("authority")

type ArtifactHandlerSuite struct {
	suite.Suite
	artifacts *store.InMemory
	router    chi.Router
	now       time.Time
}

func TestArtifactHandlerSuite(t *testing.T) {
	suite.Run(t, new(ArtifactHandlerSuite))
}

func (s *ArtifactHandlerSuite) SetupTest() {
	s.artifacts = store.NewInMemory()
	s.now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	svc := service.New(s.artifacts, ledger.NewInMemoryUnitLedger(), events.NewInMemoryPublisher())
	h := New(svc, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.router = chi.NewRouter()
	h.RegisterWrites(s.router)
	h.RegisterReads(s.router)
}

func (s *ArtifactHandlerSuite) seedUnit(maxSupply uint64) domain.ArtifactID {
	artifact, err := models.NewUnit(domain.NewArtifactID(), "prop-1", "Dock Berths", "DB",
		maxSupply, "issuer-1", uint256.NewInt(90_000), "ipfs://details", "https://meta.example/", admin, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.artifacts.Create(context.Background(), artifact))
	return artifact.ID
}

func (s *ArtifactHandlerSuite) do(method, path string, body any, actor domain.Address) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	ctx := requestcontext.WithTime(context.Background(), s.now)
	if !actor.IsNil() {
		ctx = requestcontext.WithActor(ctx, actor)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func (s *ArtifactHandlerSuite) TestMintOne() {
	s.Run("mints the next unit", func() {
		id := s.seedUnit(2)
		rec := s.do(http.MethodPost, "/artifacts/"+id.String()+"/mint", map[string]any{"to": "investor-1"}, admin)
		s.Require().Equal(http.StatusCreated, rec.Code)

		var resp MintResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal([]uint64{0}, resp.UnitIDs)
	})

	s.Run("capacity exhaustion conflicts", func() {
		id := s.seedUnit(1)
		body := map[string]any{"to": "investor-1"}
		s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/artifacts/"+id.String()+"/mint", body, admin).Code)

		rec := s.do(http.MethodPost, "/artifacts/"+id.String()+"/mint", body, admin)
		s.Equal(http.StatusConflict, rec.Code)

		var resp map[string]string
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("capacity_exceeded", resp["error"])
	})

	s.Run("non-administrator is forbidden", func() {
		id := s.seedUnit(1)
		rec := s.do(http.MethodPost, "/artifacts/"+id.String()+"/mint", map[string]any{"to": "investor-1"}, "intruder")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("invalid artifact id is a bad request", func() {
		rec := s.do(http.MethodPost, "/artifacts/not-a-uuid/mint", map[string]any{"to": "investor-1"}, admin)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown artifact is not found", func() {
		rec := s.do(http.MethodPost, "/artifacts/"+domain.NewArtifactID().String()+"/mint", map[string]any{"to": "investor-1"}, admin)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *ArtifactHandlerSuite) TestMintBatch() {
	s.Run("mints a contiguous range", func() {
		id := s.seedUnit(5)
		rec := s.do(http.MethodPost, "/artifacts/"+id.String()+"/mint-batch",
			map[string]any{"to": "investor-1", "count": 3}, admin)
		s.Require().Equal(http.StatusCreated, rec.Code)

		var resp MintResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal([]uint64{0, 1, 2}, resp.UnitIDs)
	})

	s.Run("zero count is a bad request", func() {
		id := s.seedUnit(5)
		rec := s.do(http.MethodPost, "/artifacts/"+id.String()+"/mint-batch",
			map[string]any{"to": "investor-1", "count": 0}, admin)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("oversized batch conflicts and mints nothing", func() {
		id := s.seedUnit(2)
		rec := s.do(http.MethodPost, "/artifacts/"+id.String()+"/mint-batch",
			map[string]any{"to": "investor-1", "count": 3}, admin)
		s.Equal(http.StatusConflict, rec.Code)

		get := s.do(http.MethodGet, "/artifacts/"+id.String(), nil, "")
		s.Require().Equal(http.StatusOK, get.Code)
		var artifact ArtifactResponse
		s.Require().NoError(json.NewDecoder(get.Body).Decode(&artifact))
		s.Equal(uint64(0), artifact.Issued)
	})
}

func (s *ArtifactHandlerSuite) TestGet() {
	id := s.seedUnit(3)
	rec := s.do(http.MethodGet, "/artifacts/"+id.String(), nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ArtifactResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal(id.String(), resp.ID)
	s.Equal("unit", resp.Kind)
	s.Equal(uint64(3), resp.MaxSupply)
}

func (s *ArtifactHandlerSuite) TestTransferAdministration() {
	id := s.seedUnit(3)
	rec := s.do(http.MethodPost, "/artifacts/"+id.String()+"/administrator",
		map[string]any{"to": "successor"}, admin)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ArtifactResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal("successor", resp.Administrator)
}

func (s *ArtifactHandlerSuite) TestUnitMetadataURI() {
	id := s.seedUnit(3)
	s.Require().Equal(http.StatusCreated,
		s.do(http.MethodPost, "/artifacts/"+id.String()+"/mint", map[string]any{"to": "investor-1"}, admin).Code)

	rec := s.do(http.MethodGet, "/artifacts/"+id.String()+"/units/0/metadata-uri", nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp MetadataURIResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal("https://meta.example/0", resp.URI)
}
