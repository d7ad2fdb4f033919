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
	"github.com/stretchr/testify/suite"

	artifactstore "deedledger/internal/artifact/store"
	"deedledger/internal/events"
	"deedledger/internal/ledger"
	"deedledger/internal/registry/service"
	registrystore "deedledger/internal/registry/store"
	"deedledger/pkg/domain"
	"deedledger/pkg/requestcontext"
)

const (
	authority    = domain.Address("authority")
	registryAddr = domain.Address("registry")
)

type RegistryHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestRegistryHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistryHandlerSuite))
}

func (s *RegistryHandlerSuite) SetupTest() {
	svc := service.New(
		registrystore.NewInMemory(),
		artifactstore.NewInMemory(),
		ledger.NewInMemoryFungibleLedger(),
		events.NewInMemoryPublisher(),
		authority,
		registryAddr,
	)
	h := New(svc, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.router = chi.NewRouter()
	h.RegisterWrites(s.router)
	h.RegisterReads(s.router)
}

func (s *RegistryHandlerSuite) do(method, path string, body any, actor domain.Address) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	if !actor.IsNil() {
		ctx = requestcontext.WithActor(ctx, actor)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func (s *RegistryHandlerSuite) divisibleBody(propertyID string) map[string]any {
	return map[string]any{
		"property_id":  propertyID,
		"name":         "Harbor House",
		"symbol":       "HH",
		"total_supply": 1000,
		"issuer":       "issuer-1",
		"valuation":    "500000",
		"details_ref":  "ipfs://details",
	}
}

func (s *RegistryHandlerSuite) TestCreateDivisible() {
	s.Run("created", func() {
		rec := s.do(http.MethodPost, "/registry/properties/divisible", s.divisibleBody("P-100"), authority)
		s.Require().Equal(http.StatusCreated, rec.Code)

		var resp CreateResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("P-100", resp.Property.PropertyID)
		s.Equal("divisible", resp.Property.Kind)
		s.Equal("authority", resp.Artifact.Administrator)
		s.Equal(uint64(1000), resp.Artifact.TotalSupply)
	})

	s.Run("duplicate property id conflicts", func() {
		rec := s.do(http.MethodPost, "/registry/properties/divisible", s.divisibleBody("P-100"), authority)
		s.Equal(http.StatusConflict, rec.Code)

		var resp map[string]string
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("duplicate_property", resp["error"])
	})

	s.Run("non-authority caller is forbidden", func() {
		rec := s.do(http.MethodPost, "/registry/properties/divisible", s.divisibleBody("P-101"), "intruder")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("missing property id is a bad request", func() {
		body := s.divisibleBody("")
		rec := s.do(http.MethodPost, "/registry/properties/divisible", body, authority)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed JSON is a bad request", func() {
		req := httptest.NewRequest(http.MethodPost, "/registry/properties/divisible", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req.WithContext(requestcontext.WithActor(context.Background(), authority)))
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *RegistryHandlerSuite) TestCreateUnit() {
	body := map[string]any{
		"property_id":       "P-200",
		"name":              "Dock Berths",
		"symbol":            "DB",
		"max_supply":        3,
		"issuer":            "issuer-1",
		"valuation":         "90000",
		"base_metadata_uri": "https://meta.example/",
	}
	rec := s.do(http.MethodPost, "/registry/properties/unit", body, authority)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var resp CreateResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal("unit", resp.Property.Kind)
	// Administration was delegated during creation.
	s.Equal("authority", resp.Artifact.Administrator)
	s.Equal(uint64(3), resp.Artifact.MaxSupply)
}

func (s *RegistryHandlerSuite) TestLookup() {
	s.Run("missing property is not found", func() {
		rec := s.do(http.MethodGet, "/registry/properties/nope", nil, "")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("registered property resolves", func() {
		created := s.do(http.MethodPost, "/registry/properties/divisible", s.divisibleBody("P-300"), authority)
		s.Require().Equal(http.StatusCreated, created.Code)

		rec := s.do(http.MethodGet, "/registry/properties/P-300", nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp PropertyResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("P-300", resp.PropertyID)
	})
}

func (s *RegistryHandlerSuite) TestListAndCount() {
	for _, id := range []string{"P-1", "P-2"} {
		rec := s.do(http.MethodPost, "/registry/properties/divisible", s.divisibleBody(id), authority)
		s.Require().Equal(http.StatusCreated, rec.Code)
	}

	s.Run("list returns registration order", func() {
		rec := s.do(http.MethodGet, "/registry/properties", nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp ListResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Require().Equal(2, resp.Count)
		s.Equal("P-1", resp.Properties[0].PropertyID)
		s.Equal("P-2", resp.Properties[1].PropertyID)
	})

	s.Run("count matches", func() {
		rec := s.do(http.MethodGet, "/registry/count", nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp CountResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(int64(2), resp.Count)
	})
}
