package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/provgate/internal/registry"
	"github.com/leapstack-labs/provgate/internal/testutil"
	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
	_ "github.com/leapstack-labs/provgate/pkg/gate/rules"
)

func newTestServer(t *testing.T) (*Server, *testutil.FakeStore, *registry.StaticRegistry) {
	t.Helper()
	store := testutil.NewFakeStore()
	reg := registry.NewStaticRegistry()

	g, err := gate.New(store, reg, gate.DefaultConfig(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	srv := NewServer(Config{
		Store:    store,
		Registry: reg,
		Gate:     g,
		Addr:     ":0",
	})
	return srv, store, reg
}

func doRequest(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestValidateUnknownModel(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/models/ghost/validate")

	// The gate always produces a report; missing metadata shows up as
	// failed checks, not as an HTTP error.
	assert.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[core.ComplianceReport](t, rec)
	assert.Equal(t, "ghost", report.ModelID)
	assert.False(t, report.CanDeploy)
	assert.NotEmpty(t, report.Failures)
}

func TestValidateUsesRegisteredTier(t *testing.T) {
	srv, _, reg := newTestServer(t)
	reg.Register(&core.ModelMetadata{ModelID: "triage-assist", RiskLevel: core.RiskLimited})

	// No tier param: the model's registered risk level drives rule selection.
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/models/triage-assist/validate")
	assert.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[core.ComplianceReport](t, rec)
	assert.Equal(t, core.RiskLimited, report.RiskTier)
	assert.Equal(t, 3, report.ChecksRun)

	// An explicit tier still overrides the registered one.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/models/triage-assist/validate?tier=high")
	report = decodeBody[core.ComplianceReport](t, rec)
	assert.Equal(t, core.RiskHigh, report.RiskTier)
	assert.Equal(t, 7, report.ChecksRun)
}

func TestValidateMinimalTier(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/models/ghost/validate?tier=minimal")

	assert.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[core.ComplianceReport](t, rec)
	assert.True(t, report.CanDeploy)
	assert.Zero(t, report.ChecksRun)
}

func TestValidateBadTier(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/models/m1/validate?tier=extreme")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Contains(t, body["error"], "unknown risk tier")
}

func TestGetLineage(t *testing.T) {
	srv, store, _ := newTestServer(t)
	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	store.Lineage["dataset_abc"] = &core.LineageRecord{
		DatasetID:           "dataset_abc",
		SourceSystems:       []string{"warehouse"},
		ExtractionTimestamp: at,
		Pipeline: []core.Step{
			{Name: "extraction", Timestamp: at, OutputHash: "aaa"},
		},
		ContentHash: "aaa",
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/lineage/dataset_abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[core.LineageRecord](t, rec)
	assert.Equal(t, "dataset_abc", got.DatasetID)
	assert.Len(t, got.Pipeline, 1)
}

func TestGetLineageNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/lineage/ghost")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "unknown dataset: ghost", body["error"])
}

func TestVerifyLineage(t *testing.T) {
	srv, store, _ := newTestServer(t)
	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	store.Lineage["good"] = &core.LineageRecord{
		DatasetID:           "good",
		ExtractionTimestamp: at,
		Pipeline: []core.Step{
			{Name: "extraction", Timestamp: at, OutputHash: "aaa"},
			{Name: "clean", Timestamp: at.Add(time.Minute), InputHash: "aaa", OutputHash: "bbb"},
		},
		ContentHash: "bbb",
	}
	store.Lineage["tampered"] = &core.LineageRecord{
		DatasetID:           "tampered",
		ExtractionTimestamp: at,
		Pipeline: []core.Step{
			{Name: "extraction", Timestamp: at, OutputHash: "aaa"},
			{Name: "clean", Timestamp: at.Add(time.Minute), InputHash: "zzz", OutputHash: "bbb"},
		},
		ContentHash: "bbb",
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/lineage/good/verify")
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[verifyResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Error)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/lineage/tampered/verify")
	assert.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[verifyResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Error, "broken chain")
}

func TestListRules(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rules?tier=high")
	assert.Equal(t, http.StatusOK, rec.Code)
	infos := decodeBody[[]gate.RuleInfo](t, rec)
	assert.Len(t, infos, 7)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/rules?tier=limited")
	infos = decodeBody[[]gate.RuleInfo](t, rec)
	assert.Len(t, infos, 3)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/rules?tier=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditLog(t *testing.T) {
	srv, store, _ := newTestServer(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		store.Audit = append(store.Audit, &core.AuditEntry{
			ID:        "e" + string(rune('0'+i)),
			EventType: core.EventComplianceValidation,
			ModelID:   "m1",
			Timestamp: at.Add(time.Duration(i) * time.Hour),
		})
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/models/m1/audit?limit=2")
	assert.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody[[]*core.AuditEntry](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "e2", entries[0].ID)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/models/m1/audit?limit=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
