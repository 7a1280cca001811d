package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scenario-engine/internal/simulation"
	"scenario-engine/internal/store"
	"scenario-engine/pkg/platform"
)

type failingStore struct{ store.MemoryStore }

func (f *failingStore) Save(context.Context, string, simulation.ScenarioInput) error {
	return errors.New("disk full")
}

func (f *failingStore) Ping(context.Context) error { return errors.New("down") }

func newTestServer(t *testing.T, s store.Store, cfg *Config) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(s, cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, ts
}

func doJSON(t *testing.T, method, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealthAndVersion(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore(), nil)

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected a request id header")
	}
	var health map[string]string
	decode(t, resp, &health)
	if health["status"] != "healthy" || health["version"] != Version {
		t.Fatalf("unexpected health body %v", health)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/ready", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready status = %d", resp.StatusCode)
	}
}

func TestReadyReportsStoreFailure(t *testing.T) {
	_, ts := newTestServer(t, &failingStore{}, nil)
	resp := doJSON(t, http.MethodGet, ts.URL+"/ready", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503", resp.StatusCode)
	}
}

func TestSimulateReferenceScenario(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore(), nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/simulate", `{}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got ScenarioResponse
	decode(t, resp, &got)

	checks := map[string][2]string{
		"metered":   {got.MonthlyMeteredRevenue, "90300.00"},
		"secondary": {got.MonthlySecondaryRevenue, "30960.00"},
		"total":     {got.TotalMonthlyRevenue, "133610.00"},
		"rent":      {got.MonthlyRent, "13541.67"},
		"expense":   {got.TotalMonthlyExpense, "27041.67"},
		"profit":    {got.MonthlyProfit, "106568.33"},
		"breakeven": {got.BreakEvenUtilizationPercent, "5.43"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
	if got.DailyCapacitySessions != 192 || got.DailyRealizedSessions != 86 {
		t.Errorf("sessions = %d/%d, want 192/86", got.DailyCapacitySessions, got.DailyRealizedSessions)
	}
	if got.PolicyResult != "pass" {
		t.Errorf("policy result = %s, want pass", got.PolicyResult)
	}
	if len(got.Drivers) != 7 {
		t.Errorf("drivers = %d, want 7", len(got.Drivers))
	}
}

func TestSimulateOverridesOnlyGivenFields(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore(), nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/simulate", `{"resource_unit_count": 0}`, nil)
	var got ScenarioResponse
	decode(t, resp, &got)
	if got.DailyCapacitySessions != 0 || got.MonthlyMeteredRevenue != "0.00" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.TotalMonthlyRevenue != "12350.00" {
		t.Fatalf("fixed revenue should survive zero capacity, got %s", got.TotalMonthlyRevenue)
	}
}

func TestSimulateRejectsInvalidInput(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore(), nil)

	tests := []struct {
		name string
		body string
	}{
		{"negative price", `{"price_metered": -1}`},
		{"utilization above range", `{"utilization_rate": 120}`},
		{"malformed json", `{"price_metered":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/simulate", tt.body, nil)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestSweep(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore(), nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sweep", `{"from": 0, "to": 100, "step": 25}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var points []SweepPointResponse
	decode(t, resp, &points)
	if len(points) != 5 {
		t.Fatalf("points = %d, want 5", len(points))
	}
	if points[0].UtilizationRate != "0.00" || points[4].DailyRealizedSessions != 192 {
		t.Fatalf("unexpected endpoints %+v / %+v", points[0], points[4])
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sweep", `{"step": 0}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero step status = %d, want 400", resp.StatusCode)
	}
}

func TestScenarioPutAndGet(t *testing.T) {
	mem := store.NewMemoryStore()
	_, ts := newTestServer(t, mem, nil)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/scenarios/alice", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing scenario status = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/v1/scenarios/alice", `{"subscriber_count": 200}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("put status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/scenarios/alice", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var got StoredScenarioResponse
	decode(t, resp, &got)
	if got.OwnerID != "alice" || got.Input.SubscriberCount != 200 {
		t.Fatalf("unexpected stored scenario %+v", got)
	}
	if got.Result.MonthlySubscriptionRevenue != "9800.00" {
		t.Fatalf("subscription revenue = %s, want 9800.00", got.Result.MonthlySubscriptionRevenue)
	}
}

func TestPutReportsStoreFailure(t *testing.T) {
	_, ts := newTestServer(t, &failingStore{}, nil)
	resp := doJSON(t, http.MethodPut, ts.URL+"/api/v1/scenarios/bob", `{}`, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["code"] != "STORE_FAILURE" || body["error"] != "failed to save scenario" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestOwnerSimulateSavesInBackground(t *testing.T) {
	mem := store.NewMemoryStore()
	srv, ts := newTestServer(t, mem, nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/scenarios/carol/simulate", `{"utilization_rate": 60}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got ScenarioResponse
	decode(t, resp, &got)
	if got.DailyRealizedSessions != 115 {
		t.Fatalf("realized = %d, want 115", got.DailyRealizedSessions)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.saver.Close(ctx); err != nil {
		t.Fatalf("drain saves: %v", err)
	}
	saved, err := mem.Load(ctx, "carol")
	if err != nil || saved == nil || saved.UtilizationRate != 60 {
		t.Fatalf("saved = %+v, %v", saved, err)
	}
}

func TestOwnerSimulateIgnoresSaveFailure(t *testing.T) {
	_, ts := newTestServer(t, &failingStore{}, nil)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/scenarios/dave/simulate", `{}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when the save fails", resp.StatusCode)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "secret"
	_, ts := newTestServer(t, store.NewMemoryStore(), cfg)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/simulate", `{}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/simulate", `{}`, map[string]string{"X-API-Key": "secret"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status with key = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/health", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should not need a key, got %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CORSOrigins = []string{"https://app.example"}
	_, ts := newTestServer(t, store.NewMemoryStore(), cfg)

	resp := doJSON(t, http.MethodOptions, ts.URL+"/api/v1/simulate", "", map[string]string{"Origin": "https://app.example"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestHTTPStoreAgainstServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "k"
	_, ts := newTestServer(t, store.NewMemoryStore(), cfg)

	client := platform.NewHTTPClient(0, 5*time.Second)
	client.APIKey = "k"
	remote := store.NewHTTPStore(ts.URL, client)
	ctx := context.Background()

	if err := remote.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if got, err := remote.Load(ctx, "erin"); err != nil || got != nil {
		t.Fatalf("Load missing = %v, %v", got, err)
	}

	in := simulation.DefaultInput()
	in.SponsorCount = 2
	if err := remote.Save(ctx, "erin", in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := remote.Load(ctx, "erin")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || *got != in {
		t.Fatalf("Load = %+v, want %+v", got, in)
	}
}

func TestResponseIsDeterministic(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), nil)
	body := `{"utilization_rate": 37.5, "demand_multiplier": 1.1}`

	render := func() []byte {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", strings.NewReader(body))
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		return rec.Body.Bytes()
	}
	if a, b := render(), render(); !bytes.Equal(a, b) {
		t.Fatalf("responses differ:\n%s\n%s", a, b)
	}
}

func TestBlankOwnerIsBadRequest(t *testing.T) {
	_, ts := newTestServer(t, &failingStore{}, nil)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/v1/scenarios/%20", `{}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("PUT status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/scenarios/%20", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("GET status = %d, want 400", resp.StatusCode)
	}
}

func TestSweepRejectsTinyStep(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore(), nil)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sweep", `{"step": 1e-17}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
