package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/logging"
	"github.com/fleetlens/fleetlens/internal/metrics"
	"github.com/fleetlens/fleetlens/internal/report"
	"github.com/fleetlens/fleetlens/internal/store"
	"github.com/fleetlens/fleetlens/internal/telematics"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVendorServer scripts the vendor's REST and GraphQL endpoints.
type fakeVendorServer struct {
	authStatus     int    // non-zero forces the developer exchange to fail
	exchangeStatus int    // non-zero forces the vehicle exchange to fail
	signalsError   string // non-empty returns a GraphQL error envelope
	vehiclesJSON   string // raw data payload for the vehicles query
	signalsJSON    string // raw data payload for the signals query
	vendorDomain   string // vendor.domain config fed to the client under test

	mu          sync.Mutex
	authDomains []string // domains seen by the developer exchange
}

func (f *fakeVendorServer) seenAuthDomains() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authDomains...)
}

func (f *fakeVendorServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Domain string `json:"domain"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.authDomains = append(f.authDomains, req.Domain)
		f.mu.Unlock()

		if f.authStatus != 0 {
			w.WriteHeader(f.authStatus)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid client credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "dev-jwt", "token_type": "Bearer", "expires_in": 600,
		})
	})
	mux.HandleFunc("/v1/tokens/exchange", func(w http.ResponseWriter, r *http.Request) {
		if f.exchangeStatus != 0 {
			w.WriteHeader(f.exchangeStatus)
			json.NewEncoder(w).Encode(map[string]string{"error": "no privilege"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "veh-jwt", "token_type": "Bearer", "expires_in": 600,
		})
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		switch {
		case strings.Contains(req.Query, "vehicles("):
			w.Write([]byte(`{"data":` + f.vehiclesJSON + `}`))
		case strings.Contains(req.Query, "signals("):
			if f.signalsError != "" {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"errors": []map[string]string{{"message": f.signalsError}},
				})
				return
			}
			w.Write([]byte(`{"data":` + f.signalsJSON + `}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	return mux
}

func setupTestServer(t *testing.T, fake *fakeVendorServer) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	vendorSrv := httptest.NewServer(fake.handler())
	t.Cleanup(vendorSrv.Close)

	dir := t.TempDir()
	configs := store.NewConfigStore(filepath.Join(dir, "api-config.json"))
	reports := store.NewReportStore(filepath.Join(dir, "reports"))

	logger := logging.NewLogger(logging.WithLevel(logging.LevelError))
	m := metrics.NewMetrics("fleetlens_test")
	vendorCfg := config.VendorConfig{
		AuthURL:          vendorSrv.URL,
		TokenExchangeURL: vendorSrv.URL,
		IdentityURL:      vendorSrv.URL,
		TelemetryURL:     vendorSrv.URL,
		Domain:           fake.vendorDomain,
		Timeout:          5 * time.Second,
	}
	vendor := telematics.NewClient(vendorCfg, logger)
	generator := report.NewGenerator(vendor, configs, reports, logger, m)

	cfg := config.ServerConfig{Host: "localhost", HTTPPort: 3001}
	apiCfg := config.APIConfig{}
	return NewServer(cfg, apiCfg, configs, reports, vendor, generator, m, logger)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func devJWT(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestHandleHealth(t *testing.T) {
	s := setupTestServer(t, &fakeVendorServer{})

	w := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t, &fakeVendorServer{})

	w := doRequest(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := setupTestServer(t, &fakeVendorServer{})

	w := doRequest(t, s, http.MethodPut, "/api/config", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// The generator must share the server's registry: report counters have to
// show up on the /metrics endpoint the server actually serves.
func TestMetricsEndpoint_ReportCounters(t *testing.T) {
	fake := &fakeVendorServer{
		signalsJSON: `{
			"vinVCLatest":{"vin":"1HGBH41JXMN109186"},
			"signals":[{"timestamp":"2024-01-05T00:00:00Z","powertrainTransmissionTravelledDistance":100}]
		}`,
	}
	s := setupTestServer(t, fake)
	saveTestConfig(t, s)

	w := doRequest(t, s, http.MethodPost, "/api/reports/generate",
		`{"vehicleTokenIds":["42"],"startDate":"2024-01-01","endDate":"2024-01-31"}`)
	require.Equal(t, http.StatusOK, w.Code)

	scrape := doRequest(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(), "fleetlens_test_reports_generated_total 1")
	assert.Contains(t, scrape.Body.String(), `fleetlens_test_report_vehicles_total{outcome="ok"} 1`)
}

// All three developer-token paths must resolve the exchange domain the
// same way: configured vendor domain first, redirect URI as fallback.
func TestDeveloperTokenDomain_ConsistentAcrossEndpoints(t *testing.T) {
	fake := &fakeVendorServer{
		vendorDomain: "https://fleetlens.example",
		vehiclesJSON: `{"vehicles":{"nodes":[],"pageInfo":{"hasNextPage":false,"endCursor":""}}}`,
		signalsJSON:  `{"vinVCLatest":{"vin":"V"},"signals":[]}`,
	}
	s := setupTestServer(t, fake)
	saveTestConfig(t, s)

	doRequest(t, s, http.MethodPost, "/api/auth/developer", "")
	doRequest(t, s, http.MethodGet, "/api/vehicles", "")
	doRequest(t, s, http.MethodPost, "/api/reports/generate",
		`{"vehicleTokenIds":["42"],"startDate":"2024-01-01","endDate":"2024-01-31"}`)

	domains := fake.seenAuthDomains()
	require.Len(t, domains, 3)
	for _, d := range domains {
		assert.Equal(t, "https://fleetlens.example", d)
	}
}

func TestDeveloperTokenDomain_FallsBackToRedirectURI(t *testing.T) {
	fake := &fakeVendorServer{}
	s := setupTestServer(t, fake)
	saveTestConfig(t, s)

	w := doRequest(t, s, http.MethodPost, "/api/auth/developer", "")
	require.Equal(t, http.StatusOK, w.Code)

	domains := fake.seenAuthDomains()
	require.Len(t, domains, 1)
	assert.Equal(t, "http://localhost:3000/callback", domains[0])
}

// A reload with tighter limits must apply to subsequent requests.
func TestApplyConfig_RateLimitReload(t *testing.T) {
	s := setupTestServer(t, &fakeVendorServer{})

	s.ApplyConfig(&config.Config{
		API: config.APIConfig{RateLimit: config.RateLimitConfig{RequestsPerMinute: 60, Burst: 1}},
	})

	// Bucket creation admits the first request, the burst token the second.
	assert.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, s, http.MethodGet, "/health", "").Code)
}
