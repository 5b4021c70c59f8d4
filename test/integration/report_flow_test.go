package integration

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fleetlens/fleetlens/internal/api"
	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/logging"
	"github.com/fleetlens/fleetlens/internal/metrics"
	"github.com/fleetlens/fleetlens/internal/report"
	"github.com/fleetlens/fleetlens/internal/store"
	"github.com/fleetlens/fleetlens/internal/telematics"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vendorStub scripts the upstream vendor. Telemetry responses are keyed by
// vehicle token ID so individual vehicles can be made to fail.
type vendorStub struct {
	signalsByVehicle map[string]string // tokenId -> raw data payload
	failTelemetry    map[string]bool   // tokenId -> return a GraphQL error
	vehiclePages     []string          // successive vehicles-query payloads
	pageCalls        int
}

func (v *vendorStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "dev-jwt", "token_type": "Bearer", "expires_in": 600,
		})
	})
	mux.HandleFunc("/v1/tokens/exchange", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TokenID int64 `json:"tokenId"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": fmt.Sprintf("veh-jwt-%d", req.TokenID), "token_type": "Bearer", "expires_in": 600,
		})
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		if strings.Contains(req.Query, "vehicles(") {
			page := v.vehiclePages[v.pageCalls]
			if v.pageCalls < len(v.vehiclePages)-1 {
				v.pageCalls++
			}
			w.Write([]byte(`{"data":` + page + `}`))
			return
		}

		tokenID := fmt.Sprintf("%v", req.Variables["tokenId"])
		if v.failTelemetry[tokenID] {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"errors": []map[string]string{{"message": "telemetry unavailable for vehicle " + tokenID}},
			})
			return
		}
		w.Write([]byte(`{"data":` + v.signalsByVehicle[tokenID] + `}`))
	})
	return mux
}

type testServer struct {
	server  *api.Server
	reports *store.ReportStore
}

func setupTestServer(t *testing.T, stub *vendorStub) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	vendorSrv := httptest.NewServer(stub.handler())
	t.Cleanup(vendorSrv.Close)

	dir := t.TempDir()
	configs := store.NewConfigStore(filepath.Join(dir, "api-config.json"))
	reports := store.NewReportStore(filepath.Join(dir, "reports"))

	logger := logging.NewLogger(logging.WithLevel(logging.LevelError))
	m := metrics.NewMetrics("fleetlens_integration")
	vendorCfg := config.VendorConfig{
		AuthURL:          vendorSrv.URL,
		TokenExchangeURL: vendorSrv.URL,
		IdentityURL:      vendorSrv.URL,
		TelemetryURL:     vendorSrv.URL,
		Timeout:          5 * time.Second,
	}
	vendor := telematics.NewClient(vendorCfg, logger)
	generator := report.NewGenerator(vendor, configs, reports, logger, m)

	srv := api.NewServer(config.ServerConfig{Host: "localhost", HTTPPort: 3001},
		config.APIConfig{}, configs, reports, vendor, generator, m, logger)
	return &testServer{server: srv, reports: reports}
}

func makeRequest(t *testing.T, ts *testServer, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	return w
}

func saveCredentials(t *testing.T, ts *testServer) {
	t.Helper()
	w := makeRequest(t, ts, "POST", "/api/config", map[string]string{
		"clientId": "0xabc", "apiKey": "k1",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

// TestReportFlow_FailedVehicleYieldsSentinelRow drives the full pipeline
// with a vehicle whose telemetry query fails: the report must still be
// produced, containing exactly one ERROR sentinel row.
func TestReportFlow_FailedVehicleYieldsSentinelRow(t *testing.T) {
	ts := setupTestServer(t, &vendorStub{
		failTelemetry: map[string]bool{"42": true},
	})
	saveCredentials(t, ts)

	w := makeRequest(t, ts, "POST", "/api/reports/generate", map[string]interface{}{
		"vehicleTokenIds": []string{"42"},
		"startDate":       "2024-01-01",
		"endDate":         "2024-01-31",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Filename    string `json:"filename"`
		RecordCount int    `json:"recordCount"`
		DownloadURL string `json:"downloadUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.RecordCount)

	dl := makeRequest(t, ts, "GET", resp.DownloadURL, nil)
	require.Equal(t, http.StatusOK, dl.Code)

	rows, err := csv.NewReader(dl.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + sentinel
	assert.Equal(t, []string{"Token ID", "VIN", "Timestamp", "Odometer Reading", "Travelled Distance"}, rows[0])
	assert.Equal(t, []string{"42", "ERROR", "ERROR", "ERROR", "0"}, rows[1])
}

// TestReportFlow_MixedFleet exercises per-vehicle failure isolation: one
// healthy vehicle, one failing, both land in the same report.
func TestReportFlow_MixedFleet(t *testing.T) {
	ts := setupTestServer(t, &vendorStub{
		signalsByVehicle: map[string]string{
			"7": `{
				"vinVCLatest":{"vin":"1HGBH41JXMN109186"},
				"signals":[
					{"timestamp":"2024-01-05T00:00:00Z","powertrainTransmissionTravelledDistance":100},
					{"timestamp":"2024-01-06T00:00:00Z","powertrainTransmissionTravelledDistance":150},
					{"timestamp":"2024-01-07T00:00:00Z","powertrainTransmissionTravelledDistance":140}
				]
			}`,
		},
		failTelemetry: map[string]bool{"8": true},
	})
	saveCredentials(t, ts)

	w := makeRequest(t, ts, "POST", "/api/reports/generate", map[string]interface{}{
		"vehicleTokenIds": []string{"7", "8"},
		"startDate":       "2024-01-01",
		"endDate":         "2024-01-31",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Filename    string `json:"filename"`
		RecordCount int    `json:"recordCount"`
		DownloadURL string `json:"downloadUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.RecordCount) // 3 signal rows + 1 sentinel

	dl := makeRequest(t, ts, "GET", resp.DownloadURL, nil)
	require.Equal(t, http.StatusOK, dl.Code)

	rows, err := csv.NewReader(dl.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)

	// First reading anchors the distance series at zero; later rows are
	// deltas, negative when the odometer regresses.
	assert.Equal(t, []string{"7", "1HGBH41JXMN109186", "2024-01-05T00:00:00Z", "100", "0"}, rows[1])
	assert.Equal(t, []string{"7", "1HGBH41JXMN109186", "2024-01-06T00:00:00Z", "150", "50"}, rows[2])
	assert.Equal(t, []string{"7", "1HGBH41JXMN109186", "2024-01-07T00:00:00Z", "140", "-10"}, rows[3])
	assert.Equal(t, []string{"8", "ERROR", "ERROR", "ERROR", "0"}, rows[4])

	// The stored artifact shows up in the listing.
	list := makeRequest(t, ts, "GET", "/api/reports", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), resp.Filename)
}

// TestVehicleListing_PaginationDoesNotRepeat walks two pages and checks the
// cursor actually advances the listing.
func TestVehicleListing_PaginationDoesNotRepeat(t *testing.T) {
	ts := setupTestServer(t, &vendorStub{
		vehiclePages: []string{
			`{"vehicles":{
				"totalCount":2,
				"pageInfo":{"hasNextPage":true,"endCursor":"c1"},
				"nodes":[{"tokenId":1,"definition":{"make":"Toyota","model":"Camry","year":2022},"imei":"111","mintedAt":"2023-06-15T09:00:00Z"}]
			}}`,
			`{"vehicles":{
				"totalCount":2,
				"pageInfo":{"hasNextPage":false,"endCursor":""},
				"nodes":[{"tokenId":2,"definition":{"make":"Ford","model":"F-150","year":2019},"imei":"222","mintedAt":"2022-01-03T09:00:00Z"}]
			}}`,
		},
	})
	saveCredentials(t, ts)

	type page struct {
		Nodes []struct {
			TokenID int64 `json:"tokenId"`
		} `json:"nodes"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
	}

	w := makeRequest(t, ts, "GET", "/api/vehicles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var first page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, first.Nodes, 1)
	require.True(t, first.PageInfo.HasNextPage)

	w = makeRequest(t, ts, "GET", "/api/vehicles?after="+first.PageInfo.EndCursor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var second page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	require.Len(t, second.Nodes, 1)

	assert.NotEqual(t, first.Nodes[0].TokenID, second.Nodes[0].TokenID)
	assert.False(t, second.PageInfo.HasNextPage)
}

// TestCredentialLifecycle covers save, read-back, and delete end to end.
func TestCredentialLifecycle(t *testing.T) {
	ts := setupTestServer(t, &vendorStub{})

	w := makeRequest(t, ts, "GET", "/api/config", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	saveCredentials(t, ts)

	w = makeRequest(t, ts, "GET", "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0xabc")

	w = makeRequest(t, ts, "DELETE", "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Reports now refuse to run until credentials are saved again.
	w = makeRequest(t, ts, "POST", "/api/reports/generate", map[string]interface{}{
		"vehicleTokenIds": []string{"1"},
		"startDate":       "2024-01-01",
		"endDate":         "2024-01-31",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "configuration not found")
}
