package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carins/carins-backend/internal/cars"
	"github.com/carins/carins-backend/internal/claims"
	"github.com/carins/carins-backend/internal/expiry"
	"github.com/carins/carins-backend/internal/owners"
	"github.com/carins/carins-backend/internal/policies"
	"github.com/carins/carins-backend/internal/validity"
	pkgAuth "github.com/carins/carins-backend/pkg/auth"
	"github.com/carins/carins-backend/pkg/config"
	"github.com/carins/carins-backend/pkg/db"
	"github.com/carins/carins-backend/pkg/db/dbtest"
	"github.com/carins/carins-backend/pkg/logger"
	"github.com/carins/carins-backend/pkg/metrics"
	"github.com/carins/carins-backend/pkg/types"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubRunner struct {
	report expiry.RunReport
	err    error
	calls  int
}

func (s *stubRunner) Run(context.Context) (expiry.RunReport, error) {
	s.calls++
	return s.report, s.err
}

type testServer struct {
	handler http.Handler
	db      *gorm.DB
	seed    dbtest.Seed
	runner  *stubRunner
	cfg     *config.Config
}

func newTestServer(t *testing.T, checks map[string]db.Pinger) *testServer {
	t.Helper()
	conn := dbtest.Open(t)
	seed := dbtest.SeedScenario(t, conn, types.NewDate(2025, 8, 31))

	carRepo := cars.NewRepository(conn)
	ownerRepo := owners.NewRepository(conn)
	policyRepo := policies.NewRepository(conn)

	carSvc, err := cars.NewService(carRepo, ownerRepo)
	require.NoError(t, err)
	ownerSvc, err := owners.NewService(ownerRepo)
	require.NoError(t, err)
	policySvc, err := policies.NewService(policyRepo, carRepo)
	require.NoError(t, err)
	claimSvc, err := claims.NewService(claims.NewRepository(conn), carRepo)
	require.NoError(t, err)
	checker, err := validity.NewChecker(policyRepo, carRepo)
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "carins"},
	}
	if checks == nil {
		checks = map[string]db.Pinger{"database": db.NewFromGorm(conn)}
	}
	runner := &stubRunner{report: expiry.RunReport{TargetDate: types.NewDate(2025, 8, 31), Selected: 1, Created: 1}}

	handler := NewRouter(
		cfg,
		logger.Nop(),
		checks,
		metrics.Handler(metrics.NewRegistry()),
		carSvc,
		ownerSvc,
		policySvc,
		claimSvc,
		checker,
		runner,
	)
	return &testServer{handler: handler, db: conn, seed: seed, runner: runner, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.AppEnvDev, rec.Header().Get("X-Carins-Env"))

	rec = srv.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	srv := newTestServer(t, map[string]db.Pinger{
		"database": stubPinger{},
		"redis":    stubPinger{err: errors.New("dial tcp: refused")},
	})

	rec := srv.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DEPENDENCY_ERROR", env.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestInsuranceValidity(t *testing.T) {
	srv := newTestServer(t, nil)
	car1 := srv.seed.Cars[0].ID
	car2 := srv.seed.Cars[1].ID

	rec := srv.do(t, http.MethodGet, pathf("/api/cars/%d/insurance-valid?date=2025-06-01", car1), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"carId":`+itoa(car1)+`,"date":"2025-06-01","valid":true}`, string(decode(t, rec).Data))

	rec = srv.do(t, http.MethodGet, pathf("/api/cars/%d/insurance-valid?date=2025-02-01", car2), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"carId":`+itoa(car2)+`,"date":"2025-02-01","valid":false}`, string(decode(t, rec).Data))

	rec = srv.do(t, http.MethodGet, "/api/cars/999/insurance-valid?date=2025-06-01", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec).Error.Code)

	for _, query := range []string{"", "?date=2025-02-30", "?date=06/01/2025", "?date=1899-12-31", "?date=2101-01-01"} {
		rec = srv.do(t, http.MethodGet, pathf("/api/cars/%d/insurance-valid", car1)+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, rec).Error.Code, query)
	}

	rec = srv.do(t, http.MethodGet, "/api/cars/abc/insurance-valid?date=2025-06-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCarsCRUD(t *testing.T) {
	srv := newTestServer(t, nil)
	owner := srv.seed.Owners[0]

	rec := srv.do(t, http.MethodGet, "/api/cars", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	require.Len(t, list, 3)
	assert.Equal(t, "Ana Pop", list[0]["ownerName"])

	body := `{"vin":"abcd1234","make":"Skoda","model":"Octavia","year":2020,"ownerId":` + itoa(owner.ID) + `}`
	rec = srv.do(t, http.MethodPost, "/api/cars", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "ABCD1234", created["vin"])
	assert.Equal(t, "/api/cars/"+itoa(int64(created["id"].(float64))), rec.Header().Get("Location"))

	rec = srv.do(t, http.MethodPost, "/api/cars", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/cars", `{"vin":"SHORT","ownerId":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(decode(t, rec).Error.Details), "vin")

	rec = srv.do(t, http.MethodPost, "/api/cars", `{"vin":"ZXCV0987","ownerId":999}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	carID := srv.seed.Cars[1].ID
	rec = srv.do(t, http.MethodPut, pathf("/api/cars/%d", carID), `{"vin":"VIN67890","make":"Dacia","model":"Duster","year":2021,"ownerId":`+itoa(owner.ID)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(decode(t, rec).Data), `"model":"Duster"`)

	rec = srv.do(t, http.MethodPut, pathf("/api/cars/%d", carID), `{"vin":"VIN12345","ownerId":`+itoa(owner.ID)+`}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/cars/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClaimsFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	carID := srv.seed.Cars[0].ID

	rec := srv.do(t, http.MethodPost, pathf("/api/cars/%d/claims", carID), `{"claimDate":"2025-05-10","description":"rear bumper","amount":1500.50}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/api/claims/"), location)

	rec = srv.do(t, http.MethodPost, pathf("/api/cars/%d/claims", carID), `{"claimDate":"2025-01-03","description":"windshield","amount":"320"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, location, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"description":"rear bumper"`)

	rec = srv.do(t, http.MethodGet, pathf("/api/cars/%d/history", carID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "2025-01-03", history[0]["claimDate"])
	assert.Equal(t, "2025-05-10", history[1]["claimDate"])

	future := time.Now().UTC().AddDate(0, 0, 7).Format(types.DateLayout)
	rec = srv.do(t, http.MethodPost, pathf("/api/cars/%d/claims", carID), `{"claimDate":"`+future+`","description":" ","amount":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var details map[string]string
	require.NoError(t, json.Unmarshal(decode(t, rec).Error.Details, &details))
	assert.Equal(t, "claim date cannot be in the future", details["claimDate"])
	assert.Equal(t, "description must not be blank", details["description"])
	assert.Equal(t, "amount must be positive", details["amount"])

	rec = srv.do(t, http.MethodPost, "/api/cars/999/claims", `{"claimDate":"2025-05-10","description":"x","amount":10}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/cars/999/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnersFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/owners", `{"name":"Cristina Matei","email":"Cristina@Example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, string(decode(t, rec).Data), `"email":"cristina@example.com"`)

	rec = srv.do(t, http.MethodPost, "/api/owners", `{"name":"Other","email":"cristina@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/owners", `{"name":"","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ownerID := srv.seed.Owners[0].ID
	rec = srv.do(t, http.MethodPut, pathf("/api/owners/%d", ownerID), `{"name":"Ana Pop-Ionescu","email":"ana.pop@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, pathf("/api/owners/%d", ownerID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"name":"Ana Pop-Ionescu"`)

	rec = srv.do(t, http.MethodGet, "/api/owners/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsurancesFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	carID := srv.seed.Cars[1].ID

	rec := srv.do(t, http.MethodGet, "/api/insurances", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	assert.Len(t, list, 4)

	rec = srv.do(t, http.MethodPost, "/api/insurances", `{"carId":`+itoa(carID)+`,"provider":"Generali","startDate":"2025-01-01","endDate":"2025-02-28"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	policyID := int64(created["id"].(float64))

	rec = srv.do(t, http.MethodGet, pathf("/api/cars/%d/insurance-valid?date=2025-02-01", carID), "")
	assert.Contains(t, string(decode(t, rec).Data), `"valid":true`)

	rec = srv.do(t, http.MethodPost, "/api/insurances", `{"carId":`+itoa(carID)+`,"startDate":"2025-05-01","endDate":"2025-04-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/insurances", `{"carId":999,"startDate":"2025-01-01","endDate":"2025-04-01"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPut, pathf("/api/insurances/%d", policyID), `{"provider":"Generali","startDate":"2025-01-01","endDate":"2025-01-31"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(decode(t, rec).Data), `"endDate":"2025-01-31"`)

	rec = srv.do(t, http.MethodGet, pathf("/api/insurances/%d", policyID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"carId":`+itoa(carID))

	rec = srv.do(t, http.MethodGet, "/api/insurances/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCarInsurancesListsPoliciesInStartOrder(t *testing.T) {
	srv := newTestServer(t, nil)
	carID := srv.seed.Cars[0].ID

	rec := srv.do(t, http.MethodGet, pathf("/api/cars/%d/insurances", carID), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Allianz", list[0]["provider"])
	assert.Equal(t, "2024-01-01", list[0]["startDate"])
	assert.Equal(t, "Groupama", list[1]["provider"])

	rec = srv.do(t, http.MethodGet, "/api/cars/999/insurances", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/cars/abc/insurances", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminExpiryRunRequiresAdminToken(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/admin/v1/expiry/run", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, srv.runner.calls)

	token, err := pkgAuth.MintAdminToken(srv.cfg.JWT, time.Now(), "ops", time.Hour)
	require.NoError(t, err)

	rec = srv.do(t, http.MethodPost, "/api/admin/v1/expiry/run", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, srv.runner.calls)
	assert.JSONEq(t, `{"targetDate":"2025-08-31","selected":1,"created":1,"alreadyLogged":0,"failed":0}`, string(decode(t, rec).Data))
}

func TestAdminRoutesDisabledWithoutSecret(t *testing.T) {
	conn := dbtest.Open(t)
	carRepo := cars.NewRepository(conn)
	carSvc, err := cars.NewService(carRepo, owners.NewRepository(conn))
	require.NoError(t, err)

	handler := NewRouter(&config.Config{}, logger.Nop(), nil, nil, carSvc, nil, nil, nil, nil, &stubRunner{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/v1/expiry/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
