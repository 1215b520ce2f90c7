package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"steelprice/server/config"
	"steelprice/server/internal/calculation"
	"steelprice/server/internal/models"
)

// MockCalculator is a mock implementation of the Calculator interface
type MockCalculator struct {
	mock.Mock
}

func (m *MockCalculator) Calculate(ctx context.Context, in calculation.Input) (*calculation.Outcome, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*calculation.Outcome)
	return out, args.Error(1)
}

func (m *MockCalculator) PiecePrice(material string, avg float64, diameter, length int) (string, bool) {
	args := m.Called(material, avg, diameter, length)
	return args.String(0), args.Bool(1)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func setupRouter(calc Calculator, db Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"*"}
	logger := logrus.New()
	return NewRouter(cfg, NewHandler(calc, db, logger), logger)
}

func foundOutcome() *calculation.Outcome {
	avg := 2.0
	matches := []models.Match{{ArticleNo: "A1", SizeClass: "D50x200"}, {ArticleNo: "A2", SizeClass: "D60x300"}}
	return &calculation.Outcome{
		Material:       "16MnCr5",
		StartDate:      "2024-03-01",
		EndDate:        "2024-03-31",
		Found:          true,
		AverageSummary: "Average kg-price: 2.00 €/kg",
		MatchCountText: "Number of records found: 2",
		PiecePrice:     "Current material price for 16MnCr5 in size D10x100: 0.12 €/pc.",
		Result:         models.AggregationResult{AverageKgPrice: &avg, Count: 2, Matches: matches},
		Selected:       &matches[0],
	}
}

func TestGetKgPrice(t *testing.T) {
	calc := &MockCalculator{}
	calc.On("Calculate", calculation.Input{
		Material:  "16MnCr5",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		Diameter:  "D10",
		Length:    "100",
	}).Return(foundOutcome(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/kg-price?material=16MnCr5&startDate=2024-03-01&endDate=2024-03-31&diameter=D10&length=100", nil)
	setupRouter(calc, stubPinger{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body calculation.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Found)
	assert.Equal(t, 2, body.Result.Count)
	assert.Equal(t, "A1", body.Selected.ArticleNo)
	calc.AssertExpectations(t)
}

func TestGetKgPriceValidationError(t *testing.T) {
	calc := &MockCalculator{}
	calc.On("Calculate", mock.Anything).Return(nil, calculation.ErrInvalidDate)

	w := httptest.NewRecorder()
	setupRouter(calc, stubPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kg-price?startDate=2024-13-40", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "`+calculation.InvalidDateMessage+`"}`, w.Body.String())
}

func TestGetKgPriceNoData(t *testing.T) {
	calc := &MockCalculator{}
	calc.On("Calculate", mock.Anything).Return(&calculation.Outcome{
		Message: calculation.NoDataMessage,
		Result:  models.AggregationResult{Matches: []models.Match{}},
	}, nil)

	w := httptest.NewRecorder()
	setupRouter(calc, stubPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kg-price?material=C45", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["found"])
	assert.Equal(t, calculation.NoDataMessage, body["message"])
	assert.Nil(t, body["selected"])
}

func TestExportKgPrice(t *testing.T) {
	calc := &MockCalculator{}
	calc.On("Calculate", mock.Anything).Return(foundOutcome(), nil)

	w := httptest.NewRecorder()
	setupRouter(calc, stubPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kg-price/export?material=16MnCr5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "kg_price_16MnCr5_2024-03-01_2024-03-31.xlsx")

	xl, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer xl.Close()

	rows, err := xl.GetRows("Matches")
	require.NoError(t, err)
	assert.Equal(t, []string{"Material", "16MnCr5"}, rows[0])
	assert.Equal(t, []string{"Article no.", "Size class"}, rows[6])
	assert.Equal(t, []string{"A1", "D50x200"}, rows[7])
	assert.Equal(t, []string{"A2", "D60x300"}, rows[8])
}

func TestExportKgPriceNoData(t *testing.T) {
	calc := &MockCalculator{}
	calc.On("Calculate", mock.Anything).Return(&calculation.Outcome{Message: calculation.NoDataMessage}, nil)

	w := httptest.NewRecorder()
	setupRouter(calc, stubPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kg-price/export?material=C45", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostPiecePrice(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(calc *MockCalculator)
		wantStatus int
		wantBody   string
	}{
		{
			name: "Available",
			body: `{"material":"C45","average_kg_price":2,"diameter":10,"length":100}`,
			setup: func(calc *MockCalculator) {
				calc.On("PiecePrice", "C45", 2.0, 10, 100).Return("price text", true)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"available": true, "piece_price": "price text"}`,
		},
		{
			name: "Missing dimensions",
			body: `{"material":"C45","average_kg_price":2}`,
			setup: func(calc *MockCalculator) {
				calc.On("PiecePrice", "C45", 2.0, 0, 0).Return("", false)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"available": false, "message": "` + calculation.NoDimensionsMessage + `"}`,
		},
		{
			name:       "Missing material",
			body:       `{"average_kg_price":2,"diameter":10,"length":100}`,
			setup:      func(calc *MockCalculator) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error": "Material is required"}`,
		},
		{
			name:       "Malformed body",
			body:       `{"material":`,
			setup:      func(calc *MockCalculator) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error": "Invalid request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := &MockCalculator{}
			tt.setup(calc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/piece-price", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			setupRouter(calc, stubPinger{}).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			calc.AssertExpectations(t)
		})
	}
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	setupRouter(&MockCalculator{}, stubPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	setupRouter(&MockCalculator{}, stubPinger{err: errors.New("down")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	setupRouter(&MockCalculator{}, stubPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "steelprice_price_query_duration_seconds")
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"https://a.example", "*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://a.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example"}, cfg.AllowOrigins)
}
