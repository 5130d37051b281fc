package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	querypilot "github.com/querypilot/querypilot"
	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/testutil"
)

func newTestServer(optFns ...func(o *querypilot.Options)) *echo.Echo {
	e := echo.New()
	NewHandler(querypilot.New(optFns...)).RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestUnderstandEndpoint(t *testing.T) {
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "search_food", Confidence: 0.9}}
	e := newTestServer(func(o *querypilot.Options) { o.Classifier = cls })

	rec := doJSON(e, http.MethodPost, "/v1/understand", `{"query":"cheap veg biryani"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Filters core.ExtractedFilters `json:"filters"`
		Path    string                `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "biryani", resp.Filters.Query)
	require.NotNil(t, resp.Filters.Veg)
	assert.True(t, *resp.Filters.Veg)
	assert.NotEmpty(t, resp.Path)
}

func TestUnderstandEndpointRequiresQuery(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/understand", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConverseEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/converse", `{"session_id":"s1","user_id":"u1","text":"hi"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp querypilot.ConverseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.IntentGreeting, resp.Intent)
	assert.NotEmpty(t, resp.Reply)
}

func TestConverseEndpointRequiresSessionAndText(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/converse", `{"session_id":"s1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoiceEndpointRequiresAudio(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/voice", `{"session_id":"s1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedbackEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/feedback", `{"session_id":"s1","ordered":true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMemoryAndProfileEndpoints(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/users/u1/memories", `{"type":"preference","content":"dietary:vegan"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodGet, "/v1/users/u1/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var profile core.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, []string{"vegan"}, profile.Summary.DietaryRestrictions)
}

func TestRetrainEndpointWithoutData(t *testing.T) {
	e := newTestServer(func(o *querypilot.Options) { o.Retrainer = &testutil.FakeRetrainer{} })

	rec := doJSON(e, http.MethodPost, "/v1/retrain", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not enough data")
}

func TestStatsEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodGet, "/v1/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var stats core.AggregateStats
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodGet, "/v1/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy":true`)
}

func TestClearSessionEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodDelete, "/v1/sessions/s1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
