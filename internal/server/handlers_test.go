package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/shindan/internal/advisor"
	"github.com/hyperjump/shindan/internal/config"
	"github.com/hyperjump/shindan/internal/knowledge"
	"github.com/hyperjump/shindan/internal/models"
	"github.com/hyperjump/shindan/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "shindan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	kb, err := knowledge.Default()
	require.NoError(t, err)
	_, err = store.Import(context.Background(), kb, false)
	require.NoError(t, err)

	svc := advisor.NewService(store, store, advisor.WithStats(store), advisor.WithSessionLogger(store))
	t.Cleanup(svc.Wait)
	return serve(t, svc)
}

func serve(t *testing.T, svc *advisor.Service) *httptest.Server {
	t.Helper()
	srv := NewServer(svc, &config.ServerConfig{AllowedOrigins: []string{"http://app.example"}}, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

var errDown = errors.New("connection refused")

type downStore struct{}

func (downStore) AllSymptoms(context.Context) ([]models.Symptom, error) { return nil, errDown }
func (downStore) SearchSymptoms(context.Context, string) ([]models.Symptom, error) {
	return nil, errDown
}
func (downStore) SymptomsByIDs(context.Context, []int64) ([]models.Symptom, error) {
	return nil, errDown
}
func (downStore) Categories(context.Context) ([]string, error) { return nil, errDown }
func (downStore) GetAdvice(context.Context, int64) (*models.AdviceEntry, error) {
	return nil, errDown
}
func (downStore) Weights(context.Context, []int64) ([]models.WeightedAdvice, error) {
	return nil, errDown
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, out := getJSON(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])
}

func TestHandleSymptoms(t *testing.T) {
	ts := newTestServer(t)

	resp, out := getJSON(t, ts.URL+"/api/v1/symptoms")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
	assert.EqualValues(t, 20, out["count"])

	_, out = getJSON(t, ts.URL+"/api/v1/symptoms?search=pain")
	assert.EqualValues(t, 4, out["count"])

	_, out = getJSON(t, ts.URL+"/api/v1/symptoms?search=zzz")
	assert.EqualValues(t, 0, out["count"])
	assert.Equal(t, []interface{}{}, out["symptoms"])
}

func TestHandleSymptomSearch(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postJSON(t, ts.URL+"/api/v1/symptoms/search", `{"search":"head"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	symptoms := out["symptoms"].([]interface{})
	require.Len(t, symptoms, 1)
	assert.Equal(t, "Headache", symptoms[0].(map[string]interface{})["name"])

	resp, out = postJSON(t, ts.URL+"/api/v1/symptoms/search", `{"search":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Search term required", out["message"])
}

func TestHandleCategories(t *testing.T) {
	ts := newTestServer(t)
	resp, out := getJSON(t, ts.URL+"/api/v1/symptoms/categories")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["categories"], 7)
}

func TestHandleAdvice(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postJSON(t, ts.URL+"/api/v1/advice", `{"symptoms":[1,"2","abc",-3],"session_id":"s-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "s-1", out["session_id"])
	assert.Equal(t, "medium", out["overall_severity"])
	assert.Equal(t, false, out["emergency_warning"])
	advice := out["advice"].([]interface{})
	require.Len(t, advice, 2)
	first := advice[0].(map[string]interface{})
	assert.Equal(t, "Rest and Hydration", first["title"])
	assert.EqualValues(t, 2, first["matching_symptoms"])
	assert.EqualValues(t, 100, first["symptom_match_percentage"])
}

func TestHandleAdvice_InvalidInput(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postJSON(t, ts.URL+"/api/v1/advice", `{"symptoms":["x",0]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "No valid symptoms provided", out["message"])

	resp, out = postJSON(t, ts.URL+"/api/v1/advice", `{"symptoms":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid JSON data", out["message"])
}

func TestHandleAdvice_LookupFailure(t *testing.T) {
	ts := serve(t, advisor.NewService(downStore{}, downStore{}))

	resp, out := postJSON(t, ts.URL+"/api/v1/advice", `{"symptoms":[1]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, out["success"])
	msg, _ := out["message"].(string)
	assert.NotContains(t, msg, "connection refused")
}

func TestHandleGetAdvice(t *testing.T) {
	ts := newTestServer(t)

	resp, out := getJSON(t, ts.URL+"/api/v1/advice/4")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := out["advice"].(map[string]interface{})
	assert.Equal(t, "Emergency Care Required", entry["title"])
	assert.Equal(t, "emergency", entry["severity_level"])

	resp, out = getJSON(t, ts.URL+"/api/v1/advice/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", out["message"])

	resp, _ = getJSON(t, ts.URL+"/api/v1/advice/abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleChat(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postJSON(t, ts.URL+"/api/v1/chat", `{"message":"I have a headache and a fever"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "advice", out["type"])
	assert.EqualValues(t, 2, out["advice_count"])

	_, out = postJSON(t, ts.URL+"/api/v1/chat", `{"message":"hello there"}`)
	assert.Equal(t, "no_symptoms", out["type"])
	assert.Len(t, out["suggestions"], 4)

	resp, out = postJSON(t, ts.URL+"/api/v1/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No message provided", out["message"])
}

func TestHandleChat_Fallback(t *testing.T) {
	ts := serve(t, advisor.NewService(downStore{}, downStore{}))

	resp, out := postJSON(t, ts.URL+"/api/v1/chat", `{"message":"I feel dizzy"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fallback", out["type"])
	assert.NotEmpty(t, out["tips"])
}

func TestHandleStatus(t *testing.T) {
	ts := newTestServer(t)
	resp, out := getJSON(t, ts.URL+"/api/v1/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["ready"])
	assert.Equal(t, "sqlite3", out["driver"])
	assert.EqualValues(t, 20, out["symptoms"])
	assert.NotEmpty(t, out["fingerprint"])
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/advice", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://app.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://app.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestChatSocket(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/chat/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(models.ChatRequest{Message: "I have chest pain and shortness of breath"}))
	var reply models.ChatReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, models.ReplyAdvice, reply.Type)
	assert.True(t, reply.EmergencyWarning)
	assert.Equal(t, models.SeverityEmergency, reply.OverallSeverity)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var failure map[string]interface{}
	require.NoError(t, conn.ReadJSON(&failure))
	assert.Equal(t, false, failure["success"])
	assert.Equal(t, "Invalid JSON data", failure["message"])

	require.NoError(t, conn.WriteJSON(models.ChatRequest{Message: ""}))
	require.NoError(t, conn.ReadJSON(&failure))
	assert.Equal(t, "No message provided", failure["message"])
}

func TestChatSocket_RejectsOrigin(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/chat/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
