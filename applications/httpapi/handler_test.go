package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/generalbots/botengine/domain/automation"
	"github.com/generalbots/botengine/domain/function"
)

type fakeStore struct {
	items  map[string]automation.Automation
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]automation.Automation)}
}

func (s *fakeStore) Create(ctx context.Context, a automation.Automation) (automation.Automation, error) {
	s.nextID++
	a.ID = fmt.Sprintf("a%d", s.nextID)
	s.items[a.ID] = a
	return a, nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (automation.Automation, error) {
	a, ok := s.items[id]
	if !ok {
		return automation.Automation{}, sql.ErrNoRows
	}
	return a, nil
}

func (s *fakeStore) List(ctx context.Context) ([]automation.Automation, error) {
	out := make([]automation.Automation, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeStore) SetActive(ctx context.Context, id string, active bool) error {
	a, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.IsActive = active
	s.items[id] = a
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	delete(s.items, id)
	return nil
}

type fakeFunctionStore struct {
	byID   map[string]function.Definition
	byName map[string]function.Definition
	nextID int
}

func newFakeFunctionStore() *fakeFunctionStore {
	return &fakeFunctionStore{byID: make(map[string]function.Definition), byName: make(map[string]function.Definition)}
}

func (s *fakeFunctionStore) Create(ctx context.Context, f function.Definition) (function.Definition, error) {
	s.nextID++
	f.ID = fmt.Sprintf("f%d", s.nextID)
	s.byID[f.ID] = f
	s.byName[f.Name] = f
	return f, nil
}

func (s *fakeFunctionStore) Get(ctx context.Context, id string) (function.Definition, error) {
	f, ok := s.byID[id]
	if !ok {
		return function.Definition{}, sql.ErrNoRows
	}
	return f, nil
}

func (s *fakeFunctionStore) GetByName(ctx context.Context, name string) (function.Definition, error) {
	f, ok := s.byName[name]
	if !ok {
		return function.Definition{}, sql.ErrNoRows
	}
	return f, nil
}

func (s *fakeFunctionStore) List(ctx context.Context) ([]function.Definition, error) {
	out := make([]function.Definition, 0, len(s.byID))
	for _, f := range s.byID {
		out = append(out, f)
	}
	return out, nil
}

func (s *fakeFunctionStore) Update(ctx context.Context, f function.Definition) error {
	if _, ok := s.byID[f.ID]; !ok {
		return sql.ErrNoRows
	}
	s.byID[f.ID] = f
	s.byName[f.Name] = f
	return nil
}

func (s *fakeFunctionStore) Delete(ctx context.Context, id string) error {
	if f, ok := s.byID[id]; ok {
		delete(s.byName, f.Name)
	}
	delete(s.byID, id)
	return nil
}

func init() { gin.SetMode(gin.TestMode) }

func TestCreateAutomationRejectsParamEscapingScriptsDir(t *testing.T) {
	r := NewRouter(NewHandler(newFakeStore(), nil, t.TempDir(), nil), nil)

	body, _ := json.Marshal(map[string]any{"kind": "scheduled", "schedule": "@every 1h", "param": "../outside.bas"})
	req := httptest.NewRequest(http.MethodPost, "/automations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAutomationRejectsAbsoluteParam(t *testing.T) {
	r := NewRouter(NewHandler(newFakeStore(), nil, t.TempDir(), nil), nil)

	body, _ := json.Marshal(map[string]any{"kind": "scheduled", "schedule": "@every 1h", "param": "/etc/passwd"})
	req := httptest.NewRequest(http.MethodPost, "/automations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAutomationRejectsInvalidKindTargetCombo(t *testing.T) {
	r := NewRouter(NewHandler(newFakeStore(), nil, t.TempDir(), nil), nil)

	body, _ := json.Marshal(map[string]any{"kind": "scheduled", "target": "robots", "param": "a.bas"})
	req := httptest.NewRequest(http.MethodPost, "/automations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAndGetAutomationRoundTrips(t *testing.T) {
	r := NewRouter(NewHandler(newFakeStore(), nil, t.TempDir(), nil), nil)

	body, _ := json.Marshal(map[string]any{"kind": "scheduled", "schedule": "@every 1h", "param": "a.bas"})
	req := httptest.NewRequest(http.MethodPost, "/automations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created automation.Automation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	getReq := httptest.NewRequest(http.MethodGet, "/automations/"+created.ID, nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	assert.Equal(t, http.StatusOK, getW.Code)
}

func TestCreateAutomationResolvesFunctionName(t *testing.T) {
	functions := newFakeFunctionStore()
	_, err := functions.Create(context.Background(), function.Definition{Name: "greet", Source: "PRINT 1"})
	require.NoError(t, err)

	scriptsDir := t.TempDir()
	r := NewRouter(NewHandler(newFakeStore(), functions, scriptsDir, nil), nil)

	body, _ := json.Marshal(map[string]any{"kind": "scheduled", "schedule": "@every 1h", "function_name": "greet"})
	req := httptest.NewRequest(http.MethodPost, "/automations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created automation.Automation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, filepath.Join("functions", "greet.bas"), created.Param)

	written, err := os.ReadFile(filepath.Join(scriptsDir, created.Param))
	require.NoError(t, err)
	assert.Equal(t, "PRINT 1", string(written))
}

func TestCreateAutomationRejectsBothParamAndFunctionName(t *testing.T) {
	functions := newFakeFunctionStore()
	r := NewRouter(NewHandler(newFakeStore(), functions, t.TempDir(), nil), nil)

	body, _ := json.Marshal(map[string]any{"kind": "scheduled", "schedule": "@every 1h", "param": "a.bas", "function_name": "greet"})
	req := httptest.NewRequest(http.MethodPost, "/automations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAndGetFunctionRoundTrips(t *testing.T) {
	r := NewRouter(NewHandler(newFakeStore(), newFakeFunctionStore(), t.TempDir(), nil), nil)

	body, _ := json.Marshal(map[string]any{"name": "greet", "source": "PRINT 1"})
	req := httptest.NewRequest(http.MethodPost, "/functions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created function.Definition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	getReq := httptest.NewRequest(http.MethodGet, "/functions/"+created.ID, nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	assert.Equal(t, http.StatusOK, getW.Code)
}

func TestFunctionRoutesReturn501WhenStoreNotConfigured(t *testing.T) {
	r := NewRouter(NewHandler(newFakeStore(), nil, t.TempDir(), nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/functions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRoutesRequireBearerTokenWhenConfigured(t *testing.T) {
	r := NewRouter(NewHandler(newFakeStore(), nil, t.TempDir(), nil), []string{"secret"})

	req := httptest.NewRequest(http.MethodGet, "/automations", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/automations", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
