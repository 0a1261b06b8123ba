package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Hidde-Heijnen/know-your-rights/internal/decisionlog"
	"github.com/Hidde-Heijnen/know-your-rights/internal/engine"
	"github.com/Hidde-Heijnen/know-your-rights/internal/oracle"
)

func newTestServer(t *testing.T) (*Server, *decisionlog.Store) {
	t.Helper()
	store := decisionlog.NewStore(filepath.Join(t.TempDir(), "result.json"))
	stub := &oracle.StubCapability{Default: `{"nodeEvaluations": [{"nodeId": "root", "isRelevant": true, "relevanceScore": 0.9, "reasoning": "ok", "shouldExploreChildren": false}]}`}
	eng := &engine.Engine{
		OracleClient: oracle.NewClient(stub),
		Capability:   stub,
		Store:        store,
		MaxDepth:     4,
		Threshold:    0.3,
	}
	return NewServer(eng, store), store
}

func TestHandleStartTraversal_Success(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/traversals", strings.NewReader(newTraversalRequestBody()))
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleStartTraversal_HonoursMaxDepthOverride(t *testing.T) {
	server, _ := newTestServer(t)

	depth := 1
	body := struct {
		Document []byte         `json:"document"`
		CaseInfo map[string]any `json:"caseInfo"`
		MaxDepth *int           `json:"maxDepth"`
	}{
		Document: []byte(`{"id": "root", "title": "Root"}`),
		CaseInfo: map[string]any{"issue": "late delivery"},
		MaxDepth: &depth,
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/traversals", strings.NewReader(string(data)))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		TraversalPath []json.RawMessage `json:"traversalPath"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.TraversalPath) != 1 {
		t.Fatalf("expected maxDepth=1 to stop traversal after the root level, got %d decisions", len(result.TraversalPath))
	}
}

func TestHandleGetLatest_NotFoundWhenEmpty(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/results/latest", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for empty slot, got %d", rec.Code)
	}
}

func TestHandleDeleteLatest_NoContent(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/results/latest", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestHandleStartTraversal_BadJSONIsBadRequest(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/traversals", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// newTraversalRequestBody builds a startTraversalRequest whose "document"
// field is the raw document bytes the engine expects; encoding/json
// marshals a []byte field as base64, which json.Unmarshal on the server
// side reverses transparently.
func newTraversalRequestBody() string {
	req := struct {
		Document []byte         `json:"document"`
		CaseInfo map[string]any `json:"caseInfo"`
	}{
		Document: []byte(`{"id": "root", "title": "Root"}`),
		CaseInfo: map[string]any{"issue": "late delivery"},
	}
	data, _ := json.Marshal(req)
	return string(data)
}
