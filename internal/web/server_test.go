package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/cdm/internal/config"
	"github.com/JonMunkholm/cdm/internal/core"
	"github.com/JonMunkholm/cdm/internal/store/memstore"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	vars := map[string]string{"STORE_DRIVER": "memory", "RATE_LIMIT_ENABLED": "false"}
	for k, v := range env {
		vars[k] = v
	}
	cfg, err := config.LoadFrom(config.MapLookup(vars))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func newTestServer(t *testing.T, env map[string]string) *Server {
	t.Helper()
	cfg := testConfig(t, env)
	srv := NewServer(core.NewService(memstore.New(), cfg), cfg)
	t.Cleanup(func() { srv.Shutdown(t.Context()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestObjectCRUD(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/objects", map[string]any{"object": "Customer", "being": "Party"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decode[core.Object](t, rec)
	if created.ID == "" {
		t.Fatal("created object has no id")
	}

	rec = do(t, srv, http.MethodGet, "/api/objects/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	created.Identifier = "CUST"
	rec = do(t, srv, http.MethodPut, "/api/objects/"+created.ID, created)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[core.Object](t, rec).Identifier; got != "CUST" {
		t.Errorf("identifier = %q", got)
	}

	rec = do(t, srv, http.MethodGet, "/api/objects?q=cust", nil)
	view := decode[core.ViewResult](t, rec)
	if view.TotalRows != 1 || view.Rows[0].ID != created.ID {
		t.Errorf("view = %+v", view)
	}

	rec = do(t, srv, http.MethodDelete, "/api/objects/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/objects/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
	if code := decode[ErrorResponse](t, rec).Code; code != "ENT001" {
		t.Errorf("code = %q, want ENT001", code)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"unknown kind", http.MethodGet, "/api/widgets", nil, http.StatusBadRequest},
		{"missing required", http.MethodPost, "/api/objects", map[string]any{"being": "Party"}, http.StatusUnprocessableEntity},
		{"malformed json", http.MethodPost, "/api/objects", "{", http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/objects", map[string]any{"object": "A", "colour": "red"}, http.StatusBadRequest},
		{"order on id column", http.MethodPut, "/api/objects/default-order",
			map[string]any{"levels": []map[string]any{{"column": "ID", "values": []string{"x"}}}}, http.StatusUnprocessableEntity},
		{"candidates need column", http.MethodGet, "/api/objects/default-order/candidates", nil, http.StatusBadRequest},
		{"bad audit time", http.MethodGet, "/api/audit-log?since=yesterday", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("content type = %q", ct)
			}
		})
	}
}

func TestValidationDetails(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/lists", map[string]any{"set": "S"})
	resp := decode[ErrorResponse](t, rec)
	if len(resp.Details) == 0 {
		t.Fatalf("expected validation details, got %s", rec.Body)
	}
}

func TestBulkDeleteRejected(t *testing.T) {
	srv := newTestServer(t, nil)
	obj := decode[core.Object](t, do(t, srv, http.MethodPost, "/api/objects", map[string]any{"object": "A"}))

	rec := do(t, srv, http.MethodPost, "/api/objects/bulk-delete", BulkDeleteRequest{IDs: []string{obj.ID, "missing"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[bulkRejectedResponse](t, rec)
	if len(resp.Result.Failures) != 1 || resp.Result.Failures[0].ID != "missing" {
		t.Errorf("failures = %+v", resp.Result.Failures)
	}

	// Rolled back: the valid object is still there.
	if rec := do(t, srv, http.MethodGet, "/api/objects/"+obj.ID, nil); rec.Code != http.StatusOK {
		t.Errorf("object deleted despite rejection, status %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/objects/bulk-delete", BulkDeleteRequest{IDs: []string{obj.ID}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[core.BulkResult](t, rec).Affected; got != 1 {
		t.Errorf("affected = %d", got)
	}
}

func TestBulkEdit(t *testing.T) {
	srv := newTestServer(t, nil)
	a := decode[core.Object](t, do(t, srv, http.MethodPost, "/api/objects", map[string]any{"object": "A"}))
	b := decode[core.Object](t, do(t, srv, http.MethodPost, "/api/objects", map[string]any{"object": "B"}))

	rec := do(t, srv, http.MethodPost, "/api/objects/bulk-edit", BulkEditRequest{IDs: []string{a.ID, b.ID}, Column: "Being", Value: "Party"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	rec = do(t, srv, http.MethodGet, "/api/objects?filter[Being]=eq:party", nil)
	if got := decode[core.ViewResult](t, rec).TotalRows; got != 2 {
		t.Errorf("rows with Being=Party = %d, want 2", got)
	}

	rec = do(t, srv, http.MethodPost, "/api/objects/bulk-edit", BulkEditRequest{IDs: []string{a.ID}, Column: "Relationships", Value: "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("read-only column status = %d", rec.Code)
	}
}

func upload(t *testing.T, srv *Server, path, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestUploadDrivers(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := upload(t, srv, "/api/drivers/upload", "drivers.csv", "\ufeffCategory,Name\nsector,Retail\ndomain,Sales\nbogus,Nope\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	result := decode[core.UploadResult](t, rec)
	if result.Created != 2 || result.Skipped != 1 || result.FileName != "drivers.csv" {
		t.Errorf("result = %+v", result)
	}

	rec = do(t, srv, http.MethodGet, "/api/driver-catalog", nil)
	catalog := decode[core.DriverCatalog](t, rec)
	if diff := cmp.Diff([]string{"Retail"}, catalog.Sectors); diff != "" {
		t.Errorf("sectors (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodPost, "/api/driver-strings/parse", DriverStringRequest{Driver: "retail, sales"})
	if rec.Code != http.StatusOK {
		t.Fatalf("parse status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[DriverStringResponse](t, rec).Driver; got != "Retail, Sales, ALL, ALL" {
		t.Errorf("canonical driver = %q", got)
	}

	rec = do(t, srv, http.MethodPost, "/api/driver-strings/parse", DriverStringRequest{Driver: "Unknown"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown driver status = %d", rec.Code)
	}
}

func TestUploadRejectsUnknownHeader(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := upload(t, srv, "/api/lists/upload", "lists.csv", "List,Colour\nA,red\n")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestUploadRequiresFile(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/lists/upload", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestPreferences(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPut, "/api/preferences/grid.objects", `{"pageSize":100}`, "X-Client-ID", "alice")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body)
	}

	rec = do(t, srv, http.MethodGet, "/api/preferences/grid.objects", nil, "X-Client-ID", "alice")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"pageSize":100}` {
		t.Errorf("get = %d %s", rec.Code, rec.Body)
	}

	rec = do(t, srv, http.MethodGet, "/api/preferences/grid.objects", nil, "X-Client-ID", "bob")
	if rec.Code != http.StatusNotFound {
		t.Errorf("other client status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPut, "/api/preferences/grid.objects", `not json`, "X-Client-ID", "alice")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid json status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodDelete, "/api/preferences/grid.objects", nil, "X-Client-ID", "alice")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
}

func TestDefaultOrderRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, name := range []string{"B", "A", "C"} {
		do(t, srv, http.MethodPost, "/api/objects", map[string]any{"object": name, "being": name})
	}

	body := DefaultOrderRequest{Levels: []core.DefaultOrderLevel{{Column: "Being", Values: []string{"C", "A"}}}}
	if rec := do(t, srv, http.MethodPut, "/api/objects/default-order", body); rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body)
	}

	rec := do(t, srv, http.MethodGet, "/api/objects?mode=default", nil)
	view := decode[core.ViewResult](t, rec)
	var got []string
	for _, row := range view.Rows {
		got = append(got, row.Cells[3])
	}
	if diff := cmp.Diff([]string{"C", "A", "B"}, got); diff != "" {
		t.Errorf("default order (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodGet, "/api/objects/default-order/candidates?column=Being", nil)
	cands := decode[map[string]any](t, rec)
	if diff := cmp.Diff([]any{"C", "A", "B"}, cands["values"]); diff != "" {
		t.Errorf("candidates (-want +got):\n%s", diff)
	}

	if rec := do(t, srv, http.MethodDelete, "/api/objects/default-order", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, nil)
	do(t, srv, http.MethodPost, "/api/lists", map[string]any{"list": "Colours"})

	rec := do(t, srv, http.MethodGet, "/api/lists/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "ID,Set,Grouping,List,Tiers,Values\n") {
		t.Errorf("export = %q", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Colours") {
		t.Errorf("export missing row: %q", rec.Body.String())
	}
}

func TestCloneAndGraph(t *testing.T) {
	srv := newTestServer(t, nil)
	a := decode[core.Object](t, do(t, srv, http.MethodPost, "/api/objects", map[string]any{"object": "Order"}))
	b := decode[core.Object](t, do(t, srv, http.MethodPost, "/api/objects", map[string]any{
		"object":        "Line",
		"relationships": []map[string]any{{"type": "Blood", "objectId": a.ID}},
	}))

	rec := do(t, srv, http.MethodPost, "/api/objects/"+a.ID+"/clone", nil)
	clone := decode[core.Object](t, rec)
	if clone.ID != "" || clone.Object != "Order (Copy)" {
		t.Errorf("clone = %+v", clone)
	}

	rec = do(t, srv, http.MethodGet, "/api/graph/objects/"+a.ID, nil)
	g := decode[core.Graph](t, rec)
	if len(g.Nodes) != 2 || len(g.Edges) != 1 || g.Edges[0].From != b.ID {
		t.Errorf("graph = %+v", g)
	}

	rec = do(t, srv, http.MethodGet, "/api/graph/objects/"+a.ID+"?format=dot", nil)
	if !strings.HasPrefix(rec.Body.String(), "digraph") {
		t.Errorf("dot = %q", rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/graph/objects/"+a.ID, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Line") {
		t.Errorf("graph page = %d %s", rec.Code, rec.Body)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{"Drivers", "Objects", "Variables", "Lists"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestHTMLErrorPage(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/graph/objects/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ENT001") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestAPIKeyRequired(t *testing.T) {
	srv := newTestServer(t, map[string]string{"REQUIRE_API_KEY": "true", "API_KEYS": "secret"})

	if rec := do(t, srv, http.MethodGet, "/api/entities", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/entities", nil, "X-API-Key", "secret"); rec.Code != http.StatusOK {
		t.Errorf("with key status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("health should not need a key, status = %d", rec.Code)
	}
}

func TestAuditLogRoute(t *testing.T) {
	srv := newTestServer(t, nil)
	do(t, srv, http.MethodPost, "/api/lists", map[string]any{"list": "L"})

	rec := do(t, srv, http.MethodGet, "/api/audit-log?kind=lists&action=create", nil)
	entries := decode[[]core.AuditEntry](t, rec)
	if len(entries) != 1 || entries[0].Kind != core.KindLists {
		t.Errorf("entries = %+v", entries)
	}
}

func TestViewInFilterOnDriver(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, name := range []string{"Retail", "Finance", "Energy"} {
		if rec := do(t, srv, http.MethodPost, "/api/drivers", map[string]any{"category": "sector", "name": name}); rec.Code != http.StatusCreated {
			t.Fatalf("create driver %s: status %d, body %s", name, rec.Code, rec.Body)
		}
	}
	for _, d := range []string{"retail", "finance", "energy"} {
		if rec := do(t, srv, http.MethodPost, "/api/objects", map[string]any{"object": d, "driver": d}); rec.Code != http.StatusCreated {
			t.Fatalf("create object: status %d, body %s", rec.Code, rec.Body)
		}
	}

	q := url.Values{}
	q.Set("filter[Driver]", "in:Retail, ALL, ALL, ALL|Energy, ALL, ALL, ALL")
	rec := do(t, srv, http.MethodGet, "/api/objects?"+q.Encode(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[core.ViewResult](t, rec).TotalRows; got != 2 {
		t.Errorf("rows = %d, want 2", got)
	}
}
