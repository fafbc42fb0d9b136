package transport

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resource-editor-server/internal/errors"
	"resource-editor-server/internal/mcp"
	"resource-editor-server/internal/models"
)

func newHTTPFixture(svc *stubService) *http.ServeMux {
	handler := NewHTTPHandler(svc, mcp.NewProcessor(svc), log.New(io.Discard, "", 0))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func postJSON(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHTTPHealthCheck(t *testing.T) {
	mux := newHTTPFixture(&stubService{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHTTPEditResource(t *testing.T) {
	svc := &stubService{editResult: &models.EditResourceResult{
		ResourcePath:         "f.txt",
		OperationsApplied:    1,
		OperationsSuccessful: 1,
		OperationStatus:      "All operations succeeded",
	}}
	mux := newHTTPFixture(svc)

	rec := postJSON(t, mux, "/edit_resource", `{"resourcePath":"f.txt","operations":[{"editType":"searchReplace","searchReplace_search":"a","searchReplace_replace":"b"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result models.EditResourceResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if result.OperationStatus != "All operations succeeded" {
		t.Errorf("result = %+v", result)
	}
}

func TestHTTPErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *models.ErrorDetail
		want int
	}{
		{"no changes", errors.NewNoChangesError("f.txt"), http.StatusConflict},
		{"access denied", errors.NewAccessDeniedError("../x", "local"), http.StatusForbidden},
		{"data source not found", errors.NewDataSourceNotFoundError("cloud"), http.StatusNotFound},
		{"capability unsupported", errors.NewCapabilityUnsupportedError("filesystem", "edit"), http.StatusUnprocessableEntity},
		{"unsupported content", errors.NewUnsupportedContentError("f.bin", "binary"), http.StatusUnsupportedMediaType},
		{"resource not found", errors.NewResourceNotFoundError("f.txt", "edit"), http.StatusNotFound},
		{"invalid input", errors.NewInvalidInputError("bad"), http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mux := newHTTPFixture(&stubService{editErr: tc.err})
			rec := postJSON(t, mux, "/edit_resource", `{"resourcePath":"f.txt","operations":[]}`)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			var errResp models.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("bad error body: %v", err)
			}
			if errResp.Error.Code != tc.err.Code {
				t.Errorf("error code = %d, want %d", errResp.Error.Code, tc.err.Code)
			}
		})
	}
}

func TestHTTPRejectsWrongMethod(t *testing.T) {
	mux := newHTTPFixture(&stubService{})
	req := httptest.NewRequest(http.MethodGet, "/edit_resource", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHTTPRejectsWrongContentType(t *testing.T) {
	mux := newHTTPFixture(&stubService{})
	req := httptest.NewRequest(http.MethodPost, "/edit_resource", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHTTPRejectsUnknownFields(t *testing.T) {
	mux := newHTTPFixture(&stubService{})
	rec := postJSON(t, mux, "/edit_resource", `{"resourcePath":"f.txt","operations":[],"bogus":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHTTPRejectsMalformedJSON(t *testing.T) {
	mux := newHTTPFixture(&stubService{})
	rec := postJSON(t, mux, "/edit_resource", `{"resourcePath":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHTTPJSONRPCEndpoint(t *testing.T) {
	mux := newHTTPFixture(&stubService{})
	rec := postJSON(t, mux, "/rpc", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp models.JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("error = %+v", resp.Error)
	}
	raw, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(raw), "edit_resource") {
		t.Errorf("result = %s", raw)
	}
}

func TestHTTPJSONRPCInvalidVersion(t *testing.T) {
	mux := newHTTPFixture(&stubService{})
	rec := postJSON(t, mux, "/rpc", `{"jsonrpc":"1.0","id":1,"method":"tools/list"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp models.JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != errors.CodeInvalidRequest {
		t.Errorf("error = %+v", resp.Error)
	}
}
