package transport

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"resource-editor-server/internal/errors"
	"resource-editor-server/internal/mcp"
	"resource-editor-server/internal/models"
	"resource-editor-server/internal/service"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = 60 * time.Second
	// Maximum accepted request body size.
	defaultMaxRequestSizeMB = 50
)

// HTTPHandler exposes the service over plain REST endpoints and the tool
// protocol over a JSON-RPC endpoint.
type HTTPHandler struct {
	service    service.ResourceEditorService
	processor  *mcp.Processor
	logger     *log.Logger
	maxReqSize int64
	Server     *http.Server
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(svc service.ResourceEditorService, processor *mcp.Processor, logger *log.Logger) *HTTPHandler {
	return &HTTPHandler{
		service:    svc,
		processor:  processor,
		logger:     logger,
		maxReqSize: int64(defaultMaxRequestSizeMB) * 1024 * 1024,
		Server:     &http.Server{},
	}
}

// RegisterRoutes sets up the HTTP routes for the handler.
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/edit_resource", h.handleEditResource)
	mux.HandleFunc("/load_resource", h.handleLoadResource)
	mux.HandleFunc("/write_resource", h.handleWriteResource)
	mux.HandleFunc("/list_resources", h.handleListResources)
	mux.HandleFunc("/rpc", h.handleJSONRPC)
	mux.HandleFunc("/health", h.handleHealthCheck)
}

func (h *HTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.Printf("Error encoding JSON response: %v", err)
		}
	}
}

func (h *HTTPHandler) writeJSONErrorResponse(w http.ResponseWriter, httpStatusCode int, errorDetail *models.ErrorDetail) {
	if errorDetail == nil {
		errorDetail = errors.NewInternalError("An unexpected error occurred and error details were lost.")
		httpStatusCode = http.StatusInternalServerError
	}
	h.writeJSONResponse(w, httpStatusCode, errors.ToErrorResponse(errorDetail))
}

func (h *HTTPHandler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody enforces the POST method, JSON content type and body size limit,
// then strictly decodes the body into dst. It reports whether decoding
// succeeded; on failure the error response has already been written.
func (h *HTTPHandler) decodeBody(w http.ResponseWriter, r *http.Request, endpoint string, dst interface{}) bool {
	if r.Method != http.MethodPost {
		h.writeJSONErrorResponse(w, http.StatusMethodNotAllowed,
			errors.NewInvalidRequestError(fmt.Sprintf("Method %s not allowed for %s. Use POST.", r.Method, endpoint)))
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		h.writeJSONErrorResponse(w, http.StatusUnsupportedMediaType,
			errors.NewInvalidRequestError("Invalid Content-Type header. Must be 'application/json'."))
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxReqSize)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case stdErrors.As(err, &maxBytesErr):
			h.writeJSONErrorResponse(w, http.StatusRequestEntityTooLarge,
				errors.NewInvalidRequestError(fmt.Sprintf("Request body exceeds maximum size of %dMB.", defaultMaxRequestSizeMB)))
		case stdErrors.As(err, &syntaxErr):
			h.writeJSONErrorResponse(w, http.StatusBadRequest,
				errors.NewParseError(fmt.Sprintf("Invalid JSON syntax at offset %d: %s", syntaxErr.Offset, syntaxErr.Error())))
		case stdErrors.As(err, &typeErr):
			h.writeJSONErrorResponse(w, http.StatusBadRequest,
				errors.NewParseError(fmt.Sprintf("Invalid JSON type for field '%s': expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)))
		default:
			h.writeJSONErrorResponse(w, http.StatusBadRequest,
				errors.NewParseError(fmt.Sprintf("Failed to decode request body: %v", err)))
		}
		return false
	}
	return true
}

func (h *HTTPHandler) handleEditResource(w http.ResponseWriter, r *http.Request) {
	var req models.EditResourceRequest
	if !h.decodeBody(w, r, "/edit_resource", &req) {
		return
	}
	resp, serviceErr := h.service.EditResource(&req)
	if serviceErr != nil {
		h.writeJSONErrorResponse(w, errors.MapErrorToHTTPStatus(serviceErr.Code, serviceErr), serviceErr)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleLoadResource(w http.ResponseWriter, r *http.Request) {
	var req models.LoadResourceRequest
	if !h.decodeBody(w, r, "/load_resource", &req) {
		return
	}
	resp, serviceErr := h.service.LoadResource(&req)
	if serviceErr != nil {
		h.writeJSONErrorResponse(w, errors.MapErrorToHTTPStatus(serviceErr.Code, serviceErr), serviceErr)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleWriteResource(w http.ResponseWriter, r *http.Request) {
	var req models.WriteResourceRequest
	if !h.decodeBody(w, r, "/write_resource", &req) {
		return
	}
	resp, serviceErr := h.service.WriteResource(&req)
	if serviceErr != nil {
		h.writeJSONErrorResponse(w, errors.MapErrorToHTTPStatus(serviceErr.Code, serviceErr), serviceErr)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleListResources(w http.ResponseWriter, r *http.Request) {
	var req models.ListResourcesRequest
	if !h.decodeBody(w, r, "/list_resources", &req) {
		return
	}
	resp, serviceErr := h.service.ListResources(&req)
	if serviceErr != nil {
		h.writeJSONErrorResponse(w, errors.MapErrorToHTTPStatus(serviceErr.Code, serviceErr), serviceErr)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

// handleJSONRPC serves the tool protocol over HTTP. All responses are 200
// with a JSON-RPC envelope; transport-level failures use HTTP status codes.
func (h *HTTPHandler) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req models.JSONRPCRequest
	if !h.decodeBody(w, r, "/rpc", &req) {
		return
	}

	resp := models.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID}
	if req.JSONRPC != "2.0" {
		resp.Error = errors.ToJSONRPCError(errors.NewInvalidRequestError("invalid JSON-RPC version, must be '2.0'"))
	} else {
		result, rpcErr := h.processor.ProcessRequest(req)
		resp.Result = result
		resp.Error = rpcErr
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

// StartServer configures and starts the HTTP server. It blocks until the
// server stops; http.ErrServerClosed is treated as a clean shutdown.
func (h *HTTPHandler) StartServer(port int, readTimeoutSec, writeTimeoutSec int) error {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	readTimeout := defaultReadTimeout
	if readTimeoutSec > 0 {
		readTimeout = time.Duration(readTimeoutSec) * time.Second
	}
	writeTimeout := defaultWriteTimeout
	if writeTimeoutSec > 0 {
		writeTimeout = time.Duration(writeTimeoutSec) * time.Second
	}

	h.Server.Addr = fmt.Sprintf(":%d", port)
	h.Server.Handler = mux
	h.Server.ReadTimeout = readTimeout
	h.Server.WriteTimeout = writeTimeout

	h.logger.Printf("HTTP server starting on port %d (ReadTimeout: %s, WriteTimeout: %s)", port, readTimeout, writeTimeout)
	err := h.Server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		h.logger.Printf("HTTP server ListenAndServe error: %v", err)
		return err
	}
	h.logger.Printf("HTTP server on port %d shut down.", port)
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (h *HTTPHandler) Shutdown(ctx context.Context) error {
	return h.Server.Shutdown(ctx)
}
