// Package transport exposes the tool processor over line-delimited JSON-RPC
// on stdio and over HTTP.
package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"resource-editor-server/internal/errors"
	"resource-editor-server/internal/mcp"
	"resource-editor-server/internal/models"
)

// maxLineBytes bounds one stdio request line.
const maxLineBytes = 10 * 1024 * 1024

// StdioHandler handles JSON-RPC communication over standard input/output.
// One request per line, one response line per request.
type StdioHandler struct {
	processor *mcp.Processor
	logger    *log.Logger
}

// NewStdioHandler creates a new StdioHandler.
func NewStdioHandler(processor *mcp.Processor, logger *log.Logger) *StdioHandler {
	return &StdioHandler{processor: processor, logger: logger}
}

func (h *StdioHandler) writeResponse(writer io.Writer, response models.JSONRPCResponse) {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		h.logger.Printf("Error marshaling JSON-RPC response (id %v): %v", response.ID, err)
		fallback := models.JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      response.ID,
			Error:   errors.ToJSONRPCError(errors.NewInternalError("failed to marshal response")),
		}
		responseBytes, _ = json.Marshal(fallback)
	}
	if _, err := fmt.Fprintln(writer, string(responseBytes)); err != nil {
		h.logger.Printf("Error writing JSON-RPC response: %v", err)
	}
}

// Start reads JSON-RPC requests from input line by line until EOF, writing
// one response line per request.
func (h *StdioHandler) Start(input io.Reader, output io.Writer) error {
	h.logger.Println("Starting stdio JSON-RPC handler")

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(bytes.TrimSpace(lineBytes)) == 0 {
			continue
		}

		var jsonReq models.JSONRPCRequest
		if err := json.Unmarshal(lineBytes, &jsonReq); err != nil {
			h.writeResponse(output, models.JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   errors.ToJSONRPCError(errors.NewParseError(fmt.Sprintf("invalid JSON received: %v", err))),
			})
			continue
		}

		resp := models.JSONRPCResponse{JSONRPC: "2.0", ID: jsonReq.ID}

		switch {
		case jsonReq.JSONRPC != "2.0":
			resp.Error = errors.ToJSONRPCError(errors.NewInvalidRequestError("invalid JSON-RPC version, must be '2.0'"))
		case jsonReq.Method == "":
			resp.Error = errors.ToJSONRPCError(errors.NewInvalidRequestError("method not specified"))
		default:
			result, rpcErr := h.dispatch(jsonReq)
			resp.Result = result
			resp.Error = rpcErr
		}
		h.writeResponse(output, resp)
	}

	if err := scanner.Err(); err != nil {
		h.logger.Printf("Error reading from stdio: %v", err)
		return err
	}
	h.logger.Println("Stdio JSON-RPC handler finished")
	return nil
}

// dispatch routes protocol methods through the processor. Tool names may also
// be used directly as JSON-RPC methods with the tool arguments as params.
func (h *StdioHandler) dispatch(req models.JSONRPCRequest) (interface{}, *models.JSONRPCError) {
	switch req.Method {
	case "edit_resource", "load_resource", "write_resource", "list_resources":
		result, rpcErr := h.processor.CallTool(req.Method, req.Params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		return result, nil
	default:
		return h.processor.ProcessRequest(req)
	}
}
