package models

import "encoding/json"

// JSONRPCRequest represents a JSON-RPC request object.
type JSONRPCRequest struct {
	// JSONRPC specifies the version of the JSON-RPC protocol, must be "2.0".
	JSONRPC string `json:"jsonrpc"`
	// ID is a unique identifier established by the client. It can be a
	// string or a number; the server must reply with the same ID.
	ID interface{} `json:"id"`
	// Method is the name of the method to be invoked.
	Method string `json:"method"`
	// Params holds the parameter values for the invocation. Kept raw to
	// defer parsing until the method is known.
	Params json.RawMessage `json:"params"`
}

// JSONRPCErrorData defines the structure for the 'data' field within a
// JSON-RPC error object, providing application-specific error context.
type JSONRPCErrorData struct {
	// ResourcePath is the resource involved in the error, if applicable.
	ResourcePath string `json:"resourcePath,omitempty"`
	// DataSource is the data source ID involved in the error, if applicable.
	DataSource string `json:"dataSource,omitempty"`
	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`
	// Timestamp records when the error occurred.
	Timestamp string `json:"timestamp,omitempty"`
	// Details provides any other specific details about the error.
	Details string `json:"details,omitempty"`
}

// JSONRPCError represents a JSON-RPC error object.
type JSONRPCError struct {
	// Code indicates the error type that occurred.
	Code int `json:"code"`
	// Message is a short description of the error.
	Message string `json:"message"`
	// Data carries additional information about the error. May be omitted.
	Data *JSONRPCErrorData `json:"data,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response object. Exactly one of
// Result and Error is set.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}
