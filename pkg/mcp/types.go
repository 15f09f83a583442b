package mcp

import "encoding/json"

// JSON-RPC method and error codes used by the automation server.
const (
	methodToolsCall = "tools/call"
	jsonRPCVersion  = "2.0"

	// CodeMethodNotFound is returned for unknown methods and unknown tools.
	CodeMethodNotFound = -32601
	// CodeInternalError is returned when a tool fails while running.
	CodeInternalError = -32603
)

// requestID is fixed: calls are sequential, so no correlation is needed.
const requestID = 1

// ToolDescriptor describes one remote tool as listed by the server.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// Arguments is the JSON-value tree sent as params.arguments.
type Arguments map[string]any

// HealthStatus mirrors the server's GET /health report.
type HealthStatus struct {
	Status         string   `json:"status"`
	Service        string   `json:"service,omitempty"`
	ActiveSession  *string  `json:"activeSession,omitempty"`
	ActiveSessions []string `json:"activeSessions,omitempty"`
	AvailableTools int      `json:"availableTools,omitempty"`
	Timestamp      string   `json:"timestamp,omitempty"`
}

type toolList struct {
	Tools []ToolDescriptor `json:"tools"`
}

type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	Method  string     `json:"method"`
	Params  callParams `json:"params"`
	ID      int        `json:"id"`
}

type callParams struct {
	Name      string    `json:"name"`
	Arguments Arguments `json:"arguments"`
}

type rpcResponse struct {
	Result *callResult     `json:"result,omitempty"`
	Error  *rpcErrorBody   `json:"error,omitempty"`
	ID     json.RawMessage `json:"id,omitempty"`
}

type rpcErrorBody struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type callResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type contentBlock struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}
