package engine

import "encoding/json"

// Request types understood by the analysis engine worker.
const (
	RequestInitialize          = "initialize"
	RequestAnalyzeFiles        = "analyzeFiles"
	RequestValidateAcquisition = "validateAcquisition"
	RequestLoadProtocolFile    = "loadProtocolFile"
	RequestSearchFields        = "searchFields"
	RequestGetFieldInfo        = "getFieldInfo"
	RequestGenerateSchema      = "generateSchema"
	RequestGenerateTestDicoms  = "generateTestDicoms"
	RequestCategorizeFields    = "categorizeFields"
	RequestRunPython           = "runPython"
	RequestClearCache          = "clearCache"
)

var knownRequestTypes = map[string]struct{}{
	RequestInitialize:          {},
	RequestAnalyzeFiles:        {},
	RequestValidateAcquisition: {},
	RequestLoadProtocolFile:    {},
	RequestSearchFields:        {},
	RequestGetFieldInfo:        {},
	RequestGenerateSchema:      {},
	RequestGenerateTestDicoms:  {},
	RequestCategorizeFields:    {},
	RequestRunPython:           {},
	RequestClearCache:          {},
}

// Response frame kinds emitted by the worker.
const (
	frameSuccess  = "success"
	frameError    = "error"
	frameProgress = "progress"
	frameReady    = "ready"
)

// requestFrame is one newline-delimited JSON request on the worker's stdin.
type requestFrame struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// responseFrame is one newline-delimited JSON response on the worker's
// stdout. Fields beyond ID and Type are populated per frame kind.
type responseFrame struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// error frames
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`

	// progress frames
	Percentage     float64 `json:"percentage,omitempty"`
	Operation      string  `json:"operation,omitempty"`
	TotalFiles     int     `json:"totalFiles,omitempty"`
	TotalProcessed int     `json:"totalProcessed,omitempty"`
}

// Progress is one progress report for an in-flight request.
type Progress struct {
	Percentage     float64
	Operation      string
	TotalFiles     int
	TotalProcessed int
}

// VersionInfo reports the interpreter and analysis package versions after
// initialization.
type VersionInfo struct {
	Interpreter string `json:"interpreter"`
	Package     string `json:"package"`
}
