package models

import "encoding/json"

// Record is one row of tabular data, keyed by column name.
// Cell values are kept as strings; numeric interpretation happens at
// analysis time.
type Record map[string]string

// Dataset is the full contents of one uploaded or submitted table.
// Columns preserves header order, which Go maps would otherwise lose.
type Dataset struct {
	Columns []string
	Records []Record
}

// Insight types produced by the profiler.
const (
	InsightOverview    = "overview"
	InsightNumeric     = "numeric"
	InsightCategorical = "categorical"
)

// Insight is one human-readable statement about a dataset.
type Insight struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ChatMessage is a single conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message             string        `json:"message"`
	Role                string        `json:"role"`
	Language            string        `json:"language"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
	HasData             bool          `json:"hasData"`
	DataContext         string        `json:"dataContext"`
}

// ChatResponse is returned by POST /api/chat.
type ChatResponse struct {
	Response string          `json:"response"`
	Usage    json.RawMessage `json:"usage,omitempty"`
	Model    string          `json:"model,omitempty"`
}

// FileResult is one entry of the upload response; either the parsed
// summary or a per-file error, never both.
type FileResult struct {
	Filename    string    `json:"filename"`
	RecordCount int       `json:"recordCount,omitempty"`
	Columns     []string  `json:"columns,omitempty"`
	Data        []Record  `json:"data,omitempty"`
	Insights    []Insight `json:"insights,omitempty"`
	Error       string    `json:"error,omitempty"`
	Success     bool      `json:"success"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Results []FileResult `json:"results"`
}

// AnalyzeRequest is the body of POST /api/analyze. Data stays raw so
// the handler can recover column order from the first record's JSON.
type AnalyzeRequest struct {
	Data         []json.RawMessage `json:"data"`
	Role         string            `json:"role"`
	Language     string            `json:"language"`
	AnalysisType string            `json:"analysisType"`
}

// DatasetStats summarizes the table an analysis ran over.
type DatasetStats struct {
	RecordCount    int      `json:"recordCount"`
	ColumnCount    int      `json:"columnCount"`
	NumericColumns int      `json:"numericColumns"`
	Columns        []string `json:"columns"`
}

// AnalyzeResponse is returned by POST /api/analyze.
type AnalyzeResponse struct {
	Analysis string       `json:"analysis"`
	Insights []Insight    `json:"insights"`
	Stats    DatasetStats `json:"stats"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	GroqConnected bool   `json:"groqConnected"`
	Timestamp     string `json:"timestamp"`
	Version       string `json:"version"`
}

// ErrorResponse is the generic JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
