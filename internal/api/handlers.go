package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"narrative-backend/internal/analysis"
	"narrative-backend/internal/config"
	"narrative-backend/internal/lang"
	"narrative-backend/internal/llm"
	"narrative-backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	MaxUploadFiles = 10
	MaxFileSize    = 10 * 1024 * 1024 // 10MB per file

	previewRows = 100
)

var availableEndpoints = []string{
	"GET /api/health",
	"POST /api/chat",
	"POST /api/upload",
	"POST /api/analyze",
	"GET /api/languages",
}

type Handler struct {
	Config     config.Config
	LLMService *llm.Service
}

func NewHandler(cfg config.Config, llmSvc *llm.Service) *Handler {
	return &Handler{
		Config:     cfg,
		LLMService: llmSvc,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.HealthCheck)
	r.Post("/api/chat", h.Chat)
	r.Post("/api/upload", h.Upload)
	r.Post("/api/analyze", h.Analyze)
	r.Get("/api/languages", h.Languages)

	r.Get("/", h.Root)
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:        "OK",
		Message:       "Server is running",
		GroqConnected: h.LLMService.Connected(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       "1.0.0",
	})
}

// ============================================================================
// Chat
// ============================================================================

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Message is required"})
		return
	}
	if req.Role == "" {
		req.Role = "ceo"
	}
	if req.Language == "" {
		req.Language = "en"
	}

	result, err := h.LLMService.Converse(r.Context(), llm.ConverseRequest{
		Message:     req.Message,
		Role:        req.Role,
		Language:    req.Language,
		History:     req.ConversationHistory,
		HasData:     req.HasData,
		DataContext: req.DataContext,
	})
	if err != nil {
		log.Printf("Chat API error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to process chat request",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Response: result.Response,
		Usage:    result.Usage,
		Model:    result.Model,
	})
}

// ============================================================================
// Upload
// ============================================================================

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "No files uploaded"})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "No files uploaded"})
		return
	}
	if len(files) > MaxUploadFiles {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error: fmt.Sprintf("Too many files. Max is %d.", MaxUploadFiles),
		})
		return
	}

	// Whole-request rejections happen before any file is staged.
	for _, fh := range files {
		if fh.Size > MaxFileSize {
			writeJSON(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error: "File too large. Max size is 10MB.",
			})
			return
		}
		if !isCSV(fh) {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
				Error: "Only CSV files are allowed",
			})
			return
		}
	}

	results := make([]models.FileResult, 0, len(files))
	for _, fh := range files {
		results = append(results, h.processUpload(fh))
	}

	writeJSON(w, http.StatusOK, models.UploadResponse{Results: results})
}

func isCSV(fh *multipart.FileHeader) bool {
	if strings.HasSuffix(strings.ToLower(fh.Filename), ".csv") {
		return true
	}
	return fh.Header.Get("Content-Type") == "text/csv"
}

// processUpload parses one file and never fails the batch: a parse
// error becomes a per-file error entry.
func (h *Handler) processUpload(fh *multipart.FileHeader) models.FileResult {
	ds, err := h.stageAndParse(fh)
	if err != nil {
		log.Printf("Error parsing %s: %v", fh.Filename, err)
		return models.FileResult{
			Filename: fh.Filename,
			Error:    err.Error(),
			Success:  false,
		}
	}

	preview := ds.Records
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	return models.FileResult{
		Filename:    fh.Filename,
		RecordCount: len(ds.Records),
		Columns:     ds.Columns,
		Data:        preview,
		Insights:    analysis.GenerateInsights(ds),
		Success:     true,
	}
}

// stageAndParse writes the upload to the staging directory, parses it,
// and always removes the staged file afterwards, whatever the parse
// outcome.
func (h *Handler) stageAndParse(fh *multipart.FileHeader) (models.Dataset, error) {
	src, err := fh.Open()
	if err != nil {
		return models.Dataset{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	stagedPath := filepath.Join(h.Config.UploadDir, uuid.NewString()+"-"+filepath.Base(fh.Filename))
	staged, err := os.Create(stagedPath)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("stage upload: %w", err)
	}
	defer os.Remove(stagedPath)
	defer staged.Close()

	if _, err := io.Copy(staged, src); err != nil {
		return models.Dataset{}, fmt.Errorf("stage upload: %w", err)
	}
	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		return models.Dataset{}, fmt.Errorf("stage upload: %w", err)
	}

	return analysis.ParseCSV(staged)
}

// ============================================================================
// Analyze
// ============================================================================

var analysisPrompts = map[string]string{
	"general":     "Provide a comprehensive business analysis",
	"trends":      "Focus on trends and patterns in the data",
	"performance": "Analyze performance metrics and KPIs",
	"insights":    "Extract key insights and recommendations",
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Valid data array is required"})
		return
	}
	if len(req.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Valid data array is required"})
		return
	}

	ds, err := datasetFromJSON(req.Data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error:   "Valid data array is required",
			Details: err.Error(),
		})
		return
	}

	role := req.Role
	if role == "" {
		role = "ceo"
	}
	language := req.Language
	if language == "" {
		language = "en"
	}
	analysisType := req.AnalysisType
	if analysisType == "" {
		analysisType = "general"
	}

	numericCols := promptNumericColumns(ds)
	dataContext := buildDataContext(ds, numericCols)

	instruction, ok := analysisPrompts[analysisType]
	if !ok {
		instruction = analysisPrompts["general"]
	}
	prompt := fmt.Sprintf("%s for this business data: %s. Provide actionable insights from a %s perspective in %s.",
		instruction, dataContext, role, lang.DisplayName(language))

	result, err := h.LLMService.Converse(r.Context(), llm.ConverseRequest{
		Message:     prompt,
		Role:        role,
		Language:    language,
		HasData:     true,
		DataContext: dataContext,
	})
	if err != nil {
		log.Printf("Analysis API error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to analyze data",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, models.AnalyzeResponse{
		Analysis: result.Response,
		Insights: analysis.GenerateInsights(ds),
		Stats: models.DatasetStats{
			RecordCount:    len(ds.Records),
			ColumnCount:    len(ds.Columns),
			NumericColumns: len(numericCols),
			Columns:        ds.Columns,
		},
	})
}

// promptNumericColumns is the analyze endpoint's own numeric-column
// test: more than 5 of the first 10 values must parse. It is
// intentionally distinct from the profiler's sampled-ratio test; the
// two thresholds coexist and must not be unified.
func promptNumericColumns(ds models.Dataset) []string {
	limit := 10
	if len(ds.Records) < limit {
		limit = len(ds.Records)
	}

	var numeric []string
	for _, col := range ds.Columns {
		parsed := 0
		for i := 0; i < limit; i++ {
			if _, err := strconv.ParseFloat(strings.TrimSpace(ds.Records[i][col]), 64); err == nil {
				parsed++
			}
		}
		if parsed > 5 {
			numeric = append(numeric, col)
		}
	}
	return numeric
}

// buildDataContext renders the one-line dataset summary embedded in
// the analysis prompt.
func buildDataContext(ds models.Dataset, numericCols []string) string {
	ctx := fmt.Sprintf("Dataset: %d records, %d columns (%s)",
		len(ds.Records), len(ds.Columns), strings.Join(ds.Columns, ", "))

	if len(numericCols) == 0 {
		return ctx
	}

	stats := make([]string, 0, len(numericCols))
	for _, col := range numericCols {
		sum := 0.0
		count := 0
		for _, rec := range ds.Records {
			if v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64); err == nil {
				sum += v
				count++
			}
		}
		if count == 0 {
			continue
		}
		stats = append(stats, fmt.Sprintf("%s: avg %.2f", col, sum/float64(count)))
	}
	if len(stats) > 0 {
		ctx += ". Key metrics: " + strings.Join(stats, ", ")
	}
	return ctx
}

// datasetFromJSON materializes raw JSON records into a Dataset,
// recovering column order from the first record's key order, which a
// plain map decode would lose.
func datasetFromJSON(raw []json.RawMessage) (models.Dataset, error) {
	records := make([]models.Record, 0, len(raw))
	var columns []string

	for i, r := range raw {
		var obj map[string]any
		if err := json.Unmarshal(r, &obj); err != nil {
			return models.Dataset{}, fmt.Errorf("record %d is not an object", i)
		}

		rec := make(models.Record, len(obj))
		for k, v := range obj {
			rec[k] = cellString(v)
		}
		records = append(records, rec)

		if i == 0 {
			cols, err := columnOrder(r)
			if err != nil {
				return models.Dataset{}, fmt.Errorf("record 0 is not an object")
			}
			columns = cols
		}
	}

	return models.Dataset{Columns: columns, Records: records}, nil
}

func columnOrder(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}

	var cols []string
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := t.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", t)
		}
		cols = append(cols, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

func skipValue(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := t.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := t.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// ============================================================================
// Languages
// ============================================================================

func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"languages": lang.Supported})
}

// ============================================================================
// Root & catch-alls
// ============================================================================

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.Config.PublicDir, "index.html")
	if _, err := os.Stat(index); err == nil {
		http.ServeFile(w, r, index)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":            "Narrative AI Server Running",
		"status":             "OK",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"availableEndpoints": availableEndpoints,
	})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		log.Printf("Unknown API route requested: %s %s", r.Method, r.URL.Path)
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":              "API endpoint not found",
			"method":             r.Method,
			"path":               r.URL.Path,
			"availableEndpoints": availableEndpoints,
		})
		return
	}
	h.serveStatic(w, r)
}

// serveStatic tries an exact asset under the public directory, then
// the landing page, then a JSON 404.
func (h *Handler) serveStatic(w http.ResponseWriter, r *http.Request) {
	asset := filepath.Join(h.Config.PublicDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(asset); err == nil && !info.IsDir() {
		http.ServeFile(w, r, asset)
		return
	}

	index := filepath.Join(h.Config.PublicDir, "index.html")
	if _, err := os.Stat(index); err == nil {
		http.ServeFile(w, r, index)
		return
	}

	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Page not found",
		"message": "No static files found. Make sure your public directory contains index.html",
		"path":    r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
