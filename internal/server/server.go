// Package server exposes the pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"docanswer/constants"
	"docanswer/internal/common"
	"docanswer/internal/export"
	"docanswer/internal/observability"
	"docanswer/internal/pipeline"
	"docanswer/internal/pricing"
)

// batch manifest: one question per uploaded file, by filename.
const manifestSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["file_name", "question"],
		"properties": {
			"file_name": {"type": "string", "minLength": 1},
			"question": {"type": "string", "minLength": 1},
			"question_type": {"type": "string"}
		}
	}
}`

var compiledManifestSchema = jsonschema.MustCompileString("manifest.json", manifestSchema)

type manifestEntry struct {
	FileName     string `json:"file_name"`
	Question     string `json:"question"`
	QuestionType string `json:"question_type"`
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	pipe           *pipeline.Pipeline
	exporter       *export.Service
	metrics        *observability.Metrics
	uploadDir      string
	maxUploadBytes int64
	logger         *slog.Logger
}

type Option func(*Server)

func WithExporter(e *export.Service) Option {
	return func(s *Server) { s.exporter = e }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func New(pipe *pipeline.Pipeline, uploadDir string, maxUploadBytes int64, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipe:           pipe,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/pricing", s.handlePricing)
	r.Post("/summarize", s.handleSummarize)
	r.Post("/batch-summarize", s.handleBatchSummarize)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	if s.exporter != nil {
		r.Get("/usage-report", s.handleUsageReport)
	}
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "docanswer",
		"endpoints": []string{
			"POST /summarize", "POST /batch-summarize",
			"GET /health", "GET /pricing", "GET /metrics", "GET /usage-report",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"openai":    s.pipe.Pricing("openai"),
			"anthropic": s.pipe.Pricing("anthropic"),
		})
		return
	}
	// report under the provider whose table actually answered
	resolved := pricing.ResolveProvider(provider)
	writeJSON(w, http.StatusOK, map[string]any{resolved: s.pipe.Pricing(resolved)})
}

func (s *Server) handleUsageReport(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.UsageReportXLSX(r.Context())
	if err != nil {
		s.logger.Error("server.usage_report.error", "error", err)
		writeError(w, http.StatusInternalServerError, "usage report failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="usage-report.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	question := r.FormValue("question")
	if question == "" {
		writeError(w, http.StatusBadRequest, "missing question field")
		return
	}

	path, cleanup, err := s.saveUpload(file, hdr.Filename)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	defer cleanup()

	res, err := s.pipe.Run(r.Context(), pipeline.Request{
		Path:           path,
		DocumentName:   hdr.Filename,
		Question:       question,
		IntentOverride: r.FormValue("question_type"),
	})
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse(res, hdr, question))
}

func (s *Server) handleBatchSummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	var manifest []manifestEntry
	rawManifest := r.FormValue("questions")
	if rawManifest == "" {
		writeError(w, http.StatusBadRequest, "missing questions manifest")
		return
	}
	var generic any
	if err := json.Unmarshal([]byte(rawManifest), &generic); err != nil {
		writeError(w, http.StatusBadRequest, "questions manifest is not valid JSON")
		return
	}
	if err := compiledManifestSchema.Validate(generic); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid questions manifest: %v", err))
		return
	}
	if err := json.Unmarshal([]byte(rawManifest), &manifest); err != nil {
		writeError(w, http.StatusBadRequest, "questions manifest is not valid JSON")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "missing files")
		return
	}
	if len(files) != len(manifest) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("manifest has %d entries but %d files were uploaded", len(manifest), len(files)))
		return
	}

	byName := make(map[string]*multipart.FileHeader, len(files))
	for _, fh := range files {
		byName[fh.Filename] = fh
	}

	reqs := make([]pipeline.Request, 0, len(manifest))
	var cleanups []func()
	defer func() {
		for _, c := range cleanups {
			c()
		}
	}()
	consumed := make(map[string]bool, len(manifest))
	for _, entry := range manifest {
		if consumed[entry.FileName] {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("manifest names %q more than once", entry.FileName))
			return
		}
		consumed[entry.FileName] = true
		fh, ok := byName[entry.FileName]
		if !ok {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("manifest names %q but no such file was uploaded", entry.FileName))
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read %q", entry.FileName))
			return
		}
		path, cleanup, err := s.saveUpload(f, fh.Filename)
		f.Close()
		if err != nil {
			s.writePipelineError(w, err)
			return
		}
		cleanups = append(cleanups, cleanup)
		reqs = append(reqs, pipeline.Request{
			Path:           path,
			DocumentName:   entry.FileName,
			Question:       entry.Question,
			IntentOverride: entry.QuestionType,
		})
	}

	items := s.pipe.RunBatch(r.Context(), reqs)
	results := make([]map[string]any, len(items))
	succeeded := 0
	var costs []pricing.CostResult
	for i, it := range items {
		if it.Err != nil {
			results[i] = map[string]any{
				"success":       false,
				"document_name": it.Document,
				"error":         it.Err.Error(),
			}
			continue
		}
		succeeded++
		costs = append(costs, it.Result.Cost)
		results[i] = map[string]any{
			"success":       true,
			"document_name": it.Document,
			"question_type": it.Result.Intent,
			"answer":        it.Result.Answer,
			"sections":      it.Result.Sections,
			"usage":         it.Result.Usage,
			"cost":          it.Result.Cost,
			"provider":      it.Result.Provider,
			"model":         it.Result.Model,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":      len(items),
		"succeeded":  succeeded,
		"failed":     len(items) - succeeded,
		"total_cost": pricing.Aggregate(costs),
		"results":    results,
	})
}

// saveUpload rejects unsupported extensions up front and spools the
// upload to a temp file under the upload dir.
func (s *Server) saveUpload(src io.Reader, filename string) (string, func(), error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return "", nil, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("unsupported file extension %q", ext), common.ErrUnsupportedFormat)
	}
	tmp, err := os.CreateTemp(s.uploadDir, "upload-*."+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("close upload file: %w", err)
	}
	name := tmp.Name()
	return name, func() { os.Remove(name) }, nil
}

func summaryResponse(res *pipeline.Result, hdr *multipart.FileHeader, question string) map[string]any {
	return map[string]any{
		"success":       true,
		"document_name": hdr.Filename,
		"question":      question,
		"question_type": res.Intent,
		"answer":        res.Answer,
		"sections":      res.Sections,
		"format_info":   res.FormatInfo,
		"usage":         res.Usage,
		"cost":          res.Cost,
		"provider":      res.Provider,
		"model":         res.Model,
		"metadata": map[string]any{
			"file_name":         hdr.Filename,
			"file_size":         hdr.Size,
			"file_type":         constants.NormalizeExt(filepath.Ext(hdr.Filename)),
			"content_length":    res.Extraction.Chars,
			"answer_length":     len(res.Answer),
			"extraction_method": res.Extraction.Method,
			"pages":             res.Extraction.Pages,
		},
	}
}

func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat),
		errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrUnsupportedProvider):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrOCRUnavailable),
		errors.Is(err, common.ErrExtraction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrProvider):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("server.request.error", "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
