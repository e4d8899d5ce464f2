package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"docanswer/internal/extract"
	"docanswer/internal/llm"
	"docanswer/internal/pipeline"
)

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, path string) (extract.Result, error) {
	return extract.Result{Text: "nội dung tài liệu", Method: extract.MethodTXT}, nil
}

type stubCompleter struct{}

func (stubCompleter) Complete(ctx context.Context, prompt llm.Prompt, maxTokens int) (llm.Completion, error) {
	return llm.Completion{
		Text:     "I. Tổng quan\nNội dung trả lời.",
		Usage:    llm.Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}, nil
}
func (stubCompleter) Provider() string { return "openai" }
func (stubCompleter) Model() string    { return "gpt-4o-mini" }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	pipe := pipeline.New(stubExtractor{}, stubCompleter{}, 15000, 4000, nil)
	return New(pipe, t.TempDir(), 1<<20, nil)
}

func multipartBody(t *testing.T, filename, question string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte("file contents"))
	}
	if question != "" {
		mw.WriteField("question", question)
	}
	for k, v := range extra {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestSummarizeOK(t *testing.T) {
	srv := newTestServer(t)
	body, ctype := multipartBody(t, "bao-cao.txt", "Tóm tắt tài liệu này", nil)

	req := httptest.NewRequest(http.MethodPost, "/summarize", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != true {
		t.Errorf("success = %v", resp["success"])
	}
	if resp["question_type"] != "summary" {
		t.Errorf("question_type = %v", resp["question_type"])
	}
	if resp["answer"] == "" {
		t.Errorf("empty answer")
	}
	meta, ok := resp["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("metadata missing: %v", resp)
	}
	if meta["extraction_method"] != "txt" {
		t.Errorf("extraction_method = %v", meta["extraction_method"])
	}
}

func TestSummarizeRejectsUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t)
	body, ctype := multipartBody(t, "photo.png", "Tóm tắt", nil)

	req := httptest.NewRequest(http.MethodPost, "/summarize", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSummarizeMissingQuestion(t *testing.T) {
	srv := newTestServer(t)
	body, ctype := multipartBody(t, "a.txt", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/summarize", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBatchSummarize(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.txt"} {
		fw, _ := mw.CreateFormFile("files", name)
		fw.Write([]byte("contents"))
	}
	mw.WriteField("questions", `[
		{"file_name": "a.txt", "question": "Tóm tắt tài liệu"},
		{"file_name": "b.txt", "question": "Kế hoạch triển khai", "question_type": "plan"}
	]`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/batch-summarize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		Total     int              `json:"total"`
		Succeeded int              `json:"succeeded"`
		TotalCost struct {
			TotalCost float64 `json:"total_cost"`
			Currency  string  `json:"currency"`
		} `json:"total_cost"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || resp.Succeeded != 2 {
		t.Errorf("total/succeeded = %d/%d", resp.Total, resp.Succeeded)
	}
	if resp.Results[1]["question_type"] != "plan" {
		t.Errorf("override not honored: %v", resp.Results[1])
	}
	// two items at 100 in / 50 out on gpt-4o-mini
	if resp.TotalCost.TotalCost != 0.00009 {
		t.Errorf("batch total cost = %v, want 0.00009", resp.TotalCost.TotalCost)
	}
	if resp.TotalCost.Currency != "USD" {
		t.Errorf("batch cost currency = %q", resp.TotalCost.Currency)
	}
}

func TestBatchSummarizeDuplicateManifestName(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.txt"} {
		fw, _ := mw.CreateFormFile("files", name)
		fw.Write([]byte("contents"))
	}
	mw.WriteField("questions", `[
		{"file_name": "a.txt", "question": "q1"},
		{"file_name": "a.txt", "question": "q2"}
	]`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/batch-summarize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBatchSummarizeInvalidManifest(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("files", "a.txt")
	fw.Write([]byte("contents"))
	mw.WriteField("questions", `[{"file_name": "a.txt"}]`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/batch-summarize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBatchSummarizeCountMismatch(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("files", "a.txt")
	fw.Write([]byte("contents"))
	mw.WriteField("questions", `[
		{"file_name": "a.txt", "question": "q1"},
		{"file_name": "b.txt", "question": "q2"}
	]`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/batch-summarize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthAndPricing(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pricing", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("pricing status = %d", rec.Code)
	}
	var pricing map[string][]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &pricing); err != nil {
		t.Fatalf("decode pricing: %v", err)
	}
	if len(pricing["openai"]) == 0 || len(pricing["anthropic"]) == 0 {
		t.Errorf("pricing tables missing: %v", pricing)
	}
}

func TestPricingUnknownProviderReportsFallback(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pricing?provider=mystery", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var pricing map[string][]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &pricing); err != nil {
		t.Fatalf("decode pricing: %v", err)
	}
	if _, ok := pricing["mystery"]; ok {
		t.Errorf("fallback table mislabeled under the unknown name: %v", pricing)
	}
	if len(pricing["openai"]) == 0 {
		t.Errorf("fallback table should be keyed by its real provider: %v", pricing)
	}
}
