// Package main implements a mock LLM server for crawl testing.
// It serves OpenAI-compatible /v1/chat/completions responses from JSON
// fixture files, routing by the structured-output format name (the taxonomy
// category) and the concept named in the user message. Pointing the ollama
// provider at it gives fast, deterministic, offline crawls.
//
// Usage:
//
//	mock-oracle -fixtures /path/to/fixtures -port 11434
//
// Each fixture file is named after a category (e.g. "tools.json") and holds
// a JSON object mapping concept names to the answer object for that concept:
//
//	{"Tenon Saw": {"name": "Tenon Saw", "description": "...", "aliases": []}}
//
// The longest concept name found in the last user message wins. A "*" entry
// answers any concept the file does not name.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// wildcard answers every concept a category file does not name.
const wildcard = "*"

// --- OpenAI-compatible types ---

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string `json:"type"`
	JSONSchema *struct {
		Name string `json:"name"`
	} `json:"json_schema,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Server ---

// capturedRequest stores the routing of an incoming request for test verification.
type capturedRequest struct {
	Category  string        `json:"category"`
	Concept   string        `json:"concept"`
	Messages  []chatMessage `json:"messages"`
	CallIndex int           `json:"call_index"` // 1-indexed per-category call number
	Timestamp int64         `json:"timestamp"`
}

type server struct {
	fixtures map[string]map[string]string // category → concept → answer
	calls    atomic.Int64                 // total calls served

	mu         sync.Mutex
	byCategory map[string][]capturedRequest
}

func newServer(fixtures map[string]map[string]string) *server {
	return &server{
		fixtures:   fixtures,
		byCategory: make(map[string][]capturedRequest),
	}
}

// captureRequest records a routed request and returns its per-category index.
func (s *server) captureRequest(category, concept string, req chatRequest) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.byCategory[category]) + 1
	s.byCategory[category] = append(s.byCategory[category], capturedRequest{
		Category:  category,
		Concept:   concept,
		Messages:  req.Messages,
		CallIndex: idx,
		Timestamp: time.Now().UnixMilli(),
	})
	return idx
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing <category>.json fixture files")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	// Allow env var override
	if envDir := os.Getenv("MOCK_ORACLE_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}
	if *fixtureDir == "" {
		*fixtureDir = "/fixtures"
	}

	fixtures, err := loadFixtures(*fixtureDir)
	if err != nil {
		log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
	}
	log.Printf("Loaded %d categories from %s", len(fixtures), *fixtureDir)
	for category, answers := range fixtures {
		log.Printf("  category: %s (%d concept(s))", category, len(answers))
	}

	s := newServer(fixtures)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock oracle listening on %s", addr)
	srv := &http.Server{Addr: addr, Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/requests", s.handleRequests)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)

	if req.ResponseFormat == nil || req.ResponseFormat.JSONSchema == nil || req.ResponseFormat.JSONSchema.Name == "" {
		log.Printf("[call %d] request has no json_schema response format", callNum)
		http.Error(w, "response_format.json_schema.name is required", http.StatusBadRequest)
		return
	}
	category := req.ResponseFormat.JSONSchema.Name

	answers, ok := s.fixtures[category]
	if !ok {
		log.Printf("[call %d] WARNING: no fixture for category=%q", callNum, category)
		http.Error(w, fmt.Sprintf("no fixture for category %q", category), http.StatusNotFound)
		return
	}

	concept, content, ok := route(answers, lastUserMessage(req.Messages))
	if !ok {
		log.Printf("[call %d] WARNING: no concept of category=%q in prompt", callNum, category)
		http.Error(w, fmt.Sprintf("no fixture concept of %q matches the prompt", category), http.StatusNotFound)
		return
	}

	idx := s.captureRequest(category, concept, req)
	log.Printf("[call %d] category=%s concept=%q call_index=%d", callNum, category, concept, idx)

	// Wrap in OpenAI response envelope
	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index: 0,
				Message: chatMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     len(content) / 4, // rough estimate
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(content) / 2,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func lastUserMessage(msgs []chatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}

// route picks the longest concept named in prompt, falling back to the
// wildcard entry.
func route(answers map[string]string, prompt string) (concept, content string, ok bool) {
	for name, answer := range answers {
		if name == wildcard || !strings.Contains(prompt, name) {
			continue
		}
		if len(name) > len(concept) || (len(name) == len(concept) && name < concept) {
			concept, content, ok = name, answer, true
		}
	}
	if ok {
		return concept, content, true
	}
	if answer, found := answers[wildcard]; found {
		return wildcard, answer, true
	}
	return "", "", false
}

// handleStats returns call counts for test assertions.
// Returns total_calls and per-category calls_by_category breakdown.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	byCategory := make(map[string]int, len(s.byCategory))
	for category, reqs := range s.byCategory {
		byCategory[category] = len(reqs)
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls":       s.calls.Load(),
		"calls_by_category": byCategory,
	})
}

// handleRequests returns captured requests for test assertions.
// Query params:
//   - category: filter by category (optional)
//   - call: filter by call index, 1-indexed (optional)
func (s *server) handleRequests(w http.ResponseWriter, r *http.Request) {
	categoryFilter := r.URL.Query().Get("category")
	callFilter, _ := strconv.Atoi(r.URL.Query().Get("call"))

	s.mu.Lock()
	result := make(map[string][]capturedRequest)
	for category, reqs := range s.byCategory {
		if categoryFilter != "" && category != categoryFilter {
			continue
		}
		for _, req := range reqs {
			if callFilter > 0 && req.CallIndex != callFilter {
				continue
			}
			result[category] = append(result[category], req)
		}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"requests_by_category": result,
	})
}

// loadFixtures reads <category>.json files from dir. Every value is
// re-encoded compactly and returned as the assistant message verbatim.
func loadFixtures(dir string) (map[string]map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	fixtures := make(map[string]map[string]string)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid fixture %s: %w", path, err)
		}

		answers := make(map[string]string, len(raw))
		for concept, answer := range raw {
			answers[concept] = string(answer)
		}
		fixtures[strings.TrimSuffix(name, ".json")] = answers
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}
	return fixtures, nil
}
