package api

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/queryloom/queryloom/internal/config"
	"github.com/queryloom/queryloom/internal/database"
	"github.com/queryloom/queryloom/internal/llm"
	"github.com/queryloom/queryloom/internal/schema"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Server struct {
	db             *database.DB
	cfg            *config.Config
	generator      *llm.Generator
	env            config.Lookup
	registry       *prometheus.Registry
	llmRateLimiter *rate.Limiter

	// newClient is swapped out in tests to stub provider clients, mirroring
	// Generator.SetClientFactory.
	newClient func(provider, apiKey, model string) (llm.Client, error)
}

func NewServer(db *database.DB, cfg *config.Config, generator *llm.Generator, registry *prometheus.Registry) *Server {
	return &Server{
		db:             db,
		cfg:            cfg,
		generator:      generator,
		env:            os.Getenv,
		registry:       registry,
		llmRateLimiter: rate.NewLimiter(rate.Every(5*time.Second), 2),
		newClient:      llm.NewClient,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.healthCheck)
		r.Get("/status", s.getStatus)

		// Schema of the connected data source
		r.Route("/schema", func(r chi.Router) {
			r.Get("/", s.getSchema)
			r.With(s.rateLimitLLM).Post("/describe", s.describeSchema)
		})

		// Query generation
		r.Route("/query", func(r chi.Router) {
			r.With(s.rateLimitLLM).Post("/random", s.generateRandomQuery)
			r.Get("/history", s.getSuggestionHistory)
			r.Delete("/history/{id}", s.deleteSuggestion)
		})

		// LLM operations
		r.Route("/llm", func(r chi.Router) {
			r.With(s.rateLimitLLM).Post("/test-connection", s.testLLMConnection)
			r.Get("/models", s.listModels)
		})
	})

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return r
}

// --- Middleware ---

func (s *Server) rateLimitLLM(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.llmRateLimiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded - please wait before making another LLM request")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Health & Status ---

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	desc, err := schema.Inspect(ctx, s.db.RawConn(), s.db.Driver())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to inspect schema: "+err.Error())
		return
	}
	suggestionCount, _ := s.db.CountSuggestions(ctx)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schema":      schema.Summarize(desc),
		"suggestions": suggestionCount,
		"providers": map[string]bool{
			llm.ProviderOpenAI:    s.generator.HasOpenAIKey(),
			llm.ProviderAnthropic: s.generator.HasAnthropicKey(),
		},
		"config": map[string]interface{}{
			"db_driver":        s.cfg.DBDriver,
			"suggest_schedule": s.cfg.SuggestSchedule,
		},
	})
}

// --- Schema ---

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	desc, err := schema.Inspect(r.Context(), s.db.RawConn(), s.db.Driver())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to inspect schema: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

type describeRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

func (s *Server) describeSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req describeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, "provider is required")
		return
	}

	apiKey := s.env(keyEnvVar(req.Provider))
	if apiKey == "" {
		writeError(w, http.StatusBadRequest, "No API key configured for provider "+req.Provider)
		return
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel(req.Provider)
	}

	client, err := s.newClient(req.Provider, apiKey, model)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	desc, err := schema.Inspect(ctx, s.db.RawConn(), s.db.Driver())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to inspect schema: "+err.Error())
		return
	}

	log.Info().Str("provider", req.Provider).Str("model", model).Msg("describing schema")
	text, err := client.Complete(ctx, llm.BuildDescribeRequest(desc))
	if err != nil {
		log.Error().Err(err).Str("provider", req.Provider).Msg("schema description failed")
		writeError(w, http.StatusInternalServerError, "Schema description failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"provider":    req.Provider,
		"model":       model,
		"description": text,
	})
}

// --- Query generation ---

type randomQueryRequest struct {
	Tables []string `json:"tables,omitempty"`
}

func (s *Server) generateRandomQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req randomQueryRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
	}

	desc, err := schema.Inspect(ctx, s.db.RawConn(), s.db.Driver())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to inspect schema: "+err.Error())
		return
	}

	result, err := s.generator.GenerateRandomQuery(ctx, desc, req.Tables)
	if err != nil {
		log.Error().Err(err).Msg("random query generation failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	// Persist for the history endpoint; losing the record is not worth
	// failing the request over.
	provider, model := s.activeProvider()
	if _, err := s.db.SaveSuggestion(ctx, provider, model, result.Query, result.Context, result.TableNames); err != nil {
		log.Warn().Err(err).Msg("failed to save generated query")
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getSuggestionHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.db.GetSuggestionHistory(r.Context(), 50)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch suggestion history")
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	if history == nil {
		history = []database.Suggestion{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

func (s *Server) deleteSuggestion(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid suggestion ID")
		return
	}

	if err := s.db.DeleteSuggestion(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("suggestion_id", id).Msg("Failed to delete suggestion")
		writeError(w, http.StatusInternalServerError, "Failed to delete suggestion")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// --- LLM ---

type testConnectionRequest struct {
	Provider string `json:"provider"`
}

func (s *Server) testLLMConnection(w http.ResponseWriter, r *http.Request) {
	var req testConnectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, "provider is required")
		return
	}

	apiKey := s.env(keyEnvVar(req.Provider))
	if apiKey == "" {
		writeError(w, http.StatusBadRequest, "No API key configured for provider "+req.Provider)
		return
	}

	client, err := s.newClient(req.Provider, apiKey, s.defaultModel(req.Provider))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := client.TestConnection(r.Context()); err != nil {
		log.Error().Err(err).Str("provider", req.Provider).Msg("connection test failed")
		writeError(w, http.StatusBadGateway, "Connection test failed: "+err.Error())
		return
	}

	log.Info().Str("provider", req.Provider).Msg("connection test succeeded")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		writeError(w, http.StatusBadRequest, "provider query parameter is required")
		return
	}

	apiKey := s.env(keyEnvVar(provider))
	if apiKey == "" {
		writeError(w, http.StatusBadRequest, "No API key configured for provider "+provider)
		return
	}

	client, err := s.newClient(provider, apiKey, s.defaultModel(provider))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	models, err := client.ListModels(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list models: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}

// --- Helpers ---

func (s *Server) defaultModel(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return s.cfg.OpenAIModel
	case llm.ProviderAnthropic:
		return s.cfg.AnthropicModel
	case llm.ProviderGoogle:
		return s.cfg.GoogleModel
	}
	return ""
}

func (s *Server) activeProvider() (string, string) {
	if s.generator.HasOpenAIKey() {
		return llm.ProviderOpenAI, s.cfg.OpenAIModel
	}
	return llm.ProviderAnthropic, s.cfg.AnthropicModel
}

func keyEnvVar(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderGoogle:
		return "GOOGLE_API_KEY"
	}
	return ""
}

func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
