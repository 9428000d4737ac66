package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/queryloom/queryloom/internal/config"
	"github.com/queryloom/queryloom/internal/obs"
	"github.com/queryloom/queryloom/internal/schema"
	"github.com/rs/zerolog/log"
)

// randomQueryTemperature is deliberately high: we want a different question
// on every call, not the most likely one.
const randomQueryTemperature = 0.8

const randomQueryMaxTokens = 300

// Error messages are matched as substrings by callers; keep them stable.
var (
	ErrNoAPIKey   = errors.New("No LLM API key configured")
	ErrParseQuery = errors.New("Failed to parse query from LLM response")
)

// RandomQuery is a generated analytics question about the schema.
type RandomQuery struct {
	Query      string   `json:"query"`
	Context    string   `json:"context"`
	TableNames []string `json:"table_names"`
}

// Generator produces random analytics questions about a schema description.
// API keys are read through env on every call, never cached, so a key added
// or removed at runtime takes effect immediately.
type Generator struct {
	cfg *config.Config
	env config.Lookup

	// newClient is swapped out in tests to avoid real provider calls.
	newClient func(provider, apiKey, model string) (Client, error)
}

func NewGenerator(cfg *config.Config, env config.Lookup) *Generator {
	if env == nil {
		env = os.Getenv
	}
	return &Generator{
		cfg:       cfg,
		env:       env,
		newClient: NewClient,
	}
}

// SetClientFactory overrides provider client construction, letting tests
// substitute stub clients for the real SDKs.
func (g *Generator) SetClientFactory(f func(provider, apiKey, model string) (Client, error)) {
	g.newClient = f
}

// HasOpenAIKey reports whether an OpenAI credential is currently configured.
func (g *Generator) HasOpenAIKey() bool { return g.env("OPENAI_API_KEY") != "" }

// HasAnthropicKey reports whether an Anthropic credential is currently configured.
func (g *Generator) HasAnthropicKey() bool { return g.env("ANTHROPIC_API_KEY") != "" }

// GenerateRandomQuery routes to whichever provider has a key configured.
// OpenAI wins when both keys are present. Neither key set is a configuration
// error and no network call is attempted.
func (g *Generator) GenerateRandomQuery(ctx context.Context, desc schema.Description, tables []string) (*RandomQuery, error) {
	switch {
	case g.env("OPENAI_API_KEY") != "":
		return g.GenerateRandomQueryWithOpenAI(ctx, desc, tables)
	case g.env("ANTHROPIC_API_KEY") != "":
		return g.GenerateRandomQueryWithAnthropic(ctx, desc, tables)
	default:
		return nil, ErrNoAPIKey
	}
}

// GenerateRandomQueryWithOpenAI generates a question via OpenAI chat completion.
func (g *Generator) GenerateRandomQueryWithOpenAI(ctx context.Context, desc schema.Description, tables []string) (*RandomQuery, error) {
	return g.generate(ctx, ProviderOpenAI, "OpenAI", g.env("OPENAI_API_KEY"), g.cfg.OpenAIModel, desc, tables)
}

// GenerateRandomQueryWithAnthropic generates a question via the Anthropic
// messages endpoint.
func (g *Generator) GenerateRandomQueryWithAnthropic(ctx context.Context, desc schema.Description, tables []string) (*RandomQuery, error) {
	return g.generate(ctx, ProviderAnthropic, "Anthropic", g.env("ANTHROPIC_API_KEY"), g.cfg.AnthropicModel, desc, tables)
}

func (g *Generator) generate(ctx context.Context, provider, providerName, apiKey, model string, desc schema.Description, tables []string) (*RandomQuery, error) {
	client, err := g.newClient(provider, apiKey, model)
	if err != nil {
		return nil, err
	}

	prompt := buildRandomQueryPrompt(desc.Filter(tables))

	log.Debug().
		Str("provider", provider).
		Str("model", model).
		Int("tables", len(tables)).
		Msg("generating random query")

	start := time.Now()
	raw, err := client.Complete(ctx, CompletionRequest{
		System:      randomQuerySystemPrompt,
		Prompt:      prompt,
		Temperature: randomQueryTemperature,
		MaxTokens:   randomQueryMaxTokens,
	})
	obs.GenerationSeconds.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		obs.Generations.WithLabelValues(provider, "error").Inc()
		return nil, fmt.Errorf("Error generating random query with %s: %w", providerName, err)
	}

	result, err := parseRandomQueryResponse(raw)
	if err != nil {
		obs.Generations.WithLabelValues(provider, "parse_error").Inc()
		return nil, err
	}

	obs.Generations.WithLabelValues(provider, "ok").Inc()
	return result, nil
}

const randomQuerySystemPrompt = "You are a helpful data analyst who invents interesting analytics questions about datasets."

func buildRandomQueryPrompt(desc schema.Description) string {
	var b strings.Builder

	b.WriteString("Given the following database schema:\n\n")
	b.WriteString(desc.Format())
	b.WriteString(`
Invent ONE interesting analytics question a user might ask about this data.

Requirements:
- The question must be TWO sentences maximum.
- Give a one-sentence rationale for why the question is useful.
- List the names of the tables the question references.

Respond in EXACTLY this format:
QUERY: <the question>
CONTEXT: <one-sentence rationale>
TABLES: <comma-separated table names>
`)

	return b.String()
}

// parseRandomQueryResponse extracts the three labeled fields from the raw
// response text. QUERY is mandatory; CONTEXT and TABLES degrade to empty
// values when the model drops them.
func parseRandomQueryResponse(raw string) (*RandomQuery, error) {
	result := &RandomQuery{TableNames: []string{}}
	found := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "QUERY:"):
			result.Query = strings.TrimSpace(strings.TrimPrefix(line, "QUERY:"))
			found = true
		case strings.HasPrefix(line, "CONTEXT:"):
			result.Context = strings.TrimSpace(strings.TrimPrefix(line, "CONTEXT:"))
		case strings.HasPrefix(line, "TABLES:"):
			for _, name := range strings.Split(strings.TrimPrefix(line, "TABLES:"), ",") {
				if name = strings.TrimSpace(name); name != "" {
					result.TableNames = append(result.TableNames, name)
				}
			}
		}
	}

	if !found || result.Query == "" {
		return nil, ErrParseQuery
	}

	return result, nil
}
