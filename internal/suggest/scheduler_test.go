package suggest

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/queryloom/queryloom/internal/config"
	"github.com/queryloom/queryloom/internal/database"
	"github.com/queryloom/queryloom/internal/llm"
)

type stubClient struct {
	response string
	calls    int
}

func (s *stubClient) TestConnection(ctx context.Context) error { return nil }

func (s *stubClient) ListModels(ctx context.Context) ([]llm.Model, error) { return nil, nil }

func (s *stubClient) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.calls++
	return s.response, nil
}

func testScheduler(t *testing.T, stub *stubClient) (*Scheduler, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	cfg := &config.Config{
		DBDriver:        "postgres",
		OpenAIModel:     "gpt-4o-mini",
		AnthropicModel:  "claude-3-5-haiku-20241022",
		SuggestSchedule: "0 * * * *",
	}

	generator := llm.NewGenerator(cfg, func(key string) string {
		if key == "OPENAI_API_KEY" {
			return "test-key"
		}
		return ""
	})
	generator.SetClientFactory(func(provider, apiKey, model string) (llm.Client, error) {
		return stub, nil
	})

	return NewScheduler(database.NewFromConn(conn, "postgres"), generator, cfg), mock
}

func TestRefresh(t *testing.T) {
	t.Run("generates and stores a suggestion", func(t *testing.T) {
		stub := &stubClient{response: "QUERY: How many orders were placed today?\n" +
			"CONTEXT: Tracks daily volume.\n" +
			"TABLES: orders"}
		s, mock := testScheduler(t, stub)

		mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
			WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders"))
		mock.ExpectQuery("SELECT column_name, data_type FROM information_schema.columns").
			WithArgs("orders").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
				AddRow("id", "integer"))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

		mock.ExpectQuery("INSERT INTO suggestion_history").
			WithArgs("openai", "gpt-4o-mini", "How many orders were placed today?", "Tracks daily volume.", "orders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		if err := s.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		if stub.calls != 1 {
			t.Errorf("completion calls = %d, want 1", stub.calls)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("skips when no user tables", func(t *testing.T) {
		stub := &stubClient{response: "QUERY: q"}
		s, mock := testScheduler(t, stub)

		mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
			WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("suggestion_history"))

		if err := s.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		if stub.calls != 0 {
			t.Errorf("completion calls = %d, want 0", stub.calls)
		}
	})
}
