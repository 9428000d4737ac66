// Package suggest keeps the suggestion history warm by periodically asking
// the generator for a fresh random query against the current schema.
package suggest

import (
	"context"
	"fmt"
	"time"

	"github.com/queryloom/queryloom/internal/config"
	"github.com/queryloom/queryloom/internal/database"
	"github.com/queryloom/queryloom/internal/llm"
	"github.com/queryloom/queryloom/internal/schema"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type Scheduler struct {
	db        *database.DB
	generator *llm.Generator
	cfg       *config.Config
	cron      *cron.Cron
}

func NewScheduler(db *database.DB, generator *llm.Generator, cfg *config.Config) *Scheduler {
	return &Scheduler{
		db:        db,
		generator: generator,
		cfg:       cfg,
		cron:      cron.New(),
	}
}

// Start begins the scheduled suggestion refresh.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.SuggestSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		log.Info().Msg("scheduled suggestion refresh starting")
		if err := s.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled suggestion refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("adding cron job: %w", err)
	}

	s.cron.Start()
	log.Info().Str("schedule", s.cfg.SuggestSchedule).Msg("suggestion scheduler started")

	// Seed the history on startup if configured and empty
	if s.cfg.SuggestOnStartup {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			count, _ := s.db.CountSuggestions(ctx)
			if count > 0 {
				log.Info().Int("count", count).Msg("suggestion history populated, skipping startup refresh")
				return
			}
			if err := s.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("startup suggestion refresh failed")
			}
		}()
	}

	return nil
}

// Stop halts the cron scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Refresh introspects the schema, generates one random query, and stores it.
func (s *Scheduler) Refresh(ctx context.Context) error {
	desc, err := schema.Inspect(ctx, s.db.RawConn(), s.db.Driver())
	if err != nil {
		return fmt.Errorf("inspecting schema: %w", err)
	}
	if len(desc.Tables) == 0 {
		log.Info().Msg("no user tables yet, skipping suggestion refresh")
		return nil
	}

	result, err := s.generator.GenerateRandomQuery(ctx, desc, nil)
	if err != nil {
		return err
	}

	// The routing rule is fixed, so re-derive the provider/model that served
	// the call for the stored record.
	provider, model := s.activeProvider()
	id, err := s.db.SaveSuggestion(ctx, provider, model, result.Query, result.Context, result.TableNames)
	if err != nil {
		return fmt.Errorf("saving suggestion: %w", err)
	}

	log.Info().Int64("suggestion_id", id).Str("provider", provider).Msg("suggestion refreshed")
	return nil
}

func (s *Scheduler) activeProvider() (string, string) {
	if s.generator.HasOpenAIKey() {
		return llm.ProviderOpenAI, s.cfg.OpenAIModel
	}
	return llm.ProviderAnthropic, s.cfg.AnthropicModel
}
