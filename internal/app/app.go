package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"MoleculeRadar/internal/config"
	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/infrastructure/httpserver"
	"MoleculeRadar/internal/infrastructure/llm"
	"MoleculeRadar/internal/infrastructure/storage"
	"MoleculeRadar/internal/infrastructure/telegram"
	"MoleculeRadar/internal/infrastructure/units"
	"MoleculeRadar/internal/logging"
	"MoleculeRadar/internal/ports"
	"MoleculeRadar/internal/unit"
	"MoleculeRadar/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	service *usecase.Service
	db      *sql.DB
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var db *sql.DB
	var repository ports.ReportRepository
	var knowledge ports.KnowledgeStore
	if cfg.Database.DSN != "" {
		conn, err := storage.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			baseLogger.Warn("postgres unavailable, continuing without persistence", "error", err)
		} else {
			db = conn
			repository = storage.NewPostgresRepository(conn)
			knowledge = storage.NewKnowledgeStore(conn)
		}
	}

	var chat ports.ChatClient
	if cfg.OpenAI.APIKey != "" {
		chat = llm.NewClient(cfg.OpenAI)
	}

	registry := buildRegistry(cfg, chat, knowledge, baseLogger)

	validator := usecase.NewValidator()
	orchestrator := usecase.NewOrchestrator(registry, validator, cfg.Orchestrator, baseLogger.With("component", "orchestrator"))
	synthesizer := usecase.NewSynthesizer(cfg.Synthesis)
	comparator := usecase.NewComparator(orchestrator, synthesizer, baseLogger.With("component", "comparator"))
	deepDive := usecase.NewDeepDive(registry, cfg.Orchestrator.DeepDiveTimeout, baseLogger.With("component", "deepdive"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	service := usecase.NewService(usecase.ServiceDeps{
		Orchestrator: orchestrator,
		Synthesizer:  synthesizer,
		Comparator:   comparator,
		DeepDive:     deepDive,
		Repository:   repository,
		Notifier:     notifier,
		Logger:       baseLogger.With("component", "service"),
	})

	return &Application{cfg: cfg, logger: baseLogger, service: service, db: db}, nil
}

// buildRegistry registers either the six live units or canned substitutes.
// The orchestration code path is identical in both modes.
func buildRegistry(cfg config.Config, chat ports.ChatClient, knowledge ports.KnowledgeStore, logger *slog.Logger) *unit.Registry {
	registry := unit.NewRegistry()

	if cfg.Units.Mode == config.UnitModeCanned {
		for _, role := range domain.Roles {
			registry.Register(unit.NewCanned(role, cannedResult(role)))
		}
		return registry
	}

	httpClient := &http.Client{Timeout: cfg.Units.HTTPTimeout}
	registry.Register(units.NewPatentUnit(cfg.Units.PatentAPIURL, httpClient, chat, logger.With("component", "unit.patent")))
	registry.Register(units.NewClinicalUnit(cfg.Units.TrialsAPIURL, httpClient, chat, logger.With("component", "unit.clinical")))
	registry.Register(units.NewMarketUnit(chat, logger.With("component", "unit.market")))
	registry.Register(units.NewWebIntelUnit(cfg.Units.NewsSearchURL, httpClient, chat, logger.With("component", "unit.webintel")))
	registry.Register(units.NewTradeUnit(cfg.Units.TradeAPIURL, cfg.Units.TradeAPIKey, httpClient, chat, logger.With("component", "unit.trade")))
	registry.Register(units.NewInternalKnowledgeUnit(knowledge, logger.With("component", "unit.internal")))
	return registry
}

// cannedResult produces the fixed evidence used in canned mode.
func cannedResult(role domain.UnitRole) domain.UnitResult {
	findings := map[domain.UnitRole][]domain.Finding{
		domain.RolePatent:   {{Field: "patent_status", Value: "Expired"}, {Field: "fto_status", Value: "Clear"}},
		domain.RoleClinical: {{Field: "active_trials", Value: "4"}},
		domain.RoleMarket:   {{Field: "opportunity_score", Value: "72"}},
		domain.RoleWebIntel: {{Field: "sentiment", Value: "positive"}},
		domain.RoleTrade:    {{Field: "export_volume", Value: "12000"}},
		domain.RoleInternal: {{Field: "prior_studies", Value: "2"}},
	}
	return domain.UnitResult{
		Status:   domain.StatusOK,
		Score:    domain.ScoreOf(72),
		Findings: findings[role],
		Summary:  fmt.Sprintf("canned %s evidence", role),
	}
}

// Run serves the inbound API until ctx is canceled.
func (a *Application) Run(ctx context.Context) error {
	mux := httpserver.NewRouter(a.service, a.logger.With("component", "http"))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * a.cfg.Orchestrator.GlobalDeadline,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close db: %w", err)
		}
	}
	return nil
}

// Service exposes the analysis service, mainly for tests and embedding.
func (a *Application) Service() *usecase.Service {
	return a.service
}
