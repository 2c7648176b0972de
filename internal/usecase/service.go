package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/ports"
)

// ServiceDeps wires the pipeline components and driven adapters.
type ServiceDeps struct {
	Orchestrator *Orchestrator
	Synthesizer  *Synthesizer
	Comparator   *Comparator
	DeepDive     *DeepDive
	Repository   ports.ReportRepository
	Notifier     ports.Notifier
	Logger       *slog.Logger
}

// Service is the single entry point the inbound interface talks to. It runs
// the pipeline, persists finished reports, and pushes digests; persistence
// and notification failures degrade to log lines because a finished report
// must still reach the caller.
type Service struct {
	orchestrator *Orchestrator
	synthesizer  *Synthesizer
	comparator   *Comparator
	deepDive     *DeepDive
	repository   ports.ReportRepository
	notifier     ports.Notifier
	logger       *slog.Logger
	now          func() time.Time
}

// NewService constructs the analysis service.
func NewService(deps ServiceDeps) *Service {
	return &Service{
		orchestrator: deps.Orchestrator,
		synthesizer:  deps.Synthesizer,
		comparator:   deps.Comparator,
		deepDive:     deps.DeepDive,
		repository:   deps.Repository,
		notifier:     deps.Notifier,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

// Analyze runs the full fan-out pipeline for one molecule.
func (s *Service) Analyze(ctx context.Context, moleculeID, indication string, overrides map[domain.UnitRole]domain.UnitOverride) (domain.SynthesisReport, error) {
	if moleculeID == "" {
		return domain.SynthesisReport{}, &domain.ConfigurationError{Reason: "molecule identifier must not be empty"}
	}

	req := domain.AnalysisRequest{
		ID:          uuid.New().String(),
		MoleculeID:  moleculeID,
		Indication:  indication,
		Mode:        domain.ModeSingle,
		Overrides:   overrides,
		SubmittedAt: s.now(),
	}

	results := s.orchestrator.Run(ctx, req)
	report := s.synthesizer.Synthesize(moleculeID, indication, results)

	if s.repository != nil {
		if err := s.repository.SaveReport(ctx, report); err != nil {
			s.warn("persist report", "report", report.ID, "error", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.PublishDigest(ctx, reportDigest(report)); err != nil {
			s.warn("publish digest", "report", report.ID, "error", err)
		}
	}

	return report, nil
}

// Compare ranks 2-3 molecules; the bound is enforced before any dispatch.
func (s *Service) Compare(ctx context.Context, moleculeIDs []string, indication string) (domain.ComparisonReport, error) {
	report, err := s.comparator.Compare(ctx, moleculeIDs, indication)
	if err != nil {
		return domain.ComparisonReport{}, err
	}

	if s.repository != nil {
		if err := s.repository.SaveComparison(ctx, report); err != nil {
			s.warn("persist comparison", "report", report.ID, "error", err)
		}
	}

	return report, nil
}

// Ask routes a follow-up question against a previously generated report.
func (s *Service) Ask(ctx context.Context, reportID string, role domain.UnitRole, question string) (string, error) {
	if s.repository == nil {
		return "", &domain.ConfigurationError{Reason: "no report repository configured for deep-dive"}
	}

	prior, err := s.repository.GetReport(ctx, reportID)
	if err != nil {
		return "", fmt.Errorf("load prior report %s: %w", reportID, err)
	}

	return s.deepDive.Ask(ctx, prior, role, question)
}

// AskReport answers against an already-loaded prior report.
func (s *Service) AskReport(ctx context.Context, prior domain.SynthesisReport, role domain.UnitRole, question string) (string, error) {
	return s.deepDive.Ask(ctx, prior, role, question)
}

// GetReport loads a persisted report by identifier.
func (s *Service) GetReport(ctx context.Context, id string) (domain.SynthesisReport, error) {
	if s.repository == nil {
		return domain.SynthesisReport{}, &domain.ConfigurationError{Reason: "no report repository configured"}
	}
	return s.repository.GetReport(ctx, id)
}

// LatestReports lists the most recently generated reports.
func (s *Service) LatestReports(ctx context.Context, limit int) ([]domain.SynthesisReport, error) {
	if s.repository == nil {
		return nil, &domain.ConfigurationError{Reason: "no report repository configured"}
	}
	return s.repository.LatestReports(ctx, limit)
}

func reportDigest(report domain.SynthesisReport) string {
	return fmt.Sprintf("*%s*\nRecommendation: %s (%s confidence)\nScore: %.1f/100\nRisks: %d\n%s",
		report.MoleculeID,
		report.Recommendation,
		report.Confidence,
		report.OverallScore,
		len(report.Risks),
		report.Summary)
}

func (s *Service) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
