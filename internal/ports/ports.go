package ports

import (
	"context"
	"time"

	"MoleculeRadar/internal/domain"
)

// ReportRepository persists finished reports for export collaborators and audit.
type ReportRepository interface {
	SaveReport(ctx context.Context, report domain.SynthesisReport) error
	SaveComparison(ctx context.Context, report domain.ComparisonReport) error
	GetReport(ctx context.Context, id string) (domain.SynthesisReport, error)
	LatestReports(ctx context.Context, limit int) ([]domain.SynthesisReport, error)
}

// KnowledgeRecord is a prior in-house assessment of a molecule.
type KnowledgeRecord struct {
	MoleculeID   string
	PriorStudies int
	Score        float64
	Notes        string
	ReviewedAt   time.Time
}

// KnowledgeStore exposes the internal research archive to the internal
// knowledge unit.
type KnowledgeStore interface {
	Lookup(ctx context.Context, moleculeID string) (KnowledgeRecord, bool, error)
}

// ChatClient pushes prompts to an LLM API and returns the completion text.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Notifier streams finished report digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
