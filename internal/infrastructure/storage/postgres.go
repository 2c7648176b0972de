package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/ports"
)

// Connect opens a Postgres pool and verifies it is reachable.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresRepository persists synthesis and comparison reports.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ReportRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveReport upserts the finished report snapshot; the full structure goes
// into a JSONB column so export collaborators get the complete schema back.
func (r *PostgresRepository) SaveReport(ctx context.Context, report domain.SynthesisReport) error {
	if r.db == nil {
		return nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query, args, err := r.builder.
		Insert("synthesis_reports").
		Columns("id", "molecule_id", "indication", "overall_score", "recommendation", "confidence", "payload", "generated_at").
		Values(report.ID, report.MoleculeID, report.Indication, report.OverallScore, string(report.Recommendation), string(report.Confidence), payload, report.GeneratedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// SaveComparison stores a comparison run alongside its member reports.
func (r *PostgresRepository) SaveComparison(ctx context.Context, report domain.ComparisonReport) error {
	if r.db == nil {
		return nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal comparison: %w", err)
	}

	query, args, err := r.builder.
		Insert("comparison_reports").
		Columns("id", "indication", "best_candidate", "payload", "generated_at").
		Values(report.ID, report.Indication, report.BestCandidate, payload, report.GeneratedAt).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert comparison: %w", err)
	}

	for _, candidate := range report.Ranked {
		if err := r.SaveReport(ctx, candidate.Report); err != nil {
			return fmt.Errorf("persist candidate %s: %w", candidate.MoleculeID, err)
		}
	}
	return nil
}

// GetReport loads a report by identifier.
func (r *PostgresRepository) GetReport(ctx context.Context, id string) (domain.SynthesisReport, error) {
	if r.db == nil {
		return domain.SynthesisReport{}, fmt.Errorf("repository is not connected")
	}

	query, args, err := r.builder.
		Select("payload").
		From("synthesis_reports").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.SynthesisReport{}, fmt.Errorf("build select: %w", err)
	}

	var payload []byte
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		return domain.SynthesisReport{}, fmt.Errorf("load report %s: %w", id, err)
	}

	var report domain.SynthesisReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return domain.SynthesisReport{}, fmt.Errorf("decode report %s: %w", id, err)
	}
	return report, nil
}

// LatestReports returns the most recent reports, newest first.
func (r *PostgresRepository) LatestReports(ctx context.Context, limit int) ([]domain.SynthesisReport, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository is not connected")
	}
	if limit <= 0 {
		limit = 20
	}

	query, args, err := r.builder.
		Select("payload").
		From("synthesis_reports").
		OrderBy("generated_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	var reports []domain.SynthesisReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan payload: %w", err)
		}
		var report domain.SynthesisReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return reports, nil
}

// KnowledgeStore reads the in-house research archive.
type KnowledgeStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.KnowledgeStore = (*KnowledgeStore)(nil)

// NewKnowledgeStore wires a sql.DB implementation.
func NewKnowledgeStore(db *sql.DB) *KnowledgeStore {
	return &KnowledgeStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Lookup returns the archived assessment for a molecule, if one exists.
func (s *KnowledgeStore) Lookup(ctx context.Context, moleculeID string) (ports.KnowledgeRecord, bool, error) {
	if s.db == nil {
		return ports.KnowledgeRecord{}, false, fmt.Errorf("knowledge store is not connected")
	}

	query, args, err := s.builder.
		Select("molecule_id", "prior_studies", "score", "notes", "reviewed_at").
		From("knowledge_records").
		Where(sq.Eq{"molecule_id": moleculeID}).
		OrderBy("reviewed_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return ports.KnowledgeRecord{}, false, fmt.Errorf("build select: %w", err)
	}

	var rec ports.KnowledgeRecord
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&rec.MoleculeID, &rec.PriorStudies, &rec.Score, &rec.Notes, &rec.ReviewedAt)
	if err == sql.ErrNoRows {
		return ports.KnowledgeRecord{}, false, nil
	}
	if err != nil {
		return ports.KnowledgeRecord{}, false, fmt.Errorf("lookup %s: %w", moleculeID, err)
	}
	return rec, true, nil
}
