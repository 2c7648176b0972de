package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"MoleculeRadar/internal/config"
	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/unit"
	"MoleculeRadar/internal/usecase"
)

type memoryRepository struct {
	mu          sync.Mutex
	reports     map[string]domain.SynthesisReport
	comparisons map[string]domain.ComparisonReport
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		reports:     map[string]domain.SynthesisReport{},
		comparisons: map[string]domain.ComparisonReport{},
	}
}

func (m *memoryRepository) SaveReport(ctx context.Context, report domain.SynthesisReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.ID] = report
	return nil
}

func (m *memoryRepository) SaveComparison(ctx context.Context, report domain.ComparisonReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comparisons[report.ID] = report
	return nil
}

func (m *memoryRepository) GetReport(ctx context.Context, id string) (domain.SynthesisReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.reports[id]
	if !ok {
		return domain.SynthesisReport{}, sql.ErrNoRows
	}
	return report, nil
}

func (m *memoryRepository) LatestReports(ctx context.Context, limit int) ([]domain.SynthesisReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reports := make([]domain.SynthesisReport, 0, limit)
	for _, report := range m.reports {
		if len(reports) == limit {
			break
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func cannedRegistry() *unit.Registry {
	findings := map[domain.UnitRole][]domain.Finding{
		domain.RolePatent:   {{Field: "patent_status", Value: "Expired"}, {Field: "fto_status", Value: "Clear"}},
		domain.RoleClinical: {{Field: "active_trials", Value: "4"}},
		domain.RoleMarket:   {{Field: "opportunity_score", Value: "70"}},
		domain.RoleWebIntel: {{Field: "sentiment", Value: "positive"}},
		domain.RoleTrade:    {{Field: "export_volume", Value: "12000"}},
		domain.RoleInternal: {{Field: "prior_studies", Value: "2"}},
	}

	reg := unit.NewRegistry()
	for role, ff := range findings {
		reg.Register(unit.NewCanned(role, domain.UnitResult{
			Status:   domain.StatusOK,
			Score:    domain.ScoreOf(78),
			Findings: ff,
			Summary:  "canned evidence",
		}).WithAnswer("canned follow-up answer"))
	}
	return reg
}

func newTestServer(t *testing.T) (*httptest.Server, *memoryRepository) {
	t.Helper()

	orchCfg := config.OrchestratorConfig{
		GlobalDeadline: 5 * time.Second,
		UnitDeadline:   time.Second,
	}
	synthCfg := config.SynthesisConfig{
		Weights: map[string]float64{
			string(domain.RolePatent):   0.25,
			string(domain.RoleClinical): 0.20,
			string(domain.RoleMarket):   0.20,
			string(domain.RoleWebIntel): 0.15,
			string(domain.RoleTrade):    0.10,
			string(domain.RoleInternal): 0.10,
		},
		ProceedThreshold: 75,
		CautionThreshold: 45,
		RiskFloor:        40,
	}

	reg := cannedRegistry()
	orch := usecase.NewOrchestrator(reg, usecase.NewValidator(), orchCfg, nil)
	synth := usecase.NewSynthesizer(synthCfg)
	repo := newMemoryRepository()

	svc := usecase.NewService(usecase.ServiceDeps{
		Orchestrator: orch,
		Synthesizer:  synth,
		Comparator:   usecase.NewComparator(orch, synth, nil),
		DeepDive:     usecase.NewDeepDive(reg, time.Second, nil),
		Repository:   repo,
	})

	srv := httptest.NewServer(NewRouter(svc, nil))
	t.Cleanup(srv.Close)
	return srv, repo
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAnalyzeReturnsFullReport(t *testing.T) {
	t.Parallel()

	srv, repo := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/analyze", map[string]string{
		"molecule_id": "aspirin",
		"indication":  "colorectal cancer prevention",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var report domain.SynthesisReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.MoleculeID != "aspirin" {
		t.Fatalf("unexpected molecule: %s", report.MoleculeID)
	}
	if len(report.Units) != 6 {
		t.Fatalf("expected 6 unit results, got %d", len(report.Units))
	}
	if report.Confidence != domain.ConfidenceHigh {
		t.Fatalf("all canned units succeed, expected high confidence, got %s", report.Confidence)
	}

	repo.mu.Lock()
	stored := len(repo.reports)
	repo.mu.Unlock()
	if stored != 1 {
		t.Fatalf("expected the report to be persisted, stored %d", stored)
	}
}

func TestAnalyzeRejectsMissingMoleculeID(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/analyze", map[string]string{"indication": "x"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCompareRejectsSingleMolecule(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/compare", map[string]any{
		"molecule_ids": []string{"aspirin"},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCompareRanksMolecules(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/compare", map[string]any{
		"molecule_ids": []string{"metformin", "aspirin"},
		"indication":   "longevity",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var report domain.ComparisonReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode comparison: %v", err)
	}
	if len(report.Ranked) != 2 {
		t.Fatalf("expected 2 ranked candidates, got %d", len(report.Ranked))
	}
	if report.BestCandidate == "" {
		t.Fatal("expected a best candidate")
	}
}

func TestDeepDiveAnswersAgainstStoredReport(t *testing.T) {
	t.Parallel()

	srv, repo := newTestServer(t)

	// Seed a prior report so the deep-dive has something to route against.
	prior := domain.SynthesisReport{
		ID:         "prior-1",
		MoleculeID: "aspirin",
		Units: []domain.UnitResult{
			{Role: domain.RoleClinical, Status: domain.StatusOK, Score: domain.ScoreOf(80)},
		},
	}
	if err := repo.SaveReport(context.Background(), prior); err != nil {
		t.Fatalf("seed report: %v", err)
	}

	resp := postJSON(t, srv.URL+"/v1/deepdive", map[string]string{
		"report_id": "prior-1",
		"role":      string(domain.RoleClinical),
		"question":  "which trials matter most?",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if body["answer"] != "canned follow-up answer" {
		t.Fatalf("unexpected answer: %q", body["answer"])
	}
}

func TestDeepDiveUnknownRoleReturns422(t *testing.T) {
	t.Parallel()

	srv, repo := newTestServer(t)
	prior := domain.SynthesisReport{ID: "prior-2", MoleculeID: "aspirin"}
	if err := repo.SaveReport(context.Background(), prior); err != nil {
		t.Fatalf("seed report: %v", err)
	}

	resp := postJSON(t, srv.URL+"/v1/deepdive", map[string]string{
		"report_id": "prior-2",
		"role":      "astrology",
		"question":  "anything?",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestGetReportNotFound(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/reports/missing")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
