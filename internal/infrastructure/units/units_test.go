package units

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/ports"
	"MoleculeRadar/internal/unit"
)

func TestClassifyFTO(t *testing.T) {
	t.Parallel()

	cases := []struct {
		active    int
		wantLabel string
		wantScore float64
	}{
		{0, "Clear", 90},
		{2, "Low Risk", 70},
		{4, "Medium Risk", 50},
		{9, "High Risk", 25},
	}
	for _, tc := range cases {
		label, score := classifyFTO(tc.active)
		if label != tc.wantLabel || score != tc.wantScore {
			t.Fatalf("classifyFTO(%d) = %s/%.0f, want %s/%.0f", tc.active, label, score, tc.wantLabel, tc.wantScore)
		}
	}
}

func TestTradeScore(t *testing.T) {
	t.Parallel()

	resp := tradeResponse{ExportVolumeKg: 50000, ImportVolumeKg: 60000, RegulatoryFlags: []string{"export-license"}}
	if got := tradeScore(resp); got != 75 {
		t.Fatalf("expected 75, got %.0f", got)
	}

	if got := tradeScore(tradeResponse{}); got != 30 {
		t.Fatalf("no flows should score 30, got %.0f", got)
	}
}

func TestScoreSentiment(t *testing.T) {
	t.Parallel()

	label, score := scoreSentiment([]string{
		"Breakthrough results in phase 2 study",
		"Analysts call the data promising",
		"Manufacturer faces recall over tablet batch",
	})
	if label != "positive" {
		t.Fatalf("expected positive, got %s", label)
	}
	if score != 58 {
		t.Fatalf("expected 58, got %.0f", score)
	}

	label, score = scoreSentiment(nil)
	if label != "neutral" || score != 50 {
		t.Fatalf("empty coverage must be neutral at 50, got %s/%.0f", label, score)
	}
}

func TestPatentUnitEvaluate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Errorf("expected a q parameter, got %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"patents": [
				{"patent_id": "US1", "patent_title": "Aspirin formulation", "patent_earliest_application_date": "2020-03-01", "assignee_organization": "Bayer AG"},
				{"patent_id": "US2", "patent_title": "Aspirin coating", "patent_earliest_application_date": "1991-06-15", "assignee_organization": "Old Corp"}
			],
			"total_hits": 2
		}`))
	}))
	defer server.Close()

	u := NewPatentUnit(server.URL, server.Client(), nil, nil)
	u.now = func() time.Time { return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC) }

	res, err := u.Evaluate(context.Background(), unit.Request{MoleculeID: "aspirin"})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}

	if res.Status != domain.StatusOK {
		t.Fatalf("expected ok, got %s", res.Status)
	}
	// Only the 2020 filing is still inside the 20-year term.
	if res.Score == nil || *res.Score != 70 {
		t.Fatalf("one active patent should score 70, got %v", res.Score)
	}
	if status, _ := res.Finding("patent_status"); status != "Active" {
		t.Fatalf("expected Active patent status, got %s", status)
	}
	if fto, _ := res.Finding("fto_status"); fto != "Low Risk" {
		t.Fatalf("expected Low Risk, got %s", fto)
	}
	if assignees, _ := res.Finding("top_assignees"); assignees != "Bayer AG" {
		t.Fatalf("expected Bayer AG, got %s", assignees)
	}
}

func TestClinicalUnitEvaluate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"studies": [
				{"protocolSection": {
					"statusModule": {"overallStatus": "RECRUITING"},
					"designModule": {"phases": ["PHASE3"]},
					"sponsorCollaboratorsModule": {"leadSponsor": {"name": "Vertex"}}
				}},
				{"protocolSection": {
					"statusModule": {"overallStatus": "ACTIVE_NOT_RECRUITING"},
					"designModule": {"phases": ["PHASE2"]},
					"sponsorCollaboratorsModule": {"leadSponsor": {"name": "Vertex"}}
				}},
				{"protocolSection": {
					"statusModule": {"overallStatus": "COMPLETED"},
					"designModule": {"phases": ["PHASE1"]},
					"sponsorCollaboratorsModule": {"leadSponsor": {"name": "Other"}}
				}}
			]
		}`))
	}))
	defer server.Close()

	u := NewClinicalUnit(server.URL, server.Client(), nil, nil)

	res, err := u.Evaluate(context.Background(), unit.Request{MoleculeID: "ivacaftor", Indication: "cystic fibrosis"})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}

	if active, _ := res.Finding("active_trials"); active != "2" {
		t.Fatalf("expected 2 active trials, got %s", active)
	}
	// 20 + 2*12, plus the late-phase bonus.
	if res.Score == nil || *res.Score != 59 {
		t.Fatalf("expected score 59, got %v", res.Score)
	}
	if sponsor, _ := res.Finding("top_sponsor"); sponsor != "Vertex" {
		t.Fatalf("expected Vertex as top sponsor, got %s", sponsor)
	}
}

func TestWebIntelUnitEvaluate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<html><body>
		  <article><h3>Metformin shows promising longevity data</h3></article>
		  <article><h3>New metformin trial recruiting</h3></article>
		  <div class="headline">Metformin supply steady despite demand</div>
		</body></html>`))
	}))
	defer server.Close()

	u := NewWebIntelUnit(server.URL, server.Client(), nil, nil)

	res, err := u.Evaluate(context.Background(), unit.Request{MoleculeID: "metformin"})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}

	if count, _ := res.Finding("headline_count"); count != "3" {
		t.Fatalf("expected 3 headlines, got %s", count)
	}
	if sentiment, _ := res.Finding("sentiment"); sentiment != "positive" {
		t.Fatalf("expected positive sentiment, got %s", sentiment)
	}
	if res.Score == nil || *res.Score != 58 {
		t.Fatalf("expected score 58, got %v", res.Score)
	}
}

func TestTradeUnitEvaluate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("substance") != "naltrexone" {
			t.Errorf("expected substance=naltrexone, got %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"export_volume_kg": 12000,
			"import_volume_kg": 3000,
			"regulatory_flags": ["controlled-substance-schedule"]
		}`))
	}))
	defer server.Close()

	u := NewTradeUnit(server.URL, "", server.Client(), nil, nil)

	res, err := u.Evaluate(context.Background(), unit.Request{MoleculeID: "naltrexone"})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}

	// 15000 kg total lands on 70, minus 10 for the single flag.
	if res.Score == nil || *res.Score != 60 {
		t.Fatalf("expected score 60, got %v", res.Score)
	}
	if flags, _ := res.Finding("regulatory_flags"); flags != "controlled-substance-schedule" {
		t.Fatalf("unexpected flags finding: %s", flags)
	}
}

type stubKnowledgeStore struct {
	rec   ports.KnowledgeRecord
	found bool
}

func (s stubKnowledgeStore) Lookup(ctx context.Context, moleculeID string) (ports.KnowledgeRecord, bool, error) {
	return s.rec, s.found, nil
}

func TestInternalKnowledgeUnitNeutralWhenAbsent(t *testing.T) {
	t.Parallel()

	u := NewInternalKnowledgeUnit(stubKnowledgeStore{}, nil)

	res, err := u.Evaluate(context.Background(), unit.Request{MoleculeID: "obscurine"})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if res.Score == nil || *res.Score != neutralInternalScore {
		t.Fatalf("expected neutral score, got %v", res.Score)
	}
	if studies, _ := res.Finding("prior_studies"); studies != "0" {
		t.Fatalf("expected 0 prior studies, got %s", studies)
	}
}

func TestInternalKnowledgeUnitUsesArchiveRecord(t *testing.T) {
	t.Parallel()

	store := stubKnowledgeStore{
		rec: ports.KnowledgeRecord{
			MoleculeID:   "thalidomide",
			PriorStudies: 5,
			Score:        35,
			Notes:        "teratogenicity history restricts indications",
			ReviewedAt:   time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		},
		found: true,
	}
	u := NewInternalKnowledgeUnit(store, nil)

	res, err := u.Evaluate(context.Background(), unit.Request{MoleculeID: "thalidomide"})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if res.Score == nil || *res.Score != 35 {
		t.Fatalf("expected the archive score, got %v", res.Score)
	}
	if reviewed, _ := res.Finding("last_reviewed"); reviewed != "2025-06-02" {
		t.Fatalf("unexpected review date: %s", reviewed)
	}

	answer, err := u.Evaluate(context.Background(), unit.Request{MoleculeID: "thalidomide", Question: "what did we learn?"})
	if err != nil {
		t.Fatalf("question path error: %v", err)
	}
	if answer.Summary == "" {
		t.Fatal("expected a textual answer from the archive")
	}
}
