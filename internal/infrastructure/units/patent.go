package units

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/ports"
	"MoleculeRadar/internal/unit"
)

// patentTerm is the standard protection window from the filing date.
const patentTerm = 20 * 365 * 24 * time.Hour

// PatentUnit searches a PatentsView-style API and derives a
// freedom-to-operate score from the active patent landscape.
type PatentUnit struct {
	apiURL string
	client *http.Client
	chat   ports.ChatClient
	logger *slog.Logger
	now    func() time.Time
}

var _ unit.EvidenceUnit = (*PatentUnit)(nil)

// NewPatentUnit wires the patent search endpoint; chat may be nil.
func NewPatentUnit(apiURL string, client *http.Client, chat ports.ChatClient, logger *slog.Logger) *PatentUnit {
	if client == nil {
		client = newHTTPClient(0)
	}
	return &PatentUnit{apiURL: apiURL, client: client, chat: chat, logger: logger, now: time.Now}
}

// Role identifies the unit inside the registry.
func (p *PatentUnit) Role() domain.UnitRole { return domain.RolePatent }

type patentSearchResponse struct {
	Patents []struct {
		PatentID   string `json:"patent_id"`
		Title      string `json:"patent_title"`
		FilingDate string `json:"patent_earliest_application_date"`
		Assignee   string `json:"assignee_organization"`
	} `json:"patents"`
	TotalHits int `json:"total_hits"`
}

// Evaluate searches patents mentioning the molecule and scores how free the
// landscape is: fewer unexpired patents means more room to operate.
func (p *PatentUnit) Evaluate(ctx context.Context, req unit.Request) (domain.UnitResult, error) {
	if req.Question != "" {
		answer, err := answerQuestion(ctx, p.chat, "patent landscape", req)
		if err != nil {
			return domain.UnitResult{}, err
		}
		return domain.UnitResult{Role: p.Role(), Status: domain.StatusOK, Summary: answer}, nil
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf(`{"_text_any":{"patent_title":%q}}`, req.MoleculeID))
	query.Set("f", `["patent_id","patent_title","patent_earliest_application_date","assignee_organization"]`)

	var resp patentSearchResponse
	if err := getJSON(ctx, p.client, p.apiURL+"?"+query.Encode(), &resp); err != nil {
		return domain.UnitResult{}, fmt.Errorf("patent search: %w", err)
	}

	active, assignees := p.countActive(resp)
	ftoStatus, score := classifyFTO(active)

	patentStatus := "None"
	if active > 0 {
		patentStatus = "Active"
	} else if resp.TotalHits > 0 {
		patentStatus = "Expired"
	}

	p.debug("patent landscape fetched", "molecule", req.MoleculeID, "hits", resp.TotalHits, "active", active)

	findings := []domain.Finding{
		{Field: "patent_status", Value: patentStatus},
		{Field: "fto_status", Value: ftoStatus},
		{Field: "key_patents", Value: strconv.Itoa(resp.TotalHits)},
	}
	if assignees != "" {
		findings = append(findings, domain.Finding{Field: "top_assignees", Value: assignees})
	}

	return domain.UnitResult{
		Role:     p.Role(),
		Status:   domain.StatusOK,
		Score:    domain.ScoreOf(score),
		Findings: findings,
		Summary: fmt.Sprintf("%d patents found for %s, %d still in force; freedom-to-operate assessed as %s.",
			resp.TotalHits, req.MoleculeID, active, ftoStatus),
	}, nil
}

func (p *PatentUnit) countActive(resp patentSearchResponse) (int, string) {
	active := 0
	seen := map[string]struct{}{}
	var assignees []string

	for _, pat := range resp.Patents {
		filed, err := time.Parse("2006-01-02", pat.FilingDate)
		if err != nil {
			continue
		}
		if p.now().Before(filed.Add(patentTerm)) {
			active++
			if pat.Assignee != "" {
				if _, ok := seen[pat.Assignee]; !ok && len(assignees) < 3 {
					seen[pat.Assignee] = struct{}{}
					assignees = append(assignees, pat.Assignee)
				}
			}
		}
	}

	joined := ""
	for i, a := range assignees {
		if i > 0 {
			joined += ", "
		}
		joined += a
	}
	return active, joined
}

// classifyFTO maps the count of unexpired patents to a freedom-to-operate
// label and a 0-100 score where higher means fewer obstacles.
func classifyFTO(active int) (string, float64) {
	switch {
	case active == 0:
		return "Clear", 90
	case active <= 2:
		return "Low Risk", 70
	case active <= 4:
		return "Medium Risk", 50
	default:
		return "High Risk", 25
	}
}

func (p *PatentUnit) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
