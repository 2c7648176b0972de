package units

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/ports"
	"MoleculeRadar/internal/unit"
)

// activeStatuses are the ClinicalTrials.gov overall statuses that count as
// ongoing activity for the molecule.
var activeStatuses = map[string]bool{
	"RECRUITING":              true,
	"ACTIVE_NOT_RECRUITING":   true,
	"ENROLLING_BY_INVITATION": true,
	"NOT_YET_RECRUITING":      true,
}

// ClinicalUnit queries the ClinicalTrials.gov v2 studies API and scores how
// much ongoing trial activity exists for the molecule.
type ClinicalUnit struct {
	apiURL string
	client *http.Client
	chat   ports.ChatClient
	logger *slog.Logger
}

var _ unit.EvidenceUnit = (*ClinicalUnit)(nil)

// NewClinicalUnit wires the trials endpoint; chat may be nil.
func NewClinicalUnit(apiURL string, client *http.Client, chat ports.ChatClient, logger *slog.Logger) *ClinicalUnit {
	if client == nil {
		client = newHTTPClient(0)
	}
	return &ClinicalUnit{apiURL: apiURL, client: client, chat: chat, logger: logger}
}

// Role identifies the unit inside the registry.
func (c *ClinicalUnit) Role() domain.UnitRole { return domain.RoleClinical }

type trialsResponse struct {
	Studies []struct {
		ProtocolSection struct {
			StatusModule struct {
				OverallStatus string `json:"overallStatus"`
			} `json:"statusModule"`
			DesignModule struct {
				Phases []string `json:"phases"`
			} `json:"designModule"`
			SponsorModule struct {
				LeadSponsor struct {
					Name string `json:"name"`
				} `json:"leadSponsor"`
			} `json:"sponsorCollaboratorsModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}

// Evaluate counts active trials and their phase distribution. More ongoing,
// late-phase activity scores higher.
func (c *ClinicalUnit) Evaluate(ctx context.Context, req unit.Request) (domain.UnitResult, error) {
	if req.Question != "" {
		answer, err := answerQuestion(ctx, c.chat, "clinical trials", req)
		if err != nil {
			return domain.UnitResult{}, err
		}
		return domain.UnitResult{Role: c.Role(), Status: domain.StatusOK, Summary: answer}, nil
	}

	term := req.MoleculeID
	if req.Indication != "" {
		term += " " + req.Indication
	}

	query := url.Values{}
	query.Set("query.term", term)
	query.Set("pageSize", "100")

	var resp trialsResponse
	if err := getJSON(ctx, c.client, c.apiURL+"?"+query.Encode(), &resp); err != nil {
		return domain.UnitResult{}, fmt.Errorf("trials search: %w", err)
	}

	active := 0
	phases := map[string]int{}
	sponsors := map[string]int{}
	for _, study := range resp.Studies {
		ps := study.ProtocolSection
		if !activeStatuses[ps.StatusModule.OverallStatus] {
			continue
		}
		active++
		for _, phase := range ps.DesignModule.Phases {
			phases[phase]++
		}
		if name := ps.SponsorModule.LeadSponsor.Name; name != "" {
			sponsors[name]++
		}
	}

	score := clampScore(20 + float64(active)*12)
	if phases["PHASE3"] > 0 || phases["PHASE4"] > 0 {
		score = clampScore(score + 15)
	}

	c.debug("trials fetched", "molecule", req.MoleculeID, "studies", len(resp.Studies), "active", active)

	findings := []domain.Finding{
		{Field: "active_trials", Value: strconv.Itoa(active)},
		{Field: "phases", Value: formatPhases(phases)},
	}
	if sponsor := topSponsor(sponsors); sponsor != "" {
		findings = append(findings, domain.Finding{Field: "top_sponsor", Value: sponsor})
	}

	summary := fmt.Sprintf("%d active trials found for %s.", active, term)
	if active == 0 {
		summary = fmt.Sprintf("No active clinical trials found for %s.", term)
	}

	return domain.UnitResult{
		Role:     c.Role(),
		Status:   domain.StatusOK,
		Score:    domain.ScoreOf(score),
		Findings: findings,
		Summary:  summary,
	}, nil
}

func formatPhases(phases map[string]int) string {
	if len(phases) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(phases))
	for k := range phases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, phases[k]))
	}
	return strings.Join(parts, ",")
}

func topSponsor(sponsors map[string]int) string {
	best, bestCount := "", 0
	for name, count := range sponsors {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	return best
}

func (c *ClinicalUnit) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
