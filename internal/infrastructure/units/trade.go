package units

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/ports"
	"MoleculeRadar/internal/unit"
)

// TradeUnit pulls export/import flow data for the molecule's active
// ingredient and flags regulatory obstacles reported by the trade source.
type TradeUnit struct {
	apiURL string
	apiKey string
	client *http.Client
	chat   ports.ChatClient
	logger *slog.Logger
}

var _ unit.EvidenceUnit = (*TradeUnit)(nil)

// NewTradeUnit wires the trade data endpoint; chat may be nil.
func NewTradeUnit(apiURL, apiKey string, client *http.Client, chat ports.ChatClient, logger *slog.Logger) *TradeUnit {
	if client == nil {
		client = newHTTPClient(0)
	}
	return &TradeUnit{apiURL: apiURL, apiKey: apiKey, client: client, chat: chat, logger: logger}
}

// Role identifies the unit inside the registry.
func (t *TradeUnit) Role() domain.UnitRole { return domain.RoleTrade }

type tradeResponse struct {
	ExportVolumeKg  float64  `json:"export_volume_kg"`
	ImportVolumeKg  float64  `json:"import_volume_kg"`
	RegulatoryFlags []string `json:"regulatory_flags"`
}

// Evaluate scores ongoing trade activity: established flows indicate an
// available supply chain, regulatory flags subtract from the score.
func (t *TradeUnit) Evaluate(ctx context.Context, req unit.Request) (domain.UnitResult, error) {
	if req.Question != "" {
		answer, err := answerQuestion(ctx, t.chat, "trade and regulatory", req)
		if err != nil {
			return domain.UnitResult{}, err
		}
		return domain.UnitResult{Role: t.Role(), Status: domain.StatusOK, Summary: answer}, nil
	}

	query := url.Values{}
	query.Set("substance", req.MoleculeID)
	if t.apiKey != "" {
		query.Set("api_key", t.apiKey)
	}

	var resp tradeResponse
	if err := getJSON(ctx, t.client, t.apiURL+"?"+query.Encode(), &resp); err != nil {
		return domain.UnitResult{}, fmt.Errorf("trade flows: %w", err)
	}

	score := tradeScore(resp)
	t.debug("trade flows fetched", "molecule", req.MoleculeID, "export_kg", resp.ExportVolumeKg, "flags", len(resp.RegulatoryFlags))

	findings := []domain.Finding{
		{Field: "export_volume", Value: strconv.FormatFloat(resp.ExportVolumeKg, 'f', 0, 64)},
		{Field: "import_volume", Value: strconv.FormatFloat(resp.ImportVolumeKg, 'f', 0, 64)},
	}
	if len(resp.RegulatoryFlags) > 0 {
		findings = append(findings, domain.Finding{Field: "regulatory_flags", Value: strings.Join(resp.RegulatoryFlags, ",")})
	}

	return domain.UnitResult{
		Role:     t.Role(),
		Status:   domain.StatusOK,
		Score:    domain.ScoreOf(score),
		Findings: findings,
		Summary: fmt.Sprintf("Trade flows for %s: %.0f kg exported, %.0f kg imported, %d regulatory flags.",
			req.MoleculeID, resp.ExportVolumeKg, resp.ImportVolumeKg, len(resp.RegulatoryFlags)),
	}, nil
}

func tradeScore(resp tradeResponse) float64 {
	score := 30.0
	total := resp.ExportVolumeKg + resp.ImportVolumeKg
	switch {
	case total >= 100000:
		score = 85
	case total >= 10000:
		score = 70
	case total >= 1000:
		score = 55
	case total > 0:
		score = 45
	}
	score -= float64(len(resp.RegulatoryFlags)) * 10
	return clampScore(score)
}

func (t *TradeUnit) debug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
