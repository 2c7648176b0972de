package units

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/ports"
	"MoleculeRadar/internal/unit"
)

// MarketUnit estimates commercial opportunity through the chat model; market
// sizing has no single public API, so the LLM aggregates what it knows and
// returns a structured estimate.
type MarketUnit struct {
	chat   ports.ChatClient
	logger *slog.Logger
}

var _ unit.EvidenceUnit = (*MarketUnit)(nil)

// NewMarketUnit wires the chat client; it is required for this role.
func NewMarketUnit(chat ports.ChatClient, logger *slog.Logger) *MarketUnit {
	return &MarketUnit{chat: chat, logger: logger}
}

// Role identifies the unit inside the registry.
func (m *MarketUnit) Role() domain.UnitRole { return domain.RoleMarket }

const marketSystemPrompt = "You are a pharmaceutical market analyst. " +
	"Respond with a single JSON object, no markdown, with keys: " +
	`"opportunity_score" (integer 0-100), "market_size" (string, e.g. "$1.2B"), "competition" (string: low/medium/high).`

type marketEstimate struct {
	OpportunityScore float64 `json:"opportunity_score"`
	MarketSize       string  `json:"market_size"`
	Competition      string  `json:"competition"`
}

// Evaluate asks the model for a structured opportunity estimate.
func (m *MarketUnit) Evaluate(ctx context.Context, req unit.Request) (domain.UnitResult, error) {
	if m.chat == nil {
		return domain.UnitResult{}, fmt.Errorf("market unit requires a chat client")
	}

	if req.Question != "" {
		answer, err := answerQuestion(ctx, m.chat, "market", req)
		if err != nil {
			return domain.UnitResult{}, err
		}
		return domain.UnitResult{Role: m.Role(), Status: domain.StatusOK, Summary: answer}, nil
	}

	user := fmt.Sprintf("Estimate the repurposing market opportunity for molecule %q", req.MoleculeID)
	if req.Indication != "" {
		user += fmt.Sprintf(" in the indication %q", req.Indication)
	}
	user += "."

	raw, err := m.chat.Complete(ctx, marketSystemPrompt, user)
	if err != nil {
		return domain.UnitResult{}, fmt.Errorf("market estimate: %w", err)
	}

	var est marketEstimate
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &est); err != nil {
		return domain.UnitResult{}, fmt.Errorf("parse market estimate: %w", err)
	}

	score := clampScore(est.OpportunityScore)
	if m.logger != nil {
		m.logger.Debug("market estimate", "molecule", req.MoleculeID, "score", score)
	}

	return domain.UnitResult{
		Role:   m.Role(),
		Status: domain.StatusOK,
		Score:  domain.ScoreOf(score),
		Findings: []domain.Finding{
			{Field: "opportunity_score", Value: strconv.FormatFloat(score, 'f', 0, 64)},
			{Field: "market_size", Value: est.MarketSize},
			{Field: "competition", Value: est.Competition},
		},
		Summary: fmt.Sprintf("Market opportunity for %s estimated at %.0f/100 (size %s, competition %s).",
			req.MoleculeID, score, est.MarketSize, est.Competition),
	}, nil
}
