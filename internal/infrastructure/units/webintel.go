package units

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/ports"
	"MoleculeRadar/internal/unit"
)

var (
	positiveSignals = []string{"breakthrough", "approval", "promising", "effective", "positive", "success"}
	negativeSignals = []string{"recall", "lawsuit", "failure", "withdrawn", "adverse", "warning"}
)

// WebIntelUnit scrapes news search results for the molecule and scores the
// tone of recent coverage.
type WebIntelUnit struct {
	searchURL string
	client    *http.Client
	chat      ports.ChatClient
	logger    *slog.Logger
	maxItems  int
}

var _ unit.EvidenceUnit = (*WebIntelUnit)(nil)

// NewWebIntelUnit wires the news search endpoint; chat may be nil.
func NewWebIntelUnit(searchURL string, client *http.Client, chat ports.ChatClient, logger *slog.Logger) *WebIntelUnit {
	if client == nil {
		client = newHTTPClient(0)
	}
	return &WebIntelUnit{searchURL: searchURL, client: client, chat: chat, logger: logger, maxItems: 20}
}

// Role identifies the unit inside the registry.
func (w *WebIntelUnit) Role() domain.UnitRole { return domain.RoleWebIntel }

// Evaluate fetches recent headlines and derives a coverage sentiment score.
func (w *WebIntelUnit) Evaluate(ctx context.Context, req unit.Request) (domain.UnitResult, error) {
	if req.Question != "" {
		answer, err := answerQuestion(ctx, w.chat, "web intelligence", req)
		if err != nil {
			return domain.UnitResult{}, err
		}
		return domain.UnitResult{Role: w.Role(), Status: domain.StatusOK, Summary: answer}, nil
	}

	headlines, err := w.fetchHeadlines(ctx, req.MoleculeID)
	if err != nil {
		return domain.UnitResult{}, fmt.Errorf("web intelligence: %w", err)
	}

	sentiment, score := scoreSentiment(headlines)
	w.debug("headlines fetched", "molecule", req.MoleculeID, "count", len(headlines), "sentiment", sentiment)

	findings := []domain.Finding{
		{Field: "sentiment", Value: sentiment},
		{Field: "headline_count", Value: strconv.Itoa(len(headlines))},
	}
	if len(headlines) > 0 {
		top := headlines
		if len(top) > 3 {
			top = top[:3]
		}
		findings = append(findings, domain.Finding{Field: "top_headlines", Value: strings.Join(top, " | ")})
	}

	summary := fmt.Sprintf("%d recent headlines for %s; coverage reads %s.", len(headlines), req.MoleculeID, sentiment)
	if digest := w.digest(ctx, req.MoleculeID, headlines); digest != "" {
		summary = digest
	}

	return domain.UnitResult{
		Role:     w.Role(),
		Status:   domain.StatusOK,
		Score:    domain.ScoreOf(score),
		Findings: findings,
		Summary:  summary,
	}, nil
}

func (w *WebIntelUnit) fetchHeadlines(ctx context.Context, moleculeID string) ([]string, error) {
	pageURL := w.searchURL + "?q=" + url.QueryEscape(moleculeID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var headlines []string
	doc.Find("article h3, article h4, .headline").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			headlines = append(headlines, text)
		}
		return len(headlines) < w.maxItems
	})

	return headlines, nil
}

// scoreSentiment counts signal words across headlines. Neutral coverage sits
// at 50; each net positive or negative mention moves the score.
func scoreSentiment(headlines []string) (string, float64) {
	positive, negative := 0, 0
	for _, h := range headlines {
		lower := strings.ToLower(h)
		for _, signal := range positiveSignals {
			if strings.Contains(lower, signal) {
				positive++
			}
		}
		for _, signal := range negativeSignals {
			if strings.Contains(lower, signal) {
				negative++
			}
		}
	}

	score := clampScore(50 + float64(positive-negative)*8)
	switch {
	case positive > negative:
		return "positive", score
	case negative > positive:
		return "negative", score
	default:
		return "neutral", score
	}
}

// digest asks the chat model for a short roll-up of the headlines, when a
// client is available; otherwise the caller keeps its plain summary.
func (w *WebIntelUnit) digest(ctx context.Context, moleculeID string, headlines []string) string {
	if w.chat == nil || len(headlines) == 0 {
		return ""
	}

	user := fmt.Sprintf("Summarize in two sentences what recent coverage says about %s:\n%s",
		moleculeID, strings.Join(headlines, "\n"))
	digest, err := w.chat.Complete(ctx, "You summarize pharmaceutical news coverage.", user)
	if err != nil {
		w.debug("digest failed", "error", err)
		return ""
	}
	return strings.TrimSpace(digest)
}

func (w *WebIntelUnit) debug(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}
