// Package units holds the six concrete evidence-gathering implementations.
// Each unit owns its upstream data source end to end; the orchestration core
// only sees the EvidenceUnit contract.
package units

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"MoleculeRadar/internal/ports"
	"MoleculeRadar/internal/unit"
)

const userAgent = "MoleculeRadar/1.0 (research purpose)"

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// getJSON fetches a URL and decodes the JSON response into v.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// answerQuestion resolves a deep-dive question. Units with a chat client ask
// the LLM with their prior evidence as context; without one the prior
// evidence itself becomes the answer.
func answerQuestion(ctx context.Context, chat ports.ChatClient, roleLabel string, req unit.Request) (string, error) {
	if chat != nil {
		system := fmt.Sprintf("You are an expert %s analyst for pharmaceutical repurposing. Answer concisely from the provided context.", roleLabel)
		user := fmt.Sprintf("Molecule: %s\nIndication: %s\nContext:\n%s\nQuestion: %s",
			req.MoleculeID, req.Indication, formatContext(req.Options), req.Question)
		answer, err := chat.Complete(ctx, system, user)
		if err != nil {
			return "", fmt.Errorf("%s deep-dive: %w", roleLabel, err)
		}
		return strings.TrimSpace(answer), nil
	}

	if len(req.Options) == 0 {
		return fmt.Sprintf("No prior %s evidence is available for %s.", roleLabel, req.MoleculeID), nil
	}
	return fmt.Sprintf("Prior %s evidence for %s: %s", roleLabel, req.MoleculeID, formatContext(req.Options)), nil
}

func formatContext(options map[string]string) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", strings.TrimPrefix(k, "prior_"), options[k])
	}
	return b.String()
}

// stripCodeFences cleans LLM output that arrives wrapped in markdown fences.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
