package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultEmbedBaseURL = "http://localhost:11434"
	DefaultEmbedModel   = "nomic-embed-text"
)

// Embedding scores each pair by the cosine similarity of their embeddings
// from a local Ollama model. An empty hypothesis scores 0.
type Embedding struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewEmbedding(baseURL, model string) *Embedding {
	if baseURL == "" {
		baseURL = DefaultEmbedBaseURL
	}
	if model == "" {
		model = DefaultEmbedModel
	}
	return &Embedding{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Embedding) Name() string { return "embedding" }

func (e *Embedding) Score(ctx context.Context, hyps, refs []string) (*Result, error) {
	if err := checkLengths(hyps, refs); err != nil {
		return nil, err
	}

	items := make([]float64, len(hyps))
	for i := range hyps {
		if strings.TrimSpace(hyps[i]) == "" || strings.TrimSpace(refs[i]) == "" {
			continue
		}
		vecs, err := e.embed(ctx, []string{hyps[i], refs[i]})
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		items[i] = cosine(vecs[0], vecs[1])
	}

	return &Result{Metric: "embedding", Score: mean(items), Items: items}, nil
}

func (e *Embedding) embed(ctx context.Context, inputs []string) ([][]float64, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model": e.model,
		"input": inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var out struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(out.Embeddings))
	}
	return out.Embeddings, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
