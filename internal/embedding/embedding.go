// Package embedding schedules vector-embedding generation for profiles and
// postings. Generation runs as a background effect: callers are never blocked
// on it and a final failure is only logged.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meshit/meshit/internal/effects"
	"github.com/pgvector/pgvector-go"
)

// Kind names the entity an embedding belongs to.
type Kind string

const (
	KindProfile Kind = "profile"
	KindPosting Kind = "posting"
)

// Generator turns text into an embedding vector.
type Generator interface {
	Generate(ctx context.Context, kind Kind, id, text string) (pgvector.Vector, error)
}

// Store persists generated embeddings.
type Store interface {
	SaveEmbedding(ctx context.Context, kind Kind, id string, vec pgvector.Vector) error
}

// Stores fans a save out to several stores, in order.
type Stores []Store

// SaveEmbedding implements Store. It stops at the first failing store.
func (s Stores) SaveEmbedding(ctx context.Context, kind Kind, id string, vec pgvector.Vector) error {
	for _, store := range s {
		if err := store.SaveEmbedding(ctx, kind, id, vec); err != nil {
			return err
		}
	}
	return nil
}

// DefaultRetry mirrors the save path: two retries, one second per attempt.
var DefaultRetry = effects.RetryPolicy{Retries: 2, Backoff: time.Second}

// Trigger enqueues embedding generation as a background effect.
type Trigger struct {
	generator Generator
	store     Store
	launcher  effects.Launcher
	retry     effects.RetryPolicy
}

// NewTrigger creates a Trigger. A nil generator disables generation.
func NewTrigger(generator Generator, store Store, launcher effects.Launcher, retry effects.RetryPolicy) *Trigger {
	return &Trigger{
		generator: generator,
		store:     store,
		launcher:  launcher,
		retry:     retry,
	}
}

// Enqueue schedules generation for the entity and returns immediately.
func (t *Trigger) Enqueue(kind Kind, id, text string) {
	if t == nil || t.generator == nil || t.launcher == nil {
		return
	}
	t.launcher.Go(effects.Effect{
		Name:  "embedding." + string(kind),
		Retry: t.retry,
		Run: func(ctx context.Context) error {
			vec, err := t.generator.Generate(ctx, kind, id, text)
			if err != nil {
				return err
			}
			if t.store == nil {
				return nil
			}
			return t.store.SaveEmbedding(ctx, kind, id, vec)
		},
	})
}

// HTTPGenerator calls an embedding endpoint that accepts
// {"kind","id","text"} and answers {"embedding":[...]}.
type HTTPGenerator struct {
	endpoint string
	client   *http.Client
}

// NewHTTPGenerator creates a generator posting to endpoint.
func NewHTTPGenerator(endpoint string, client *http.Client) *HTTPGenerator {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGenerator{endpoint: endpoint, client: client}
}

type generateRequest struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

type generateResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Generate requests an embedding for text.
func (g *HTTPGenerator) Generate(ctx context.Context, kind Kind, id, text string) (pgvector.Vector, error) {
	body, err := json.Marshal(generateRequest{Kind: kind, ID: id, Text: text})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("call embedding endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pgvector.Vector{}, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return pgvector.Vector{}, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("embedding endpoint returned an empty vector")
	}
	return pgvector.NewVector(out.Embedding), nil
}
