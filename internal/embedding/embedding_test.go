package embedding_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meshit/meshit/internal/effects"
	"github.com/meshit/meshit/internal/embedding"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"
)

type storeStub struct {
	saved map[string]pgvector.Vector
}

func (s *storeStub) SaveEmbedding(_ context.Context, kind embedding.Kind, id string, vec pgvector.Vector) error {
	if s.saved == nil {
		s.saved = map[string]pgvector.Vector{}
	}
	s.saved[string(kind)+":"+id] = vec
	return nil
}

type generatorFunc func(ctx context.Context, kind embedding.Kind, id, text string) (pgvector.Vector, error)

func (f generatorFunc) Generate(ctx context.Context, kind embedding.Kind, id, text string) (pgvector.Vector, error) {
	return f(ctx, kind, id, text)
}

func TestHTTPGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Kind string `json:"kind"`
			ID   string `json:"id"`
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "posting", req.Kind)
		require.Equal(t, "p1", req.ID)
		require.Equal(t, "hello", req.Text)
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.5, 0.25}})
	}))
	t.Cleanup(server.Close)

	gen := embedding.NewHTTPGenerator(server.URL, server.Client())
	vec, err := gen.Generate(context.Background(), embedding.KindPosting, "p1", "hello")
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, 0.25}, vec.Slice())
}

func TestHTTPGenerator_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	gen := embedding.NewHTTPGenerator(server.URL, server.Client())
	_, err := gen.Generate(context.Background(), embedding.KindProfile, "u1", "bio")
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestTrigger_RetriesThenStores(t *testing.T) {
	var calls int32
	gen := generatorFunc(func(context.Context, embedding.Kind, string, string) (pgvector.Vector, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return pgvector.Vector{}, errors.New("cold start")
		}
		return pgvector.NewVector([]float32{1, 0}), nil
	})
	store := &storeStub{}

	trigger := embedding.NewTrigger(gen, store, effects.NewInline(nil), effects.RetryPolicy{Retries: 2, Backoff: time.Millisecond})
	trigger.Enqueue(embedding.KindProfile, "u1", "bio")

	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Equal(t, []float32{1, 0}, store.saved["profile:u1"].Slice())
}

func TestTrigger_FinalFailureIsSwallowed(t *testing.T) {
	var calls int32
	gen := generatorFunc(func(context.Context, embedding.Kind, string, string) (pgvector.Vector, error) {
		atomic.AddInt32(&calls, 1)
		return pgvector.Vector{}, errors.New("vendor down")
	})
	store := &storeStub{}

	trigger := embedding.NewTrigger(gen, store, effects.NewInline(nil), effects.RetryPolicy{Retries: 2, Backoff: time.Millisecond})
	require.NotPanics(t, func() { trigger.Enqueue(embedding.KindPosting, "p1", "text") })

	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Empty(t, store.saved)
}

func TestTrigger_NilIsNoop(t *testing.T) {
	var trigger *embedding.Trigger
	require.NotPanics(t, func() { trigger.Enqueue(embedding.KindPosting, "p1", "text") })
}

func TestStores_SavesToEach(t *testing.T) {
	a, b := &storeStub{}, &storeStub{}
	vec := pgvector.NewVector([]float32{1, 0})

	err := embedding.Stores{a, b}.SaveEmbedding(context.Background(), embedding.KindPosting, "post1", vec)
	require.NoError(t, err)
	require.Equal(t, vec, a.saved["posting:post1"])
	require.Equal(t, vec, b.saved["posting:post1"])
}
