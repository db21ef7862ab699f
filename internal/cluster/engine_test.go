package cluster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/pulse/internal/db"
)

func TestChooseK(t *testing.T) {
	t.Parallel()

	cases := map[int]int{
		2:   2,
		4:   2,
		8:   2,
		18:  3,
		50:  5,
		200: 10,
		500: 10,
	}
	for n, want := range cases {
		if got := ChooseK(n); got != want {
			t.Fatalf("ChooseK(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestClusterTooFewRecords(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, zerolog.Nop())
	if _, err := engine.Cluster(context.Background(), []db.ContentRecord{{Title: "only one"}}); err != ErrTooFewRecords {
		t.Fatalf("expected ErrTooFewRecords, got %v", err)
	}
}

// stubEmbedServer returns fixed vectors keyed by a word in the text, so
// records about the same subject land near each other.
func stubEmbedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		vectors := make([][]float64, len(req.Texts))
		for i, text := range req.Texts {
			switch {
			case strings.Contains(text, "football"):
				vectors[i] = []float64{1, 0, float64(i) * 0.01}
			case strings.Contains(text, "markets"):
				vectors[i] = []float64{0, 1, float64(i) * 0.01}
			default:
				vectors[i] = []float64{0.5, 0.5, float64(i) * 0.01}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": vectors})
	}))
}

func TestClusterGroupsSimilarRecords(t *testing.T) {
	t.Parallel()

	server := stubEmbedServer(t)
	defer server.Close()

	engine := NewEngine(NewHTTPEmbedder(server.URL+"/embed", "test-model", 0), zerolog.Nop())

	records := []db.ContentRecord{
		{Title: "football final tonight"},
		{Title: "football transfer news"},
		{Title: "markets rally on earnings"},
		{Title: "markets dip after report"},
	}

	assignment, err := engine.Cluster(context.Background(), records)
	if err != nil {
		t.Fatalf("cluster failed: %v", err)
	}

	if assignment.K != 2 {
		t.Fatalf("expected k=2, got %d", assignment.K)
	}
	if len(assignment.Labels) != len(records) {
		t.Fatalf("expected a label per record, got %d", len(assignment.Labels))
	}
	if assignment.Labels[0] != assignment.Labels[1] {
		t.Fatalf("football records split: %v", assignment.Labels)
	}
	if assignment.Labels[2] != assignment.Labels[3] {
		t.Fatalf("markets records split: %v", assignment.Labels)
	}
	if assignment.Labels[0] == assignment.Labels[2] {
		t.Fatalf("distinct subjects merged: %v", assignment.Labels)
	}

	for c := range assignment.Representatives {
		idx := assignment.Representatives[c]
		if assignment.Labels[idx] != c {
			t.Fatalf("representative %d not a member of cluster %d", idx, c)
		}
	}
}

func TestClusterEmbedFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	engine := NewEngine(NewHTTPEmbedder(server.URL+"/embed", "test-model", 0), zerolog.Nop())
	_, err := engine.Cluster(context.Background(), []db.ContentRecord{{Title: "a"}, {Title: "b"}})
	if err == nil {
		t.Fatalf("expected error from failing embed service")
	}
}

func TestClusterTextTruncatesBody(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 2000)
	text := clusterText(db.ContentRecord{Title: "title", Body: long})
	if len(text) > len("title ")+clusterBodyPrefixLen {
		t.Fatalf("cluster text not truncated: %d chars", len(text))
	}
}

func TestClusterTextTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("à", clusterBodyPrefixLen+50)
	text := clusterText(db.ContentRecord{Title: "titolo", Body: long})
	runes := []rune(text)
	if len(runes) != len("titolo ")+clusterBodyPrefixLen {
		t.Fatalf("unexpected rune count: %d", len(runes))
	}
	for _, r := range runes[len("titolo "):] {
		if r != 'à' {
			t.Fatalf("truncation split a multibyte character")
		}
	}
}

func TestEmbedResponseDataShape(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float64{0, 1}},
				{"index": 0, "embedding": []float64{1, 0}},
			},
		})
	}))
	defer server.Close()

	embedder := NewHTTPEmbedder(server.URL+"/embed", "test-model", 0)
	vectors, err := embedder.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("data shape not reordered by index: %v", vectors)
	}
}

func TestNormalizeEmbeddingEndpoint(t *testing.T) {
	t.Parallel()

	if got := normalizeEmbeddingEndpoint("http://127.0.0.1:8844"); got != "http://127.0.0.1:8844/embed" {
		t.Fatalf("unexpected endpoint normalization: %q", got)
	}
	if got := normalizeEmbeddingEndpoint("http://127.0.0.1:8844/v1/embeddings"); got != "http://127.0.0.1:8844/v1/embeddings" {
		t.Fatalf("unexpected endpoint normalization for explicit path: %q", got)
	}
}
