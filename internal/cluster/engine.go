package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/pulse/internal/db"
)

// ErrTooFewRecords signals that the record window is below the minimum
// needed to form clusters.
var ErrTooFewRecords = errors.New("not enough records to cluster")

const clusterBodyPrefixLen = 500

// Assignment is the outcome of one clustering run over a record window.
// Labels is index-aligned with the input records; every record is assigned.
type Assignment struct {
	K               int
	Labels          []int
	Keywords        map[int][]string
	Representatives map[int]int
}

type Engine struct {
	embedder Embedder
	logger   zerolog.Logger
}

func NewEngine(embedder Embedder, logger zerolog.Logger) *Engine {
	return &Engine{embedder: embedder, logger: logger}
}

// ChooseK derives the cluster count from the record count, clamped to [2, 10].
func ChooseK(n int) int {
	k := int(math.Round(math.Sqrt(float64(n) / 2)))
	if k < 2 {
		k = 2
	}
	if k > 10 {
		k = 10
	}
	if k > n {
		k = n
	}
	return k
}

// Cluster embeds the records and partitions them into k groups. Every record
// receives a label and each cluster carries its TF-IDF keywords plus the index
// of its representative member, the one closest to the cluster centroid.
func (e *Engine) Cluster(ctx context.Context, records []db.ContentRecord) (Assignment, error) {
	if len(records) < 2 {
		return Assignment{}, ErrTooFewRecords
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = clusterText(record)
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return Assignment{}, fmt.Errorf("embed %d records: %w", len(records), err)
	}
	if err := validateVectors(vectors, len(records)); err != nil {
		return Assignment{}, err
	}

	k := ChooseK(len(records))
	labels, centroids := runKMeans(vectors, k)

	keywords := make(map[int][]string, k)
	representatives := make(map[int]int, k)
	for c := 0; c < k; c++ {
		memberTexts := make([]string, 0)
		representative := -1
		representativeDist := math.Inf(1)
		for i, label := range labels {
			if label != c {
				continue
			}
			memberTexts = append(memberTexts, texts[i])
			d := squaredDistance(vectors[i], centroids[c])
			if d < representativeDist {
				representativeDist = d
				representative = i
			}
		}
		if representative < 0 {
			continue
		}
		keywords[c] = extractKeywords(memberTexts)
		representatives[c] = representative
	}

	e.logger.Debug().
		Int("records", len(records)).
		Int("k", k).
		Int("clusters", len(representatives)).
		Msg("clustering run complete")

	return Assignment{
		K:               k,
		Labels:          labels,
		Keywords:        keywords,
		Representatives: representatives,
	}, nil
}

// clusterText is the embedded representation of a record: the title plus a
// bounded prefix of the body, truncated on rune boundaries.
func clusterText(record db.ContentRecord) string {
	body := record.Body
	if runes := []rune(body); len(runes) > clusterBodyPrefixLen {
		body = string(runes[:clusterBodyPrefixLen])
	}
	return strings.TrimSpace(record.Title + " " + body)
}

func validateVectors(vectors [][]float64, expected int) error {
	if len(vectors) != expected {
		return fmt.Errorf("embedding count mismatch: want=%d got=%d", expected, len(vectors))
	}
	dims := len(vectors[0])
	if dims == 0 {
		return errors.New("embedding service returned empty vectors")
	}
	for i, vec := range vectors {
		if len(vec) != dims {
			return fmt.Errorf("embedding dimension mismatch at index %d: want=%d got=%d", i, dims, len(vec))
		}
	}
	return nil
}
