package cluster

import "testing"

func twoBlobVectors() [][]float64 {
	return [][]float64{
		{0.0, 0.1},
		{0.1, 0.0},
		{0.1, 0.1},
		{5.0, 5.1},
		{5.1, 5.0},
		{5.1, 5.1},
	}
}

func TestRunKMeansSeparatesBlobs(t *testing.T) {
	t.Parallel()

	labels, centroids := runKMeans(twoBlobVectors(), 2)
	if len(labels) != 6 {
		t.Fatalf("expected 6 labels, got %d", len(labels))
	}
	if len(centroids) != 2 {
		t.Fatalf("expected 2 centroids, got %d", len(centroids))
	}

	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Fatalf("first blob split across clusters: %v", labels)
	}
	if labels[3] != labels[4] || labels[4] != labels[5] {
		t.Fatalf("second blob split across clusters: %v", labels)
	}
	if labels[0] == labels[3] {
		t.Fatalf("blobs merged into one cluster: %v", labels)
	}
}

func TestRunKMeansDeterministic(t *testing.T) {
	t.Parallel()

	first, _ := runKMeans(twoBlobVectors(), 2)
	second, _ := runKMeans(twoBlobVectors(), 2)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("labels differ between runs: %v vs %v", first, second)
		}
	}
}

func TestRunKMeansFullCoverage(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{3, 3}, {3.1, 3},
		{9, 9}, {9, 9.1}, {9.1, 9},
	}
	labels, _ := runKMeans(vectors, 3)
	for i, label := range labels {
		if label < 0 || label >= 3 {
			t.Fatalf("vector %d has out-of-range label %d", i, label)
		}
	}
}

func TestRunKMeansClampsKToPointCount(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{{0, 0}, {1, 1}}
	labels, centroids := runKMeans(vectors, 5)
	if len(centroids) != 2 {
		t.Fatalf("expected k clamped to 2, got %d centroids", len(centroids))
	}
	if labels[0] == labels[1] {
		t.Fatalf("expected two separate singleton clusters, got %v", labels)
	}
}

func TestRunKMeansIdenticalPoints(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	labels, _ := runKMeans(vectors, 2)
	for i, label := range labels {
		if label < 0 || label >= 2 {
			t.Fatalf("vector %d has out-of-range label %d", i, label)
		}
	}
}
