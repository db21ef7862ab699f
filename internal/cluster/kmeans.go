package cluster

import (
	"math"
	"math/rand"
)

const (
	kmeansSeed          = 42
	kmeansRestarts      = 10
	kmeansMaxIterations = 100
)

// runKMeans clusters vectors into k groups with Lloyd iterations. It runs
// a fixed number of restarts from a fixed seed and keeps the assignment with
// the lowest inertia, so the same inputs always yield the same labels.
func runKMeans(vectors [][]float64, k int) ([]int, [][]float64) {
	n := len(vectors)
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	bestLabels := make([]int, n)
	bestCentroids := [][]float64(nil)
	bestInertia := math.Inf(1)

	for restart := 0; restart < kmeansRestarts; restart++ {
		rng := rand.New(rand.NewSource(kmeansSeed + int64(restart)))
		labels, centroids, inertia := kmeansSingleRun(vectors, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			copy(bestLabels, labels)
			bestCentroids = centroids
		}
	}

	return bestLabels, bestCentroids
}

func kmeansSingleRun(vectors [][]float64, k int, rng *rand.Rand) ([]int, [][]float64, float64) {
	n := len(vectors)
	centroids := initCentroids(vectors, k, rng)
	labels := make([]int, n)

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, vec := range vectors {
			best := nearestCentroid(vec, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}
		recomputeCentroids(vectors, labels, centroids)
		repairEmptyClusters(vectors, labels, centroids)
	}

	inertia := 0.0
	for i, vec := range vectors {
		inertia += squaredDistance(vec, centroids[labels[i]])
	}
	return labels, centroids, inertia
}

// initCentroids uses k-means++ seeding: the first centroid is drawn uniformly
// and each following one is drawn proportionally to squared distance from the
// nearest centroid chosen so far.
func initCentroids(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	dims := len(vectors[0])
	centroids := make([][]float64, 0, k)

	first := rng.Intn(n)
	centroids = append(centroids, append([]float64(nil), vectors[first]...))

	distances := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, vec := range vectors {
			distances[i] = squaredDistance(vec, centroids[nearestCentroid(vec, centroids)])
			total += distances[i]
		}

		var next int
		if total <= 0 {
			next = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			cumulative := 0.0
			next = n - 1
			for i, d := range distances {
				cumulative += d
				if cumulative >= target {
					next = i
					break
				}
			}
		}

		centroid := make([]float64, dims)
		copy(centroid, vectors[next])
		centroids = append(centroids, centroid)
	}

	return centroids
}

func recomputeCentroids(vectors [][]float64, labels []int, centroids [][]float64) {
	dims := len(centroids[0])
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dims)
	}

	for i, vec := range vectors {
		c := labels[i]
		counts[c]++
		for d, v := range vec {
			sums[c][d] += v
		}
	}

	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for d := range centroids[c] {
			centroids[c][d] = sums[c][d] / float64(counts[c])
		}
	}
}

// repairEmptyClusters reseats any centroid that lost all members onto the
// point farthest from its current centroid, so every cluster index stays
// populated and every record keeps a valid label.
func repairEmptyClusters(vectors [][]float64, labels []int, centroids [][]float64) {
	counts := make([]int, len(centroids))
	for _, c := range labels {
		counts[c]++
	}

	for c := range centroids {
		if counts[c] > 0 {
			continue
		}

		farthest := -1
		farthestDist := -1.0
		for i, vec := range vectors {
			if counts[labels[i]] <= 1 {
				continue
			}
			d := squaredDistance(vec, centroids[labels[i]])
			if d > farthestDist {
				farthestDist = d
				farthest = i
			}
		}
		if farthest < 0 {
			continue
		}

		counts[labels[farthest]]--
		labels[farthest] = c
		counts[c] = 1
		copy(centroids[c], vectors[farthest])
	}
}

func nearestCentroid(vec []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		d := squaredDistance(vec, centroid)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
