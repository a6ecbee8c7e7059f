package feature

import (
	"sort"
	"time"

	"cinebox-recs/internal/domain/entity"
)

// Cosine computes the cosine similarity of two sparse vectors by merge-join
// over their sorted indexes. The result is clamped to [0,1]; feature values
// are non-negative so the clamp only absorbs floating point drift.
func Cosine(a, b Vector) float64 {
	if a.Norm == 0 || b.Norm == 0 {
		return 0
	}
	var dot float64
	i, j := 0, 0
	for i < len(a.Idx) && j < len(b.Idx) {
		switch {
		case a.Idx[i] == b.Idx[j]:
			dot += a.Val[i] * b.Val[j]
			i++
			j++
		case a.Idx[i] < b.Idx[j]:
			i++
		default:
			j++
		}
	}
	sim := dot / (a.Norm * b.Norm)
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// BuildEdges computes the directed top-K neighbor edges over the catalog.
//
// For every source movie, the K most similar other movies above the quality
// floor are kept, ordered by similarity descending with movie ID as the
// deterministic tie-break. Self-edges are never produced. The result is
// stable across runs for identical input.
func BuildEdges(vectors map[int64]Vector, topK int, floor float64, computedAt time.Time) []*entity.SimilarityEdge {
	ids := make([]int64, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	type scored struct {
		id  int64
		sim float64
	}

	edges := make([]*entity.SimilarityEdge, 0, len(ids)*topK)
	for _, src := range ids {
		srcVec := vectors[src]
		neighbors := make([]scored, 0, len(ids)-1)
		for _, other := range ids {
			if other == src {
				continue
			}
			sim := Cosine(srcVec, vectors[other])
			if sim < floor || sim == 0 {
				continue
			}
			neighbors = append(neighbors, scored{id: other, sim: sim})
		}

		sort.Slice(neighbors, func(i, j int) bool {
			if neighbors[i].sim != neighbors[j].sim {
				return neighbors[i].sim > neighbors[j].sim
			}
			return neighbors[i].id < neighbors[j].id
		})
		if len(neighbors) > topK {
			neighbors = neighbors[:topK]
		}

		for rank, n := range neighbors {
			edges = append(edges, &entity.SimilarityEdge{
				MovieID:    src,
				NeighborID: n.id,
				Similarity: n.sim,
				Rank:       rank + 1,
				ComputedAt: computedAt,
			})
		}
	}
	return edges
}
