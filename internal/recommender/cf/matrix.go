package cf

import (
	"sort"

	"cinebox-recs/internal/config"
	"cinebox-recs/internal/domain/entity"
)

// interactionMatrix is the implicit user×item feedback matrix in compressed
// form: per-user and per-item adjacency over dense indexes.
type interactionMatrix struct {
	userIDs []int64
	itemIDs []int64
	userIdx map[int64]int
	itemIdx map[int64]int

	// byUser[u] lists (item index, weight); byItem mirrors it.
	byUser [][]cell
	byItem [][]cell
	pairs  int
}

type cell struct {
	idx    int
	weight float64
}

// buildMatrix folds signals into summed per-pair weights. Explicit ratings
// contribute their star value; the implicit kinds contribute fixed weights.
func buildMatrix(signals []*entity.InteractionSignal, cfg config.TrainingConfig) *interactionMatrix {
	type pair struct{ u, i int64 }
	weights := make(map[pair]float64)
	for _, s := range signals {
		var w float64
		switch s.Kind {
		case entity.SignalRating:
			w = s.Value
		case entity.SignalView:
			w = cfg.ViewWeight
		case entity.SignalFavorite:
			w = cfg.FavoriteWeight
		case entity.SignalWatchlist:
			w = cfg.WatchlistWeight
		case entity.SignalLike:
			w = cfg.LikeWeight
		default:
			continue
		}
		if w <= 0 {
			continue
		}
		weights[pair{s.UserID, s.MovieID}] += w
	}

	m := &interactionMatrix{
		userIdx: make(map[int64]int),
		itemIdx: make(map[int64]int),
		pairs:   len(weights),
	}
	for p := range weights {
		if _, ok := m.userIdx[p.u]; !ok {
			m.userIdx[p.u] = -1
			m.userIDs = append(m.userIDs, p.u)
		}
		if _, ok := m.itemIdx[p.i]; !ok {
			m.itemIdx[p.i] = -1
			m.itemIDs = append(m.itemIDs, p.i)
		}
	}

	// Sorted ID order keeps index assignment, and with it the whole
	// training run, reproducible.
	sort.Slice(m.userIDs, func(i, j int) bool { return m.userIDs[i] < m.userIDs[j] })
	sort.Slice(m.itemIDs, func(i, j int) bool { return m.itemIDs[i] < m.itemIDs[j] })
	for i, id := range m.userIDs {
		m.userIdx[id] = i
	}
	for i, id := range m.itemIDs {
		m.itemIdx[id] = i
	}

	m.byUser = make([][]cell, len(m.userIDs))
	m.byItem = make([][]cell, len(m.itemIDs))
	for p, w := range weights {
		u := m.userIdx[p.u]
		i := m.itemIdx[p.i]
		m.byUser[u] = append(m.byUser[u], cell{idx: i, weight: w})
		m.byItem[i] = append(m.byItem[i], cell{idx: u, weight: w})
	}
	for _, cells := range m.byUser {
		sort.Slice(cells, func(a, b int) bool { return cells[a].idx < cells[b].idx })
	}
	for _, cells := range m.byItem {
		sort.Slice(cells, func(a, b int) bool { return cells[a].idx < cells[b].idx })
	}
	return m
}
