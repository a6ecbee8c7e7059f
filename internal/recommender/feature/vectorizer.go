// Package feature builds weighted content feature vectors for the movie
// catalog and derives the top-K cosine similarity graph from them.
//
// Each sub-component (genres, tags, title terms, release year, popularity) is
// normalized independently before weighting so no single scale dominates the
// combined vector. Text blocks use TF-IDF, scalars use min-max.
package feature

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"cinebox-recs/internal/config"
	"cinebox-recs/internal/domain/entity"
)

// Vector is a sparse feature vector. Indexes are sorted ascending and the
// Euclidean norm is precomputed for cosine.
type Vector struct {
	Idx  []int32
	Val  []float64
	Norm float64
}

// Vectorizer turns catalog metadata into weighted feature vectors.
type Vectorizer struct {
	cfg config.FeatureConfig
}

// NewVectorizer creates a vectorizer with the given feature weights.
func NewVectorizer(cfg config.FeatureConfig) *Vectorizer {
	return &Vectorizer{cfg: cfg}
}

// vocab maps a term to its column index within one text block and tracks
// document frequency for IDF.
type vocab struct {
	index map[string]int32
	df    []int
}

func newVocab() *vocab {
	return &vocab{index: make(map[string]int32)}
}

// addDoc registers a movie's term set and bumps document frequencies.
func (v *vocab) addDoc(terms map[string]int) {
	for term := range terms {
		idx, ok := v.index[term]
		if !ok {
			idx = int32(len(v.df))
			v.index[term] = idx
			v.df = append(v.df, 0)
		}
		v.df[idx]++
	}
}

// idf returns the smoothed inverse document frequency for a column.
func (v *vocab) idf(idx int32, docs int) float64 {
	return math.Log(float64(docs+1)/float64(v.df[idx]+1)) + 1
}

// Vectors builds one vector per eligible movie. Movies with no genre, tag, or
// title tokens are excluded and become isolated nodes in the similarity graph.
func (v *Vectorizer) Vectors(movies []*entity.Movie) map[int64]Vector {
	type doc struct {
		movie  *entity.Movie
		genres map[string]int
		tags   map[string]int
		title  map[string]int
	}

	docs := make([]doc, 0, len(movies))
	genreVocab, tagVocab, titleVocab := newVocab(), newVocab(), newVocab()

	for _, m := range movies {
		d := doc{
			movie:  m,
			genres: termCounts(m.Genres, tokenizeTerm),
			tags:   termCounts(m.Tags, tokenize),
			title:  titleTermCounts(m.Title),
		}
		if len(d.genres) == 0 && len(d.tags) == 0 && len(d.title) == 0 {
			continue
		}
		docs = append(docs, d)
		genreVocab.addDoc(d.genres)
		tagVocab.addDoc(d.tags)
		titleVocab.addDoc(d.title)
	}
	if len(docs) == 0 {
		return map[int64]Vector{}
	}

	// Block layout: genres, tags, title, then three scalar columns for
	// year, view count, and rating.
	genreOff := int32(0)
	tagOff := genreOff + int32(len(genreVocab.df))
	titleOff := tagOff + int32(len(tagVocab.df))
	yearCol := titleOff + int32(len(titleVocab.df))
	viewsCol := yearCol + 1
	ratingCol := viewsCol + 1

	yearScale := newMinMax()
	viewScale := newMinMax()
	for _, d := range docs {
		if d.movie.ReleaseYear > 0 {
			yearScale.observe(float64(d.movie.ReleaseYear))
		}
		viewScale.observe(math.Log1p(float64(d.movie.ViewCount)))
	}

	n := len(docs)
	out := make(map[int64]Vector, n)
	for _, d := range docs {
		b := vectorBuilder{}
		b.addBlock(d.genres, genreVocab, genreOff, n, v.cfg.GenreWeight)
		b.addBlock(d.tags, tagVocab, tagOff, n, v.cfg.TagWeight)
		b.addBlock(d.title, titleVocab, titleOff, n, v.cfg.TitleWeight)

		if d.movie.ReleaseYear > 0 {
			b.add(yearCol, yearScale.normalize(float64(d.movie.ReleaseYear))*v.cfg.YearWeight)
		}
		// Popularity weight is split between view volume and rating.
		half := v.cfg.PopularityWeight / 2
		b.add(viewsCol, viewScale.normalize(math.Log1p(float64(d.movie.ViewCount)))*half)
		b.add(ratingCol, (d.movie.AvgRating/5.0)*half)

		out[d.movie.ID] = b.finish()
	}
	return out
}

// vectorBuilder accumulates sparse components and finalizes them sorted with
// their norm.
type vectorBuilder struct {
	idx []int32
	val []float64
}

func (b *vectorBuilder) add(col int32, v float64) {
	if v == 0 {
		return
	}
	b.idx = append(b.idx, col)
	b.val = append(b.val, v)
}

// addBlock writes one TF-IDF text block, L2-normalized before weighting.
func (b *vectorBuilder) addBlock(terms map[string]int, voc *vocab, offset int32, docs int, weight float64) {
	if len(terms) == 0 || weight == 0 {
		return
	}
	cols := make([]int32, 0, len(terms))
	vals := make([]float64, 0, len(terms))
	var norm float64
	for term, tf := range terms {
		col := voc.index[term]
		w := float64(tf) * voc.idf(col, docs)
		cols = append(cols, offset+col)
		vals = append(vals, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range cols {
		b.idx = append(b.idx, cols[i])
		b.val = append(b.val, vals[i]/norm*weight)
	}
}

func (b *vectorBuilder) finish() Vector {
	order := make([]int, len(b.idx))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return b.idx[order[i]] < b.idx[order[j]] })

	v := Vector{
		Idx: make([]int32, len(order)),
		Val: make([]float64, len(order)),
	}
	var norm float64
	for i, o := range order {
		v.Idx[i] = b.idx[o]
		v.Val[i] = b.val[o]
		norm += b.val[o] * b.val[o]
	}
	v.Norm = math.Sqrt(norm)
	return v
}

// minMax is an online min-max scaler.
type minMax struct {
	min, max float64
	seen     bool
}

func newMinMax() *minMax { return &minMax{} }

func (s *minMax) observe(v float64) {
	if !s.seen {
		s.min, s.max, s.seen = v, v, true
		return
	}
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
}

// normalize maps v into [0,1]. A degenerate range maps everything to 0.5 so
// the column carries no signal instead of a spurious one.
func (s *minMax) normalize(v float64) float64 {
	if !s.seen || s.max == s.min {
		return 0.5
	}
	return (v - s.min) / (s.max - s.min)
}

func termCounts(values []string, split func(string) []string) map[string]int {
	counts := make(map[string]int)
	for _, v := range values {
		for _, term := range split(v) {
			counts[term]++
		}
	}
	return counts
}

func titleTermCounts(title string) map[string]int {
	counts := make(map[string]int)
	for _, term := range tokenize(title) {
		if _, stop := titleStopwords[term]; stop {
			continue
		}
		if len(term) < 3 || isNumeric(term) {
			continue
		}
		counts[term]++
	}
	return counts
}

// tokenizeTerm treats the whole value as a single normalized term. Genres
// like "Science Fiction" stay one feature.
func tokenizeTerm(s string) []string {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return nil
	}
	return []string{t}
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

var titleStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {},
	"une": {}, "les": {}, "der": {}, "die": {}, "das": {},
	"part": {}, "vol": {},
}
