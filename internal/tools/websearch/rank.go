package websearch

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "in": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "was": true, "were": true,
	"will": true, "with": true, "what": true, "how": true, "why": true,
}

// scoredDocument is a candidate page with its relevance to the query.
type scoredDocument struct {
	Index int
	Score float64
}

// rankDocuments scores each document against the query using TF-IDF
// cosine similarity. The query vector is expanded with terms that
// frequently co-occur with query terms across the corpus, so pages
// using related vocabulary still rank. Results below threshold are
// dropped; the rest come back highest score first.
func rankDocuments(query string, docs []string, threshold float64) []scoredDocument {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 || len(docs) == 0 {
		return nil
	}

	docTerms := make([][]string, len(docs))
	for i, doc := range docs {
		docTerms[i] = tokenize(doc)
	}

	idf := inverseDocFrequency(docTerms)
	graph := coOccurrence(docTerms)

	queryVec := expandedQueryVector(queryTerms, graph, idf)

	var ranked []scoredDocument
	for i, terms := range docTerms {
		docVec := tfidfVector(terms, idf)
		score := cosine(queryVec, docVec)
		if score >= threshold {
			ranked = append(ranked, scoredDocument{Index: i, Score: score})
		}
	}

	sort.Slice(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	return ranked
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func inverseDocFrequency(docs [][]string) map[string]float64 {
	docCount := make(map[string]int)
	for _, terms := range docs {
		seen := make(map[string]bool, len(terms))
		for _, t := range terms {
			if !seen[t] {
				seen[t] = true
				docCount[t]++
			}
		}
	}

	idf := make(map[string]float64, len(docCount))
	n := float64(len(docs))
	for term, count := range docCount {
		idf[term] = math.Log(1 + n/float64(count))
	}
	return idf
}

func tfidfVector(terms []string, idf map[string]float64) map[string]float64 {
	if len(terms) == 0 {
		return nil
	}
	counts := make(map[string]float64)
	for _, t := range terms {
		counts[t]++
	}
	vec := make(map[string]float64, len(counts))
	total := float64(len(terms))
	for term, count := range counts {
		weight, ok := idf[term]
		if !ok {
			weight = 1
		}
		vec[term] = (count / total) * weight
	}
	return vec
}

// coOccurrence builds term adjacency weights from a sliding window
// over each document.
func coOccurrence(docs [][]string) map[string]map[string]float64 {
	const window = 5
	graph := make(map[string]map[string]float64)
	link := func(a, b string) {
		if graph[a] == nil {
			graph[a] = make(map[string]float64)
		}
		graph[a][b]++
	}
	for _, terms := range docs {
		for i, a := range terms {
			for j := i + 1; j < len(terms) && j <= i+window; j++ {
				b := terms[j]
				if a == b {
					continue
				}
				link(a, b)
				link(b, a)
			}
		}
	}
	return graph
}

// expandedQueryVector weights the original query terms fully and adds
// their strongest corpus neighbours at a discount.
func expandedQueryVector(queryTerms []string, graph map[string]map[string]float64, idf map[string]float64) map[string]float64 {
	const (
		neighbourLimit  = 3
		neighbourWeight = 0.25
	)

	vec := tfidfVector(queryTerms, idf)
	for _, term := range queryTerms {
		neighbours := graph[term]
		if len(neighbours) == 0 {
			continue
		}
		type edge struct {
			term   string
			weight float64
		}
		edges := make([]edge, 0, len(neighbours))
		for t, w := range neighbours {
			edges = append(edges, edge{t, w})
		}
		sort.Slice(edges, func(a, b int) bool {
			return edges[a].weight > edges[b].weight
		})
		if len(edges) > neighbourLimit {
			edges = edges[:neighbourLimit]
		}
		for _, e := range edges {
			if _, exists := vec[e.term]; exists {
				continue
			}
			weight := idf[e.term]
			if weight == 0 {
				weight = 1
			}
			vec[e.term] = neighbourWeight * weight / float64(len(queryTerms))
		}
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, wa := range a {
		normA += wa * wa
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
