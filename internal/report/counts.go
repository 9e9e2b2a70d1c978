// Package report turns classified rows into the aggregates each dashboard
// shows. Everything here is a pure function of its input rows.
package report

import (
	"sort"

	"tablero/internal"
	"tablero/internal/pipeline"
	"tablero/internal/util"
)

type Count struct {
	Key   string
	Count int
}

type Share struct {
	Key     string
	Count   int
	Percent float64
}

// PairCount is one cell of a two-level grouping.
type PairCount struct {
	Group string
	Sub   string
	Count int
}

// ValueCounts counts keys, most frequent first. Ties keep first appearance.
func ValueCounts(keys []string) []Count {
	idx := map[string]int{}
	var out []Count
	for _, k := range keys {
		if i, ok := idx[k]; ok {
			out[i].Count++
			continue
		}
		idx[k] = len(out)
		out = append(out, Count{Key: k, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func Percentages(counts []Count) []Share {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	out := make([]Share, 0, len(counts))
	for _, c := range counts {
		s := Share{Key: c.Key, Count: c.Count}
		if total > 0 {
			s.Percent = float64(c.Count) * 100 / float64(total)
		}
		out = append(out, s)
	}
	return out
}

// pairCounts groups by (group, sub) sorted by both keys.
func pairCounts(groups, subs []string) []PairCount {
	type key struct{ g, s string }
	n := map[key]int{}
	for i := range groups {
		n[key{groups[i], subs[i]}]++
	}
	out := make([]PairCount, 0, len(n))
	for k, c := range n {
		out = append(out, PairCount{Group: k.g, Sub: k.s, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Sub < out[j].Sub
	})
	return out
}

func sortedUnique(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func estado(r internal.ProjectRow) string { return util.Deref(r.EstadoActual) }

func filterRows(rows []internal.ProjectRow, keep func(internal.ProjectRow) bool) []internal.ProjectRow {
	var out []internal.ProjectRow
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func countsSheet(name, keyHeader string, counts []Count) pipeline.Sheet {
	s := pipeline.Sheet{Name: name, Headers: []string{keyHeader, "Cantidad"}}
	for _, c := range counts {
		s.Rows = append(s.Rows, []any{c.Key, c.Count})
	}
	return s
}

func pairSheet(name, groupHeader, subHeader string, pairs []PairCount) pipeline.Sheet {
	s := pipeline.Sheet{Name: name, Headers: []string{groupHeader, subHeader, "Cantidad"}}
	for _, p := range pairs {
		s.Rows = append(s.Rows, []any{p.Group, p.Sub, p.Count})
	}
	return s
}
