package export

import (
	"math"
	"sort"

	"github.com/piwi3910/StowPlan/internal/model"
)

// AggregateRow is one line of a loading table: identical boxes folded
// together.
type AggregateRow struct {
	Name   string
	Count  int
	Length float64
	Width  float64
	Height float64
	Weight float64
}

type aggregateKey struct {
	name                          string
	length, width, height, weight float64
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AggregateItems groups the boxes of items (stack members included) by name,
// dimensions and weight, rounded to two decimals. Rows are sorted by name.
func AggregateItems(items []model.Item) []AggregateRow {
	index := map[aggregateKey]int{}
	var rows []AggregateRow
	for _, it := range items {
		for _, b := range model.ItemBoxes(it) {
			k := aggregateKey{
				name:   b.Name,
				length: round2(b.Length),
				width:  round2(b.Width),
				height: round2(b.Height),
				weight: round2(b.Weight),
			}
			if i, ok := index[k]; ok {
				rows[i].Count++
				continue
			}
			index[k] = len(rows)
			rows = append(rows, AggregateRow{
				Name: k.name, Count: 1,
				Length: k.length, Width: k.width, Height: k.height, Weight: k.weight,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

// totals returns the box count and weight of a table.
func totals(rows []AggregateRow) (int, float64) {
	var n int
	var w float64
	for _, r := range rows {
		n += r.Count
		w += float64(r.Count) * r.Weight
	}
	return n, w
}
