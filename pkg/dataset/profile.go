package dataset

// ColumnProfile summarizes one column for inspection commands.
type ColumnProfile struct {
	Name     string   `json:"name" toon:"name"`
	Kind     string   `json:"kind" toon:"kind"`
	Distinct int      `json:"distinct" toon:"distinct"`
	Nulls    int      `json:"nulls" toon:"nulls"`
	Examples []string `json:"examples,omitempty" toon:"examples,omitempty"`
}

const maxProfileExamples = 3

// Profile summarizes every column: the dominant non-null kind, distinct and
// null counts, and a few example values in first-encounter order.
func (d *Dataset) Profile() []ColumnProfile {
	profiles := make([]ColumnProfile, len(d.columns))
	for col, name := range d.columns {
		kindCounts := make(map[Kind]int)
		seen := make(map[string]struct{})
		p := ColumnProfile{Name: name}

		for row := range d.rows {
			v := d.rows[row][col]
			if v.IsNull() {
				p.Nulls++
				continue
			}
			kindCounts[v.Kind()]++
			s := v.DisplayString()
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				if len(p.Examples) < maxProfileExamples {
					p.Examples = append(p.Examples, s)
				}
			}
		}

		p.Distinct = len(seen)
		p.Kind = dominantKind(kindCounts).String()
		if len(kindCounts) == 0 {
			p.Kind = KindNull.String()
		}
		profiles[col] = p
	}
	return profiles
}

// dominantKind picks the most frequent kind, lowest kind winning ties so the
// result is deterministic.
func dominantKind(counts map[Kind]int) Kind {
	best := KindNull
	bestCount := -1
	for k := KindString; k <= KindMapping; k++ {
		if c, ok := counts[k]; ok && c > bestCount {
			best = k
			bestCount = c
		}
	}
	return best
}
