package steering

// Neighbors returns the candidates within Perception of v, excluding v
// itself. Input order is preserved.
func (v *Vehicle) Neighbors(candidates []*Vehicle) []*Vehicle {
	return v.NeighborsInto(nil, candidates)
}

// NeighborsInto appends the neighbors of v found in candidates to dst and
// returns the updated slice. Reuse dst across calls to avoid allocations.
func (v *Vehicle) NeighborsInto(dst, candidates []*Vehicle) []*Vehicle {
	r := v.params.Perception
	rSq := r * r
	minX, maxX := v.pos.X-r, v.pos.X+r
	minY, maxY := v.pos.Y-r, v.pos.Y+r

	for _, c := range candidates {
		if c == nil || c == v {
			continue
		}

		// Bounding square first; avoids the multiply for far candidates
		p := c.pos
		if p.X <= minX || p.X >= maxX || p.Y <= minY || p.Y >= maxY {
			continue
		}

		if p.SqrDist(v.pos) < rSq {
			dst = append(dst, c)
		}
	}
	return dst
}
