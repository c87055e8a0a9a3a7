package history

// ComputeDeltas fills each point's Delta with the change since the
// previous point in the series. The first point's delta is its count,
// the series being the name's whole recorded life.
func ComputeDeltas(points []TrendPoint) []TrendPoint {
	for i := range points {
		if i == 0 {
			points[i].Delta = points[i].Count
			continue
		}
		points[i].Delta = points[i].Count - points[i-1].Count
	}
	return points
}
