package catalog

import "fmt"

const (
	flatTrendPoints = 10
	flatTrendBase   = 100
	flatTrendStep   = 2
)

// FlatTrend returns the placeholder series attached to every newly minted
// metric: ten daily points from 2026-01-01 with values 102..120. It carries no
// meaning.
func FlatTrend() []TrendPoint {
	points := make([]TrendPoint, 0, flatTrendPoints)
	for i := 1; i <= flatTrendPoints; i++ {
		points = append(points, TrendPoint{
			Date:  fmt.Sprintf("2026-01-%02d", i),
			Value: float64(flatTrendBase + i*flatTrendStep),
		})
	}

	return points
}
