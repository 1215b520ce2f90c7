package pricing

import (
	"strings"

	"github.com/sirupsen/logrus"

	"steelprice/server/internal/models"
	"steelprice/server/internal/sizeclass"
)

// Aggregator averages kg-prices over the records that survive the
// exclusion markers and the diameter/length threshold filters.
type Aggregator struct {
	Markers           []string
	DiameterThreshold int
	LengthThreshold   int
	Logger            *logrus.Logger
}

// Aggregate averages the kg-price of every matching record. diameter and
// length are the requested specs, 0 meaning unrestricted. Matches keep the
// order of records.
func (a *Aggregator) Aggregate(records []models.PriceRecord, diameter, length int) models.AggregationResult {
	longDiameter := diameter >= a.DiameterThreshold
	longLength := length == 0 || length >= a.LengthThreshold

	result := models.AggregationResult{Matches: []models.Match{}}
	var total float64
	for _, r := range records {
		if r.Weight == 0 || r.Quantity == 0 {
			continue
		}
		if a.excluded(r.Description) {
			continue
		}

		size, err := sizeclass.Parse(r.SizeClass)
		if err != nil {
			if a.Logger != nil {
				a.Logger.WithError(err).WithField("article_no", r.ArticleNo).Debug("Skipping record with unreadable size class")
			}
			continue
		}
		if (size.Diameter >= a.DiameterThreshold) != longDiameter {
			continue
		}
		if (size.Length >= a.LengthThreshold) != longLength {
			continue
		}

		total += r.KgPrice()
		result.Count++
		result.Matches = append(result.Matches, models.Match{ArticleNo: r.ArticleNo, SizeClass: r.SizeClass})
	}

	if result.Count > 0 {
		avg := total / float64(result.Count)
		result.AverageKgPrice = &avg
	}
	return result
}

func (a *Aggregator) excluded(description string) bool {
	for _, marker := range a.Markers {
		if marker != "" && strings.Contains(description, marker) {
			return true
		}
	}
	return false
}
