package api

import (
	"math"

	"github.com/selah-app/selah-server/internal/domain"
)

// PlatformStats counts platform preferences within one result page.
type PlatformStats struct {
	Android     int `json:"android"`
	IOS         int `json:"ios"`
	Unspecified int `json:"unspecified"`
}

// LocationStats counts capture locations within one result page.
type LocationStats struct {
	Hero    int `json:"hero"`
	Bottom  int `json:"bottom"`
	Unknown int `json:"unknown"`
}

// ConversionMetrics aggregates session telemetry within one result page.
type ConversionMetrics struct {
	TotalInteractions int     `json:"totalInteractions"`
	AvgSessionTime    int     `json:"avgSessionTime"`
	AvgScrollDepth    float64 `json:"avgScrollDepth"`
}

// PageAnalytics is the analytics block attached to an email listing. All
// numbers describe the returned page, not the whole table.
type PageAnalytics struct {
	PlatformStats     PlatformStats     `json:"platformStats"`
	SourceStats       map[string]int    `json:"sourceStats"`
	LocationStats     LocationStats     `json:"locationStats"`
	ConversionMetrics ConversionMetrics `json:"conversionMetrics"`
}

// pageAnalytics derives stats from the records on one page. Averages divide
// by the page size, never by zero.
func pageAnalytics(records []domain.EmailRecord) PageAnalytics {
	out := PageAnalytics{SourceStats: make(map[string]int, len(domain.KnownSources))}
	for _, s := range domain.KnownSources {
		out.SourceStats[s] = 0
	}

	var sessionTime, scrollDepth int
	for _, rec := range records {
		switch rec.Engagement.PlatformPreference {
		case domain.PlatformAndroid:
			out.PlatformStats.Android++
		case domain.PlatformIOS:
			out.PlatformStats.IOS++
		default:
			out.PlatformStats.Unspecified++
		}

		if _, known := out.SourceStats[rec.Source]; known {
			out.SourceStats[rec.Source]++
		}

		switch rec.Engagement.Location {
		case "hero":
			out.LocationStats.Hero++
		case "bottom":
			out.LocationStats.Bottom++
		default:
			out.LocationStats.Unknown++
		}

		if m := rec.Engagement.SessionMetrics; m != nil {
			out.ConversionMetrics.TotalInteractions += m.BreathInteractions
			sessionTime += m.TimeSpent
			scrollDepth += m.ScrollDepth
		}
	}

	n := len(records)
	if n < 1 {
		n = 1
	}
	out.ConversionMetrics.AvgSessionTime = int(math.Round(float64(sessionTime) / float64(n)))
	out.ConversionMetrics.AvgScrollDepth = float64(scrollDepth) / float64(n)
	return out
}
