package memo

import (
	"strings"

	"github.com/meridianlending/underwrite/internal/model"
)

// Fixed palette. Values are RRGGBB hex without a leading '#'.
const (
	colorNavy       = "1F4E79"
	colorSlate      = "404040"
	colorGreen      = "2E7D32"
	colorLightGreen = "558B2F"
	colorAmber      = "F9A825"
	colorOrange     = "EF6C00"
	colorRed        = "C62828"
	colorDarkRed    = "8B0000"
	colorInfo       = "546E7A"
	colorWhite      = "FFFFFF"

	fillHeader = "1F4E79"
	fillLabel  = "F2F2F2"
	fillBanner = "FDECEA"
)

// ratingColor maps a free-text rating to the palette. Matching is by
// substring, first rule wins.
func ratingColor(rating string) string {
	r := strings.ToLower(rating)
	switch {
	case strings.Contains(r, "excellent"), strings.Contains(r, "strong"):
		return colorGreen
	case strings.Contains(r, "good"):
		return colorLightGreen
	case strings.Contains(r, "adequate"), strings.Contains(r, "acceptable"), strings.Contains(r, "moderate"):
		return colorAmber
	case strings.Contains(r, "below"), strings.Contains(r, "marginal"), strings.Contains(r, "weak"):
		return colorOrange
	case strings.Contains(r, "poor"), strings.Contains(r, "high risk"):
		return colorRed
	case strings.Contains(r, "critical"), strings.Contains(r, "severe"):
		return colorDarkRed
	}
	return colorSlate
}

// riskRatingColor maps the four-bucket summary rating.
func riskRatingColor(r model.RiskRating) string {
	switch r {
	case model.RiskLow:
		return colorGreen
	case model.RiskModerate:
		return colorAmber
	case model.RiskElevated:
		return colorOrange
	case model.RiskHigh:
		return colorRed
	}
	return colorSlate
}

// severityColor maps flag severities.
func severityColor(s model.FlagSeverity) string {
	switch s {
	case model.FlagCritical:
		return colorDarkRed
	case model.FlagHigh:
		return colorRed
	case model.FlagMedium, model.FlagModerate:
		return colorOrange
	case model.FlagLow:
		return colorAmber
	case model.FlagInfo:
		return colorInfo
	}
	return colorSlate
}

// severityRank orders flags for presentation: critical, high,
// medium/moderate, low, info.
func severityRank(s model.FlagSeverity) int {
	switch s {
	case model.FlagCritical:
		return 0
	case model.FlagHigh:
		return 1
	case model.FlagMedium, model.FlagModerate:
		return 2
	case model.FlagLow:
		return 3
	case model.FlagInfo:
		return 4
	}
	return 5
}

// scoreColor buckets a 0..100 composite risk score.
func scoreColor(score float64) string {
	switch {
	case score <= 25:
		return colorGreen
	case score <= 50:
		return colorAmber
	case score <= 75:
		return colorOrange
	}
	return colorRed
}

// passRateColor buckets a 0..1 verification pass rate.
func passRateColor(rate float64) string {
	switch {
	case rate >= 0.9:
		return colorGreen
	case rate >= 0.7:
		return colorAmber
	}
	return colorRed
}
