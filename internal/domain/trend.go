package domain

import (
	"fmt"
	"strings"
)

// Region labels. Listings outside the known vocabulary are kept but marked
// Unknown rather than dropped.
const (
	RegionWorld   = "World"
	RegionIndia   = "India"
	RegionUnknown = "Unknown"
)

// Period labels for a ranking listing.
const (
	PeriodNow   = "Now"
	PeriodWeek  = "Week"
	PeriodMonth = "Month"
	PeriodYear  = "Year"
)

// Sentiment labels. The five-class set matches the multilingual model's
// native output; three-class mode collapses the extremes.
const (
	SentimentVeryPositive = "Very Positive"
	SentimentPositive     = "Positive"
	SentimentNeutral      = "Neutral"
	SentimentNegative     = "Negative"
	SentimentVeryNegative = "Very Negative"
)

var knownRegions = map[string]string{
	"world": RegionWorld,
	"india": RegionIndia,
}

// NormalizeRegion maps a scraped region label onto the fixed title-cased
// vocabulary. Anything unrecognized becomes RegionUnknown.
func NormalizeRegion(region string) string {
	if normalized, ok := knownRegions[strings.ToLower(strings.TrimSpace(region))]; ok {
		return normalized
	}
	return RegionUnknown
}

// PeriodHoursAgo returns the period label for an hour-offset listing.
// Offset 0 is the live "Now" page.
func PeriodHoursAgo(hours int) string {
	if hours <= 0 {
		return PeriodNow
	}
	return fmt.Sprintf("Now-%dh", hours)
}

// Record is one ranked hashtag observation from a single listing page.
type Record struct {
	Tag       string `json:"tag"`
	Count     int    `json:"count"`
	Rank      int    `json:"rank"`
	Region    string `json:"region"`
	Period    string `json:"period"`
	Date      string `json:"date"`
	Sentiment string `json:"sentiment,omitempty"`
}
