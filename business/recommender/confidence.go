package recommender

import "policyPortal/domain"

const (
	highConfidenceThreshold   = 0.7
	mediumConfidenceThreshold = 0.4
)

// ConfidenceFor buckets a score. Ranking and comparison both go through here.
func ConfidenceFor(score float64) domain.Confidence {
	switch {
	case score >= highConfidenceThreshold:
		return domain.ConfidenceHigh
	case score >= mediumConfidenceThreshold:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
