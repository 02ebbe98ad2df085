package recommender

import (
	"fmt"

	"policyPortal/domain"
)

// TargetForEvent turns a user interaction into a training target in [0,1].
func TargetForEvent(eventType string) (float64, error) {
	switch eventType {
	case domain.EventDismissed:
		return 0.0, nil
	case domain.EventViewed:
		return 0.3, nil
	case domain.EventCompared:
		return 0.5, nil
	case domain.EventFavorited:
		return 0.7, nil
	case domain.EventPurchased:
		return 1.0, nil
	default:
		return 0, fmt.Errorf("unknown event type: %s", eventType)
	}
}
