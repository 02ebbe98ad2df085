package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned when a scaler or model is used before training.
	ErrNotFitted = errors.New("not fitted")

	ErrInsufficientSelection = errors.New("at least two policies are required for comparison")
	ErrTooManyPolicies       = errors.New("at most four policies can be compared")
	ErrPolicyNotFound        = errors.New("policy not found")

	// ErrInvalidProfile covers every scoring input rejected before work starts:
	// negative age or income, out-of-range risk tolerance, min age above max age.
	ErrInvalidProfile = errors.New("invalid profile")

	ErrWeightConfiguration      = errors.New("invalid weight configuration")
	ErrTrainingInProgress       = errors.New("training already in progress")
	ErrInsufficientTrainingData = errors.New("insufficient training data")
	ErrInvalidMatrix            = errors.New("invalid matrix")
	ErrProfileNotFound          = errors.New("profile not found")

	// ErrInvalidPolicy is returned by catalog writes for incomplete or inconsistent policies.
	ErrInvalidPolicy = errors.New("invalid policy")
)

// PolicyNotFoundError names the id that could not be resolved.
type PolicyNotFoundError struct {
	ID string
}

func (e *PolicyNotFoundError) Error() string {
	return fmt.Sprintf("policy %q not found", e.ID)
}

func (e *PolicyNotFoundError) Is(target error) bool {
	return target == ErrPolicyNotFound
}
