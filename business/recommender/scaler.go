package recommender

import (
	"fmt"

	"policyPortal/domain"
)

// RangeScaler is a fitted min-max normaliser. The zero value is unfitted.
// Values are never mutated after fitting; refitting yields a new scaler.
type RangeScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

func (s RangeScaler) Fitted() bool {
	return len(s.Min) > 0 && len(s.Min) == len(s.Max)
}

func (s RangeScaler) Width() int {
	return len(s.Min)
}

// FitTransform computes per-column bounds over matrix and returns the fitted
// scaler along with the normalised copy of matrix.
func FitTransform(matrix [][]float64) (RangeScaler, [][]float64, error) {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return RangeScaler{}, nil, fmt.Errorf("%w: empty matrix", domain.ErrInvalidMatrix)
	}

	width := len(matrix[0])
	s := RangeScaler{
		Min: make([]float64, width),
		Max: make([]float64, width),
	}
	copy(s.Min, matrix[0])
	copy(s.Max, matrix[0])

	for i, row := range matrix {
		if len(row) != width {
			return RangeScaler{}, nil, fmt.Errorf("%w: row %d has %d columns, want %d", domain.ErrInvalidMatrix, i, len(row), width)
		}
		for j, v := range row {
			if v < s.Min[j] {
				s.Min[j] = v
			}
			if v > s.Max[j] {
				s.Max[j] = v
			}
		}
	}

	out, err := s.Transform(matrix)
	if err != nil {
		return RangeScaler{}, nil, err
	}
	return s, out, nil
}

func (s RangeScaler) Transform(matrix [][]float64) ([][]float64, error) {
	return s.apply(matrix, s.scaleRow)
}

func (s RangeScaler) InverseTransform(matrix [][]float64) ([][]float64, error) {
	return s.apply(matrix, s.unscaleRow)
}

func (s RangeScaler) TransformVector(v []float64) ([]float64, error) {
	if err := s.check(len(v)); err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	s.scaleRow(v, out)
	return out, nil
}

// InverseScalar reverses normalisation for a single-column scaler.
func (s RangeScaler) InverseScalar(v float64) (float64, error) {
	if err := s.check(1); err != nil {
		return 0, err
	}
	out := []float64{0}
	s.unscaleRow([]float64{v}, out)
	return out[0], nil
}

// TransformScalar normalises a value for a single-column scaler.
func (s RangeScaler) TransformScalar(v float64) (float64, error) {
	if err := s.check(1); err != nil {
		return 0, err
	}
	out := []float64{0}
	s.scaleRow([]float64{v}, out)
	return out[0], nil
}

func (s RangeScaler) apply(matrix [][]float64, fn func(in, out []float64)) ([][]float64, error) {
	if !s.Fitted() {
		return nil, fmt.Errorf("range scaler: %w", domain.ErrNotFitted)
	}
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		if err := s.check(len(row)); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = make([]float64, len(row))
		fn(row, out[i])
	}
	return out, nil
}

func (s RangeScaler) check(width int) error {
	if !s.Fitted() {
		return fmt.Errorf("range scaler: %w", domain.ErrNotFitted)
	}
	if width != s.Width() {
		return fmt.Errorf("%w: got %d columns, scaler fitted on %d", domain.ErrInvalidMatrix, width, s.Width())
	}
	return nil
}

// degenerate columns (max == min) map to 0
func (s RangeScaler) scaleRow(in, out []float64) {
	for j, v := range in {
		span := s.Max[j] - s.Min[j]
		if span == 0 {
			out[j] = 0
			continue
		}
		out[j] = (v - s.Min[j]) / span
	}
}

func (s RangeScaler) unscaleRow(in, out []float64) {
	for j, v := range in {
		out[j] = v*(s.Max[j]-s.Min[j]) + s.Min[j]
	}
}
