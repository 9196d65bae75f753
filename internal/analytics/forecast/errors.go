package forecast

import "errors"

// MinTrainingPoints is the smallest series SelectBest will search over.
const MinTrainingPoints = 20

var (
	// ErrInsufficientData is returned when a series is too short to train on.
	ErrInsufficientData = errors.New("insufficient data for training")

	// ErrSingularMatrix is returned when the Yule-Walker system has no unique solution.
	ErrSingularMatrix = errors.New("yule-walker matrix is singular")

	// ErrNoUsableModel is returned when the selected model has non-finite coefficients.
	ErrNoUsableModel = errors.New("no usable model")
)
