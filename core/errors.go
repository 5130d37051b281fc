package core

import "errors"

// Sentinel errors callers branch on. External adapter failures are converted
// to degraded defaults at the adapter boundary and never surface as errors
// from the engines; these sentinels cover the few genuinely exceptional
// conditions.
var (
	// ErrNotEnoughData indicates a manual retrain was refused because too
	// few training samples were extracted.
	ErrNotEnoughData = errors.New("not enough training data")
)
