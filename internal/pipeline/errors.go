package pipeline

import "fmt"

// IncompleteError means submission was attempted before all required
// nose images were collected. No network call has been made.
type IncompleteError struct {
	Collected int
	Required  int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("nose print capture incomplete: %d/%d completed", e.Collected, e.Required)
}

// ValidationKind distinguishes why the classifier stage failed.
type ValidationKind int

const (
	// KindNotANose means the classifier judged the image not to show a
	// cow nose.
	KindNotANose ValidationKind = iota
	// KindLowConfidence means the image was judged a cow nose but below
	// the confidence threshold.
	KindLowConfidence
	// KindUnavailable means the validator service could not be reached;
	// no judgment was made.
	KindUnavailable
)

// ValidationError reports the lowest-numbered failing image. Image is
// 1-based for operator-facing messages.
type ValidationError struct {
	Image      int
	Kind       ValidationKind
	Confidence float64
	Threshold  float64
	cause      error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindNotANose:
		return fmt.Sprintf("image %d is not a cow nose (confidence %.0f%%)",
			e.Image, e.Confidence*100)
	case KindLowConfidence:
		return fmt.Sprintf("image %d confidence %.0f%% is below the %.0f%% threshold",
			e.Image, e.Confidence*100, e.Threshold*100)
	case KindUnavailable:
		return fmt.Sprintf("validator service unavailable for image %d: %v", e.Image, e.cause)
	default:
		return fmt.Sprintf("image %d failed validation", e.Image)
	}
}

func (e *ValidationError) Unwrap() error { return e.cause }
