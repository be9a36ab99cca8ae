package renderer

import "errors"

var (
	// ErrEngineUnavailable is returned when no graph backend is configured.
	ErrEngineUnavailable = errors.New("renderer: engine unavailable")

	// ErrRenderTooLong is returned before any backend allocation when the
	// requested window exceeds the configured ceiling.
	ErrRenderTooLong = errors.New("renderer: render exceeds maximum duration")

	// ErrInvalidRenderLength is returned when the window length is still
	// non-positive or non-finite after the fallback.
	ErrInvalidRenderLength = errors.New("renderer: invalid render length")

	// ErrNothingToRender is returned when the request carries neither a
	// pattern nor an arrangement.
	ErrNothingToRender = errors.New("renderer: nothing to render")
)
