package validation

import "errors"

// Integrity errors reported per catalog entity
var (
	ErrDuplicateSlug      = errors.New("duplicate metric slug")
	ErrUnknownDomain      = errors.New("domain not found")
	ErrUnknownDimension   = errors.New("dimension not found")
	ErrUnknownMetric      = errors.New("metric not found")
	ErrUnknownTag         = errors.New("tag not found")
	ErrMissingQuerySource = errors.New("query definition has no source")
	ErrLineageCycle       = errors.New("lineage cycle")
	ErrValidationFailed   = errors.New("catalog validation failed")
)
