package domain

import "errors"

var (
	// ErrInvalidInput is returned for an empty or missing query.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfigurationMissing is returned when an external-service credential is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrPipelineTimeout is returned when the guarded pipeline overruns its deadline.
	ErrPipelineTimeout = errors.New("pipeline timeout")
	// ErrUpstreamGeneration marks a failed call to the generation service.
	ErrUpstreamGeneration = errors.New("upstream generation failure")
	// ErrDataLoad is returned when corpus or index files are missing or misaligned.
	ErrDataLoad = errors.New("data load failure")
)
