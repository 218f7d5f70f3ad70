package dalil

import "errors"

var (
	// ErrInvalidInput is returned for requests that fail validation
	// before any backend is touched.
	ErrInvalidInput = errors.New("dalil: invalid input")

	// ErrNotFound is returned when a session or collection does not
	// exist.
	ErrNotFound = errors.New("dalil: not found")

	// ErrUnsupportedFormat is returned for files no extractor handles.
	ErrUnsupportedFormat = errors.New("dalil: unsupported document format")

	// ErrExtractionFailed is returned when a file cannot be parsed.
	ErrExtractionFailed = errors.New("dalil: extraction failed")

	// ErrEmbeddingFailed is returned when embedding generation fails
	// after retries.
	ErrEmbeddingFailed = errors.New("dalil: embedding generation failed")

	// ErrBackendUnavailable is returned when a model server or the
	// vector store is unreachable.
	ErrBackendUnavailable = errors.New("dalil: backend unavailable")

	// ErrGenerationFailed is returned when the generation backend fails
	// after retries.
	ErrGenerationFailed = errors.New("dalil: generation failed")

	// ErrResourceExceeded is returned when an upload exceeds the size
	// limit.
	ErrResourceExceeded = errors.New("dalil: resource limit exceeded")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("dalil: invalid configuration")
)

// Exit codes for the CLI and scripts wrapping it.
const (
	ExitOK                 = 0
	ExitUnknown            = 1
	ExitValidation         = 2
	ExitNotFound           = 3
	ExitBackendUnavailable = 4
	ExitResourceExceeded   = 5
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrInvalidConfig):
		return ExitValidation
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrBackendUnavailable), errors.Is(err, ErrEmbeddingFailed),
		errors.Is(err, ErrGenerationFailed):
		return ExitBackendUnavailable
	case errors.Is(err, ErrResourceExceeded):
		return ExitResourceExceeded
	default:
		return ExitUnknown
	}
}
