package kberrors

// Error codes for the retrieval engine. Codes are stable identifiers used in
// logs and error matching; messages may change freely.
const (
	// CodeProviderUnavailable indicates the embedding generator or similarity
	// provider failed or timed out. Recovered locally by degrading to
	// keyword-only search.
	CodeProviderUnavailable = "ERR_PROVIDER_UNAVAILABLE"

	// CodeCorpusLoad indicates the document corpus provider failed during an
	// index build. Recovered by serving the previous cached index when one
	// exists.
	CodeCorpusLoad = "ERR_CORPUS_LOAD"

	// CodeConfigInvalid indicates invalid configuration (weights outside
	// range, non-positive constants). Fatal at construction time.
	CodeConfigInvalid = "ERR_CONFIG_INVALID"

	// CodeCacheBackend indicates the shared cache tier is unreachable.
	// Always recovered silently; local-only caching continues.
	CodeCacheBackend = "ERR_CACHE_BACKEND"

	// CodeInternal indicates an unexpected internal failure.
	CodeInternal = "ERR_INTERNAL"
)

// Category groups errors by subsystem.
type Category string

const (
	CategoryProvider Category = "provider"
	CategoryCorpus   Category = "corpus"
	CategoryConfig   Category = "config"
	CategoryCache    Category = "cache"
	CategoryInternal Category = "internal"
)

// Severity indicates how the caller should treat the error.
type Severity string

const (
	// SeverityRecoverable errors degrade to a well-defined fallback.
	SeverityRecoverable Severity = "recoverable"

	// SeverityFatal errors abort the current operation.
	SeverityFatal Severity = "fatal"
)

// categoryFromCode derives the category from a code.
func categoryFromCode(code string) Category {
	switch code {
	case CodeProviderUnavailable:
		return CategoryProvider
	case CodeCorpusLoad:
		return CategoryCorpus
	case CodeConfigInvalid:
		return CategoryConfig
	case CodeCacheBackend:
		return CategoryCache
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the severity from a code. Only invalid
// configuration is fatal; every other subsystem failure has a defined
// degradation path.
func severityFromCode(code string) Severity {
	if code == CodeConfigInvalid {
		return SeverityFatal
	}
	return SeverityRecoverable
}

// isRetryableCode reports whether the failed operation may succeed on retry.
func isRetryableCode(code string) bool {
	switch code {
	case CodeProviderUnavailable, CodeCacheBackend, CodeCorpusLoad:
		return true
	default:
		return false
	}
}
