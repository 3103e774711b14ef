package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateSolverName validates a solver name before it becomes part of a file
// path or a storage key. Solver names look like "sa-temp0-100-duration-60".
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateSolverName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSolver, "solver name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidSolver, "solver name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSolver, "solver name contains invalid control characters")
		}
	}

	if !solverNameRegex.MatchString(name) {
		return New(ErrCodeInvalidSolver, "invalid solver name: %q", name)
	}

	return nil
}

// solverNameRegex matches names safe to embed in "{id}-{solver}-{score}.json".
var solverNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateURL validates a URL string for safety.
// It ensures the URL has a scheme the ledger and store backends understand.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %s", strings.Join(schemes, ", "))
}
