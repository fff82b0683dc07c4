package utils

// GetOrDefault dereferences ptr, substituting defaultVal for nil. Used for
// optional request fields bound as pointers.
func GetOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr == nil {
		return defaultVal
	}
	return *ptr
}
