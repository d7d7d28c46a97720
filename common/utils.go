package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// AppendUnique appends v to list unless an equal element is already present, and reports
// the index v occupies afterwards. Order of first occurrence is preserved.
//
// Parameters:
//   - list: the slice to append to
//   - v: the value to add
//
// Returns:
//   - []T: the possibly extended slice
//   - int: the index of v in the returned slice
func AppendUnique[T comparable](list []T, v T) ([]T, int) {
	for i, existing := range list {
		if existing == v {
			return list, i
		}
	}
	return append(list, v), len(list)
}
