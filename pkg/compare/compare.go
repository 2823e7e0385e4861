package compare

// SlicesUnordered compares two slices for equality regardless of order.
// Returns true if both slices contain the same elements (by the equality function).
//
// Example:
//
//	same := compare.SlicesUnordered(recorded, desired,
//	    func(a, b manifest.ColumnState) bool { return a == b })
func SlicesUnordered[T any](a, b []T, equalFunc func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}

	// Track which elements in b have been matched
	matched := make([]bool, len(b))

	for _, aElem := range a {
		found := false
		for j, bElem := range b {
			if !matched[j] && equalFunc(aElem, bElem) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Subtract returns the elements of a that are not present in b, preserving the
// order of a. Duplicates within a are reported once.
//
// Example:
//
//	newFKs := compare.Subtract(desired, recorded)
func Subtract[T comparable](a, b []T) []T {
	seen := make(map[T]struct{}, len(b))
	for _, v := range b {
		seen[v] = struct{}{}
	}

	var out []T
	for _, v := range a {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
