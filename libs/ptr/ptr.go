// Package ptr provides helpers to generating pointers to inline values.
package ptr

// String returns a pointer to the provided value.
func String(s string) *string {
	return &s
}

// StringNilEmpty returns a pointer to the provided value or nil if it's empty.
func StringNilEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
