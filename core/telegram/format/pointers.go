package format

// Deref returns *p, or def when p is nil. Used for nullable columns.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
