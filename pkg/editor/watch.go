package editor

// fieldWatch remembers the last observed value of a target field.
type fieldWatch struct {
	last     string
	observed bool

	// trackEmpty counts a change away from an empty snapshot.
	trackEmpty bool
}

// observe records value and reports whether a refresh is due.
//
// The first observation never reports a change. Later observations report
// a change when value differs from the snapshot and, unless trackEmpty is
// set, the snapshot is non-empty.
func (w *fieldWatch) observe(value string) bool {
	changed := w.observed && value != w.last && (w.last != "" || w.trackEmpty)
	w.last = value
	w.observed = true
	return changed
}
