package internal

// window is the per-source context state: a ring of at most `before` lines
// that have not been printed yet, and a countdown of after-context lines
// still owed to the last match. One window per source, never shared.
type window struct {
	ring      []string
	start     int
	n         int
	after     int
	remaining int
}

func newWindow(before, after int) *window {
	return &window{ring: make([]string, max(before, 0)), after: max(after, 0)}
}

// feed advances the window by one line and reports what must be printed.
func (w *window) feed(line string, matched bool, emit func(Role, string) error) error {
	switch {
	case matched:
		for i := 0; i < w.n; i++ {
			if err := emit(RoleBefore, w.ring[(w.start+i)%len(w.ring)]); err != nil {
				return err
			}
		}
		w.reset()
		w.remaining = w.after
		return emit(RoleMatch, line)
	case w.remaining > 0:
		w.remaining--
		return emit(RoleAfter, line)
	default:
		w.push(line)
		return nil
	}
}

func (w *window) push(line string) {
	size := len(w.ring)
	if size == 0 {
		return
	}
	if w.n < size {
		w.ring[(w.start+w.n)%size] = line
		w.n++
		return
	}
	// full: overwrite the oldest
	w.ring[w.start] = line
	w.start = (w.start + 1) % size
}

func (w *window) reset() {
	for i := range w.ring {
		w.ring[i] = ""
	}
	w.start, w.n = 0, 0
}
