package repeater

// PendingQueue holds clip paths waiting for the next free window on the
// channel. Order is preserved and duplicates are allowed.
type PendingQueue struct {
	clips []string
}

func (q *PendingQueue) Append(paths ...string) {
	q.clips = append(q.clips, paths...)
}

func (q *PendingQueue) Len() int {
	return len(q.clips)
}

// Take removes and returns everything queued.
func (q *PendingQueue) Take() []string {
	clips := q.clips
	q.clips = nil
	return clips
}

// Clips returns a copy of the queued paths.
func (q *PendingQueue) Clips() []string {
	out := make([]string, len(q.clips))
	copy(out, q.clips)
	return out
}
