package tool

// Loop is the cooperative scheduler for work deferred to the next tick.
// It is not safe for concurrent use; everything runs on the caller's
// goroutine.
type Loop struct {
	queue []func()
	ticks int
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{}
}

// Post queues fn for the next tick.
func (l *Loop) Post(fn func()) {
	l.queue = append(l.queue, fn)
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int { return len(l.queue) }

// Ticks returns how many ticks have run.
func (l *Loop) Ticks() int { return l.ticks }

// Tick runs every task queued before it started. Tasks posted while it runs
// wait for the following tick. It returns the number of tasks run.
func (l *Loop) Tick() int {
	l.ticks++
	batch := l.queue
	l.queue = nil
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// RunUntilIdle ticks until no work is queued or max ticks have run.
func (l *Loop) RunUntilIdle(max int) {
	for i := 0; i < max && len(l.queue) > 0; i++ {
		l.Tick()
	}
}
