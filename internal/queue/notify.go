package queue

// Notifier receives the queue length after every mutation that can change
// it. Implementations drive badges and other count indicators and must not
// block.
type Notifier interface {
	NotifyCount(count int)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(count int)

// NotifyCount calls f(count).
func (f NotifierFunc) NotifyCount(count int) {
	f(count)
}

// MultiNotifier fans a count out to several notifiers in order.
type MultiNotifier []Notifier

// NotifyCount forwards count to every non-nil notifier.
func (m MultiNotifier) NotifyCount(count int) {
	for _, n := range m {
		if n != nil {
			n.NotifyCount(count)
		}
	}
}

// DuplicatePolicy tells the engine whether identical content may be recorded
// more than once. The engine only reads it.
type DuplicatePolicy interface {
	AllowDuplicates() bool
}

// StaticPolicy is a fixed DuplicatePolicy.
type StaticPolicy bool

// AllowDuplicates returns the fixed value.
func (p StaticPolicy) AllowDuplicates() bool {
	return bool(p)
}
