package chain

// DeliveryQueue is the execution context terminal results are delivered
// on. It is fixed at chain construction and used for every success and
// error delivery the chain performs.
type DeliveryQueue interface {
	Dispatch(fn func())
}

// DirectQueue delivers on the calling goroutine.
type DirectQueue struct{}

func (DirectQueue) Dispatch(fn func()) { fn() }

// SerialQueue delivers on a single dedicated goroutine, preserving
// submission order. Close stops the goroutine after draining pending
// deliveries.
type SerialQueue struct {
	fns  chan func()
	done chan struct{}
}

func NewSerialQueue() *SerialQueue {
	q := &SerialQueue{
		fns:  make(chan func(), 16),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for fn := range q.fns {
		fn()
	}
}

func (q *SerialQueue) Dispatch(fn func()) {
	q.fns <- fn
}

// Close drains pending deliveries and stops the queue goroutine.
func (q *SerialQueue) Close() {
	close(q.fns)
	<-q.done
}
