package styletransfer

// State is a step of a remote job.
type State string

const (
	StateUploading State = "uploading"
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateDone      State = "done"
	StateFailed    State = "failed"
	StateTimeout   State = "timeout"
)

// Terminal reports whether no further transition can follow.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateTimeout
}

// Transition is reported to an Observer each time a job changes state.
type Transition struct {
	State     State
	ImageURL  string
	OrderID   string
	Attempt   int
	OutputURL string
	Err       error
}

// Observer receives state transitions in order.
type Observer interface {
	Transition(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t Transition)

func (f ObserverFunc) Transition(t Transition) {
	f(t)
}

type nopObserver struct{}

func (nopObserver) Transition(Transition) {}
