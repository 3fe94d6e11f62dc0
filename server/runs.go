package server

import (
	"errors"
	"sync"
	"time"

	"gridmdp/atomic_float"
	"gridmdp/grid_world"
	"gridmdp/problem"
	"gridmdp/reinforcement"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// RunState is the lifecycle of a run: running, then done or failed.
type RunState string

const (
	Running RunState = "running"
	Done    RunState = "done"
	Failed  RunState = "failed"
)

// RunStatus is the JSON status of a run.
type RunStatus struct {
	ID           string       `json:"id"`
	Kind         problem.Kind `json:"kind"`
	State        RunState     `json:"state"`
	Sweeps       int          `json:"sweeps"`
	Residual     float64      `json:"residual"`
	SolveSeconds float64      `json:"solveSeconds"`
	ConvergedAt  int          `json:"convergedAt,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// run is one server-side solve. The solver goroutine is the only writer; handlers read the
// live residual and timing without locking, everything else under mu.
type run struct {
	id   string
	kind problem.Kind
	grid *grid_world.Grid

	residual     *atomic_float.AtomicFloat64
	solveSeconds *atomic_float.AtomicFloat64

	mu          sync.Mutex
	state       RunState
	sweeps      []reinforcement.Sweep
	document    string
	convergedAt int
	err         error
	// changed is closed and replaced whenever a sweep is added or the run finishes.
	changed chan struct{}
}

func newRun(prob problem.Problem) *run {
	return &run{
		id:           uuid.NewString(),
		kind:         prob.Kind(),
		grid:         prob.World(),
		residual:     atomic_float.NewAtomicFloat64(0),
		solveSeconds: atomic_float.NewAtomicFloat64(0),
		state:        Running,
		changed:      make(chan struct{}),
	}
}

// solve runs the problem to completion, recording every sweep as it is observed.
func (r *run) solve(prob problem.Problem, opts problem.Options) {
	last := time.Now()
	opts.Observer = func(sweep reinforcement.Sweep) {
		r.addSeconds(time.Since(last).Seconds())
		last = time.Now()
		r.observe(sweep)
	}

	sol, err := prob.Solve(opts)
	r.addSeconds(time.Since(last).Seconds())
	r.finish(sol, err)
}

// addSeconds accumulates solve time, retrying until the swap lands.
func (r *run) addSeconds(seconds float64) {
	for succeeded := false; !succeeded; _, succeeded = r.solveSeconds.AtomicAdd(seconds) {
	}
}

func (r *run) observe(sweep reinforcement.Sweep) {
	r.residual.AtomicSet(sweep.Residual)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweeps = append(r.sweeps, sweep)
	r.notify()
}

func (r *run) finish(sol *problem.Solution, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = Failed
		r.err = err
	} else {
		r.state = Done
		r.document = sol.Document
		r.convergedAt = sol.ConvergedAt
	}
	r.notify()
}

// notify wakes every waiter on changed. mu must be held.
func (r *run) notify() {
	close(r.changed)
	r.changed = make(chan struct{})
}

// since returns the sweeps from index i on, a chan closed on the next change, and whether
// the run has finished, in which case no further sweeps will arrive.
func (r *run) since(i int) (sweeps []reinforcement.Sweep, changed <-chan struct{}, finished bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < len(r.sweeps) {
		sweeps = r.sweeps[i:len(r.sweeps):len(r.sweeps)]
	}
	return sweeps, r.changed, r.state != Running
}

// result returns the document once the run has finished.
func (r *run) result() (state RunState, document string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.document, r.err
}

func (r *run) status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := RunStatus{
		ID:           r.id,
		Kind:         r.kind,
		State:        r.state,
		Sweeps:       len(r.sweeps),
		Residual:     r.residual.AtomicRead(),
		SolveSeconds: r.solveSeconds.AtomicRead(),
		ConvergedAt:  r.convergedAt,
	}
	if r.err != nil {
		status.Error = r.err.Error()
	}
	return status
}

// runStore holds every run for the life of the server.
type runStore struct {
	mu   sync.RWMutex
	runs map[string]*run
}

func newRunStore() *runStore {
	return &runStore{runs: map[string]*run{}}
}

func (store *runStore) add(r *run) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.runs[r.id] = r
}

func (store *runStore) get(id string) (*run, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	r, ok := store.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return r, nil
}
