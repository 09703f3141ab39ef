package validation

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// SessionState is the position of a session in its lifecycle.
//
//	Idle ──Submit──► Pending ──result applied──► Resolved ──Submit──► Pending …
//
// Pending covers both the debounce window and in-flight resolution.
type SessionState int

const (
	StateIdle SessionState = iota
	StatePending
	StateResolved
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Event is delivered to OnResult subscribers when a submission resolves.
type Event struct {
	Seq       uint64
	Input     string
	Result    chem.ValidationResultDTO
	FromCache bool
}

// DefaultDebounce matches an interactive typing cadence.
const DefaultDebounce = 300 * time.Millisecond

// SessionOptions tunes a Session.  The zero value uses DefaultDebounce and
// the default memo capacity.
type SessionOptions struct {
	Debounce     time.Duration
	MemoCapacity int
	Logger       logging.Logger
}

// Session serializes interactive validation for one input stream (one editor
// field, one CLI loop).  Each Submit gets a strictly increasing sequence
// number; results apply last-writer-wins, so a slow resolution of an old
// input can never overwrite the result of a newer one.  Safe for concurrent
// use.
type Session struct {
	resolver Resolver
	memo     *memoCache
	debounce time.Duration
	log      logging.Logger

	mu      sync.Mutex
	seq     uint64 // newest submitted sequence number
	applied uint64 // sequence number of the result currently held
	state   SessionState
	latest  chem.ValidationResultDTO
	hasOne  bool
	timer   *time.Timer
	pending string
	subs    map[int]func(Event)
	nextSub int
	closed  bool
}

// NewSession creates a session over the resolver.
func NewSession(resolver Resolver, opts SessionOptions) *Session {
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	debounce := opts.Debounce
	if debounce < 0 {
		debounce = 0
	} else if debounce == 0 {
		debounce = DefaultDebounce
	}
	return &Session{
		resolver: resolver,
		memo:     newMemoCache(opts.MemoCapacity),
		debounce: debounce,
		log:      log.Named("validation.session"),
		state:    StateIdle,
		subs:     make(map[int]func(Event)),
	}
}

// NewImmediateSession creates a session that resolves without debouncing,
// for batch and test use.
func NewImmediateSession(resolver Resolver, opts SessionOptions) *Session {
	s := NewSession(resolver, opts)
	s.debounce = 0
	return s
}

// Submit registers a new input and returns its sequence number.  The
// resolution starts after the debounce window; a newer Submit during the
// window supersedes this one entirely.
func (s *Session) Submit(input string) uint64 {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	s.seq++
	mySeq := s.seq
	s.state = StatePending
	s.pending = input
	if s.timer != nil {
		s.timer.Stop()
	}
	fire := func() { go s.resolve(mySeq, input) }
	if s.debounce == 0 {
		s.mu.Unlock()
		fire()
		return mySeq
	}
	s.timer = time.AfterFunc(s.debounce, fire)
	s.mu.Unlock()
	return mySeq
}

// resolve runs after the debounce window for sequence number mySeq.
func (s *Session) resolve(mySeq uint64, input string) {
	s.mu.Lock()
	if s.closed || s.seq != mySeq {
		// A newer submission arrived during the debounce window.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	result, fromCache := s.memo.get(input)
	if !fromCache {
		result = s.resolver.Resolve(context.Background(), input)
		s.memo.put(input, result)
	}

	s.mu.Lock()
	if s.closed || s.seq != mySeq || mySeq <= s.applied {
		// Stale: a newer submission won while we were resolving.
		s.mu.Unlock()
		s.log.Debug("stale validation result discarded",
			logging.Uint64("seq", mySeq))
		return
	}
	s.applied = mySeq
	s.latest = result
	s.hasOne = true
	s.state = StateResolved
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	ev := Event{Seq: mySeq, Input: input, Result: result, FromCache: fromCache}
	for _, fn := range subs {
		fn(ev)
	}
}

// OnResult registers a callback invoked for every applied result.  The
// returned function removes the subscription.
func (s *Session) OnResult(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Latest returns the most recently applied result.
func (s *Session) Latest() (chem.ValidationResultDTO, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasOne
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Seq returns the newest submitted sequence number.
func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// MemoSize reports the number of memoized results.
func (s *Session) MemoSize() int { return s.memo.len() }

// Close stops the debounce timer and drops all subscribers.  Submissions
// after Close are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.subs = map[int]func(Event){}
}
