package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

var errPoolClosed = errors.New("engine: pool closed")

// retirement thresholds for pooled sessions.
const (
	retireErrScore = 3.0
	retireUses     = 50
	retireAge      = 50 * time.Minute
)

// slot wraps a pooled value with health tracking metadata.
//
// Scoring: success lowers errScore by 0.5 (min 0), failure raises it by 1.
// A slot retires when errScore >= 3, after 50 uses, or after 50 minutes.
type slot[T any] struct {
	id       int64
	value    T
	errScore float64
	useCount int
	created  time.Time
}

func (s *slot[T]) record(success bool) {
	s.useCount++
	if success {
		s.errScore = math.Max(0, s.errScore-0.5)
	} else {
		s.errScore += 1.0
	}
}

func (s *slot[T]) shouldRetire() bool {
	return s.errScore >= retireErrScore ||
		s.useCount >= retireUses ||
		time.Since(s.created) >= retireAge
}

// pool bounds the number of checked-out values and recycles healthy ones.
// Values are created lazily by create and destroyed on retirement.
type pool[T any] struct {
	create  func(ctx context.Context) (T, error)
	destroy func(T)

	tokens chan struct{} // one token per checked-out slot
	idle   chan *slot[T]

	mu     sync.Mutex
	live   int
	closed bool

	nextID atomic.Int64
	active atomic.Int32
}

func newPool[T any](max int, create func(ctx context.Context) (T, error), destroy func(T)) *pool[T] {
	if max < 1 {
		max = 1
	}
	return &pool[T]{
		create:  create,
		destroy: destroy,
		tokens:  make(chan struct{}, max),
		idle:    make(chan *slot[T], max),
	}
}

// get checks out a slot, reusing an idle one or creating a new one.
// It blocks while the pool is at capacity.
func (p *pool[T]) get(ctx context.Context) (*slot[T], error) {
	select {
	case p.tokens <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		<-p.tokens
		return nil, errPoolClosed
	}

	select {
	case s := <-p.idle:
		p.active.Add(1)
		return s, nil
	default:
	}

	v, err := p.create(ctx)
	if err != nil {
		<-p.tokens
		return nil, err
	}
	s := &slot[T]{id: p.nextID.Add(1), value: v, created: time.Now()}

	p.mu.Lock()
	p.live++
	p.mu.Unlock()
	p.active.Add(1)
	return s, nil
}

// put returns a slot, retiring it when unhealthy or when the pool is closed.
func (p *pool[T]) put(s *slot[T], success bool) {
	s.record(success)

	// closed is read and idle filled under mu; close drains under mu too.
	// idle has room for every token, so the send never blocks.
	p.mu.Lock()
	parked := !p.closed && !s.shouldRetire()
	if parked {
		p.idle <- s
	}
	p.mu.Unlock()

	if !parked {
		slog.Debug("pool: retiring session", "id", s.id,
			"errScore", s.errScore, "useCount", s.useCount)
		p.retire(s)
	}
	p.active.Add(-1)
	<-p.tokens
}

func (p *pool[T]) retire(s *slot[T]) {
	p.mu.Lock()
	p.live--
	p.mu.Unlock()
	p.destroy(s.value)
}

// close destroys idle slots; checked-out slots are destroyed on put.
func (p *pool[T]) close() {
	var drained []*slot[T]
	p.mu.Lock()
	p.closed = true
drain:
	for {
		select {
		case s := <-p.idle:
			drained = append(drained, s)
		default:
			break drain
		}
	}
	p.mu.Unlock()

	for _, s := range drained {
		p.retire(s)
	}
}

func (p *pool[T]) capacity() int { return cap(p.tokens) }

func (p *pool[T]) activeCount() int { return int(p.active.Load()) }

func (p *pool[T]) liveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}
