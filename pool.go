package later2pdf

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one converter is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("converter pool closed")

// ConverterPool manages Converters for parallel requests. Each converter
// owns its own browser. Converters are created lazily on first acquire to
// avoid startup delay.
type ConverterPool struct {
	size    int
	factory func() (*Converter, error)
	all     []*Converter
	sem     chan *Converter
	mu      sync.Mutex
	created int
	closed  bool
}

// NewConverterPool creates a pool with capacity for n converters built by
// factory.
func NewConverterPool(n int, factory func() (*Converter, error)) *ConverterPool {
	if n < 1 {
		n = 1
	}
	return &ConverterPool{
		size:    n,
		factory: factory,
		all:     make([]*Converter, 0, n),
		sem:     make(chan *Converter, n),
	}
}

// Acquire gets a converter from the pool, creating one if capacity allows.
// Blocks until one is released or ctx is done.
func (p *ConverterPool) Acquire(ctx context.Context) (*Converter, error) {
	select {
	case conv, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return conv, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create outside the lock
		conv, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.all = append(p.all, conv)
		p.mu.Unlock()
		return conv, nil
	}
	p.mu.Unlock()

	select {
	case conv, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return conv, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a converter to the pool.
// The lock is held while sending so Close cannot close the channel
// underneath; the send never blocks since capacity equals size.
func (p *ConverterPool) Release(conv *Converter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- conv
}

// Close releases all browser resources.
// Returns an aggregated error if multiple converters fail to close.
func (p *ConverterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	all := p.all
	p.mu.Unlock()

	var errs []error
	for _, conv := range all {
		if err := conv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ConverterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
