package ilp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/questline/ilp/errs"
	"github.com/questline/ilp/internal/hash"
)

// DefaultPoolMaxSenders is the default cap on idle senders kept by a pool.
const DefaultPoolMaxSenders = 64

// SenderPool hands out Senders to concurrent producers. Senders themselves
// are single-owner, so each goroutine acquires one, writes its rows, and
// releases it back; released senders are kept idle and reused by later
// acquires with the same configuration string.
//
// Only HTTP senders are poolable. TCP senders hold an authenticated socket
// whose stream state is tied to one producer, so pooling them would just
// serialize on the connection.
type SenderPool struct {
	mu         sync.Mutex
	maxSenders int
	opts       []Option
	idle       map[uint64][]*Sender
	idleCount  int
	closed     bool
}

// NewSenderPool creates a pool keeping at most maxSenders idle senders
// across all configurations. The extra options are applied to every sender
// the pool constructs.
func NewSenderPool(maxSenders int, opts ...Option) *SenderPool {
	if maxSenders <= 0 {
		maxSenders = DefaultPoolMaxSenders
	}

	return &SenderPool{
		maxSenders: maxSenders,
		opts:       opts,
		idle:       make(map[uint64][]*Sender),
	}
}

// Acquire returns an idle sender built from the given configuration string,
// constructing a new one when none is available.
func (p *SenderPool) Acquire(ctx context.Context, config string) (*Sender, error) {
	key := hash.ID(config)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: pool is closed", errs.ErrInvalidConf)
	}
	if senders := p.idle[key]; len(senders) > 0 {
		s := senders[len(senders)-1]
		p.idle[key] = senders[:len(senders)-1]
		p.idleCount--
		p.mu.Unlock()

		return s, nil
	}
	p.mu.Unlock()

	s, err := NewFromConf(config, p.opts...)
	if err != nil {
		return nil, err
	}
	if s.kind != TransportHTTP {
		s.Close(ctx)
		return nil, fmt.Errorf("%w: only HTTP senders can be pooled", errs.ErrInvalidConf)
	}
	s.poolKey = key

	return s, nil
}

// Release flushes the sender's remaining rows and returns it to the pool.
// If the pool is full or closed the sender is closed instead. The caller
// must not use the sender after Release.
func (p *SenderPool) Release(ctx context.Context, s *Sender) error {
	var flushErr error
	if s.buf.HasSendable() {
		_, flushErr = s.Flush(ctx)
	}

	p.mu.Lock()
	if p.closed || p.idleCount >= p.maxSenders || flushErr != nil {
		p.mu.Unlock()
		return errors.Join(flushErr, s.Close(ctx))
	}
	p.idle[s.poolKey] = append(p.idle[s.poolKey], s)
	p.idleCount++
	p.mu.Unlock()

	return nil
}

// Close closes every idle sender and marks the pool closed. Senders still
// held by producers stay usable; releasing them afterwards closes them.
func (p *SenderPool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = make(map[uint64][]*Sender)
	p.idleCount = 0
	p.mu.Unlock()

	var errList []error
	for _, senders := range idle {
		for _, s := range senders {
			if err := s.Close(ctx); err != nil {
				errList = append(errList, err)
			}
		}
	}

	return errors.Join(errList...)
}
