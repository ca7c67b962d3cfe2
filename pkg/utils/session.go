package utils

import (
	"context"
	"sync"
	"time"
)

// Session ties a set of goroutines to one cancellable context.
type Session struct {
	context context.Context
	cancel  context.CancelFunc
	started time.Time
	group   *sync.WaitGroup
}

func NewSession(ctx context.Context) Session {
	ctx, cancel := context.WithCancel(ctx)
	return Session{
		context: ctx,
		cancel:  cancel,
		started: time.Now(),
		group:   &sync.WaitGroup{},
	}
}

func (s *Session) Uptime() time.Duration {
	return time.Since(s.started)
}

func (s *Session) Ctx() context.Context {
	return s.context
}

func (s *Session) Done() <-chan struct{} {
	return s.context.Done()
}

func (s *Session) IsDone() bool {
	return s.context.Err() != nil
}

// Go runs f on its own goroutine. Shutdown waits for it to return.
func (s *Session) Go(f func(ctx context.Context)) {
	s.group.Add(1)
	go func() {
		defer s.group.Done()
		f(s.context)
	}()
}

func (s *Session) Cancel() {
	s.cancel()
}

// Shutdown cancels the session and blocks until every goroutine started with
// Go has returned.
func (s *Session) Shutdown() {
	s.cancel()
	s.group.Wait()
}
