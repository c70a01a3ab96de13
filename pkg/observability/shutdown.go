package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc tears down one component.
type ShutdownFunc func(context.Context) error

type namedShutdown struct {
	name string
	fn   ShutdownFunc
}

// ShutdownManager handles graceful shutdown of the daemon: it drains the
// HTTP server first so no new work arrives, then tears down registered
// components concurrently under a shared deadline.
type ShutdownManager struct {
	logger  *Logger
	server  *http.Server
	timeout time.Duration

	mu         sync.Mutex
	components []namedShutdown
}

// NewShutdownManager creates a new shutdown manager. A zero timeout
// defaults to 30s.
func NewShutdownManager(logger *Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:  logger,
		server:  server,
		timeout: timeout,
	}
}

// Register adds a named component to tear down during shutdown.
func (sm *ShutdownManager) Register(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.components = append(sm.components, namedShutdown{name: name, fn: fn})
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then runs the shutdown
// sequence.
func (sm *ShutdownManager) WaitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	sm.logger.Infof("Received signal %s, starting graceful shutdown", sig)
	return sm.Run(context.Background())
}

// Run performs the shutdown sequence immediately: server drain, then all
// registered components in parallel. Component failures are collected and
// joined; a deadline overrun is reported alongside them.
func (sm *ShutdownManager) Run(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, sm.timeout)
	defer cancel()

	var errs []error

	if sm.server != nil {
		sm.logger.Info("Draining HTTP server")
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Error("HTTP server shutdown error")
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	sm.mu.Lock()
	components := make([]namedShutdown, len(sm.components))
	copy(components, sm.components)
	sm.mu.Unlock()

	failures := make(chan error, len(components))
	var wg sync.WaitGroup
	for _, c := range components {
		wg.Add(1)
		go func(c namedShutdown) {
			defer wg.Done()
			sm.logger.WithField("component", c.name).Info("Shutting down component")
			if err := c.fn(ctx); err != nil {
				sm.logger.WithError(err).WithField("component", c.name).Error("Component shutdown failed")
				failures <- fmt.Errorf("%s: %w", c.name, err)
			}
		}(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		sm.logger.Warn("Shutdown deadline reached with components still stopping")
		errs = append(errs, fmt.Errorf("shutdown deadline reached"))
	}

	// Collect whatever failures have been reported so far; stragglers past
	// the deadline are only logged.
	for {
		select {
		case err := <-failures:
			errs = append(errs, err)
			continue
		default:
		}
		break
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	sm.logger.Info("Graceful shutdown complete")
	return nil
}
