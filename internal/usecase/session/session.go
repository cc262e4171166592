package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"deckbridge/internal/domain"
	"deckbridge/internal/infra/tracer"
	"deckbridge/internal/usecase/command"
	"deckbridge/internal/usecase/telemetry"
)

// State names the session lifecycle phases.
type State string

const (
	StateIdle          State = "idle"
	StateConnecting    State = "connecting"
	StateAwaitingReady State = "awaiting_ready"
	StateActive        State = "active"
	StateDisconnected  State = "disconnected"
)

const commandQueueSize = 64

// Options tunes session behaviour.
type Options struct {
	// ReconnectBackoff is the pause between a disconnect and the next
	// connect attempt.
	ReconnectBackoff time.Duration
	// TelemetryEnabled turns the outbound telemetry loop on.
	TelemetryEnabled bool
	// TelemetryInterval is the telemetry send cadence.
	TelemetryInterval time.Duration
}

// Session owns one device connection end to end: the reconnect loop,
// the ready handshake, ordered command execution and the telemetry
// cadence. Inbound command handling and outbound telemetry run as
// separate goroutines so a slow command never stalls a telemetry tick.
type Session struct {
	link      domain.Link
	parser    *command.Parser
	executor  *command.Executor
	collector *telemetry.Collector
	injector  domain.KeyInjector
	bus       domain.EventBus
	logger    *slog.Logger
	opts      Options

	mu    sync.Mutex
	state State
	id    string
	ready bool
}

// New assembles a session. Run starts it.
func New(
	link domain.Link,
	parser *command.Parser,
	executor *command.Executor,
	collector *telemetry.Collector,
	injector domain.KeyInjector,
	bus domain.EventBus,
	logger *slog.Logger,
	opts Options,
) *Session {
	return &Session{
		link:      link,
		parser:    parser,
		executor:  executor,
		collector: collector,
		injector:  injector,
		bus:       bus,
		logger:    logger,
		opts:      opts,
		state:     StateIdle,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID returns the identifier of the current connection attempt. Empty
// before the first attempt.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// IsReady reports whether the device has completed the handshake.
func (s *Session) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Run drives the connect/serve/reconnect loop until ctx is cancelled.
// Transport failures are never fatal: the session backs off and tries
// again.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		s.id = ulid.Make().String()
		id := s.id
		s.mu.Unlock()
		s.setState(ctx, StateConnecting)

		if err := s.link.Connect(ctx); err != nil {
			s.logger.Warn("connect failed", "link", s.link.Describe(), "error", err)
			s.bus.Publish(ctx, domain.NewEvent(domain.EventLinkError, id, map[string]string{
				"link":  s.link.Describe(),
				"error": err.Error(),
			}))
			s.setState(ctx, StateDisconnected)
			if !s.backoff(ctx) {
				return ctx.Err()
			}
			continue
		}

		s.logger.Info("link connected", "link", s.link.Describe(), "session_id", id)
		s.bus.Publish(ctx, domain.NewEvent(domain.EventLinkConnected, id, map[string]string{
			"link": s.link.Describe(),
		}))
		s.setState(ctx, StateAwaitingReady)

		s.serve(ctx)

		s.teardown(ctx, id)
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.backoff(ctx) {
			return ctx.Err()
		}
	}
}

// serve pumps the link until it fails or ctx is cancelled. It owns
// three units of work: this goroutine reads and classifies lines, one
// worker executes commands in arrival order, and one loop sends
// telemetry on its own clock.
func (s *Session) serve(ctx context.Context) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmdCh := make(chan domain.Command, commandQueueSize)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.executeLoop(connCtx, cmdCh)
	}()

	if s.opts.TelemetryEnabled && s.collector != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.telemetryLoop(connCtx, cancel)
		}()
	}

	s.readLoop(connCtx, cmdCh)

	cancel()
	close(cmdCh)
	wg.Wait()
}

// readLoop feeds link bytes through the frame reader and routes each
// line. It returns on link failure or cancellation.
func (s *Session) readLoop(ctx context.Context, cmdCh chan<- domain.Command) {
	reader := NewFrameReader()

	for {
		chunk, err := s.link.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("link read failed", "error", err)
			s.bus.Publish(ctx, domain.NewEvent(domain.EventLinkError, s.ID(), map[string]string{
				"error": err.Error(),
			}))
			return
		}
		if len(chunk) == 0 {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		lines, dropped := reader.Feed(chunk)
		if dropped > 0 {
			s.logger.Warn("dropped undecodable lines", "count", dropped)
			s.bus.Publish(ctx, domain.NewEvent(domain.EventDecodeError, s.ID(), map[string]int{
				"dropped": dropped,
			}))
		}

		for _, line := range lines {
			s.handleLine(ctx, line, cmdCh)
		}
	}
}

func (s *Session) handleLine(ctx context.Context, line string, cmdCh chan<- domain.Command) {
	s.bus.Publish(ctx, domain.NewEvent(domain.EventLineReceived, s.ID(), map[string]string{
		"line": line,
	}))

	cmd := s.parser.Parse(line)

	if cmd.Type == domain.CommandReady {
		s.latchReady(ctx)
		return
	}

	if !s.IsReady() {
		// The handshake gates execution: anything arriving before the
		// ready signal is dropped, not queued.
		s.logger.Debug("command before ready signal ignored", "raw", cmd.Raw)
		return
	}

	select {
	case cmdCh <- cmd:
	case <-ctx.Done():
	}
}

// latchReady flips the one-way ready latch. Repeated ready signals on
// an already-active session are no-ops.
func (s *Session) latchReady(ctx context.Context) {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return
	}
	s.ready = true
	s.mu.Unlock()

	s.logger.Info("device ready", "session_id", s.ID())
	s.bus.Publish(ctx, domain.NewEvent(domain.EventDeviceReady, s.ID(), nil))
	s.setState(ctx, StateActive)
}

// executeLoop runs queued commands one at a time, preserving arrival
// order. Results are reported as events; failures never stop the loop.
func (s *Session) executeLoop(ctx context.Context, cmdCh <-chan domain.Command) {
	for cmd := range cmdCh {
		res := s.executor.Execute(ctx, cmd)
		if res.OK {
			s.logger.Info("command executed", "raw", cmd.Raw, "message", res.Message)
		} else {
			s.logger.Warn("command failed", "raw", cmd.Raw, "message", res.Message)
		}
		s.bus.Publish(ctx, domain.NewEvent(domain.EventCommandExecuted, s.ID(), map[string]any{
			"raw":     cmd.Raw,
			"type":    string(cmd.Type),
			"ok":      res.OK,
			"message": res.Message,
		}))
	}
}

// telemetryLoop samples and transmits telemetry on the configured
// cadence once the device is ready. The limiter enforces the minimum
// gap between sends even if ticks bunch up after a stall. A send
// failure ends the connection via fail.
func (s *Session) telemetryLoop(ctx context.Context, fail context.CancelFunc) {
	ticker := time.NewTicker(s.opts.TelemetryInterval)
	defer ticker.Stop()
	limiter := rate.NewLimiter(rate.Every(s.opts.TelemetryInterval), 1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !s.IsReady() || !limiter.Allow() {
			continue
		}

		tctx, span := tracer.StartSpan(ctx, "telemetry.tick")
		packet, err := s.collector.Packet(tctx)
		if err != nil {
			// Metric source hiccup: skip this tick.
			s.logger.Debug("telemetry sample failed", "error", err)
			tracer.RecordError(span, err)
			span.End()
			continue
		}

		if err := s.link.Send(tctx, packet); err != nil {
			s.logger.Warn("telemetry send failed", "error", err)
			tracer.RecordError(span, err)
			span.End()
			fail()
			return
		}
		tracer.SetOK(span)
		span.End()

		s.bus.Publish(ctx, domain.NewEvent(domain.EventTelemetrySent, s.ID(), map[string]string{
			"packet": string(packet),
		}))
	}
}

// teardown closes the link and resets per-connection state, releasing
// any keys a dropped link left held.
func (s *Session) teardown(ctx context.Context, id string) {
	if err := s.link.Disconnect(); err != nil {
		s.logger.Debug("disconnect error", "error", err)
	}
	if s.injector != nil {
		if err := s.injector.ReleaseAll(); err != nil {
			s.logger.Warn("release held keys failed", "error", err)
		}
	}

	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()

	s.logger.Info("link disconnected", "session_id", id)
	s.bus.Publish(ctx, domain.NewEvent(domain.EventLinkDisconnected, id, nil))
	s.setState(ctx, StateDisconnected)
}

func (s *Session) setState(ctx context.Context, next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	id := s.id
	s.mu.Unlock()

	if prev == next {
		return
	}
	s.logger.Debug("session state changed", "from", string(prev), "to", string(next))
	s.bus.Publish(ctx, domain.NewEvent(domain.EventStateChanged, id, map[string]string{
		"from": string(prev),
		"to":   string(next),
	}))
}

// backoff waits the reconnect delay. It returns false when ctx was
// cancelled during the wait.
func (s *Session) backoff(ctx context.Context) bool {
	timer := time.NewTimer(s.opts.ReconnectBackoff)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
