package relayer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/frostgate/relayer/relayer/provider"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// listenRetryDelay is the base delay between retries of a failed event listing call.
var listenRetryDelay = 400 * time.Millisecond

// Service relays messages from a source chain to a destination chain.
//
// It runs two independent loops once started: the chain watcher, which pulls
// new events from the source adapter into the queue, and the message
// processor, which verifies and submits queued messages.
type Service struct {
	log     *zap.Logger
	cfg     Config
	queue   *MessageQueue
	metrics *PrometheusMetrics
	now     func() time.Time

	src provider.ChainAdapter
	dst provider.ChainAdapter

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	eg      *errgroup.Group
}

// ServiceOption customizes a Service created by NewService.
type ServiceOption func(*Service)

// WithMetrics makes the service record Prometheus metrics.
func WithMetrics(m *PrometheusMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithQueue makes the service use q instead of a fresh queue.
func WithQueue(q *MessageQueue) ServiceOption {
	return func(s *Service) {
		s.queue = q
	}
}

// WithClock replaces the time source of the service and its queue.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService returns a stopped Service relaying from src to dst.
func NewService(
	log *zap.Logger,
	cfg Config,
	src, dst provider.ChainAdapter,
	opts ...ServiceOption,
) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil || dst == nil {
		return nil, NewConfigurationError("source and destination chain adapters are required")
	}

	s := &Service{
		log: log.With(
			zap.String("src_chain_id", src.ChainID().String()),
			zap.String("dst_chain_id", dst.ChainID().String()),
		),
		cfg: cfg,
		src: src,
		dst: dst,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.queue == nil {
		s.queue = NewMessageQueue()
	}
	s.queue.setClock(s.now)

	return s, nil
}

// Queue returns the queue owned by the service.
func (s *Service) Queue() *MessageQueue {
	return s.queue
}

// Config returns the configuration the service was created with.
func (s *Service) Config() Config {
	return s.cfg
}

// Running reports whether the service has been started and not yet stopped.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the chain watcher and message processor loops and returns immediately.
// It returns a configuration error if the service is already running.
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("Starting relayer service")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return NewConfigurationError("service already running")
	}
	s.running = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	eg := new(errgroup.Group)
	eg.Go(func() error {
		s.runLoop(runCtx, "processor", s.processMessages)
		return nil
	})
	eg.Go(func() error {
		s.runLoop(runCtx, "watcher", s.watchChain)
		return nil
	})
	s.eg = eg

	return nil
}

// Stop asks both loops to exit.
// An iteration in progress finishes before its loop observes the request;
// adapter calls in flight see their context canceled and their messages
// go back to Pending without counting an attempt.
func (s *Service) Stop() {
	s.log.Info("Stopping relayer service")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until the loops of the most recent Start have exited.
func (s *Service) Wait() error {
	s.mu.Lock()
	eg := s.eg
	s.mu.Unlock()

	if eg == nil {
		return nil
	}
	return eg.Wait()
}

// runLoop calls iterate every PollInterval until the service is stopped or ctx is done.
func (s *Service) runLoop(ctx context.Context, name string, iterate func(context.Context) error) {
	log := s.log.With(zap.String("loop", name))
	log.Info("Entering loop", zap.Duration("poll_interval", s.cfg.PollInterval))
	defer log.Info("Exited loop")

	for {
		if !s.Running() || ctx.Err() != nil {
			return
		}

		if err := iterate(ctx); err != nil && ctx.Err() == nil {
			log.Error("Loop iteration failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

// watchChain pulls new events from the source chain and queues the valid ones.
func (s *Service) watchChain(ctx context.Context) error {
	s.log.Debug("Watching chain for new messages")

	events, err := s.listenForEvents(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncListenFailure(s.src.ChainID().String())
		}
		return NewChainAdapterError(err)
	}

	if s.metrics != nil && len(events) > 0 {
		s.metrics.AddEventsObserved(s.src.ChainID().String(), len(events))
	}

	for _, ev := range events {
		if err := s.handleChainEvent(ev); err != nil {
			s.log.Warn(
				"Skipping chain event",
				zap.String("tx_hash", ev.TxHash),
				zap.Uint64("height", ev.BlockHeight),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (s *Service) listenForEvents(ctx context.Context) ([]provider.MessageEvent, error) {
	var events []provider.MessageEvent
	err := retry.Do(func() error {
		var err error
		events, err = callWithTimeout(ctx, s.cfg.AdapterTimeoutSecs, "listen_for_events", s.src.ListenForEvents)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(s.cfg.ListenRetryAttempts),
		retry.Delay(listenRetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Info(
				"Failed to list events, retrying",
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", s.cfg.ListenRetryAttempts),
				zap.Error(err),
			)
		}),
	)
	return events, err
}

// handleChainEvent validates the message carried by ev and queues it.
func (s *Service) handleChainEvent(ev provider.MessageEvent) error {
	if err := ValidateMessage(ev.Message); err != nil {
		if s.metrics != nil {
			s.metrics.IncMessagesRejected(s.src.ChainID().String(), validationReason(err))
		}
		return err
	}

	qm := NewQueuedMessage(ev.Message, s.now())
	s.queue.Enqueue(qm)

	if s.metrics != nil {
		s.metrics.IncMessagesEnqueued(qm.Message.FromChain.String(), qm.Message.ToChain.String())
	}
	s.log.Debug(
		"Queued message",
		zap.Stringer("message_id", qm.ID),
		zap.Stringer("message", qm.Message),
		zap.String("tx_hash", ev.TxHash),
	)
	return nil
}

// processMessages runs one iteration of the message processor.
func (s *Service) processMessages(ctx context.Context) error {
	if ids := s.queue.RequeueFailed(s.cfg.MaxRetryAttempts, s.cfg.RetryDelay()); len(ids) > 0 {
		s.log.Debug("Requeued failed messages", zap.Int("count", len(ids)))
		if s.metrics != nil {
			s.metrics.AddMessagesRequeued(len(ids))
		}
	}

	eg := new(errgroup.Group)
	eg.SetLimit(s.cfg.MaxConcurrentMessages)
	for i := 0; i < s.cfg.MaxConcurrentMessages; i++ {
		msg, ok := s.queue.Dequeue()
		if !ok {
			break
		}
		eg.Go(func() error {
			s.processMessage(ctx, msg)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if s.cfg.EnableAutoPruning {
		if n := s.queue.PruneOldMessages(s.cfg.MessageHistoryHours); n > 0 {
			s.log.Debug("Pruned old messages", zap.Int("count", n))
			if s.metrics != nil {
				s.metrics.AddMessagesPruned(n)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.SetQueueSize(s.queue.CountByStatus())
	}

	return nil
}

// processMessage drives a single dequeued message to Submitted or Failed.
func (s *Service) processMessage(ctx context.Context, msg QueuedMessage) {
	log := s.log.With(
		zap.Stringer("message_id", msg.ID),
		zap.Stringer("message", msg.Message),
		zap.Uint32("attempts", msg.Attempts),
	)
	log.Debug("Processing message")

	if msg.Attempts >= s.cfg.MaxRetryAttempts {
		s.fail(log, msg, ReasonMaxRetriesExceeded, nil)
		return
	}

	if msg.Message.HasProof() {
		s.queue.UpdateStatus(msg.ID, StatusProving, "")
		_, err := callWithTimeout(ctx, s.cfg.AdapterTimeoutSecs, "verify_proof", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.src.VerifyProof(ctx, msg.Message)
		})
		if err != nil {
			if ctx.Err() != nil {
				s.interrupt(log, msg, err)
				return
			}
			s.fail(log, msg, ReasonProofVerification, err)
			return
		}
	}

	s.queue.UpdateStatus(msg.ID, StatusReadyForSubmission, "")

	receipt, err := callWithTimeout(ctx, s.cfg.AdapterTimeoutSecs, "submit_message", func(ctx context.Context) (provider.SubmissionReceipt, error) {
		return s.dst.SubmitMessage(ctx, msg.Message)
	})
	if err != nil {
		if ctx.Err() != nil {
			s.interrupt(log, msg, err)
			return
		}
		s.fail(log, msg, ReasonDestinationSubmit, err)
		return
	}

	s.queue.UpdateStatus(msg.ID, StatusSubmitted, "")
	if s.metrics != nil {
		s.metrics.IncMessagesRelayed(msg.Message.FromChain.String(), msg.Message.ToChain.String())
	}
	log.Info(
		"Relayed message",
		zap.String("dst_tx_hash", receipt.TxHash),
		zap.Uint64("dst_height", receipt.BlockHeight),
	)
}

// fail transitions msg to Failed(reason), recording cause as its last error.
func (s *Service) fail(log *zap.Logger, msg QueuedMessage, reason string, cause error) {
	var errText string
	if cause != nil {
		errText = cause.Error()
	}
	s.queue.UpdateStatus(msg.ID, StatusFailed(reason), errText)

	if s.metrics != nil {
		s.metrics.IncMessageFailure(msg.Message.FromChain.String(), msg.Message.ToChain.String(), reason)
	}
	log.Warn("Message processing failed", zap.String("reason", reason), zap.Error(cause))
}

// interrupt returns msg to Pending after the service stopped mid-call.
// The interrupted call does not count as an attempt.
func (s *Service) interrupt(log *zap.Logger, msg QueuedMessage, cause error) {
	s.queue.Requeue(msg.ID, msg.LastError)
	log.Info("Message processing interrupted", zap.Error(cause))
}

// callWithTimeout runs fn, giving up after timeoutSecs seconds if it is non-zero.
// fn keeps running in the background after a timeout until it observes its context.
func callWithTimeout[T any](
	ctx context.Context,
	timeoutSecs uint64,
	operation string,
	fn func(context.Context) (T, error),
) (T, error) {
	if timeoutSecs == 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, durationOf(timeoutSecs, time.Second))
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-callCtx.Done():
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, NewTimeoutError(operation, timeoutSecs)
	}
}

func validationReason(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == ErrValidation {
		return e.Msg
	}
	return err.Error()
}
