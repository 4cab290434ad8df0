package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/actionsum/focuswatch/internal/config"
	"github.com/actionsum/focuswatch/internal/sink"
	"github.com/actionsum/focuswatch/pkg/integrations/sway"
	"github.com/actionsum/focuswatch/pkg/utils"
	"github.com/actionsum/focuswatch/pkg/window"

	"go.uber.org/zap"
)

// State is the tracker lifecycle stage
type State int

const (
	StateConnecting State = iota
	StateSubscribed
	StateTracking
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateTracking:
		return "tracking"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Dialer opens a compositor event source
type Dialer func(socketPath string) (window.Source, error)

// Service turns compositor focus events into ActivityWatch heartbeats.
// It is not safe for concurrent use; the tracking loop owns all state.
type Service struct {
	config *config.Config
	sink   sink.Sink
	logger *zap.Logger
	dial   Dialer
	now    func() time.Time

	state State
	prev  *Interval
}

func NewService(cfg *config.Config, s sink.Sink, logger *zap.Logger) *Service {
	return &Service{
		config: cfg,
		sink:   s,
		logger: logger.Named("tracker"),
		dial:   dialSway,
		now:    time.Now,
	}
}

func dialSway(socketPath string) (window.Source, error) {
	conn, err := sway.Dial(socketPath)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Start connects to the compositor and runs the tracking loop until the
// connection fails or ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.state = StateConnecting
	s.logger.Info("connecting to compositor", zap.String("socket", s.config.Compositor.SocketPath))

	src, err := s.dial(s.config.Compositor.SocketPath)
	if err != nil {
		return err
	}
	defer src.Close()

	return s.Run(ctx, src)
}

// Run subscribes on an open source and processes events until it fails.
func (s *Service) Run(ctx context.Context, src window.Source) error {
	// closing the source is the only way to interrupt a blocked read
	stop := context.AfterFunc(ctx, func() { _ = src.Close() })
	defer stop()

	s.state = StateSubscribed
	if err := src.Subscribe(sway.TopicWindow); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to subscribe to window events: %w", err)
	}
	s.logger.Info("subscribed to window events")

	s.EnsureBuckets(ctx)

	s.state = StateTracking
	for {
		payload, err := src.Next()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("tracker stopped by context")
				return ctx.Err()
			}
			return fmt.Errorf("failed to read compositor event: %w", err)
		}

		if err := s.HandlePayload(ctx, payload); err != nil {
			return err
		}
	}
}

// EnsureBuckets creates the window and AFK buckets. Failures are logged
// only; heartbeats to a missing bucket fail the same non-fatal way.
func (s *Service) EnsureBuckets(ctx context.Context) {
	buckets := []struct{ id, typeTag string }{
		{s.config.WindowBucket(), sink.BucketTypeWindow},
		{s.config.AFKBucket(), sink.BucketTypeAFK},
	}

	for _, b := range buckets {
		if err := s.sink.EnsureBucket(ctx, b.id, b.typeTag); err != nil {
			s.logger.Warn("failed to create bucket", zap.String("bucket", b.id), zap.Error(err))
		}
	}
}

// HandlePayload processes one event payload. Only malformed payloads
// return an error.
func (s *Service) HandlePayload(ctx context.Context, payload []byte) error {
	event, err := ParseWindowEvent(payload)
	if err != nil {
		return err
	}

	if !event.Focused {
		return nil
	}

	s.Observe(ctx, event.Window, s.now().UTC())
	return nil
}

// Observe records that w gained focus at now: it closes the previous
// interval, opens a new one and reports the user as not afk.
func (s *Service) Observe(ctx context.Context, w window.WindowInfo, now time.Time) {
	windowBucket := s.config.WindowBucket()

	if s.prev != nil {
		closed := s.prev.Close(now)
		s.logger.Info("window interval closed",
			zap.String("elapsed", utils.FormatRoundedUnit(time.Duration(closed.Duration*float64(time.Second)))),
			zap.String("app", s.prev.AppName),
			zap.String("title", s.prev.Title))

		if err := s.sink.Heartbeat(ctx, windowBucket, closed, closed.Duration); err != nil {
			s.logger.Warn("failed to send heartbeat", zap.String("bucket", windowBucket), zap.Error(err))
		}
	}

	current := &Interval{
		Start:   now,
		AppName: w.AppName,
		Title:   w.WindowTitle,
	}
	if err := s.sink.Heartbeat(ctx, windowBucket, current.Open(), 0); err != nil {
		s.logger.Warn("failed to send heartbeat", zap.String("bucket", windowBucket), zap.Error(err))
	}

	afkBucket := s.config.AFKBucket()
	if err := s.sink.Heartbeat(ctx, afkBucket, notAFK(now), AFKPulse.Seconds()); err != nil {
		s.logger.Warn("failed to send heartbeat", zap.String("bucket", afkBucket), zap.Error(err))
	}

	s.prev = current
}

// State returns the current lifecycle stage
func (s *Service) State() State {
	return s.state
}

// Current returns a copy of the open interval, or nil before the first
// focus event.
func (s *Service) Current() *Interval {
	if s.prev == nil {
		return nil
	}
	cur := *s.prev
	return &cur
}
