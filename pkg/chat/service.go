// Package chat walks the model cascade for one conversation.
package chat

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/elunari/cascade/pkg/availability"
	"github.com/elunari/cascade/pkg/cascade"
	"github.com/elunari/cascade/pkg/models"
	"github.com/elunari/cascade/pkg/observability"
	"github.com/elunari/cascade/pkg/ratelimit"
	"github.com/elunari/cascade/pkg/upstream"
)

// DefaultRetryDelay is the pause after a retryable failure.
const DefaultRetryDelay = 200 * time.Millisecond

// Invoker performs one completion call against a model.
type Invoker interface {
	Invoke(ctx context.Context, model string, messages []models.ChatMessage) models.UpstreamResult
}

// Source supplies the ordered model cascade.
type Source interface {
	Lookup(ctx context.Context) ([]string, cascade.Origin)
}

// Recorder persists attempt records.
type Recorder interface {
	Record(ctx context.Context, rec models.AttemptRecord) error
}

// Options configures a Service.
type Options struct {
	Configured bool
	Invoker    Invoker
	Source     Source
	Ledger     *availability.Ledger
	Window     *ratelimit.Window
	RetryDelay time.Duration
	// Deadline bounds the whole cascade. Zero means no overall deadline.
	Deadline time.Duration
	Recorder Recorder
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// Reply is a successful completion.
type Reply struct {
	Content string
	Model   string
}

// Service owns the process-wide cascade state: the availability ledger,
// the admission window and (through the source) the cascade cache. One
// Service is shared by all in-flight requests.
type Service struct {
	configured bool
	invoker    Invoker
	source     Source
	ledger     *availability.Ledger
	window     *ratelimit.Window
	retryDelay time.Duration
	deadline   time.Duration
	recorder   Recorder
	metrics    *observability.Metrics
	logger     *zap.Logger
	nowFunc    func() time.Time
	skipLog    *rate.Sometimes
}

// New creates a Service. Nil ledger, window, logger and a zero retry delay
// are replaced with defaults.
func New(opts Options) *Service {
	s := &Service{
		configured: opts.Configured,
		invoker:    opts.Invoker,
		source:     opts.Source,
		ledger:     opts.Ledger,
		window:     opts.Window,
		retryDelay: opts.RetryDelay,
		deadline:   opts.Deadline,
		recorder:   opts.Recorder,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		nowFunc:    time.Now,
		skipLog:    &rate.Sometimes{Interval: 10 * time.Second},
	}
	if s.ledger == nil {
		s.ledger = availability.New(availability.DefaultCooldown)
	}
	if s.window == nil {
		s.window = ratelimit.New(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	}
	if s.retryDelay == 0 {
		s.retryDelay = DefaultRetryDelay
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// SetClock replaces the time source used for admission and cooldowns.
func (s *Service) SetClock(now func() time.Time) {
	s.nowFunc = now
}

// Ledger exposes the availability ledger.
func (s *Service) Ledger() *availability.Ledger { return s.ledger }

// Window exposes the admission window.
func (s *Service) Window() *ratelimit.Window { return s.window }

// Complete runs the cascade for messages and returns the first successful
// reply. Errors are ErrNotConfigured, ErrRateLimited, ErrExhausted or a
// *FatalError.
func (s *Service) Complete(ctx context.Context, requestID string, messages []models.ChatMessage) (Reply, error) {
	if !s.configured {
		s.logger.Error("chat request rejected: upstream credential missing", zap.String("request_id", requestID))
		return Reply{}, ErrNotConfigured
	}

	if !s.window.TryAdmit(s.nowFunc()) {
		s.logger.Warn("chat request rate limited",
			zap.String("request_id", requestID), zap.Int("limit", s.window.Limit()))
		return Reply{}, ErrRateLimited
	}

	if s.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deadline)
		defer cancel()
	}

	candidates, origin := s.source.Lookup(ctx)
	s.metrics.RecordLookup(string(origin))

	log := s.logger.With(zap.String("request_id", requestID))
	log.Debug("cascade resolved", zap.String("origin", string(origin)), zap.Int("candidates", len(candidates)))

	for _, model := range candidates {
		if ctx.Err() != nil {
			log.Warn("cascade interrupted", zap.Error(ctx.Err()))
			return Reply{}, ErrExhausted
		}

		if !s.ledger.IsAvailable(model) {
			s.metrics.RecordAttempt(model, string(models.OutcomeSkipped))
			s.skipLog.Do(func() {
				log.Debug("skipping model in cooldown", zap.String("model", model))
			})
			continue
		}

		start := s.nowFunc()
		res := s.invoker.Invoke(ctx, model, messages)
		latency := s.nowFunc().Sub(start)

		if res.OK {
			if !s.window.Record(s.nowFunc()) {
				log.Debug("admission window already full, success not recorded")
			}
			s.metrics.SetWindowUsed(s.window.Used(s.nowFunc()))
			s.record(ctx, requestID, model, models.OutcomeSuccess, res, latency)
			log.Info("cascade succeeded", zap.String("model", model), zap.Duration("latency", latency))
			return Reply{Content: res.Content, Model: model}, nil
		}

		// A call cut short by our own deadline or the caller going away says
		// nothing about the model; do not cool it down.
		if ctx.Err() != nil {
			log.Warn("cascade interrupted", zap.String("model", model), zap.Error(ctx.Err()))
			return Reply{}, ErrExhausted
		}

		if !upstream.IsRetryable(res.StatusCode, res.ErrorText) {
			s.record(ctx, requestID, model, models.OutcomeFatal, res, latency)
			log.Error("upstream fatal failure",
				zap.String("model", model),
				zap.Int("status", res.StatusCode),
				zap.String("error", res.ErrorText))
			return Reply{}, &FatalError{Model: model, StatusCode: res.StatusCode, Text: res.ErrorText}
		}

		s.ledger.MarkUnavailable(model, s.nowFunc())
		s.record(ctx, requestID, model, models.OutcomeRetryable, res, latency)
		log.Warn("upstream retryable failure, trying next model",
			zap.String("model", model),
			zap.Int("status", res.StatusCode),
			zap.String("error", truncate(res.ErrorText, 200)))

		if err := sleep(ctx, s.retryDelay); err != nil {
			log.Warn("cascade interrupted", zap.Error(err))
			return Reply{}, ErrExhausted
		}
	}

	log.Warn("cascade exhausted", zap.Int("candidates", len(candidates)))
	return Reply{}, ErrExhausted
}

func (s *Service) record(ctx context.Context, requestID, model string, outcome models.AttemptOutcome, res models.UpstreamResult, latency time.Duration) {
	s.metrics.RecordAttempt(model, string(outcome))
	if s.recorder == nil {
		return
	}
	status := res.StatusCode
	if res.OK {
		status = 200
	}
	err := s.recorder.Record(context.WithoutCancel(ctx), models.AttemptRecord{
		RequestID:  requestID,
		Model:      model,
		Outcome:    outcome,
		StatusCode: status,
		ErrorText:  res.ErrorText,
		LatencyMs:  latency.Milliseconds(),
		CreatedAt:  s.nowFunc().UTC(),
	})
	if err != nil {
		s.logger.Warn("record attempt failed", zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
