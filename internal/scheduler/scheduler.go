package scheduler

import (
	"context"
	"fmt"
	"strings"

	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/notifier"
	"StockAnalyzer/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultReportRows is the number of trailing series rows included in reports.
const DefaultReportRows = 5

// sendRetries bounds report delivery attempts after the first one.
const sendRetries = 3

// Sender delivers a rendered report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the configured analysis on a cron schedule and on demand.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Request    collector.Request
	Notifier   Sender
	Recorder   recorder.Recorder
	Ctx        context.Context
	ReportRows int

	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler. sender may be nil, in which case
// reports are only logged and recorded.
func NewScheduler(ctx context.Context, col *collector.Collector, req collector.Request, sender Sender, rec recorder.Recorder, logger zerolog.Logger) *Scheduler {
	l := logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{l}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		Collector:  col,
		Request:    req,
		Notifier:   sender,
		Recorder:   rec,
		Ctx:        ctx,
		ReportRows: DefaultReportRows,
		logger:     l,
	}
}

// RegisterDaily registers the analysis job under a six-field cron spec.
func (s *Scheduler) RegisterDaily(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return fmt.Errorf("register daily task: empty cron spec")
	}
	if _, err := s.Cron.AddFunc(spec, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	s.logger.Info().Str("spec", spec).Msg("daily task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow executes the scheduled job immediately: collect, record, send.
func (s *Scheduler) RunNow() (*model.Analysis, error) {
	s.logger.Info().Str("ticker", s.Request.Ticker).Msg("running analysis")
	a, err := s.analyze(s.Ctx, s.Request)
	if err != nil {
		s.logger.Error().Err(err).Msg("analysis failed")
		s.trySend(notifier.FormatError(s.Request.Ticker, err))
		return nil, err
	}
	s.trySend(notifier.FormatReport(a, s.ReportRows))
	return a, nil
}

func (s *Scheduler) dailyTask() {
	_, _ = s.RunNow()
}

// HandleCommand processes a chat command and returns a reply.
//
//	/report                  run the configured analysis
//	/analyze TICKER [PERIOD] run an ad hoc analysis, PERIOD defaults to 1mo
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/report":
		return s.reply(ctx, s.Request)
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze TICKER [PERIOD]"
		}
		req := collector.Request{Ticker: strings.ToUpper(fields[1]), Period: "1mo"}
		if len(fields) > 2 {
			req.Period = fields[2]
		}
		return s.reply(ctx, req)
	default:
		return helpText
	}
}

const helpText = "Available commands:\n• /report\n• /analyze TICKER [PERIOD]"

func (s *Scheduler) reply(ctx context.Context, req collector.Request) string {
	a, err := s.analyze(ctx, req)
	if err != nil {
		return notifier.FormatError(req.Ticker, err)
	}
	return notifier.FormatReport(a, s.ReportRows)
}

func (s *Scheduler) analyze(ctx context.Context, req collector.Request) (*model.Analysis, error) {
	a, err := s.Collector.Collect(ctx, req)
	if err != nil {
		return nil, err
	}
	if a.Advisory != "" {
		s.logger.Warn().Str("ticker", req.Ticker).Str("advisory", a.Advisory).Msg("fluctuation advisory")
	}
	if s.Recorder != nil {
		if _, err := s.Recorder.RecordAnalysis(a); err != nil {
			s.logger.Error().Err(err).Msg("record analysis")
		}
	}
	return a, nil
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
