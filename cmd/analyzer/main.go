package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/indicator"
	"StockAnalyzer/internal/logger"
	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/notifier"
	"StockAnalyzer/internal/recorder"
	"StockAnalyzer/internal/scheduler"

	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	cfgPath := fs.String("config", defaultCfg, "path to the YAML config file")
	ticker := fs.String("ticker", "", "instrument symbol, overrides data_source.symbol")
	period := fs.String("period", "", "relative period such as 5d, 1mo, 1y")
	start := fs.String("start", "", "range start date, YYYY-MM-DD")
	end := fs.String("end", "", "range end date, YYYY-MM-DD (inclusive)")
	rows := fs.Int("rows", scheduler.DefaultReportRows, "trailing rows to print")
	serve := fs.Bool("serve", false, "stay resident and run on the daily cron schedule")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	applyFlags(cfg, *ticker, *period, *start, *end)

	base := logger.Console(cfg.Logging.Level)
	log := logger.Component(base, "main")
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation")
		return 1
	}
	req, err := cfg.Request()
	if err != nil {
		log.Error().Err(err).Msg("build request")
		return 1
	}

	fetcher := newFetcher(cfg)
	log.Info().Str("provider", fetcher.Name()).Str("ticker", req.Ticker).Msg("data source ready")

	col := collector.NewCollector(fetcher, indicator.NewEngine(base), cfg.Params(), base)

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, base)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, base)
		sender = tn
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, req, sender, rec, base)
	sched.ReportRows = *rows

	if !*serve {
		a, err := sched.RunNow()
		if err != nil {
			return 1
		}
		printAnalysis(stdout, a, *rows)
		return 0
	}
	return serveLoop(ctx, cancel, cfg, sched, tn, log)
}

func serveLoop(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, sched *scheduler.Scheduler, tn *notifier.TelegramNotifier, log zerolog.Logger) int {
	if err := sched.RegisterDaily(cfg.Schedule.DailyCron); err != nil {
		log.Error().Err(err).Msg("register cron task")
		return 1
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}
	go sched.RunNow()

	log.Info().Msg("analyzer is running, press Ctrl+C to stop")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	return 0
}

// applyFlags overlays command-line selections on the loaded config. A period
// flag replaces any configured range and vice versa.
func applyFlags(cfg *config.Config, ticker, period, start, end string) {
	if ticker != "" {
		cfg.DataSource.Symbol = ticker
	}
	if period != "" {
		cfg.DataSource.Period = period
		cfg.DataSource.StartDate, cfg.DataSource.EndDate = "", ""
	}
	if start != "" || end != "" {
		cfg.DataSource.StartDate, cfg.DataSource.EndDate = start, end
		if period == "" {
			cfg.DataSource.Period = ""
		}
	}
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "rest":
		return collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Price: mockBasePrice}
	}
	return collector.NewYahooFetcher(cfg.Proxy)
}

// mockBasePrice seeds the synthetic series served by the mock provider.
const mockBasePrice = 100.0

func printAnalysis(w io.Writer, a *model.Analysis, rows int) {
	s := a.Series
	fmt.Fprintf(w, "%s: %d rows\n", s.Symbol, s.Len())
	fmt.Fprintf(w, "average close:  %s\n", cell(a.AverageClose))
	fmt.Fprintf(w, "std deviation:  %s\n", cell(a.StdDev))
	if a.Advisory != "" {
		fmt.Fprintf(w, "advisory:       %s\n", a.Advisory)
	}
	if s.Len() == 0 || rows <= 0 {
		return
	}
	fmt.Fprintln(w)

	columns := model.DerivedColumns()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "date\topen\thigh\tlow\tclose\tvolume")
	for _, c := range columns {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw, "\t")
	from := max(s.Len()-rows, 0)
	for i := from; i < s.Len(); i++ {
		b := s.Bar(i)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.0f",
			b.Time.Format(time.DateOnly), cell(b.Open), cell(b.High), cell(b.Low), cell(b.Close), b.Volume)
		for _, c := range columns {
			v, ok := s.Value(c, i)
			if !ok {
				v = model.Undefined
			}
			fmt.Fprintf(tw, "\t%s", cell(v))
		}
		fmt.Fprintln(tw, "\t")
	}
	tw.Flush()
}

func cell(v float64) string {
	if !model.IsDefined(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}
