package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/engine"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
	"github.com/ducminhle1904/moex-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/moex-risk-engine/internal/state"
	"github.com/ducminhle1904/moex-risk-engine/pkg/data"
	"github.com/ducminhle1904/moex-risk-engine/pkg/reporting"
)

// snapshotOptions locate the snapshot and price history a command evaluates
type snapshotOptions struct {
	snapshotPath  string
	historyPath   string
	historyFormat string
}

func (o *snapshotOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.snapshotPath, "snapshot", "", "Path to the YAML portfolio snapshot")
	cmd.Flags().StringVar(&o.historyPath, "history", "", "Price history CSV (overrides the snapshot's price_history)")
	cmd.Flags().StringVar(&o.historyFormat, "history-format", "default", "History CSV layout: default (date,symbol,close) or iss")
	cmd.MarkFlagRequired("snapshot")
}

// outputOptions select the report outputs
type outputOptions struct {
	outputDir   string
	quiet       bool
	xlsx        bool
	csv         bool
	json        bool
	metricsFile string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.outputDir, "output-dir", "results", "Directory for file reports")
	cmd.Flags().BoolVar(&o.quiet, "quiet", false, "Skip the console report")
	cmd.Flags().BoolVar(&o.xlsx, "xlsx", false, "Write an Excel workbook")
	cmd.Flags().BoolVar(&o.csv, "csv", false, "Write rebalance trades as CSV")
	cmd.Flags().BoolVar(&o.json, "json", false, "Write the result as JSON")
	cmd.Flags().StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")
}

func (o *outputOptions) reporting() reporting.ReportingConfig {
	return reporting.ReportingConfig{
		EnableConsole:   !o.quiet,
		EnableFiles:     o.xlsx || o.csv || o.json,
		OutputDirectory: o.outputDir,
		ExcelEnabled:    o.xlsx,
		CSVEnabled:      o.csv,
		JSONEnabled:     o.json,
	}
}

// cycle is a loaded snapshot with an engine ready to evaluate it
type cycle struct {
	snapshot *data.Snapshot
	engine   *engine.Engine
	metrics  *monitoring.Metrics
	input    engine.Snapshot
}

func loadCycle(cfg *config.Config, log *logger.Logger, opts *snapshotOptions) (*cycle, error) {
	snap, err := data.LoadSnapshot(opts.snapshotPath)
	if err != nil {
		return nil, err
	}

	histories, err := loadHistories(opts, snap, log)
	if err != nil {
		return nil, err
	}

	metrics := monitoring.NewMetrics()
	eng, err := engine.New(cfg, log, engine.Options{Metrics: metrics, Timer: engine.WallTimer})
	if err != nil {
		return nil, err
	}

	return &cycle{
		snapshot: snap,
		engine:   eng,
		metrics:  metrics,
		input: engine.Snapshot{
			Portfolio:              snap.Portfolio,
			MarketData:             snap.MarketData,
			PriceHistories:         histories,
			News:                   snap.News,
			Events:                 snap.Events,
			RubleVolatilityPercent: snap.RubleVolatilityPercent,
			Now:                    snap.Now,
		},
	}, nil
}

// loadHistories reads closes up to the snapshot time; no history file means no histories
func loadHistories(opts *snapshotOptions, snap *data.Snapshot, log *logger.Logger) (map[string][]decimal.Decimal, error) {
	path := opts.historyPath
	if path == "" {
		path = snap.PriceHistory
	}
	if path == "" {
		return nil, nil
	}

	var csvProvider *data.CSVProvider
	switch strings.ToLower(opts.historyFormat) {
	case "", "default":
		csvProvider = data.NewCSVProvider(log)
	case "iss":
		csvProvider = data.NewCSVProviderWithFormat(data.ISSCSVFormat, log)
	default:
		return nil, fmt.Errorf("unknown history format %q", opts.historyFormat)
	}

	history, err := data.NewCachedProvider(csvProvider, log).LoadHistory(path)
	if err != nil {
		return nil, err
	}
	return history.Until(snap.Now).Closes(), nil
}

func writeMetrics(m *monitoring.Metrics, path string, out io.Writer) error {
	if path == "" {
		return nil
	}
	if err := m.WriteTextfile(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "📈 Metrics written to %s\n", path)
	return nil
}

func printWritten(out io.Writer, paths []string) {
	for _, p := range paths {
		fmt.Fprintf(out, "📄 Report written to %s\n", p)
	}
}

// restoreState replays persisted events into the engine and records the snapshot's events
// so that they carry over to later runs. Snapshot events whose ID is already known are skipped.
func restoreState(c *cycle, sp *state.StatePersistence) error {
	if err := sp.Initialize(); err != nil {
		return err
	}
	if err := sp.LoadState(); err != nil {
		return err
	}

	known := make(map[string]bool)
	for _, ev := range sp.Events() {
		stored, err := c.engine.RecordEvent(ev)
		if err != nil {
			return err
		}
		known[stored.ID] = true
	}
	for _, ev := range c.input.Events {
		if ev.ID != "" && known[ev.ID] {
			continue
		}
		if _, err := c.engine.RecordEvent(ev); err != nil {
			return err
		}
	}
	c.input.Events = nil
	return nil
}

func saveState(c *cycle, sp *state.StatePersistence, d *engine.Decision) error {
	sp.SetEvents(c.engine.Events().All())
	if err := sp.RecordDecision(state.NewDecisionRecord(d)); err != nil {
		return err
	}
	return sp.Cleanup(c.input.Now)
}

func newAssessCmd(root *rootOptions, stderr io.Writer) *cobra.Command {
	snapOpts := &snapshotOptions{}
	outOpts := &outputOptions{}
	var stateDir string

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Run a full risk, diversification and rebalance cycle on a snapshot",
		Long: `Run one decision cycle: geopolitical assessment, portfolio risk scoring,
diversification analysis, rebalance recommendation and compliance checks of the
recommended trades.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(stderr)
			if err != nil {
				return err
			}
			defer log.Close()

			c, err := loadCycle(cfg, log, snapOpts)
			if err != nil {
				return err
			}

			var sp *state.StatePersistence
			if stateDir != "" {
				sp = state.NewStatePersistence(log, stateDir)
				if err := restoreState(c, sp); err != nil {
					return err
				}
			}

			d, err := c.engine.Evaluate(c.input)
			if err != nil {
				return err
			}
			if sp != nil {
				if err := saveState(c, sp, d); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			written, err := reporting.NewReportingManager(outOpts.reporting(), out).ReportDecision(d)
			if err != nil {
				return err
			}
			printWritten(out, written)
			return writeMetrics(c.metrics, outOpts.metricsFile, out)
		},
	}
	snapOpts.register(cmd)
	outOpts.register(cmd)
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "Directory persisting recorded events and the decision log between runs")
	return cmd
}
