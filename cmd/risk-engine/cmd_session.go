package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/moex-risk-engine/cmd/common"
	"github.com/ducminhle1904/moex-risk-engine/internal/compliance"
)

func newSessionCmd(root *rootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the MOEX trading session and settlement date for a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(root.configPath)
			if err != nil {
				return err
			}
			cal := compliance.NewCalendar(cfg.Compliance)

			now := time.Now()
			if at != "" {
				if now, err = common.ParseTime(at, cal.Location()); err != nil {
					return err
				}
			}
			now = now.In(cal.Location())

			trading := "❌ closed"
			if cal.IsTradingHours(now) {
				trading = "✅ open"
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetTitle("MOEX SESSION")
			t.SetStyle(table.StyleRounded)
			t.AppendRows([]table.Row{
				{"🕒 Time", now.Format("2006-01-02 15:04 MST Mon")},
				{"📊 Session", cal.Session(now)},
				{"🚦 Trading", trading},
				{"⏭ Next Session", cal.NextSessionStart(now).Format("2006-01-02 15:04 MST Mon")},
				{"📅 Settlement", fmt.Sprintf("%s (T+%d)", cal.SettlementDate(now).Format("2006-01-02"), cfg.Compliance.SettlementDays)},
			})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Time to check, RFC3339 or \"2006-01-02 15:04\" in exchange time (default now)")
	return cmd
}
