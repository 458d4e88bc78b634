package reporting

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/moex-risk-engine/internal/compliance"
	"github.com/ducminhle1904/moex-risk-engine/internal/engine"
	"github.com/ducminhle1904/moex-risk-engine/internal/rebalance"
	"github.com/ducminhle1904/moex-risk-engine/internal/validator"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// DefaultConsoleReporter renders go-pretty tables to a writer
type DefaultConsoleReporter struct {
	out io.Writer
}

// NewDefaultConsoleReporter creates a console reporter; a nil writer means stdout
func NewDefaultConsoleReporter(out io.Writer) *DefaultConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &DefaultConsoleReporter{out: out}
}

func (r *DefaultConsoleReporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func (r *DefaultConsoleReporter) render(t table.Writer) {
	t.Render()
	fmt.Fprintln(r.out)
}

// keyValueColumns is the layout of two-column summary tables
var keyValueColumns = []table.ColumnConfig{
	{Number: 1, WidthMin: 22, WidthMax: 26, Align: text.AlignLeft},
	{Number: 2, WidthMin: 20, WidthMax: 60, Align: text.AlignLeft},
}

// PrintDecision prints every section of one decision cycle
func (r *DefaultConsoleReporter) PrintDecision(d *engine.Decision) {
	if d == nil {
		return
	}
	r.printRisk(d)
	r.printGeopolitical(d)
	r.printDiversification(d)
	r.printRebalance(d)
	r.printLimits(d)
}

func (r *DefaultConsoleReporter) printRisk(d *engine.Decision) {
	a := d.Risk
	t := r.newTable("RISK ASSESSMENT")
	t.AppendRows([]table.Row{
		{"🚦 Risk Level", a.Level},
		{"📊 Risk Score", score(a.Score)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Concentration", score(a.ConcentrationRisk)},
		{"Volatility", score(a.VolatilityRisk)},
		{"Currency", score(a.CurrencyRisk)},
		{"Geopolitical", fmt.Sprintf("%s (%s)", score(a.GeopoliticalRisk), a.GeopoliticalLevel)},
		{"Sector Concentration", score(a.SectorRisk)},
	})
	appendList(t, "💡 Recommendations", a.Recommendations)
	t.SetColumnConfigs(keyValueColumns)
	r.render(t)
}

func (r *DefaultConsoleReporter) printGeopolitical(d *engine.Decision) {
	g := d.Geopolitical
	t := r.newTable("GEOPOLITICAL RISK")
	t.AppendRows([]table.Row{
		{"🌍 Level", g.Level},
		{"📊 Score", score(g.Score)},
		{"📰 News Sentiment", fmt.Sprintf("%+.2f", g.NewsSentiment)},
		{"🚫 Sanctions Risk", score(g.SanctionsRisk)},
		{"🏛 Policy Risk", score(g.PolicyRisk)},
		{"⚡ Active Events", len(g.ActiveEvents)},
	})
	if len(g.SectorRisks) > 0 {
		t.AppendSeparator()
		for _, sector := range sortedKeys(g.SectorRisks) {
			t.AppendRow(table.Row{sector, score(g.SectorRisks[sector])})
		}
	}
	appendList(t, "💡 Recommendations", g.Recommendations)
	t.SetColumnConfigs(keyValueColumns)
	r.render(t)
}

func (r *DefaultConsoleReporter) printDiversification(d *engine.Decision) {
	a := d.Diversification
	status := "✅ Compliant"
	if !a.Compliant {
		status = "❌ Violations found"
	}

	t := r.newTable(fmt.Sprintf("DIVERSIFICATION - score %.1f - %s", a.Score, status))
	t.AppendHeader(table.Row{"Rule", "Severity", "Current", "Limit", "Symbols"})
	for _, v := range a.Violations {
		t.AppendRow(table.Row{v.RuleType, v.Severity, fmt.Sprintf("%.2f", v.CurrentValue),
			fmt.Sprintf("%.2f", v.LimitValue), strings.Join(v.AffectedSymbols, ", ")})
	}
	if len(a.Violations) == 0 {
		t.AppendRow(table.Row{"-", "-", "-", "-", "-"})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, WidthMax: 40},
	})
	r.render(t)

	if len(a.SectorAllocations) > 0 {
		s := r.newTable("SECTOR ALLOCATION")
		s.AppendHeader(table.Row{"Sector", "Allocation"})
		for _, sector := range sortedKeys(a.SectorAllocations) {
			s.AppendRow(table.Row{sector, percent(a.SectorAllocations[sector])})
		}
		s.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		r.render(s)
	}
}

func (r *DefaultConsoleReporter) printRebalance(d *engine.Decision) {
	plan := d.Rebalance

	alloc := r.newTable(fmt.Sprintf("REBALANCE - urgency %s - cash target %.1f%%", plan.Urgency, plan.CashTargetPercent))
	alloc.AppendHeader(table.Row{"Symbol", "Current", "Target", "Change"})
	for _, sym := range allocationKeys(plan.CurrentAllocation, plan.RecommendedAllocation) {
		cur, target := plan.CurrentAllocation[sym], plan.RecommendedAllocation[sym]
		alloc.AppendRow(table.Row{sym, percent(cur), percent(target), fmt.Sprintf("%+.1f%%", target-cur)})
	}
	alloc.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	r.render(alloc)

	if len(plan.Trades) > 0 {
		trades := r.newTable("TRADES TO EXECUTE")
		trades.AppendHeader(table.Row{"Action", "Quantity", "Symbol", "Price", "Compliance"})
		for i, o := range plan.Trades {
			trades.AppendRow(table.Row{o.Action, o.Quantity, o.Symbol, price(o), complianceStatus(reportAt(d.TradeCompliance, i))})
		}
		trades.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
		})
		r.render(trades)
	}

	t := r.newTable("REBALANCE REASONING")
	t.AppendRow(table.Row{"📝 Reasoning", plan.Reasoning})
	t.AppendRow(table.Row{"📉 Expected Risk Cut", percent(plan.ExpectedRiskReduction * 100)})
	appendList(t, "💡 Actions", plan.Recommendations)
	t.SetColumnConfigs(keyValueColumns)
	r.render(t)
}

func (r *DefaultConsoleReporter) printLimits(d *engine.Decision) {
	p := d.AdjustedParameters
	t := r.newTable("ADJUSTED RISK LIMITS")
	t.AppendRows([]table.Row{
		{"Max Position", percent(p.MaxPositionPercent)},
		{"Max Sector", percent(p.MaxSectorPercent)},
		{"Stop Loss", percent(p.StopLossPercent)},
		{"Min Cash", percent(p.MinCashReservePercent)},
	})
	t.SetColumnConfigs(keyValueColumns)
	r.render(t)
}

// PrintValidation prints the verdict for one order
func (r *DefaultConsoleReporter) PrintValidation(order types.TradeOrder, res *validator.Result) {
	if res == nil {
		return
	}
	verdict := "✅ VALID"
	if !res.Valid {
		verdict = "❌ REJECTED"
	}

	t := r.newTable("ORDER VALIDATION")
	t.AppendRows([]table.Row{
		{"📋 Order", fmt.Sprintf("%s %d %s %s", order.Action, order.Quantity, order.Symbol, price(order))},
		{"🚦 Verdict", verdict},
		{"📊 Trade Risk", score(res.RiskScore)},
	})
	appendList(t, "❌ Errors", res.Errors)
	appendList(t, "⚠️ Warnings", res.Warnings)
	if res.RecommendedQuantity != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"📐 Recommended Size", fmt.Sprintf("%d shares", *res.RecommendedQuantity)})
	}

	if res.Adjustments.Quantity != nil || res.Adjustments.StopLoss.Valid {
		t.AppendSeparator()
		if res.Adjustments.Quantity != nil {
			t.AppendRow(table.Row{"🔧 Suggested Quantity", *res.Adjustments.Quantity})
		}
		if res.Adjustments.StopLoss.Valid {
			t.AppendRow(table.Row{"🛑 Suggested Stop", res.Adjustments.StopLoss.Decimal.StringFixed(2) + " RUB"})
		}
	}

	if c := res.Compliance; c != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"🏦 Security Type", c.Info.SecurityType},
			{"📦 Lot Size", fmt.Sprintf("%d (%d lots)", c.Info.LotSize, c.Info.LotsOrdered)},
			{"🕒 Session", c.Info.Session},
			{"📅 Settlement", c.Info.SettlementDate.Format("2006-01-02")},
		})
	}
	t.SetColumnConfigs(keyValueColumns)
	r.render(t)
}

// appendList adds a separated block with the label on the first row only
func appendList(t table.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	t.AppendSeparator()
	for i, item := range items {
		if i == 0 {
			t.AppendRow(table.Row{label, item})
			continue
		}
		t.AppendRow(table.Row{"", item})
	}
}

func reportAt(reports []*compliance.Report, i int) *compliance.Report {
	if i < len(reports) {
		return reports[i]
	}
	return nil
}

func complianceStatus(c *compliance.Report) string {
	switch {
	case c == nil:
		return "-"
	case c.Valid:
		return "✅ OK"
	default:
		return "❌ " + strings.Join(c.Errors, "; ")
	}
}

func price(o types.TradeOrder) string {
	if !o.Price.Valid {
		return "MARKET"
	}
	return o.Price.Decimal.StringFixed(2) + " RUB"
}

func score(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// allocationKeys merges both allocations, symbols sorted and the cash line last
func allocationKeys(current, target map[string]float64) []string {
	seen := make(map[string]float64, len(current)+len(target))
	for k := range current {
		seen[k] = 0
	}
	for k := range target {
		seen[k] = 0
	}
	delete(seen, rebalance.CashKey)
	keys := sortedKeys(seen)
	_, inCurrent := current[rebalance.CashKey]
	_, inTarget := target[rebalance.CashKey]
	if inCurrent || inTarget {
		keys = append(keys, rebalance.CashKey)
	}
	return keys
}
