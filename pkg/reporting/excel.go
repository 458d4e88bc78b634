package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/moex-risk-engine/internal/engine"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// Workbook sheet names
const (
	RiskSheet            = "Risk"
	DiversificationSheet = "Diversification"
	RebalanceSheet       = "Rebalance"
	ComplianceSheet      = "Compliance"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteDecisionXLSX writes one decision cycle to a workbook with a sheet per component
func (r *DefaultExcelReporter) WriteDecisionXLSX(d *engine.Decision, path string) error {
	if d == nil {
		return fmt.Errorf("no decision to write")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	// Replace default sheet and create additional sheets
	if err := fx.SetSheetName(fx.GetSheetName(0), RiskSheet); err != nil {
		return err
	}
	for _, name := range []string{DiversificationSheet, RebalanceSheet, ComplianceSheet} {
		if _, err := fx.NewSheet(name); err != nil {
			return err
		}
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	writers := []func(*excelize.File, *engine.Decision, ExcelStyles) error{
		r.writeRiskSheet,
		r.writeDiversificationSheet,
		r.writeRebalanceSheet,
		r.writeComplianceSheet,
	}
	for _, write := range writers {
		if err := write(fx, d, styles); err != nil {
			return err
		}
	}

	return fx.SaveAs(path)
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "E0E0E0", Style: 1},
	{Type: "right", Color: "E0E0E0", Style: 1},
	{Type: "bottom", Color: "E0E0E0", Style: 1},
}

func fillStyle(fx *excelize.File, color string) (int, error) {
	return fx.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Border: thinBorder,
	})
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Header style - Dark slate background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Rubles with two decimals
	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    4,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	// Percent values are already scaled to 0..100
	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    2,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.ScoreStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    2,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{Border: thinBorder})
	if err != nil {
		return styles, err
	}

	// Severity fills, darkest for CRITICAL
	if styles.CriticalStyle, err = fillStyle(fx, "FF9999"); err != nil {
		return styles, err
	}
	if styles.HighStyle, err = fillStyle(fx, "FFCC99"); err != nil {
		return styles, err
	}
	if styles.MediumStyle, err = fillStyle(fx, "FFF2CC"); err != nil {
		return styles, err
	}
	if styles.LowStyle, err = fillStyle(fx, "E6F3FF"); err != nil {
		return styles, err
	}
	if styles.ValidStyle, err = fillStyle(fx, "E6FFE6"); err != nil {
		return styles, err
	}
	if styles.InvalidStyle, err = fillStyle(fx, "FF9999"); err != nil {
		return styles, err
	}

	return styles, nil
}

func severityStyle(level types.RiskLevel, styles ExcelStyles) int {
	switch level {
	case types.RiskLevelCritical:
		return styles.CriticalStyle
	case types.RiskLevelHigh:
		return styles.HighStyle
	case types.RiskLevelMedium:
		return styles.MediumStyle
	default:
		return styles.LowStyle
	}
}

// writeHeader writes one styled header row
func writeHeader(fx *excelize.File, sheet string, row int, headers []string, styles ExcelStyles) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle); err != nil {
			return err
		}
	}
	return nil
}

// writeRow writes values left to right; styles[i] applies to column i+1 when present
func writeRow(fx *excelize.File, sheet string, row int, values []interface{}, cellStyles ...int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if i < len(cellStyles) && cellStyles[i] != 0 {
			if err := fx.SetCellStyle(sheet, cell, cell, cellStyles[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeRiskSheet(fx *excelize.File, d *engine.Decision, styles ExcelStyles) error {
	const sheet = RiskSheet
	a, g := d.Risk, d.Geopolitical

	if err := writeHeader(fx, sheet, 1, []string{"Metric", "Value"}, styles); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Risk Level", string(a.Level)},
		{"Risk Score", a.Score},
		{"Concentration Risk", a.ConcentrationRisk},
		{"Volatility Risk", a.VolatilityRisk},
		{"Currency Risk", a.CurrencyRisk},
		{"Geopolitical Risk", a.GeopoliticalRisk},
		{"Sector Concentration Risk", a.SectorRisk},
		{"Geopolitical Level", string(g.Level)},
		{"Geopolitical Score", g.Score},
		{"News Sentiment", g.NewsSentiment},
		{"Sanctions Risk", g.SanctionsRisk},
		{"Policy Risk", g.PolicyRisk},
		{"Active Events", len(g.ActiveEvents)},
		{"Timestamp", d.Timestamp.Format("2006-01-02 15:04:05 MST")},
	}
	row := 2
	for _, values := range rows {
		valueStyle := styles.BaseStyle
		if _, ok := values[1].(float64); ok {
			valueStyle = styles.ScoreStyle
		}
		if err := writeRow(fx, sheet, row, values, styles.BaseStyle, valueStyle); err != nil {
			return err
		}
		row++
	}

	row++
	if err := writeHeader(fx, sheet, row, []string{"Sector", "Geopolitical Risk"}, styles); err != nil {
		return err
	}
	row++
	for _, sector := range sortedKeys(g.SectorRisks) {
		if err := writeRow(fx, sheet, row, []interface{}{sector, g.SectorRisks[sector]}, styles.BaseStyle, styles.ScoreStyle); err != nil {
			return err
		}
		row++
	}

	row++
	if err := writeHeader(fx, sheet, row, []string{"Recommendation", "Source"}, styles); err != nil {
		return err
	}
	row++
	for _, src := range []struct {
		name string
		recs []string
	}{{"risk", a.Recommendations}, {"geopolitical", g.Recommendations}} {
		for _, rec := range src.recs {
			if err := writeRow(fx, sheet, row, []interface{}{rec, src.name}, styles.BaseStyle, styles.BaseStyle); err != nil {
				return err
			}
			row++
		}
	}

	fx.SetColWidth(sheet, "A", "A", 60)
	fx.SetColWidth(sheet, "B", "B", 24)
	return nil
}

func (r *DefaultExcelReporter) writeDiversificationSheet(fx *excelize.File, d *engine.Decision, styles ExcelStyles) error {
	const sheet = DiversificationSheet
	a := d.Diversification

	headers := []string{"Rule Type", "Severity", "Current", "Limit", "Sector", "Affected Symbols", "Recommended Action"}
	if err := writeHeader(fx, sheet, 1, headers, styles); err != nil {
		return err
	}
	row := 2
	for _, v := range a.Violations {
		sev := severityStyle(v.Severity, styles)
		values := []interface{}{string(v.RuleType), string(v.Severity), v.CurrentValue, v.LimitValue,
			v.Sector, strings.Join(v.AffectedSymbols, ", "), v.RecommendedAction}
		if err := writeRow(fx, sheet, row, values, sev, sev, styles.ScoreStyle, styles.ScoreStyle,
			styles.BaseStyle, styles.BaseStyle, styles.BaseStyle); err != nil {
			return err
		}
		row++
	}

	row++
	if err := writeRow(fx, sheet, row, []interface{}{"Diversification Score", a.Score}, styles.HeaderStyle, styles.ScoreStyle); err != nil {
		return err
	}
	row++
	if err := writeRow(fx, sheet, row, []interface{}{"Compliant", a.Compliant}, styles.HeaderStyle, styles.BaseStyle); err != nil {
		return err
	}

	row += 2
	if err := writeHeader(fx, sheet, row, []string{"Sector", "Allocation %"}, styles); err != nil {
		return err
	}
	row++
	for _, sector := range sortedKeys(a.SectorAllocations) {
		if err := writeRow(fx, sheet, row, []interface{}{sector, a.SectorAllocations[sector]}, styles.BaseStyle, styles.PercentStyle); err != nil {
			return err
		}
		row++
	}

	row++
	if err := writeHeader(fx, sheet, row, []string{"Symbol", "Position %"}, styles); err != nil {
		return err
	}
	row++
	for _, sym := range sortedKeys(a.PositionSizes) {
		if err := writeRow(fx, sheet, row, []interface{}{sym, a.PositionSizes[sym]}, styles.BaseStyle, styles.PercentStyle); err != nil {
			return err
		}
		row++
	}

	fx.SetColWidth(sheet, "A", "A", 22)
	fx.SetColWidth(sheet, "B", "E", 14)
	fx.SetColWidth(sheet, "F", "F", 30)
	fx.SetColWidth(sheet, "G", "G", 60)
	return nil
}

func (r *DefaultExcelReporter) writeRebalanceSheet(fx *excelize.File, d *engine.Decision, styles ExcelStyles) error {
	const sheet = RebalanceSheet
	plan := d.Rebalance

	if err := writeHeader(fx, sheet, 1, []string{"Symbol", "Current %", "Recommended %", "Change %"}, styles); err != nil {
		return err
	}
	row := 2
	for _, sym := range allocationKeys(plan.CurrentAllocation, plan.RecommendedAllocation) {
		cur, target := plan.CurrentAllocation[sym], plan.RecommendedAllocation[sym]
		if err := writeRow(fx, sheet, row, []interface{}{sym, cur, target, target - cur},
			styles.BaseStyle, styles.PercentStyle, styles.PercentStyle, styles.PercentStyle); err != nil {
			return err
		}
		row++
	}

	row++
	if err := writeHeader(fx, sheet, row, []string{"Action", "Symbol", "Quantity", "Price", "Value"}, styles); err != nil {
		return err
	}
	row++
	for _, o := range plan.Trades {
		var px, value interface{}
		if o.Price.Valid {
			px = o.Price.Decimal.InexactFloat64()
			value = o.Price.Decimal.Mul(decimal.NewFromInt(o.Quantity)).InexactFloat64()
		}
		if err := writeRow(fx, sheet, row, []interface{}{string(o.Action), o.Symbol, o.Quantity, px, value},
			styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.CurrencyStyle, styles.CurrencyStyle); err != nil {
			return err
		}
		row++
	}

	row++
	summary := [][]interface{}{
		{"Urgency", string(plan.Urgency)},
		{"Cash Target %", plan.CashTargetPercent},
		{"Expected Risk Reduction", plan.ExpectedRiskReduction},
		{"Risky Positions", strings.Join(plan.RiskyPositions, ", ")},
		{"Defensive Positions", strings.Join(plan.DefensivePositions, ", ")},
		{"Reasoning", plan.Reasoning},
	}
	for _, values := range summary {
		if err := writeRow(fx, sheet, row, values, styles.HeaderStyle, styles.BaseStyle); err != nil {
			return err
		}
		row++
	}

	fx.SetColWidth(sheet, "A", "A", 24)
	fx.SetColWidth(sheet, "B", "E", 16)
	return nil
}

func (r *DefaultExcelReporter) writeComplianceSheet(fx *excelize.File, d *engine.Decision, styles ExcelStyles) error {
	const sheet = ComplianceSheet

	headers := []string{"Symbol", "Action", "Quantity", "Security Type", "Lot Size", "Lots", "Session", "Settlement Date", "Valid", "Errors", "Warnings"}
	if err := writeHeader(fx, sheet, 1, headers, styles); err != nil {
		return err
	}
	for i, c := range d.TradeCompliance {
		if c == nil {
			continue
		}
		var action types.OrderAction
		var qty int64
		if i < len(d.Rebalance.Trades) {
			action, qty = d.Rebalance.Trades[i].Action, d.Rebalance.Trades[i].Quantity
		}
		status := styles.ValidStyle
		if !c.Valid {
			status = styles.InvalidStyle
		}
		values := []interface{}{c.Info.Symbol, string(action), qty, string(c.Info.SecurityType), c.Info.LotSize,
			c.Info.LotsOrdered, string(c.Info.Session), c.Info.SettlementDate.Format("2006-01-02"), c.Valid,
			strings.Join(c.Errors, "; "), strings.Join(c.Warnings, "; ")}
		if err := writeRow(fx, sheet, i+2, values, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle,
			styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, status,
			styles.BaseStyle, styles.BaseStyle); err != nil {
			return err
		}
	}

	fx.SetColWidth(sheet, "A", "I", 14)
	fx.SetColWidth(sheet, "J", "K", 50)
	return nil
}

// WriteDecisionXLSX is a package-level convenience function
func WriteDecisionXLSX(d *engine.Decision, path string) error {
	return NewDefaultExcelReporter().WriteDecisionXLSX(d, path)
}
