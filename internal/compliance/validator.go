package compliance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

// SecurityType is the MOEX instrument class
type SecurityType string

const (
	SecurityStock    SecurityType = "STOCK"
	SecurityBond     SecurityType = "BOND"
	SecurityETF      SecurityType = "ETF"
	SecurityCurrency SecurityType = "CURRENCY"
)

// CheckResult represents the outcome of a single compliance rule
type CheckResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Info describes how an order maps onto exchange microstructure
type Info struct {
	Symbol         string              `json:"symbol"`
	SecurityType   SecurityType        `json:"security_type"`
	LotSize        int64               `json:"lot_size"`
	LotsOrdered    int64               `json:"lots_ordered"`
	Session        Session             `json:"trading_session"`
	SettlementDate time.Time           `json:"settlement_date"`
	OrderValue     decimal.NullDecimal `json:"order_value_rub"`
}

// Report is the combined compliance verdict for one order
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Info     Info     `json:"compliance_info"`
}

// Validator checks orders against MOEX trading rules
type Validator struct {
	*Calendar
	rules            config.ComplianceRules
	ref              *config.ReferenceData
	minValue         decimal.Decimal
	minCurrencyValue decimal.Decimal
	logger           *logger.Logger
}

// NewValidator creates a compliance validator; rules are validated up front
func NewValidator(rules config.ComplianceRules, ref *config.ReferenceData, log *logger.Logger) (*Validator, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if ref == nil {
		ref = config.DefaultReferenceData()
	}
	return &Validator{
		Calendar:         NewCalendar(rules),
		rules:            rules,
		ref:              ref,
		minValue:         decimal.NewFromFloat(rules.MinOrderValueRUB),
		minCurrencyValue: decimal.NewFromFloat(rules.MinCurrencyOrderValueRUB),
		logger:           logger.OrNop(log).With("compliance"),
	}, nil
}

var etfPrefixes = []string{"FXRU", "FXUS", "FXGD"}

// SecurityType infers the instrument class from the ticker
func (v *Validator) SecurityType(symbol string) SecurityType {
	s := strings.ToUpper(symbol)
	for _, ccy := range []string{"USD", "EUR", "CNY", "RUB"} {
		if strings.Contains(s, ccy) {
			return SecurityCurrency
		}
	}
	if strings.Contains(s, "ETF") {
		return SecurityETF
	}
	for _, p := range etfPrefixes {
		if strings.HasPrefix(s, p) {
			return SecurityETF
		}
	}
	if strings.HasPrefix(s, "OFZ") {
		return SecurityBond
	}
	if len(s) > 2 && (strings.HasPrefix(s, "SU") || strings.HasPrefix(s, "RU")) && s[2] >= '0' && s[2] <= '9' {
		return SecurityBond
	}
	return SecurityStock
}

// LotSize returns the exact lot for known symbols, or the security-type default
func (v *Validator) LotSize(symbol string) int64 {
	if lot, ok := v.ref.LotSize(symbol); ok {
		return lot
	}
	switch v.SecurityType(symbol) {
	case SecurityCurrency:
		return v.rules.CurrencyLotSize
	case SecurityBond:
		return v.rules.BondLotSize
	case SecurityETF:
		return v.rules.ETFLotSize
	default:
		return v.rules.StockLotSize
	}
}

// ValidateLotSize checks that quantity is a positive multiple of the lot size
func (v *Validator) ValidateLotSize(symbol string, quantity int64) CheckResult {
	if quantity <= 0 {
		return CheckResult{
			Valid:   false,
			Message: fmt.Sprintf("Quantity must be positive, got %d", quantity),
			Code:    "QUANTITY_NOT_POSITIVE",
		}
	}
	lot := v.LotSize(symbol)
	if quantity%lot != 0 {
		return CheckResult{
			Valid:   false,
			Message: fmt.Sprintf("Quantity %d must be a multiple of lot size %d for %s", quantity, lot, symbol),
			Code:    "LOT_SIZE_MISMATCH",
		}
	}
	return CheckResult{Valid: true}
}

// MinimumOrderValue returns the RUB floor for a symbol's security type
func (v *Validator) MinimumOrderValue(symbol string) decimal.Decimal {
	if v.SecurityType(symbol) == SecurityCurrency {
		return v.minCurrencyValue
	}
	return v.minValue
}

// ValidateMinimumOrderValue checks quantity × price against the floor
func (v *Validator) ValidateMinimumOrderValue(symbol string, quantity int64, price decimal.Decimal) CheckResult {
	value := price.Mul(decimal.NewFromInt(quantity))
	floor := v.MinimumOrderValue(symbol)
	if value.LessThan(floor) {
		return CheckResult{
			Valid:   false,
			Message: fmt.Sprintf("Order value %s RUB is below minimum %s RUB for %s", value.StringFixed(2), floor.StringFixed(2), symbol),
			Code:    "ORDER_VALUE_TOO_LOW",
		}
	}
	return CheckResult{Valid: true}
}

// ValidateTradingHours checks that a session is open at now
func (v *Validator) ValidateTradingHours(now time.Time) CheckResult {
	if v.IsTradingHours(now) {
		return CheckResult{Valid: true}
	}
	next := v.NextSessionStart(now)
	return CheckResult{
		Valid:   false,
		Message: fmt.Sprintf("Market is closed. Next trading session starts at %s", next.Format("2006-01-02 15:04 MST")),
		Code:    "MARKET_CLOSED",
	}
}

// RoundToLot rounds quantity down to a whole number of lots
func (v *Validator) RoundToLot(symbol string, quantity int64) int64 {
	if quantity <= 0 {
		return 0
	}
	lot := v.LotSize(symbol)
	return quantity - quantity%lot
}

// ValidateOrder runs every compliance rule against one order.
// Only structurally invalid orders return an error; rule failures are reported in the Report.
func (v *Validator) ValidateOrder(order types.TradeOrder, now time.Time) (*Report, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	secType := v.SecurityType(order.Symbol)
	lot := v.LotSize(order.Symbol)
	report := &Report{
		Errors:   []string{},
		Warnings: []string{},
		Info: Info{
			Symbol:         order.Symbol,
			SecurityType:   secType,
			LotSize:        lot,
			LotsOrdered:    order.Quantity / lot,
			Session:        v.Session(now),
			SettlementDate: v.SettlementDate(now),
		},
	}

	checks := []CheckResult{v.ValidateLotSize(order.Symbol, order.Quantity)}
	if order.IsPriced() {
		price := order.Price.Decimal
		report.Info.OrderValue = decimal.NewNullDecimal(price.Mul(decimal.NewFromInt(order.Quantity)))
		checks = append(checks, v.ValidateMinimumOrderValue(order.Symbol, order.Quantity, price))
	}
	checks = append(checks, v.ValidateTradingHours(now))

	for _, c := range checks {
		if !c.Valid {
			report.Errors = append(report.Errors, c.Message)
		}
	}

	if secType == SecurityCurrency {
		report.Warnings = append(report.Warnings, "Currency trading has different settlement rules")
	}
	if order.Quantity > v.rules.LargeOrderQuantity {
		report.Warnings = append(report.Warnings, "Large order may require additional compliance checks")
	}

	report.Valid = len(report.Errors) == 0
	if !report.Valid {
		v.logger.Debug("order %s %d %s failed compliance: %s", order.Action, order.Quantity, order.Symbol,
			strings.Join(report.Errors, "; "))
	}
	return report, nil
}
