package engine

import "time"

// MarginCallEvent records one forced liquidation.
type MarginCallEvent struct {
	Date                 time.Time `json:"date"`
	Price                float64   `json:"price"`
	Complete             bool      `json:"complete_liquidation"`
	EquityRatioBefore    float64   `json:"equity_ratio_before"`
	EquityRatioAfter     float64   `json:"equity_ratio_after"`
	PortfolioValueBefore float64   `json:"portfolio_value_before"`
	PortfolioValueAfter  float64   `json:"portfolio_value_after"`
	SharesBefore         float64   `json:"shares_before"`
	SharesAfter          float64   `json:"shares_after"`
	SharesSold           float64   `json:"shares_sold"`
	SaleProceeds         float64   `json:"sale_proceeds"`
	DebtBefore           float64   `json:"debt_before"`
	DebtAfter            float64   `json:"debt_after"`
	DebtRepaid           float64   `json:"debt_repaid"`
	CashBefore           float64   `json:"cash_before"`
	CashAfter            float64   `json:"cash_after"`
	EquityBefore         float64   `json:"equity_before"`
	EquityAfter          float64   `json:"equity_after"`
}

// WithdrawalEventType classifies entries of the withdrawal log.
type WithdrawalEventType string

const (
	EventDividendIncome      WithdrawalEventType = "dividend_income"
	EventScheduledWithdrawal WithdrawalEventType = "scheduled_withdrawal"
	EventThresholdDebtPayoff WithdrawalEventType = "threshold_debt_payoff"
)

// FundingSource describes how a scheduled withdrawal was paid for.
type FundingSource string

const (
	FundedByCash      FundingSource = "cash"
	FundedByShareSale FundingSource = "share_sale"
	FundedByNothing   FundingSource = "unfunded"
)

// WithdrawalEvent records one decumulation-phase ledger entry. Fields that do
// not apply to the event type are left zero.
type WithdrawalEvent struct {
	Date      time.Time           `json:"date"`
	EventType WithdrawalEventType `json:"event_type"`
	Price     float64             `json:"price"`

	// scheduled_withdrawal and threshold_debt_payoff
	RequestedAmount float64       `json:"requested_amount,omitempty"`
	SharesSold      float64       `json:"shares_sold,omitempty"`
	SaleProceeds    float64       `json:"sale_proceeds,omitempty"`
	DebtRepaid      float64       `json:"debt_repaid,omitempty"`
	AmountWithdrawn float64       `json:"amount_withdrawn,omitempty"`
	FundedBy        FundingSource `json:"funded_by,omitempty"`

	// dividend_income
	DividendPerShare float64 `json:"dividend_per_share,omitempty"`
	SharesOwned      float64 `json:"shares_owned,omitempty"`
	DividendIncome   float64 `json:"dividend_income,omitempty"`

	CashBefore          float64 `json:"cash_before"`
	CashAfter           float64 `json:"cash_after"`
	CumulativeWithdrawn float64 `json:"cumulative_withdrawn"`
}
