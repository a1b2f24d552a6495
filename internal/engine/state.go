package engine

import (
	"math"
	"time"
)

// Cash is the liquid balance of an account. An untracked balance models
// unlimited funding: purchases are always fully paid and nothing is borrowed.
type Cash struct {
	tracked bool
	amount  float64
}

// TrackedCash returns a finite balance floored at zero.
func TrackedCash(amount float64) Cash {
	return Cash{tracked: true, amount: math.Max(0, amount)}
}

// UntrackedCash returns an unlimited balance.
func UntrackedCash() Cash {
	return Cash{}
}

// Tracked reports whether the balance is finite.
func (c Cash) Tracked() bool { return c.tracked }

// Amount returns the finite balance, or 0 when untracked.
func (c Cash) Amount() float64 {
	if !c.tracked {
		return 0
	}
	return c.amount
}

// Ptr returns the balance for output, nil when untracked.
func (c Cash) Ptr() *float64 {
	if !c.tracked {
		return nil
	}
	v := c.amount
	return &v
}

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the calendar month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// IsZero reports whether the period has never been set.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// PortfolioState is the ledger of one simulation run. It is owned by a single
// Simulator and mutated in place by the operations in this package.
type PortfolioState struct {
	Shares             float64
	Cash               Cash
	Borrowed           float64
	TotalCostBasis     float64
	PrincipalInvested  float64
	AvailablePrincipal float64

	CumulativeDividends float64
	TotalInterestPaid   float64

	MarginCallsCount int
	MarginCallLog    []MarginCallEvent

	LastInterestPeriod   Period
	LastWithdrawalPeriod Period

	WithdrawalModeActive bool
	WithdrawalStartDate  *time.Time
	WithdrawalLog        []WithdrawalEvent
	TotalWithdrawn       float64

	Insolvent      bool
	InsolvencyDate *time.Time
}

// NewPortfolioState creates the opening ledger. A nil balance is untracked.
// A finite balance is the user's original capital and seeds available principal.
func NewPortfolioState(balance *float64) *PortfolioState {
	s := &PortfolioState{Cash: UntrackedCash()}
	if balance != nil {
		s.Cash = TrackedCash(*balance)
		s.AvailablePrincipal = s.Cash.Amount()
	}
	return s
}

// PortfolioValue returns the market value of held shares.
func (s *PortfolioState) PortfolioValue(price float64) float64 {
	return s.Shares * price
}

// NetEquity returns portfolio value plus positive cash minus debt.
func (s *PortfolioState) NetEquity(price float64) float64 {
	return s.PortfolioValue(price) + s.Cash.Amount() - s.Borrowed
}

// debitCash removes up to amount from a tracked balance and returns the part
// actually paid. The balance never goes below zero. Untracked cash pays in full.
func (s *PortfolioState) debitCash(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if !s.Cash.tracked {
		return amount
	}
	paid := math.Min(amount, s.Cash.amount)
	s.Cash.amount = math.Max(0, s.Cash.amount-paid)
	return paid
}

// creditCash adds to a tracked balance. It is a no-op when untracked.
func (s *PortfolioState) creditCash(amount float64) {
	if amount <= 0 || !s.Cash.tracked {
		return
	}
	s.Cash.amount += amount
}

// borrow adds to outstanding debt.
func (s *PortfolioState) borrow(amount float64) {
	if amount > 0 {
		s.Borrowed += amount
	}
}

// repay reduces debt by up to amount and returns the part applied.
func (s *PortfolioState) repay(amount float64) float64 {
	if amount <= 0 || s.Borrowed <= 0 {
		return 0
	}
	applied := math.Min(amount, s.Borrowed)
	s.Borrowed = math.Max(0, s.Borrowed-applied)
	return applied
}

// sellShares removes up to n shares at price, reduces cost basis in proportion
// and returns the shares sold and proceeds.
func (s *PortfolioState) sellShares(n, price float64) (float64, float64) {
	if n <= 0 || s.Shares <= 0 {
		return 0, 0
	}
	sold := math.Min(n, s.Shares)
	s.TotalCostBasis -= s.TotalCostBasis * (sold / s.Shares)
	s.Shares -= sold
	s.clampShares()
	if s.Shares == 0 {
		s.TotalCostBasis = 0
	}
	s.TotalCostBasis = math.Max(0, s.TotalCostBasis)
	return sold, sold * price
}

// clampShares absorbs float residue from share arithmetic.
func (s *PortfolioState) clampShares() {
	if s.Shares < 1e-12 {
		s.Shares = 0
	}
}

// markInsolvent sets the terminal flag.
func (s *PortfolioState) markInsolvent(date time.Time) {
	s.Insolvent = true
	d := date
	s.InsolvencyDate = &d
}
