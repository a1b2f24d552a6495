package engine

import (
	"math"
	"time"
)

// DividendOutcome reports the effect of one dividend payment.
type DividendOutcome struct {
	Income      float64
	SharesAdded float64
}

// ProcessDividend pays dividendPerShare on the shares currently held. With
// reinvest the income buys shares at price; otherwise it is credited to cash.
// Income is added to cumulative dividends in both cases, including when an
// untracked balance cannot hold it.
func ProcessDividend(s *PortfolioState, dividendPerShare, price float64, reinvest bool) DividendOutcome {
	income := DividendIncome(s.Shares, dividendPerShare)
	if income <= 0 {
		return DividendOutcome{}
	}

	s.CumulativeDividends += income

	if reinvest {
		added := SharesFromCash(income, price)
		s.Shares += added
		s.TotalCostBasis += income
		return DividendOutcome{Income: income, SharesAdded: added}
	}

	s.creditCash(income)
	return DividendOutcome{Income: income}
}

// InterestOutcome reports one monthly interest settlement.
type InterestOutcome struct {
	Interest     float64
	PaidFromCash float64
	Capitalized  float64
}

// ChargeInterest settles one month of interest on outstanding debt. Cash pays
// first; any remainder is added to the debt.
func ChargeInterest(s *PortfolioState, annualRate float64) InterestOutcome {
	interest := MonthlyInterest(s.Borrowed, annualRate)
	if interest <= 0 {
		return InterestOutcome{}
	}

	paid := 0.0
	if s.Cash.Tracked() {
		paid = s.debitCash(interest)
	}
	capitalized := interest - paid
	s.borrow(capitalized)
	s.TotalInterestPaid += interest

	return InterestOutcome{Interest: interest, PaidFromCash: paid, Capitalized: capitalized}
}

// PurchaseOutcome reports one purchase.
type PurchaseOutcome struct {
	Invested      float64
	SharesBought  float64
	CashUsed      float64
	MarginUsed    float64
	PrincipalUsed float64
}

// ExecutePurchase buys up to amount of shares at price. Cash is used first and
// margin is borrowed only once cash runs out, capped by the buying power left
// under marginRatio. Without margin the shortfall is simply not invested.
func ExecutePurchase(s *PortfolioState, amount, price, marginRatio float64) PurchaseOutcome {
	if amount <= 0 || price <= 0 {
		return PurchaseOutcome{}
	}

	if !s.Cash.Tracked() {
		shares := SharesFromCash(amount, price)
		s.Shares += shares
		s.TotalCostBasis += amount
		s.PrincipalInvested += amount
		return PurchaseOutcome{
			Invested:      amount,
			SharesBought:  shares,
			CashUsed:      amount,
			PrincipalUsed: amount,
		}
	}

	cash := s.Cash.Amount()
	var invested float64
	switch {
	case cash >= amount:
		invested = amount
	case marginRatio > NoMarginRatio:
		pv := s.PortfolioValue(price)
		headroom := math.Max(0, s.NetEquity(price)*marginRatio-pv)
		invested = math.Min(amount, headroom)
	default:
		invested = cash
	}
	if invested <= 0 {
		return PurchaseOutcome{}
	}

	cashUsed := s.debitCash(math.Min(invested, cash))
	marginUsed := invested - cashUsed
	s.borrow(marginUsed)

	principalUsed := math.Min(cashUsed, s.AvailablePrincipal)
	s.AvailablePrincipal = math.Max(0, s.AvailablePrincipal-principalUsed)
	s.PrincipalInvested += principalUsed

	shares := SharesFromCash(invested, price)
	s.Shares += shares
	s.TotalCostBasis += invested

	return PurchaseOutcome{
		Invested:      invested,
		SharesBought:  shares,
		CashUsed:      cashUsed,
		MarginUsed:    marginUsed,
		PrincipalUsed: principalUsed,
	}
}

// ExecuteMarginCall enforces the maintenance margin at price. When the equity
// ratio is below maintenanceMargin, shares are sold down to the liquidation
// target, or entirely when the target is out of reach, and the proceeds repay
// debt. The account is marked insolvent when equity after the sale is not
// positive. It returns false when no call was needed.
func ExecuteMarginCall(s *PortfolioState, date time.Time, price, maintenanceMargin float64) (MarginCallEvent, bool) {
	if s.Borrowed <= 0 || s.Shares <= 0 || price <= 0 {
		return MarginCallEvent{}, false
	}

	pv := s.PortfolioValue(price)
	cash := s.Cash.Amount()
	ratio := EquityRatio(pv, cash, s.Borrowed)
	if ratio >= maintenanceMargin {
		return MarginCallEvent{}, false
	}

	ev := MarginCallEvent{
		Date:                 date,
		Price:                price,
		EquityRatioBefore:    ratio,
		PortfolioValueBefore: pv,
		SharesBefore:         s.Shares,
		DebtBefore:           s.Borrowed,
		CashBefore:           cash,
		EquityBefore:         s.NetEquity(price),
	}

	target := LiquidationTargetValue(s.Borrowed, cash, maintenanceMargin)
	if target > 0 && target < pv {
		sold, proceeds := s.sellShares(SharesFromCash(pv-target, price), price)
		repaid := s.repay(proceeds)
		s.creditCash(proceeds - repaid)
		ev.SharesSold, ev.SaleProceeds, ev.DebtRepaid = sold, proceeds, repaid
	} else {
		sold, proceeds := s.sellShares(s.Shares, price)
		ev.SharesSold, ev.SaleProceeds = sold, proceeds
		ev.DebtRepaid = s.applyProceeds(proceeds)
		ev.Complete = true
	}

	ev.PortfolioValueAfter = s.PortfolioValue(price)
	ev.SharesAfter = s.Shares
	ev.DebtAfter = s.Borrowed
	ev.CashAfter = s.Cash.Amount()
	ev.EquityAfter = s.NetEquity(price)
	ev.EquityRatioAfter = EquityRatio(ev.PortfolioValueAfter, ev.CashAfter, ev.DebtAfter)

	s.MarginCallsCount++
	s.MarginCallLog = append(s.MarginCallLog, ev)

	if ev.EquityAfter <= 0 {
		s.markInsolvent(date)
	}
	return ev, true
}

// ActivateWithdrawalMode switches the account into its decumulation phase.
// Outstanding debt is repaid at once, selling shares when cash is short; the
// payoff event is returned when any debt was repaid.
func ActivateWithdrawalMode(s *PortfolioState, date time.Time, price float64) (WithdrawalEvent, bool) {
	s.WithdrawalModeActive = true
	d := date
	s.WithdrawalStartDate = &d

	if s.Borrowed <= 0 {
		return WithdrawalEvent{}, false
	}

	cashBefore := s.Cash.Amount()
	sold, proceeds := s.sellShares(SharesToSellForWithdrawal(0, s.Borrowed, cashBefore, price), price)
	repaid := s.applyProceeds(proceeds)
	if repaid <= 0 {
		return WithdrawalEvent{}, false
	}

	ev := WithdrawalEvent{
		Date:                date,
		EventType:           EventThresholdDebtPayoff,
		Price:               price,
		SharesSold:          sold,
		SaleProceeds:        proceeds,
		DebtRepaid:          repaid,
		FundedBy:            FundedByShareSale,
		CashBefore:          cashBefore,
		CashAfter:           s.Cash.Amount(),
		CumulativeWithdrawn: s.TotalWithdrawn,
	}
	if sold == 0 {
		ev.FundedBy = FundedByCash
	}
	s.WithdrawalLog = append(s.WithdrawalLog, ev)
	return ev, true
}

// ExecuteMonthlyWithdrawal takes one scheduled withdrawal of amount. Any debt
// is repaid first, then the withdrawal is paid from cash, selling shares for
// the shortfall. A partially funded withdrawal is recorded as such.
func ExecuteMonthlyWithdrawal(s *PortfolioState, date time.Time, price, amount float64) WithdrawalEvent {
	cashBefore := s.Cash.Amount()

	sold, proceeds := s.sellShares(SharesToSellForWithdrawal(amount, s.Borrowed, cashBefore, price), price)
	repaid := s.applyProceeds(proceeds)

	var withdrawn float64
	if s.Cash.Tracked() {
		withdrawn = s.debitCash(amount)
	} else {
		withdrawn = math.Min(math.Max(0, proceeds-repaid), amount)
	}

	s.TotalWithdrawn += withdrawn
	s.LastWithdrawalPeriod = PeriodOf(date)

	ev := WithdrawalEvent{
		Date:                date,
		EventType:           EventScheduledWithdrawal,
		Price:               price,
		RequestedAmount:     amount,
		SharesSold:          sold,
		SaleProceeds:        proceeds,
		DebtRepaid:          repaid,
		AmountWithdrawn:     withdrawn,
		CashBefore:          cashBefore,
		CashAfter:           s.Cash.Amount(),
		CumulativeWithdrawn: s.TotalWithdrawn,
	}
	switch {
	case sold > 0:
		ev.FundedBy = FundedByShareSale
	case withdrawn > 0:
		ev.FundedBy = FundedByCash
	default:
		ev.FundedBy = FundedByNothing
	}
	s.WithdrawalLog = append(s.WithdrawalLog, ev)
	return ev
}

// recordDividendIncome logs a dividend received during the decumulation phase.
func recordDividendIncome(s *PortfolioState, date time.Time, price, dividendPerShare float64, out DividendOutcome, cashBefore float64) {
	s.WithdrawalLog = append(s.WithdrawalLog, WithdrawalEvent{
		Date:                date,
		EventType:           EventDividendIncome,
		Price:               price,
		DividendPerShare:    dividendPerShare,
		SharesOwned:         s.Shares - out.SharesAdded,
		DividendIncome:      out.Income,
		CashBefore:          cashBefore,
		CashAfter:           s.Cash.Amount(),
		CumulativeWithdrawn: s.TotalWithdrawn,
	})
}

// applyProceeds routes sale proceeds into the account and repays as much debt
// as the resulting cash allows. With an untracked balance only the proceeds
// themselves can repay debt.
func (s *PortfolioState) applyProceeds(proceeds float64) float64 {
	if !s.Cash.Tracked() {
		return s.repay(proceeds)
	}
	s.creditCash(proceeds)
	return s.repay(s.debitCash(s.Borrowed))
}
