package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/enums"
)

// BacktestResult is the driver's output record, per §6.
type BacktestResult struct {
	StartNs           int64
	EndNs             int64
	TotalOrders       int
	TotalPositions    int
	TotalFills        int
	StartingBalance   decimal.Decimal
	EndingBalance     decimal.Decimal
	TotalReturn       decimal.Decimal
	TotalCommissions  decimal.Decimal
	MaxDrawdown       float64
	SharpeRatio       float64
	WinRate           float64
	ProfitFactor      float64
	AvgWin            decimal.Decimal
	AvgLoss           decimal.Decimal
	BalanceCurve      []BalancePoint
	Manifest          RunManifest
}

func (d *Driver) buildResult(startNs, endNs int64, startingBalance decimal.Decimal) *BacktestResult {
	endingBalance := d.totalAccountValue()

	orders := d.Cache.Orders(nil, nil)
	totalFills := 0
	for _, o := range orders {
		if o.IsFilled() || o.Status == enums.OrderStatusPartiallyFilled {
			totalFills++
		}
	}

	positions := d.Cache.Positions(nil, nil)
	closed := make([]decimal.Decimal, 0, len(positions))
	for _, p := range positions {
		if p.IsClosed() {
			closed = append(closed, p.RealizedPnl)
		}
	}

	totalCommissions := decimal.Zero
	for _, v := range d.venues {
		for _, amt := range v.account.TotalCommissions() {
			totalCommissions = totalCommissions.Add(amt)
		}
	}

	winRate, profitFactor, avgWin, avgLoss := winLossStats(closed)

	return &BacktestResult{
		StartNs:          startNs,
		EndNs:            endNs,
		TotalOrders:      len(orders),
		TotalPositions:   len(positions),
		TotalFills:       totalFills,
		StartingBalance:  startingBalance,
		EndingBalance:    endingBalance,
		TotalReturn:      endingBalance.Sub(startingBalance),
		TotalCommissions: totalCommissions,
		MaxDrawdown:      maxDrawdown(d.balanceCurve),
		SharpeRatio:       sharpeRatio(d.balanceCurve),
		WinRate:           winRate,
		ProfitFactor:      profitFactor,
		AvgWin:            avgWin,
		AvgLoss:           avgLoss,
		BalanceCurve:      d.balanceCurve,
		Manifest:          d.manifest,
	}
}

// maxDrawdown returns max_over_curve((peak - current) / peak), per §6.
func maxDrawdown(curve []BalancePoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Balance
	maxDd := 0.0
	for _, pt := range curve {
		if pt.Balance.GreaterThan(peak) {
			peak = pt.Balance
		}
		if peak.IsZero() {
			continue
		}
		dd, _ := peak.Sub(pt.Balance).Div(peak).Float64()
		if dd > maxDd {
			maxDd = dd
		}
	}
	return maxDd
}

// sharpeRatio computes mean(r)/stddev(r) * sqrt(252) where r[i] is the
// period return between consecutive balance-curve samples, per §6. Float64
// is used here deliberately: this is derived analytics that never feeds
// back into simulation state (§5).
func sharpeRatio(curve []BalancePoint) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Balance
		if prev.IsZero() {
			continue
		}
		r, _ := curve[i].Balance.Sub(prev).Div(prev).Float64()
		returns = append(returns, r)
	}
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return (mean / stddev) * math.Sqrt(252)
}

// winLossStats derives win_rate, profit_factor, avg_win and avg_loss from
// closed positions' realized PnL, per §6's explicit edge cases: infinite
// profit factor with no losses and at least one win, zero with no wins.
func winLossStats(realizedPnls []decimal.Decimal) (winRate, profitFactor float64, avgWin, avgLoss decimal.Decimal) {
	if len(realizedPnls) == 0 {
		return 0, 0, decimal.Zero, decimal.Zero
	}

	var wins, losses []decimal.Decimal
	for _, pnl := range realizedPnls {
		if pnl.IsPositive() {
			wins = append(wins, pnl)
		} else if pnl.IsNegative() {
			losses = append(losses, pnl)
		}
	}

	winRate = float64(len(wins)) / float64(len(realizedPnls))

	sumWins := decimal.Zero
	for _, w := range wins {
		sumWins = sumWins.Add(w)
	}
	sumLosses := decimal.Zero
	for _, l := range losses {
		sumLosses = sumLosses.Add(l)
	}

	switch {
	case len(losses) == 0 && len(wins) > 0:
		profitFactor = math.Inf(1)
	case len(wins) == 0:
		profitFactor = 0
	default:
		profitFactor, _ = sumWins.Div(sumLosses.Abs()).Float64()
	}

	if len(wins) > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(len(wins))))
	}
	if len(losses) > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(len(losses))))
	}
	return winRate, profitFactor, avgWin, avgLoss
}
