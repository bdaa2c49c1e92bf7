package backtest

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Results is the raw outcome of one engine run.
type Results struct {
	Symbol         string
	Timeframe      string
	Bars           int
	SignalsEmitted int
	InitialBalance float64
	FinalBalance   float64
	Trades         []Trade

	stats *Statistics
}

type Statistics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64

	TotalPnL        float64
	TotalPnLPercent float64
	GrossProfit     float64
	GrossLoss       float64
	ProfitFactor    float64

	AvgWin        float64
	AvgLoss       float64
	ExpectedValue float64

	MaxDrawdown        float64
	MaxDrawdownPercent float64

	AvgTradeDuration time.Duration
}

// Calculate derives the summary statistics, cached after the first call.
func (r *Results) Calculate() *Statistics {
	if r.stats != nil {
		return r.stats
	}

	stats := &Statistics{TotalTrades: len(r.Trades)}
	if len(r.Trades) == 0 {
		r.stats = stats
		return stats
	}

	var totalWin, totalLoss float64
	var totalDuration time.Duration
	peak := r.InitialBalance
	var maxDD float64
	runningBalance := r.InitialBalance

	for _, trade := range r.Trades {
		if trade.PnL > 0 {
			stats.WinningTrades++
			totalWin += trade.PnL
		} else if trade.PnL < 0 {
			stats.LosingTrades++
			totalLoss += trade.PnL // already negative
		}

		runningBalance += trade.PnL
		if runningBalance > peak {
			peak = runningBalance
		}
		if dd := peak - runningBalance; dd > maxDD {
			maxDD = dd
		}

		totalDuration += trade.ExitTime.Sub(trade.EntryTime)
	}

	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100

	stats.GrossProfit = totalWin
	stats.GrossLoss = totalLoss
	stats.TotalPnL = r.FinalBalance - r.InitialBalance
	if r.InitialBalance > 0 {
		stats.TotalPnLPercent = stats.TotalPnL / r.InitialBalance * 100
	}

	if totalLoss != 0 {
		stats.ProfitFactor = totalWin / -totalLoss
	}

	if stats.WinningTrades > 0 {
		stats.AvgWin = totalWin / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = totalLoss / float64(stats.LosingTrades)
	}
	stats.ExpectedValue = stats.TotalPnL / float64(stats.TotalTrades)

	stats.MaxDrawdown = maxDD
	if peak > 0 {
		stats.MaxDrawdownPercent = maxDD / peak * 100
	}

	stats.AvgTradeDuration = totalDuration / time.Duration(stats.TotalTrades)

	r.stats = stats
	return stats
}

// Print writes the summary table to stdout.
func (r *Results) Print() {
	r.Fprint(os.Stdout)
}

// Fprint writes the summary table to w.
func (r *Results) Fprint(w io.Writer) {
	s := r.Calculate()

	fmt.Fprintf(w, "\n=== Backtest %s %s ===\n", r.Symbol, r.Timeframe)
	fmt.Fprintf(w, "Bars:             %d\n", r.Bars)
	fmt.Fprintf(w, "Signals Emitted:  %d\n", r.SignalsEmitted)
	fmt.Fprintf(w, "Total Trades:     %d\n", s.TotalTrades)
	fmt.Fprintf(w, "Winning Trades:   %d (%.2f%%)\n", s.WinningTrades, s.WinRate)
	fmt.Fprintf(w, "Losing Trades:    %d\n\n", s.LosingTrades)

	fmt.Fprintf(w, "Total P&L:        %.2f (%.2f%%)\n", s.TotalPnL, s.TotalPnLPercent)
	fmt.Fprintf(w, "Gross Profit:     %.2f\n", s.GrossProfit)
	fmt.Fprintf(w, "Gross Loss:       %.2f\n", s.GrossLoss)
	fmt.Fprintf(w, "Profit Factor:    %.2f\n\n", s.ProfitFactor)

	fmt.Fprintf(w, "Avg Win:          %.2f\n", s.AvgWin)
	fmt.Fprintf(w, "Avg Loss:         %.2f\n", s.AvgLoss)
	fmt.Fprintf(w, "Expected Value:   %.2f per trade\n\n", s.ExpectedValue)

	fmt.Fprintf(w, "Max Drawdown:     %.2f (%.2f%%)\n", s.MaxDrawdown, s.MaxDrawdownPercent)
	fmt.Fprintf(w, "Avg Duration:     %s\n", s.AvgTradeDuration.Round(time.Minute))
}

// PrintTrades writes the individual trade list to stdout.
func (r *Results) PrintTrades() {
	fmt.Println("\n=== Trade List ===")
	for i, trade := range r.Trades {
		fmt.Printf("#%d | %s | %s | Entry: %.5f | Exit: %.5f | P&L: %.2f | %s | %s\n",
			i+1,
			trade.Direction,
			trade.Kind,
			trade.EntryPrice,
			trade.ExitPrice,
			trade.PnL,
			trade.ExitReason,
			trade.EntryTime.Format("2006-01-02 15:04"),
		)
	}
}
