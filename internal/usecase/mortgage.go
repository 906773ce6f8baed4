package usecase

import (
	"math"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

const (
	defaultRate30Year = 6.75
	defaultTermYears  = 30
	// closing costs assumed for break-even, as a share of the balance
	closingCostShare = 0.02
)

// MonthlyPayment returns the amortized payment L*r*(1+r)^n/((1+r)^n-1).
func MonthlyPayment(principal, annualRatePct float64, years int) float64 {
	n := float64(years * 12)
	if principal <= 0 || n <= 0 {
		return 0
	}
	r := annualRatePct / 100 / 12
	if r == 0 {
		return round2(principal / n)
	}
	f := math.Pow(1+r, n)
	return round2(principal * r * f / (f - 1))
}

// estimateRefinance fills the computed refinance fields. newRate <= 0 leaves
// the projection empty.
func estimateRefinance(rd *entity.RefinanceData, newRate float64) {
	if rd.CurrentMonthlyPayment <= 0 {
		rd.CurrentMonthlyPayment = MonthlyPayment(rd.CurrentBalance, rd.CurrentRate, defaultTermYears)
	}
	if newRate <= 0 {
		return
	}
	rd.NewRate = newRate
	rd.NewMonthlyPayment = MonthlyPayment(rd.CurrentBalance, newRate, defaultTermYears)

	monthly := rd.CurrentMonthlyPayment - rd.NewMonthlyPayment
	if rd.EstimatedSavings <= 0 && monthly > 0 {
		rd.EstimatedSavings = round2(monthly)
	}
	if monthly > 0 {
		rd.BreakEvenMonths = int(math.Ceil(rd.CurrentBalance * closingCostShare / monthly))
	}
}

// thirtyYearFixed picks the 30-year fixed rate out of a rate table.
func thirtyYearFixed(rates []entity.Rate) (float64, bool) {
	for _, r := range rates {
		if r.Term == 30 && r.Type == "fixed" {
			return r.Rate, true
		}
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
