// Command curvecalc bootstraps curves from a YAML market file and values a
// deposit or loan against them: projected cashflows, present value and DV01.
package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/meenmo/curvelib/config"
	"github.com/meenmo/curvelib/daycount"
	"github.com/meenmo/curvelib/risk"
	"github.com/meenmo/curvelib/schedule"
	"github.com/meenmo/curvelib/tenor"
	"github.com/meenmo/curvelib/valuation"
)

func main() {
	var (
		marketPath = flag.String("market", "market.yaml", "curve market file")
		notional   = flag.Float64("notional", 1_000_000, "instrument notional")
		index      = flag.String("index", "", "reference rate, empty for fixed")
		fixedRate  = flag.Float64("rate", 0, "fixed coupon when -index is empty")
		spread     = flag.Float64("spread", 0, "spread over the reference rate")
		maturity   = flag.String("maturity", "1Y", "instrument maturity tenor")
		freq       = flag.Int("freq", 3, "coupon frequency in months")
		dcName     = flag.String("daycount", "ACT/360", "accrual day count")
		verbose    = flag.Bool("v", false, "log each projected cashflow")
	)
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	mkt, err := config.Load(*marketPath)
	if err != nil {
		log.WithError(err).Fatal("load market file")
	}

	set, err := mkt.BuildSet()
	if err != nil {
		log.WithError(err).Fatal("bootstrap curves")
	}
	asOf := set.Discount().AsOf()
	log.WithFields(log.Fields{
		"as_of":    asOf.Format("2006-01-02"),
		"currency": set.Discount().Currency(),
		"forwards": set.ForwardKeys(),
	}).Info("curve set ready")

	dc, err := daycount.Parse(*dcName)
	if err != nil {
		log.WithError(err).Fatal("parse day count")
	}
	years, err := tenor.ToYears(*maturity)
	if err != nil {
		log.WithError(err).Fatal("parse maturity")
	}
	end := asOf.AddDate(0, int(years*12+0.5), 0)
	periods, err := schedule.Generate(asOf, end, schedule.Frequency(*freq))
	if err != nil {
		log.WithError(err).Fatal("generate schedule")
	}

	instr := valuation.Deposit{Terms: valuation.Terms{
		Principal:  *notional,
		Rate:       *fixedRate,
		Index:      *index,
		RateSpread: *spread,
		DayCount:   dc,
		Periods:    periods,
	}}

	cashflows, err := valuation.ProjectCashflows(instr, set, asOf)
	if err != nil {
		log.WithError(err).Fatal("project cashflows")
	}
	result, err := valuation.PresentValue(cashflows, set, asOf)
	if err != nil {
		log.WithError(err).Fatal("value instrument")
	}
	if *verbose {
		for _, cf := range cashflows {
			log.WithFields(log.Fields{
				"pay":    cf.PayDate.Format("2006-01-02"),
				"rate":   cf.Rate,
				"amount": cf.Amount,
			}).Info("cashflow")
		}
	}
	log.WithFields(log.Fields{
		"pv":             result.TotalPV,
		"clean":          result.CleanPrice,
		"accrued":        result.AccruedInterest,
		"effective_rate": result.EffectiveRate,
	}).Info("valuation")

	dv01, err := risk.DV01(instr, set, asOf, risk.DV01Options{})
	if err != nil {
		log.WithError(err).Fatal("compute dv01")
	}
	log.WithFields(log.Fields{
		"total":       dv01.Total,
		"discounting": dv01.Discounting,
		"forwarding":  dv01.Forwarding,
		"cross":       dv01.CrossTerm,
	}).Info("dv01")
}
