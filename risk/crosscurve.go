package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/valuation"
)

// Aggregation selects how bucketed deltas combine into a single risk number.
// Bucketed deltas alone mis-state risk for diversified books, so the
// correlation treatment is an explicit caller choice, not a guess.
type Aggregation string

const (
	// AggregationAdditive sums bucket deltas, i.e. assumes buckets move
	// together one for one.
	AggregationAdditive Aggregation = "additive"
	// AggregationQuadratic computes sqrt(d' C d) over the bucket delta
	// vector and the supplied correlation matrix, keeping the sign of the
	// additive total.
	AggregationQuadratic Aggregation = "quadratic"
)

// CrossCurveOptions configure the delta matrix computation.
type CrossCurveOptions struct {
	BumpSize    float64
	Aggregation Aggregation
	// Correlation orders rows and columns as CrossCurveDeltaResult.CurveBuckets
	// (sorted curve key, then node order). Required for quadratic
	// aggregation; it is an external input, never estimated here.
	Correlation *mat.SymDense
}

// CrossCurveDeltaResult is the bucketed forward-curve delta matrix.
type CrossCurveDeltaResult struct {
	BumpSize float64

	// CurveBuckets lists the bumped buckets as "curveKey/nodeTenor", sorted
	// by curve key then node order. Output is deterministic regardless of
	// which bump finishes first.
	CurveBuckets []string
	// BucketTotals aligns with CurveBuckets.
	BucketTotals []float64

	// Deltas is keyed by cashflow tenor bucket, then curve bucket.
	Deltas map[string]map[string]float64

	Total               float64
	CorrelationAdjusted float64
}

type bumpJob struct {
	curveKey string
	node     int
	bucket   string
}

// CrossCurveDelta bumps every forward-curve node individually, revalues, and
// assembles the per-cashflow PV deltas into a matrix. The N bumps are
// independent of one another and run concurrently.
func CrossCurveDelta(instr valuation.Instrument, set *curve.Set, asOf time.Time, opts CrossCurveOptions) (CrossCurveDeltaResult, error) {
	bump := opts.BumpSize
	if bump == 0 {
		bump = DefaultBumpSize
	}
	agg := opts.Aggregation
	if agg == "" {
		agg = AggregationAdditive
	}

	baseFlows, err := valuation.ProjectCashflows(instr, set, asOf)
	if err != nil {
		return CrossCurveDeltaResult{}, fmt.Errorf("risk: base projection: %w", err)
	}
	basePVs, err := cashflowPVs(baseFlows, set, asOf)
	if err != nil {
		return CrossCurveDeltaResult{}, err
	}

	var jobs []bumpJob
	for _, key := range set.ForwardKeys() {
		c, _ := set.ForwardCurve(key)
		for i, node := range c.Nodes() {
			jobs = append(jobs, bumpJob{curveKey: key, node: i, bucket: key + "/" + node.Tenor})
		}
	}

	res := CrossCurveDeltaResult{
		BumpSize:     bump,
		CurveBuckets: make([]string, len(jobs)),
		BucketTotals: make([]float64, len(jobs)),
		Deltas:       make(map[string]map[string]float64),
	}
	for i, j := range jobs {
		res.CurveBuckets[i] = j.bucket
	}

	type bumpOut struct {
		perCashflow []float64
		total       float64
		err         error
	}
	outs := make([]bumpOut, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job bumpJob) {
			defer wg.Done()
			bumpedSet := bumpForwardNode(job.curveKey, job.node, -bump)(set)
			flows, err := valuation.ProjectCashflows(instr, bumpedSet, asOf)
			if err != nil {
				outs[i] = bumpOut{err: err}
				return
			}
			pvs, err := cashflowPVs(flows, bumpedSet, asOf)
			if err != nil {
				outs[i] = bumpOut{err: err}
				return
			}
			if len(pvs) != len(basePVs) {
				outs[i] = bumpOut{err: fmt.Errorf("risk: cashflow count changed under bump %s", job.bucket)}
				return
			}
			o := bumpOut{perCashflow: make([]float64, len(pvs))}
			for k := range pvs {
				d := pvs[k] - basePVs[k]
				o.perCashflow[k] = d
				o.total += d
			}
			outs[i] = o
		}(i, job)
	}
	wg.Wait()

	for i, o := range outs {
		if o.err != nil {
			return CrossCurveDeltaResult{}, fmt.Errorf("risk: bump %s: %w", jobs[i].bucket, o.err)
		}
	}

	// Assemble in job order: stable output independent of scheduling.
	for i, job := range jobs {
		fwd, _ := set.ForwardCurve(job.curveKey)
		nodes := fwd.Nodes()
		res.BucketTotals[i] = outs[i].total
		res.Total += outs[i].total
		for k, d := range outs[i].perCashflow {
			if d == 0 {
				continue
			}
			cfBucket := cashflowBucket(baseFlows[k], fwd, nodes)
			row, ok := res.Deltas[cfBucket]
			if !ok {
				row = make(map[string]float64)
				res.Deltas[cfBucket] = row
			}
			row[job.bucket] += d
		}
	}

	adjusted, err := aggregate(res.BucketTotals, agg, opts.Correlation)
	if err != nil {
		return CrossCurveDeltaResult{}, err
	}
	res.CorrelationAdjusted = adjusted
	return res, nil
}

// cashflowBucket labels a cashflow by the forward-curve node nearest its
// payment tenor.
func cashflowBucket(cf valuation.ProjectedCashflow, fwd *curve.RateCurve, nodes []curve.Node) string {
	t := fwd.YearsTo(cf.PayDate)
	best := nodes[0]
	for _, n := range nodes[1:] {
		if math.Abs(n.Years-t) < math.Abs(best.Years-t) {
			best = n
		}
	}
	return best.Tenor
}

func cashflowPVs(flows []valuation.ProjectedCashflow, set *curve.Set, asOf time.Time) ([]float64, error) {
	disc := set.Discount()
	dfAsOf, err := disc.DiscountFactor(asOf)
	if err != nil {
		return nil, err
	}
	pvs := make([]float64, len(flows))
	for i, cf := range flows {
		if !cf.PayDate.After(asOf) {
			continue
		}
		df, err := disc.DiscountFactor(cf.PayDate)
		if err != nil {
			return nil, err
		}
		pvs[i] = cf.Amount * df / dfAsOf
	}
	return pvs, nil
}

func aggregate(deltas []float64, agg Aggregation, corr *mat.SymDense) (float64, error) {
	sum := 0.0
	for _, d := range deltas {
		sum += d
	}
	switch agg {
	case AggregationAdditive:
		return sum, nil
	case AggregationQuadratic:
		if corr == nil {
			return 0, fmt.Errorf("risk: quadratic aggregation requires a correlation matrix")
		}
		n := len(deltas)
		if r, _ := corr.Dims(); r != n {
			return 0, fmt.Errorf("risk: correlation matrix is %dx%d, want %dx%d", r, r, n, n)
		}
		d := mat.NewVecDense(n, append([]float64(nil), deltas...))
		var cd mat.VecDense
		cd.MulVec(corr, d)
		quad := mat.Dot(d, &cd)
		if quad < 0 {
			return 0, fmt.Errorf("risk: correlation matrix not positive semi-definite (d'Cd=%.6g)", quad)
		}
		return math.Copysign(math.Sqrt(quad), sum), nil
	default:
		return 0, fmt.Errorf("risk: unknown aggregation %q", agg)
	}
}
