package curve

// InstrumentKind identifies a calibration instrument type.
type InstrumentKind string

const (
	KindDeposit InstrumentKind = "deposit"
	KindFRA     InstrumentKind = "fra"
	KindFuture  InstrumentKind = "future"
	KindSwap    InstrumentKind = "swap"
)

// Instrument is one calibration point: an observed market rate at a maturity
// tenor. Weight scales the instrument's contribution to the calibration
// objective; weight 0 excludes it from fitting but keeps it for diagnostics.
type Instrument struct {
	Kind   InstrumentKind
	Tenor  string
	Rate   float64
	Weight float64
}

// QualityMetrics describe how well a fitted curve reprices its calibration
// instruments. The bootstrapper always computes them and never rejects on
// them; accept/reject is the caller's call.
type QualityMetrics struct {
	// MaxError and AvgError are absolute repricing errors in rate terms.
	MaxError float64
	AvgError float64
	// Smoothness is the root-mean-square second difference of adjacent node
	// rates. Lower is smoother.
	Smoothness float64
}
