// Package analyzer composes the wire, histogram, clockfix, hurst, and usage
// packages into the single public Analyze operation invoked once per
// incoming report batch.
package analyzer

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/tix-net/condenser/internal/clockfix"
	"github.com/tix-net/condenser/internal/histogram"
	"github.com/tix-net/condenser/internal/hurst"
	"github.com/tix-net/condenser/internal/usage"
	"github.com/tix-net/condenser/internal/wire"
)

// LongPacketHook is a documented, intentionally unused extension point:
// long packets are retained in the data model (see wire.Long) but are not
// currently analyzed. A future version may route them here.
var LongPacketHook func(observations []wire.Observation)

// Direction holds the usage, quality, and Hurst results for one traffic
// direction (upstream or downstream).
type Direction struct {
	Usage   float64
	Quality float64
	Hurst   hurst.Value
}

// AnalysisResult is the output of one Analyze call.
type AnalysisResult struct {
	Timestamp  int64
	Upstream   Direction
	Downstream Direction
}

// RTT projects an observation's round-trip time.
func RTT(o wire.Observation) float64 {
	return float64(o.FinalTimestamp - o.InitialTimestamp)
}

// UpstreamTime returns the upstream one-way time projection bound to phi.
func UpstreamTime(phi clockfix.PhiFunc) histogram.Projection {
	return func(o wire.Observation) float64 {
		return float64(o.ReceptionTimestamp-o.InitialTimestamp) - phi(o.DayTimestamp)
	}
}

// DownstreamTime returns the downstream one-way time projection bound to phi.
func DownstreamTime(phi clockfix.PhiFunc) histogram.Projection {
	return func(o wire.Observation) float64 {
		return float64(o.FinalTimestamp-o.SentTimestamp) + phi(o.DayTimestamp)
	}
}

// Analyze runs the full pipeline over one batch of observations belonging
// to a single source IP, returning a pure function of its inputs regardless
// of the internal worker pool's scheduling.
func Analyze(observations []wire.Observation) (AnalysisResult, error) {
	return AnalyzeWithLogger(observations, zerolog.Nop())
}

// AnalyzeWithLogger is Analyze with an explicit logger for the internal
// worker pool's panic recovery.
func AnalyzeWithLogger(observations []wire.Observation, logger zerolog.Logger) (AnalysisResult, error) {
	short := filterShort(observations)

	tauHist, err := histogram.Build(short, RTT)
	if err != nil {
		return AnalysisResult{}, tagged(InsufficientData, err)
	}
	tau := tauHist.Mode()

	phi, err := clockfix.Fit(short, tau)
	if err != nil {
		return AnalysisResult{}, tagged(InsufficientData, err)
	}

	meaningful, err := usage.Meaningful(short)
	if err != nil {
		return AnalysisResult{}, tagged(InsufficientData, err)
	}

	upProj := UpstreamTime(phi)
	downProj := DownstreamTime(phi)

	upSeries := project(meaningful, upProj)
	downSeries := project(meaningful, downProj)
	upTrunc := hurst.Truncate(upSeries)
	downTrunc := hurst.Truncate(downSeries)

	pool := NewPool(2*runtime.GOMAXPROCS(0), logger)
	pool.Start(context.Background())
	defer pool.Stop()

	var (
		upUsage, downUsage        float64
		upUsageErr, downUsageErr  error
		upRS, upWavelet           float64
		downRS, downWavelet       float64
		upRSErr, upWaveletErr     error
		downRSErr, downWaveletErr error
	)

	// Each task signals done via its own defer, so a panic recovered by the
	// pool (see Pool.run) still unblocks the wait below instead of
	// deadlocking it.
	done := make(chan struct{}, 6)
	pool.Submit(func() { defer func() { done <- struct{}{} }(); upUsage, upUsageErr = usage.Usage(meaningful, upProj) })
	pool.Submit(func() { defer func() { done <- struct{}{} }(); downUsage, downUsageErr = usage.Usage(meaningful, downProj) })
	pool.Submit(func() { defer func() { done <- struct{}{} }(); upRS, upRSErr = hurst.RS(upTrunc) })
	pool.Submit(func() { defer func() { done <- struct{}{} }(); upWavelet, upWaveletErr = hurst.Wavelet(upTrunc) })
	pool.Submit(func() { defer func() { done <- struct{}{} }(); downRS, downRSErr = hurst.RS(downTrunc) })
	pool.Submit(func() { defer func() { done <- struct{}{} }(); downWavelet, downWaveletErr = hurst.Wavelet(downTrunc) })
	for i := 0; i < 6; i++ {
		<-done
	}

	if err := firstError(upUsageErr, downUsageErr); err != nil {
		return AnalysisResult{}, tagged(InsufficientData, err)
	}
	if err := firstError(upRSErr, upWaveletErr, downRSErr, downWaveletErr); err != nil {
		return AnalysisResult{}, tagged(NumericalDegeneracy, err)
	}

	upEffective := hurst.Effective(upRS, upWavelet)
	downEffective := hurst.Effective(downRS, downWavelet)

	upQuality, err := usage.Quality(meaningful, upProj, upEffective)
	if err != nil {
		return AnalysisResult{}, tagged(InsufficientData, err)
	}
	downQuality, err := usage.Quality(meaningful, downProj, downEffective)
	if err != nil {
		return AnalysisResult{}, tagged(InsufficientData, err)
	}

	return AnalysisResult{
		Timestamp: maxDayTimestamp(meaningful),
		Upstream: Direction{
			Usage:   upUsage,
			Quality: upQuality,
			Hurst:   hurst.Value{RS: upRS, Wavelet: upWavelet},
		},
		Downstream: Direction{
			Usage:   downUsage,
			Quality: downQuality,
			Hurst:   hurst.Value{RS: downRS, Wavelet: downWavelet},
		},
	}, nil
}

func filterShort(observations []wire.Observation) []wire.Observation {
	short := make([]wire.Observation, 0, len(observations))
	for _, o := range observations {
		if o.TypeIdentifier == wire.Short {
			short = append(short, o)
		}
	}
	return short
}

func project(observations []wire.Observation, proj histogram.Projection) []float64 {
	series := make([]float64, len(observations))
	for i, o := range observations {
		series[i] = proj(o)
	}
	return series
}

func maxDayTimestamp(observations []wire.Observation) int64 {
	var max int64
	for _, o := range observations {
		if o.DayTimestamp > max {
			max = o.DayTimestamp
		}
	}
	return max
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
