package indicators

import (
	"fmt"
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"StratCore/internal/domain/models"
	domrepo "StratCore/internal/domain/repository"
	"StratCore/internal/pipeline"
)

// Indicator periods. These are fixed registry-wide: the tunable surface
// of the system is the condition enable flags, not the periods.
const (
	rsiFast    = 3
	rsiStd     = 14
	rsiSlow    = 20
	mfiPeriod  = 14
	adxPeriod  = 14
	bbPeriod   = 20
	bbStdDev   = 2.0
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	willrPer   = 14
	cciPeriod  = 20
	rocPeriod  = 9
	atrPeriod  = 14
	cmfPeriod  = 20
	stochPer   = 14
	stochFastK = 5
	stochFastD = 3
	volMeanPer = 20
	rangePer   = 48
	ewoFast    = 50
	ewoSlow    = 200
)

var emaPeriods = []int{12, 16, 26, 50, 100, 200}
var smaPeriods = []int{16, 30, 75, 200}

// Compute builds the indicator frame for one pair at one resolution from
// its own candle history only; cross-resolution context is attached later
// by the pipeline merge. Insufficient history never fails: affected cells
// are marked not-ready instead.
func Compute(pair string, tf domrepo.Timeframe, candles []models.Candle) (*pipeline.Frame, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("indicators: no candles for %s %s", pair, tf)
	}

	n := len(candles)
	times := make([]time.Time, n)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		times[i] = c.OpenTime
		opens[i] = c.Open
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	f, err := pipeline.NewFrame(pair, tf, times)
	if err != nil {
		return nil, err
	}

	set := func(name string, vals []float64) {
		// lengths always match by construction
		_ = f.SetColumn(name, vals)
	}

	set("open", opens)
	set("high", highs)
	set("low", lows)
	set("close", closes)
	set("volume", volumes)

	set("rsi_3", guarded(closes, rsiFast+1, func() []float64 { return mask(talib.Rsi(closes, rsiFast), rsiFast) }))
	set("rsi_14", guarded(closes, rsiStd+1, func() []float64 { return mask(talib.Rsi(closes, rsiStd), rsiStd) }))
	set("rsi_20", guarded(closes, rsiSlow+1, func() []float64 { return mask(talib.Rsi(closes, rsiSlow), rsiSlow) }))
	set("mfi_14", guarded(closes, mfiPeriod+1, func() []float64 {
		return mask(talib.Mfi(highs, lows, closes, volumes, mfiPeriod), mfiPeriod)
	}))
	set("adx_14", guarded(closes, 2*adxPeriod, func() []float64 {
		return mask(talib.Adx(highs, lows, closes, adxPeriod), 2*adxPeriod-1)
	}))

	for _, p := range emaPeriods {
		p := p
		set(fmt.Sprintf("ema_%d", p), guarded(closes, p, func() []float64 { return mask(talib.Ema(closes, p), p-1) }))
	}
	for _, p := range smaPeriods {
		p := p
		set(fmt.Sprintf("sma_%d", p), guarded(closes, p, func() []float64 { return mask(talib.Sma(closes, p), p-1) }))
	}

	if n >= bbPeriod {
		upper, middle, lower := talib.BBands(closes, bbPeriod, bbStdDev, bbStdDev, talib.SMA)
		upper, middle, lower = mask(upper, bbPeriod-1), mask(middle, bbPeriod-1), mask(lower, bbPeriod-1)
		set("bb_upper", upper)
		set("bb_mid", middle)
		set("bb_lower", lower)
		set("bb_width", bbWidth(upper, middle, lower))
		set("bb_pctb", bbPctB(upper, lower, closes))
	} else {
		for _, name := range []string{"bb_upper", "bb_mid", "bb_lower", "bb_width", "bb_pctb"} {
			set(name, notReady(n))
		}
	}

	if n >= macdSlow+macdSignal {
		macd, signal, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
		warm := macdSlow + macdSignal - 2
		set("macd", mask(macd, warm))
		set("macd_signal", mask(signal, warm))
		set("macd_hist", mask(hist, warm))
	} else {
		set("macd", notReady(n))
		set("macd_signal", notReady(n))
		set("macd_hist", notReady(n))
	}

	if n >= stochPer+stochFastK+stochFastD {
		k, d := talib.StochRsi(closes, stochPer, stochFastK, stochFastD, talib.SMA)
		warm := stochPer + stochFastK + stochFastD
		set("stochrsi_k", mask(k, warm))
		set("stochrsi_d", mask(d, warm))
	} else {
		set("stochrsi_k", notReady(n))
		set("stochrsi_d", notReady(n))
	}

	set("willr_14", guarded(closes, willrPer, func() []float64 { return mask(talib.WillR(highs, lows, closes, willrPer), willrPer-1) }))
	set("cci_20", guarded(closes, cciPeriod, func() []float64 { return mask(talib.Cci(highs, lows, closes, cciPeriod), cciPeriod-1) }))
	set("roc_9", guarded(closes, rocPeriod+1, func() []float64 { return mask(talib.Roc(closes, rocPeriod), rocPeriod) }))
	set("atr_14", guarded(closes, atrPeriod+1, func() []float64 { return mask(talib.Atr(highs, lows, closes, atrPeriod), atrPeriod) }))
	set("atr_pct", atrPct(f, closes))

	set("cmf_20", chaikinMoneyFlow(highs, lows, closes, volumes, cmfPeriod))
	set("ewo", elliotWaveOsc(closes))
	set("rel_volume", relativeVolume(volumes, volMeanPer))
	set("close_max_48", guarded(closes, rangePer, func() []float64 { return mask(talib.Max(closes, rangePer), rangePer-1) }))
	set("close_min_48", guarded(closes, rangePer, func() []float64 { return mask(talib.Min(closes, rangePer), rangePer-1) }))
	set("pct_change_1", pctChange(closes, 1))
	set("pct_change_6", pctChange(closes, 6))
	set("hl_pct", highLowPct(highs, lows, closes))

	return f, nil
}

// guarded runs the computation only when enough history exists, otherwise
// returns an all-not-ready column of the right length.
func guarded(ref []float64, minLen int, compute func() []float64) []float64 {
	if len(ref) < minLen {
		return notReady(len(ref))
	}
	return compute()
}

// mask replaces the first warm values with NaN. talib fills the warm-up
// region with zeros, which would otherwise satisfy threshold predicates.
func mask(vals []float64, warm int) []float64 {
	if warm > len(vals) {
		warm = len(vals)
	}
	for i := 0; i < warm; i++ {
		vals[i] = math.NaN()
	}
	return vals
}

func notReady(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func bbWidth(upper, middle, lower []float64) []float64 {
	out := make([]float64, len(upper))
	for i := range out {
		if math.IsNaN(upper[i]) || math.IsNaN(middle[i]) || middle[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (upper[i] - lower[i]) / middle[i]
	}
	return out
}

func bbPctB(upper, lower, closes []float64) []float64 {
	out := make([]float64, len(upper))
	for i := range out {
		span := upper[i] - lower[i]
		if math.IsNaN(upper[i]) || math.IsNaN(lower[i]) || span == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (closes[i] - lower[i]) / span
	}
	return out
}

func atrPct(f *pipeline.Frame, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		atr, ok := f.Value(i, "atr_14")
		if !ok || closes[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = atr / closes[i] * 100
	}
	return out
}

// chaikinMoneyFlow computes CMF over the period; talib carries no CMF so
// the rolling sums are done by hand.
func chaikinMoneyFlow(highs, lows, closes, volumes []float64, period int) []float64 {
	n := len(closes)
	out := notReady(n)
	if n < period {
		return out
	}
	mfv := make([]float64, n)
	for i := 0; i < n; i++ {
		span := highs[i] - lows[i]
		if span == 0 {
			mfv[i] = 0
			continue
		}
		mult := ((closes[i] - lows[i]) - (highs[i] - closes[i])) / span
		mfv[i] = mult * volumes[i]
	}
	var sumMFV, sumVol float64
	for i := 0; i < n; i++ {
		sumMFV += mfv[i]
		sumVol += volumes[i]
		if i >= period {
			sumMFV -= mfv[i-period]
			sumVol -= volumes[i-period]
		}
		if i >= period-1 && sumVol != 0 {
			out[i] = sumMFV / sumVol
		}
	}
	return out
}

// elliotWaveOsc is the EWO used for grind-mode context: the spread of two
// EMAs as a percentage of close.
func elliotWaveOsc(closes []float64) []float64 {
	n := len(closes)
	if n < ewoSlow {
		return notReady(n)
	}
	fast := talib.Ema(closes, ewoFast)
	slow := talib.Ema(closes, ewoSlow)
	out := make([]float64, n)
	for i := range out {
		if i < ewoSlow-1 || closes[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (fast[i] - slow[i]) / closes[i] * 100
	}
	return out
}

func relativeVolume(volumes []float64, period int) []float64 {
	n := len(volumes)
	if n < period {
		return notReady(n)
	}
	mean := talib.Sma(volumes, period)
	out := make([]float64, n)
	for i := range out {
		if i < period-1 || mean[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = volumes[i] / mean[i]
	}
	return out
}

func pctChange(closes []float64, lag int) []float64 {
	out := notReady(len(closes))
	for i := lag; i < len(closes); i++ {
		if closes[i-lag] == 0 {
			continue
		}
		out[i] = closes[i]/closes[i-lag] - 1
	}
	return out
}

func highLowPct(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		if closes[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (highs[i] - lows[i]) / closes[i]
	}
	return out
}
