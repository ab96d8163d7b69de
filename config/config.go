// Package config loads curve market files: quotes and bootstrap settings in
// one YAML document, resolved into a ready-to-use curve set.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/curvelib/bootstrap"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/daycount"
)

// File is a curve market file.
type File struct {
	AsOf     string         `yaml:"as_of"`
	Currency string         `yaml:"currency"`
	Settings SettingsConfig `yaml:"bootstrap"`
	Discount CurveConfig    `yaml:"discount"`
	Forwards []CurveConfig  `yaml:"forwards"`
}

// SettingsConfig maps onto bootstrap.Settings.
type SettingsConfig struct {
	Method              string  `yaml:"method"`
	Interpolation       string  `yaml:"interpolation"`
	Extrapolation       string  `yaml:"extrapolation"`
	DayCount            string  `yaml:"day_count"`
	Tolerance           float64 `yaml:"tolerance"`
	MaxIterations       int     `yaml:"max_iterations"`
	SmoothnessPenalty   float64 `yaml:"smoothness_penalty"`
	MonotonicityPenalty float64 `yaml:"monotonicity_penalty"`
}

// CurveConfig describes one curve's quotes.
type CurveConfig struct {
	Name        string             `yaml:"name"`
	Index       string             `yaml:"index"`
	IndexTenor  string             `yaml:"index_tenor"`
	Instruments []InstrumentConfig `yaml:"instruments"`
}

// InstrumentConfig is one quote row. Weight defaults to 1 when omitted.
type InstrumentConfig struct {
	Kind   string   `yaml:"kind"`
	Tenor  string   `yaml:"tenor"`
	Rate   float64  `yaml:"rate"`
	Weight *float64 `yaml:"weight"`
}

// Load reads and validates a market file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if f.AsOf == "" {
		return nil, fmt.Errorf("config: %s: as_of is required", path)
	}
	if _, err := time.Parse("2006-01-02", f.AsOf); err != nil {
		return nil, fmt.Errorf("config: %s: bad as_of: %w", path, err)
	}
	if f.Currency == "" {
		return nil, fmt.Errorf("config: %s: currency is required", path)
	}
	if len(f.Discount.Instruments) == 0 {
		return nil, fmt.Errorf("config: %s: discount curve has no instruments", path)
	}
	if f.Settings.DayCount != "" {
		if _, err := daycount.Parse(f.Settings.DayCount); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	return &f, nil
}

func (f *File) asOf() time.Time {
	t, _ := time.Parse("2006-01-02", f.AsOf)
	return t
}

func (f *File) settings(cc CurveConfig, typ curve.Type) bootstrap.Settings {
	dc := daycount.Convention("")
	if f.Settings.DayCount != "" {
		dc, _ = daycount.Parse(f.Settings.DayCount)
	}
	return bootstrap.Settings{
		Name:          cc.Name,
		Type:          typ,
		AsOf:          f.asOf(),
		Currency:      f.Currency,
		Index:         cc.Index,
		IndexTenor:    cc.IndexTenor,
		Method:        bootstrap.Method(f.Settings.Method),
		Interpolation: curve.Interpolation(f.Settings.Interpolation),
		Extrapolation: curve.Extrapolation(f.Settings.Extrapolation),
		DayCount:      dc,
		Tolerance:     f.Settings.Tolerance,
		MaxIterations: f.Settings.MaxIterations,
		Penalties: bootstrap.Penalties{
			Smoothness:   f.Settings.SmoothnessPenalty,
			Monotonicity: f.Settings.MonotonicityPenalty,
		},
	}
}

func instruments(rows []InstrumentConfig) []curve.Instrument {
	out := make([]curve.Instrument, len(rows))
	for i, r := range rows {
		w := 1.0
		if r.Weight != nil {
			w = *r.Weight
		}
		out[i] = curve.Instrument{
			Kind:   curve.InstrumentKind(r.Kind),
			Tenor:  r.Tenor,
			Rate:   r.Rate,
			Weight: w,
		}
	}
	return out
}

// BuildSet bootstraps every configured curve and groups them.
func (f *File) BuildSet() (*curve.Set, error) {
	discount, err := bootstrap.Bootstrap(instruments(f.Discount.Instruments), f.settings(f.Discount, curve.TypeDiscount))
	if err != nil {
		return nil, fmt.Errorf("config: discount curve %s: %w", f.Discount.Name, err)
	}

	forwards := make(map[string]*curve.RateCurve, len(f.Forwards))
	for _, fc := range f.Forwards {
		key := fc.Index
		if key == "" {
			return nil, fmt.Errorf("config: forward curve %s has no index", fc.Name)
		}
		c, err := bootstrap.Bootstrap(instruments(fc.Instruments), f.settings(fc, curve.TypeForward))
		if err != nil {
			return nil, fmt.Errorf("config: forward curve %s: %w", fc.Name, err)
		}
		forwards[key] = c
	}

	return curve.NewSet(discount, forwards, nil)
}
