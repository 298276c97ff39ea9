package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ChartVersion identifies the dosage chart revision embedded as defaults.
// Manual dosage overrides reference the version they were read from.
const ChartVersion = "MAXTT-CHART-2025.2"

// ClassChart holds per-vehicle-class dosage parameters. These are frozen at
// process start; a new chart revision requires a restart.
type ClassChart struct {
	DosageConstant    float64 `mapstructure:"dosageConstant"`
	BufferFraction    float64 `mapstructure:"bufferFraction"`
	DefaultTyreCount  int     `mapstructure:"defaultTyreCount"`
	AllowedTyreCounts []int   `mapstructure:"allowedTyreCounts"`
	WidthMinMm        float64 `mapstructure:"widthMinMm"`
	WidthMaxMm        float64 `mapstructure:"widthMaxMm"`
	AspectMinPct      float64 `mapstructure:"aspectMinPct"`
	AspectMaxPct      float64 `mapstructure:"aspectMaxPct"`
	RimMinIn          float64 `mapstructure:"rimMinIn"`
	RimMaxIn          float64 `mapstructure:"rimMaxIn"`
	MinTreadMm        float64 `mapstructure:"minTreadMm"`
	OutlierYellowMl   int     `mapstructure:"outlierYellowMl"`
	OutlierRedMl      int     `mapstructure:"outlierRedMl"`
}

// PricingPolicy is the franchise-wide price book. Unlike the class chart it
// may be edited on disk while the process runs.
type PricingPolicy struct {
	PricePerMlINR  float64 `mapstructure:"pricePerMlInr"`
	GSTPercent     float64 `mapstructure:"gstPercent"`
	DiscountCapPct float64 `mapstructure:"discountCapPct"`
	HSNCode        string  `mapstructure:"hsnCode"`
}

type ChartConfig struct {
	Version string                `mapstructure:"version"`
	Classes map[string]ClassChart `mapstructure:"classes"`
	Pricing PricingPolicy         `mapstructure:"pricing"`
}

func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Version: ChartVersion,
		Classes: map[string]ClassChart{
			"two_wheeler": {
				DosageConstant: 2.6, BufferFraction: 0.03,
				DefaultTyreCount: 2, AllowedTyreCounts: []int{2},
				WidthMinMm: 60, WidthMaxMm: 240, AspectMinPct: 30, AspectMaxPct: 100, RimMinIn: 10, RimMaxIn: 21,
				MinTreadMm: 1.5, OutlierYellowMl: 300, OutlierRedMl: 400,
			},
			"three_wheeler": {
				DosageConstant: 2.2, BufferFraction: 0.03,
				DefaultTyreCount: 3, AllowedTyreCounts: []int{3},
				WidthMinMm: 90, WidthMaxMm: 200, AspectMinPct: 45, AspectMaxPct: 100, RimMinIn: 8, RimMaxIn: 16,
				MinTreadMm: 1.5, OutlierYellowMl: 350, OutlierRedMl: 450,
			},
			"four_wheeler": {
				DosageConstant: 2.56, BufferFraction: 0.08,
				DefaultTyreCount: 4, AllowedTyreCounts: []int{4},
				WidthMinMm: 125, WidthMaxMm: 355, AspectMinPct: 25, AspectMaxPct: 85, RimMinIn: 10, RimMaxIn: 24,
				MinTreadMm: 1.5, OutlierYellowMl: 600, OutlierRedMl: 800,
			},
			"six_wheeler": {
				DosageConstant: 3.0, BufferFraction: 0.05,
				DefaultTyreCount: 6, AllowedTyreCounts: []int{6},
				WidthMinMm: 175, WidthMaxMm: 425, AspectMinPct: 50, AspectMaxPct: 110, RimMinIn: 14, RimMaxIn: 24,
				MinTreadMm: 1.5, OutlierYellowMl: 900, OutlierRedMl: 1200,
			},
			"htv": {
				DosageConstant: 3.0, BufferFraction: 0.05,
				DefaultTyreCount: 8, AllowedTyreCounts: []int{8, 10, 12, 14, 16, 18},
				WidthMinMm: 205, WidthMaxMm: 455, AspectMinPct: 50, AspectMaxPct: 110, RimMinIn: 15, RimMaxIn: 25,
				MinTreadMm: 1.5, OutlierYellowMl: 1000, OutlierRedMl: 1400,
			},
		},
		Pricing: PricingPolicy{
			PricePerMlINR:  4.5,
			GSTPercent:     18,
			DiscountCapPct: 30,
			HSNCode:        "3403.19.00",
		},
	}
}

// ChartHolder exposes the frozen class chart and the current pricing policy.
// The pricing section follows edits to chart.yml; the class section does not.
type ChartHolder struct {
	chart   ChartConfig
	pricing atomic.Value // holds PricingPolicy
}

func NewChartHolder(cfg Config) (*ChartHolder, error) {
	v := viper.New()

	v.SetConfigName("chart")
	v.SetConfigType("yml")
	if cfg.ChartPath != "" {
		v.AddConfigPath(cfg.ChartPath)
	}
	v.AddConfigPath("/etc/maxtt")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MAXTT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultChartConfig()
	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fromFile = false
	}

	chart := defaults
	if fromFile {
		if err := v.Unmarshal(&chart); err != nil {
			return nil, err
		}
		fillChartDefaults(&chart, defaults)
	}

	holder := &ChartHolder{chart: chart}
	holder.pricing.Store(chart.Pricing)

	if fromFile {
		v.OnConfigChange(func(_ fsnotify.Event) {
			var next ChartConfig
			if err := v.Unmarshal(&next); err != nil {
				log.Printf("chart reload ignored: %v", err)
				return
			}
			fillChartDefaults(&next, defaults)
			// Class parameters stay frozen; only the price book follows the file.
			holder.pricing.Store(next.Pricing)
		})
		v.WatchConfig()
	}

	return holder, nil
}

// StaticChartHolder wraps an in-memory chart with no file watching. Tests
// and one-shot tools use it.
func StaticChartHolder(chart ChartConfig) *ChartHolder {
	holder := &ChartHolder{chart: chart}
	holder.pricing.Store(chart.Pricing)
	return holder
}

func (h *ChartHolder) Chart() ChartConfig {
	return h.chart
}

func (h *ChartHolder) Pricing() PricingPolicy {
	return h.pricing.Load().(PricingPolicy)
}

func fillChartDefaults(chart *ChartConfig, defaults ChartConfig) {
	if chart.Version == "" {
		chart.Version = defaults.Version
	}
	if len(chart.Classes) == 0 {
		chart.Classes = defaults.Classes
	} else {
		for key, def := range defaults.Classes {
			if _, ok := chart.Classes[key]; !ok {
				chart.Classes[key] = def
			}
		}
	}
	if chart.Pricing.PricePerMlINR == 0 {
		chart.Pricing.PricePerMlINR = defaults.Pricing.PricePerMlINR
	}
	if chart.Pricing.GSTPercent == 0 {
		chart.Pricing.GSTPercent = defaults.Pricing.GSTPercent
	}
	if chart.Pricing.DiscountCapPct == 0 {
		chart.Pricing.DiscountCapPct = defaults.Pricing.DiscountCapPct
	}
	if chart.Pricing.HSNCode == "" {
		chart.Pricing.HSNCode = defaults.Pricing.HSNCode
	}
}
