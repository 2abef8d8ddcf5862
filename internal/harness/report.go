package harness

import (
	"bytes"
	"fmt"
	"h3-perf/internal/bencherr"
	"h3-perf/internal/model"
	"io"
	"time"
)

// StrategyReport：单一策略的总计与分辨率明细
type StrategyReport struct {
	Strategy     model.Strategy
	Total        time.Duration
	ByResolution [model.Resolutions]time.Duration
}

// Report：按 model.Strategies 顺序排列
type Report struct {
	Strategies []StrategyReport
}

// For：按策略取报告
func (r Report) For(s model.Strategy) (StrategyReport, bool) {
	for _, sr := range r.Strategies {
		if sr.Strategy == s {
			return sr, true
		}
	}
	return StrategyReport{}, false
}

// Summarize：把桶归约为报告；缺少任一预期槽位返回 AggregationError
func Summarize(b *Bucket) (Report, error) {
	if b == nil {
		return Report{}, bencherr.New(bencherr.KindAggregation, "", "nil bucket")
	}
	var rep Report
	for _, s := range model.Strategies {
		sr := StrategyReport{Strategy: s}
		total, ok := b.Get(s, TotalSlot)
		if !ok {
			return Report{}, bencherr.New(bencherr.KindAggregation, string(s), "missing total slot")
		}
		sr.Total = total
		for res := 0; res < model.Resolutions; res++ {
			d, ok := b.Get(s, Slot(res))
			if !ok {
				return Report{}, bencherr.New(bencherr.KindAggregation, string(s), fmt.Sprintf("missing resolution %d slot", res))
			}
			sr.ByResolution[res] = d
		}
		rep.Strategies = append(rep.Strategies, sr)
	}
	return rep, nil
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}

var labels = map[model.Strategy]string{
	model.CellLookup:     "H3",
	model.DistanceLookup: "Postgis",
}

// WriteTo：控制台文本格式，先总计后逐分辨率
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, sr := range r.Strategies {
		fmt.Fprintf(&buf, "%s execution: %s\n", labels[sr.Strategy], clock(sr.Total))
	}
	buf.WriteString("\nTotal\n")
	for _, sr := range r.Strategies {
		fmt.Fprintf(&buf, "%-9s%s\n", labels[sr.Strategy]+":", ms(sr.Total))
	}
	for res := 0; res < model.Resolutions; res++ {
		fmt.Fprintf(&buf, "\nResolution %d\n", res)
		for _, sr := range r.Strategies {
			fmt.Fprintf(&buf, "%-9s%s\n", labels[sr.Strategy]+":", ms(sr.ByResolution[res]))
		}
	}
	return buf.WriteTo(w)
}
