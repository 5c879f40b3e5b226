package metrics

import (
	"errors"
	"math"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/jose-valero/soup-bot/internal/app/service"
)

// ProcessReader answers service.ProcessStats from the process collector of a
// registry. Platforms without procfs only get memory from the Go runtime.
type ProcessReader struct {
	g prometheus.Gatherer
}

func NewProcessReader(g prometheus.Gatherer) *ProcessReader {
	return &ProcessReader{g: g}
}

func (p *ProcessReader) Sample() (service.ProcessSample, error) {
	mfs, err := p.g.Gather()
	if err != nil {
		return service.ProcessSample{}, err
	}

	var s service.ProcessSample
	found := false
	for _, mf := range mfs {
		v, ok := firstValue(mf)
		if !ok {
			continue
		}
		switch mf.GetName() {
		case "process_cpu_seconds_total":
			s.CPU = time.Duration(v * float64(time.Second))
			found = true
		case "process_resident_memory_bytes":
			s.RSS = uint64(v)
			found = true
		case "process_start_time_seconds":
			sec, frac := math.Modf(v)
			s.Started = time.Unix(int64(sec), int64(frac*1e9))
		}
	}
	if s.RSS == 0 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		s.RSS = ms.Sys
	}
	if !found {
		return s, errors.New("process collector not available")
	}
	return s, nil
}

func firstValue(mf *dto.MetricFamily) (float64, bool) {
	if len(mf.GetMetric()) == 0 {
		return 0, false
	}
	m := mf.GetMetric()[0]
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue(), true
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue(), true
	}
	return 0, false
}
