package fundamental

import (
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

// PeerComparison ranks each metric of the target against its peers
// using midpoint percentiles: (below + 0.5*equal) / total * 100. A nil
// target metric or no usable peer values yields a nil percentile.
func PeerComparison(target *Metrics, peers []*Metrics) map[string]*float64 {
	result := make(map[string]*float64, len(MetricNames))
	for _, name := range MetricNames {
		result[name] = nil
	}
	if len(peers) == 0 {
		return result
	}

	for _, name := range MetricNames {
		targetVal := target.Field(name)
		if targetVal == nil {
			continue
		}

		below, equal, total := 0, 0, 0
		for _, pm := range peers {
			pv := pm.Field(name)
			if pv == nil {
				continue
			}
			total++
			if *pv < *targetVal {
				below++
			} else if *pv == *targetVal {
				equal++
			}
		}
		if total == 0 {
			continue
		}

		percentile := formulas.Round2((float64(below) + 0.5*float64(equal)) / float64(total) * 100.0)
		result[name] = &percentile
	}
	return result
}
