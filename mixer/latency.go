package mixer

// Estimator reports the processing latency an effect adds at a sample rate.
type Estimator interface {
	EstimateLatencySamples(effectType string, params map[string]float64, sampleRate float64) int
}

// ChannelLatency sums the latency of a channel's active insert effects.
func ChannelLatency(cfg ChannelConfig, est Estimator, sampleRate float64) int {
	total := 0

	for _, d := range cfg.Inserts {
		if d.Bypass {
			continue
		}

		total += est.EstimateLatencySamples(d.Type, d.Params, sampleRate)
	}

	return total
}

// Offsets computes the per-channel compensation delays so that all used
// channels arrive time-aligned at the mix bus. For each used channel the
// returned delay is global minus the channel's own latency; global is the
// maximum latency across the channels actually used by the current pass.
func Offsets(channels []ChannelConfig, used map[string]bool, est Estimator, sampleRate float64) (map[string]int, int) {
	latencies := make(map[string]int, len(channels))
	global := 0

	for _, c := range channels {
		lat := ChannelLatency(c, est, sampleRate)
		latencies[c.ID] = lat

		if used[c.ID] && lat > global {
			global = lat
		}
	}

	delays := make(map[string]int, len(latencies))

	for id, lat := range latencies {
		if !used[id] {
			continue
		}

		delays[id] = global - lat
	}

	return delays, global
}
