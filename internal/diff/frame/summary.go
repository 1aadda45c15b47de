package frame

// Summary describes how much of a delta exceeds a threshold.
type Summary struct {
	ChangedSamples int
	TotalSamples   int
	ChangeRatio    float64
	Peak           uint8
}

// Summarize counts the delta samples strictly greater than threshold.
func Summarize(delta *Buffer, threshold uint8) Summary {
	var changed int
	var peak uint8
	for _, v := range delta.pix {
		if v > threshold {
			changed++
		}
		if v > peak {
			peak = v
		}
	}

	s := Summary{
		ChangedSamples: changed,
		TotalSamples:   len(delta.pix),
		Peak:           peak,
	}
	if s.TotalSamples > 0 {
		s.ChangeRatio = float64(changed) / float64(s.TotalSamples)
	}
	return s
}
