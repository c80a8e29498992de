package torque

// HoleSnapshot is the persisted form of a HoleModel. The raw golden buffer
// is not persisted; only the frozen golden stats survive. Rolling stats are
// likewise omitted and recomputed from the raw rolling buffer on load, so
// the snapshot carries no derived state that could fall out of sync.
type HoleSnapshot struct {
	HoleID        string      `json:"hole_id"`
	Count         int         `json:"count"`
	Status        string      `json:"status"`
	GoldenStats   *Stats      `json:"golden_stats"`
	RollingBuffer [][]float64 `json:"rolling_buffer"`
}

// Snapshot captures the model's persistable state.
func (m *HoleModel) Snapshot() HoleSnapshot {
	buf := make([][]float64, len(m.rollingBuffer))
	for i, vec := range m.rollingBuffer {
		v := make([]float64, len(vec))
		copy(v, vec)
		buf[i] = v
	}
	return HoleSnapshot{
		HoleID:        m.HoleID,
		Count:         m.Count,
		Status:        m.Status,
		GoldenStats:   m.GoldenStats,
		RollingBuffer: buf,
	}
}

// Restore rebuilds a HoleModel from a snapshot. The rolling window is
// re-capped and its stats recomputed from the raw vectors.
func Restore(s HoleSnapshot) *HoleModel {
	m := NewHoleModel(s.HoleID)
	m.Count = s.Count
	m.Status = s.Status
	m.GoldenStats = s.GoldenStats

	for _, vec := range s.RollingBuffer {
		v := make([]float64, len(vec))
		copy(v, vec)
		m.rollingBuffer = append(m.rollingBuffer, v)
		if len(m.rollingBuffer) > RollingWindowSize {
			m.rollingBuffer = m.rollingBuffer[1:]
		}
	}
	if len(m.rollingBuffer) > 0 {
		m.RollingStats = computeStats(m.rollingBuffer)
	}
	return m
}
