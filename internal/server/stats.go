package server

// statsTopActions bounds the per-action lines in the shutdown summary.
const statsTopActions = 10

// LogStats writes the dispatch counters to the server log: one summary
// line, then the busiest actions. It does nothing when metrics are off.
func (s *Server) LogStats() {
	if s.metrics == nil {
		return
	}

	snap := s.metrics.Snapshot()
	s.logger.Info("dispatch stats",
		"dispatches", snap.Dispatches,
		"failures", snap.Failures,
		"no_match", snap.NoMatch,
		"panics", snap.Panics,
		"average", snap.Average(),
		"actions", len(snap.Actions),
	)
	for _, a := range snap.Top(statsTopActions) {
		s.logger.Info("action stats",
			"action", a.Action,
			"dispatches", a.Dispatches,
			"failure_rate", a.FailureRate(),
			"average", a.Average(),
			"max", a.Max,
		)
	}
}
