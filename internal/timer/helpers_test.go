package timer

// running reports whether a run is active.
func (c *Countdown) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// started returns how many tickers have been created so far.
func (m *Manual) started() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}
