package simulator

// RegisterClient adds a newly-accepted connection to the client registry
// and touches the watchdog (§4.7 step 1).
func (s *Simulator) RegisterClient(id, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := nowMs()
	s.clients[id] = &ClientInfo{ID: id, Address: address, ConnectedAt: now, LastActivity: now}
	s.lastModbusActivityMs = now
}

// TouchClient records one serviced request against a client and touches
// the watchdog (§4.7 step 2).
func (s *Simulator) TouchClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := nowMs()
	s.lastModbusActivityMs = now
	if c, ok := s.clients[id]; ok {
		c.LastActivity = now
		c.RequestCount++
	}
}

// UnregisterClient removes a client from the registry on connection close,
// via the scoped-release hook the server defers at accept time (§4.7 step 3).
func (s *Simulator) UnregisterClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}
