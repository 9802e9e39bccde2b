package pgview

// Tick runs one ticker step on the UI loop and waits for it.
func (s *Scheduler) Tick() error {
	return s.Invoke(s.tick)
}

// Render issues one render request on the UI loop, deferred or immediate per
// the current flags, and returns its dispatch error.
func (s *Scheduler) Render() error {
	var err error
	if ierr := s.Invoke(func() { err = s.render() }); ierr != nil {
		return ierr
	}
	return err
}
