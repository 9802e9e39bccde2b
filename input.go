// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

// eventPath returns the state path under which events of the given kind are
// mirrored, e.g. "/DDx/PGView/MouseEvent".
func (s *Scheduler) eventPath(kind string) string {
	return StatePrefix + "/" + s.name + "/" + kind
}

// setState writes one mirrored value; failures are logged and dropped.
func (s *Scheduler) setState(path string, value any) {
	if err := s.host.Store.Set(path, value); err != nil {
		Logger().Warn("state write failed", "view", s.name, "path", path, "err", err)
	}
}

// PostKeyEvent implements View. The event is mirrored into the state store.
func (s *Scheduler) PostKeyEvent(ev KeyEvent) {
	p := s.eventPath("KeyEvent")
	s.setState(p+"/Type", ev.Type.String())
	s.setState(p+"/KeyCode", ev.KeyCode)
	s.setState(p+"/CharacterCode", int(ev.CharacterCode))
	s.setState(p+"/Modifiers", ev.Modifiers)
}

// PostMouseEvent implements View. The event is mirrored into the state store.
// A move records the marker position and, while the ticker is not animating,
// advances and renders one frame so the animation follows the pointer.
// Button presses toggle the view's interacting state in the pipeline.
func (s *Scheduler) PostMouseEvent(ev MouseEvent) {
	p := s.eventPath("MouseEvent")
	s.setState(p+"/Type", ev.Type.String())
	s.setState(p+"/X", ev.X)
	s.setState(p+"/Y", ev.Y)
	s.setState(p+"/Buttons", ev.Buttons)
	s.setState(p+"/ChangedButton", ev.ChangedButton)
	s.setState(p+"/Modifiers", ev.Modifiers)
	s.setState(p+"/Delta", ev.Delta)

	switch ev.Type {
	case MouseMove:
		s.mouseX, s.mouseY = int(ev.X), int(ev.Y)
		if !s.cfg.Get(FlagAsyncGeneration) {
			s.advanceRendering()
		}
	case MouseDown:
		s.host.Pipeline.SetViewInteracting(s.name, true)
	case MouseUp:
		s.host.Pipeline.SetViewInteracting(s.name, false)
	}
}
