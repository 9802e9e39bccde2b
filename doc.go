// Package pgview implements an animated, remotely displayed view: a procedural
// frame-sequence generator running on background goroutines, and a
// fixed-cadence scheduler that advances the animation and asks the host's
// render pipeline to redraw.
//
// # Overview
//
// A [Generator] renders one master buffer holding a diagonal wave and cuts
// it, one row further down each time, into a loop of frames (25 by default).
// Requests for a size that is not published start a background generation and
// report [Regenerating]; a request for a different size supersedes the one
// in flight, and only the latest request is ever published.
//
// A [Scheduler] is the view the host pipeline drives. It mirrors its display
// flags from the host's state store, ticks every 15 ms, and dispatches
// deferred (coalesced) or immediate renders depending on the current flags.
//
// # Quick Start
//
//	s, err := pgview.NewScheduler(pgview.Host{
//	    Store:    store,
//	    Pipeline: pipeline,
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	s.Start(ctx)
//
// # Threading
//
// UI-owned state lives on a single serial loop per Scheduler. The host calls
// the [View] methods on that loop; hosts without a UI thread of their own use
// [Scheduler.Invoke]. Published sequences are immutable and may be read from
// any goroutine.
//
// # Logging
//
// pgview is silent by default. Call [SetLogger] to receive log/slog records.
package pgview
