// Package trace records workspace loads as nested spans.
//
// Enable tracing from the command line:
//
//	aasify load --trace=- --trace-level=phase models/
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: failures only
//   - LevelPhase: driver and pass boundaries (index, link)
//   - LevelDetail: per-document events
//   - LevelDebug: everything including node-level checkpoints
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "index", parentID)
//	defer span.End("")
package trace
