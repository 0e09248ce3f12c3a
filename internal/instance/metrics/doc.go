// Package metrics exposes supervisor activity as Prometheus metrics.
//
// A [Recorder] owns its own registry so several supervisors (or tests) never
// collide on the global default registry. All methods are safe on a nil
// *Recorder, which lets callers leave metrics disabled without branching.
//
// # Metrics
//
//   - claudia_continues_total{reason}: Continue commands sent, by reason
//     ("stagnation" or "usage_limit")
//   - claudia_permission_accepts_total: bypass-permission prompts accepted
//   - claudia_usage_limit_waits_total: usage-limit waits started
//   - claudia_session_state{state}: 1 for the current state, 0 otherwise
//   - claudia_tasks{status}: checked and unchecked items in the task document
//
// # Basic Usage
//
//	rec := metrics.NewRecorder()
//	rec.IncContinues(metrics.ReasonStagnation)
//	rec.SetState("working")
//
//	srv := metrics.NewServer("127.0.0.1:9464", rec, logger)
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
package metrics
