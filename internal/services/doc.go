// Package services defines shared utilities consumed by the pipeline stages
// and their external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, page indexes, and the
//     speech engine under attempt for logging.
//   - Structured error markers plus the Wrap helper. The markers drive the
//     pipeline's failure policy: only ErrFatal aborts a run, everything else is
//     degraded at the smallest scope that observed it.
//
// Use these helpers when wiring new stage logic so failure handling and
// observability stay uniform across the pipeline.
package services
