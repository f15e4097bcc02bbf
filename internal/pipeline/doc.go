// Package pipeline sequences a recap run: rasterize the document, detect and
// read panels page by page, build and speak the narration, render one Ken
// Burns scene per page between a title and an outro card, and hand the clips
// to the compositor.
//
// Failures are absorbed at the smallest scope that saw them. A page that
// cannot be decoded or read contributes no panels, a scene that cannot be
// rendered or encoded is skipped, and narration that cannot be attached
// leaves a silent video. Only an unreadable input, an unwritable output, or a
// document without pages aborts the run. The run's work directory is removed
// on every exit path.
package pipeline
