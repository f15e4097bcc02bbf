// Package workspace owns the per-run scratch directory and the output-side
// file discipline of a render.
//
// Acquire creates mangarecap-<uuid> with pages/, panels/, audio/ and clips/
// subdirectories; Cleanup removes it and must run on every exit path.
// CleanStale reclaims directories left behind by runs that were killed
// before their deferred cleanup could execute. LockOutput guards an output
// path against concurrent renders, and PartialPath names the temporary file
// the encoder writes before renaming it into place.
package workspace
