// Package preflight checks the environment before a render starts: input
// readability, output and work directory writability, free space, and which
// external tools are on PATH.
//
// ValidateInput and ValidateOutput return services.ErrFatal-marked errors so
// the CLI can abort before any work directory is created. The Result-based
// checks feed the `mangarecap deps` report.
package preflight
