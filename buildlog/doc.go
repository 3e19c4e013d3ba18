// Package buildlog records the audit trail of a graph build.
//
// A Handler is an slog.Handler that keeps every record it sees as one
// timestamped text line and optionally forwards the record to another handler,
// typically the console handler:
//
//	rec := buildlog.New(slog.NewTextHandler(os.Stderr, nil))
//	logger := slog.New(rec)
//	// ... run the build with logger ...
//	export.WriteLogFile("output/advanced_build_log.txt", rec.Lines())
//
// Handlers derived with WithAttrs or WithGroup share the parent's line buffer.
package buildlog
