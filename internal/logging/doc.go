// Package logging builds the slog loggers used across winnow.
//
// It offers a console handler for interactive use, a JSON handler for log
// files and machine consumption, and small attr helpers so call sites stay
// terse. Component loggers are derived with
// logger.With(logging.String("component", name)).
package logging
