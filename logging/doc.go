// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package logging builds the process-wide slog logger.

	logging.Setup(cfg.LogLevel, cfg.LogFormat)

Levels are debug, info, warn and error. The format is json or text; any
other value picks text when stderr is a terminal and JSON otherwise.
*/
package logging
