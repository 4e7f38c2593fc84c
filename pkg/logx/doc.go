// Package logx configures the daemon's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller) on a terminal
//   - Console output JSON-structured when stdout isn't a terminal
//   - File output JSON-structured, enabled via LOG_FOLDER
package logx
