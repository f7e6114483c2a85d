// Package logging provides concrete implementations of the conncache.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes prefixed lines to stderr, styled when stderr is a terminal
//   - ZapLogger: Writes JSON lines through zap (selected with --log-format json)
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
