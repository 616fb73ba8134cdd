// Package log provides the structured logging abstraction for watchlater.
//
// The [Logger] interface decouples the tracker from any particular logging
// library. [NewZerologAdapter] wraps zerolog for console output and
// [NewNoopLogger] discards everything, which is the default for embedded
// use so that watchlater never writes to a host application's terminal
// unless asked to.
package log
