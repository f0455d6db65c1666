// Package logx provides structured logging for the bot.
//
// It wraps zerolog with a small Field-based API and a Service that fans log
// lines out to console, file, and (rate-limited) Telegram sinks. Components
// receive a Logger by injection; there is no package-level logger.
package logx
