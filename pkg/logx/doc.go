// Package logx is raton's structured logger, a thin layer over zerolog.
//
// Console output is human readable with a short caller. The optional log
// file receives one JSON object per line. Warnings and errors can also be
// forwarded to an operator Telegram chat, rate limited and dropped rather
// than ever blocking the caller.
package logx
