// SPDX-License-Identifier: MIT
package transport

import "github.com/rs/zerolog"

// LoggingTransport implements Transport by writing each message to the
// logger at debug level. Useful as a minimal presentation sink.
type LoggingTransport struct {
	log zerolog.Logger
}

// NewLoggingTransport creates a logging sink on the given logger.
func NewLoggingTransport(log zerolog.Logger) *LoggingTransport {
	return &LoggingTransport{log: log.With().Str("component", "log-sink").Logger()}
}

// Send logs the message. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	lt.log.Debug().Interface("msg", data).Msg("status update")
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
