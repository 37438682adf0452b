// SPDX-License-Identifier: MIT

// Package udp ships monitor updates to an external collector as
// one JSON datagram per message.
package udp

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Publisher JSON-encodes each message and hands it to the Sender. It
// satisfies the transport.Transport interface so it can participate in
// a fanout alongside the WebSocket hub.
type Publisher struct {
	sender *Sender
	log    zerolog.Logger
}

// NewPublisher creates a Publisher over an established Sender.
func NewPublisher(sender *Sender, log zerolog.Logger) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	return &Publisher{
		sender: sender,
		log:    log.With().Str("component", "udp").Logger(),
	}, nil
}

// Send marshals data and transmits it as a single datagram.
func (p *Publisher) Send(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("udp publisher: marshal: %w", err)
	}
	if err := p.sender.Send(b); err != nil {
		p.log.Warn().Err(err).Msg("send failed")
		return err
	}
	return nil
}

// Close closes the underlying sender.
func (p *Publisher) Close() error {
	return p.sender.Close()
}
