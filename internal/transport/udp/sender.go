package udp

import (
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Sender transmits datagrams to a fixed target address.
type Sender struct {
	conn *net.UDPConn
	log  zerolog.Logger

	mu     sync.Mutex // Protects conn during Close
	closed bool
}

// NewSender dials the target address, given as "host:port".
func NewSender(targetAddress string, log zerolog.Logger) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address %q: %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP target %q: %w", targetAddress, err)
	}

	s := &Sender{
		conn: conn,
		log:  log.With().Str("component", "udp").Logger(),
	}
	s.log.Info().Str("target", conn.RemoteAddr().String()).Msg("connected")
	return s, nil
}

// Send transmits data as a single UDP packet. Safe for concurrent use.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("udp sender is closed")
	}
	_, err := s.conn.Write(data)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying connection. Safe to call more than once.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		if err != nil {
			return fmt.Errorf("failed to close UDP connection: %w", err)
		}
	}
	return nil
}
