package udp

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// listenUDP opens a loopback listener on an ephemeral port and returns
// it with its address.
func listenUDP(t *testing.T) (*net.UDPConn, string) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to open UDP listener: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().String()
}

func TestSender_SendAndClose(t *testing.T) {
	listener, addr := listenUDP(t)

	sender, err := NewSender(addr, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	payload := []byte("ping")
	if err := sender.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	listener.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 64)
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("failed to read datagram: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Errorf("expected %q, got %q", "ping", buf[:n])
	}

	if err := sender.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if err := sender.Send(payload); err == nil {
		t.Error("Send after Close should fail")
	}
}

func TestSender_InvalidTarget(t *testing.T) {
	if _, err := NewSender("not-an-address", zerolog.Nop()); err == nil {
		t.Error("expected error for unresolvable target")
	}
}

func TestPublisher_SendsJSONDatagram(t *testing.T) {
	listener, addr := listenUDP(t)

	sender, err := NewSender(addr, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	pub, err := NewPublisher(sender, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	defer pub.Close()

	msg := map[string]any{"type": "level", "device_id": 3, "loudness": 51.5}
	if err := pub.Send(msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	listener.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1024)
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("failed to read datagram: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf[:n], &decoded); err != nil {
		t.Fatalf("datagram is not valid JSON: %v", err)
	}
	if decoded["type"] != "level" {
		t.Errorf("expected type %q, got %v", "level", decoded["type"])
	}
	if decoded["loudness"] != 51.5 {
		t.Errorf("expected loudness 51.5, got %v", decoded["loudness"])
	}
}

func TestPublisher_RejectsUnmarshalable(t *testing.T) {
	_, addr := listenUDP(t)

	sender, err := NewSender(addr, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	pub, err := NewPublisher(sender, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	defer pub.Close()

	if err := pub.Send(make(chan int)); err == nil {
		t.Error("expected marshal error for channel payload")
	}
}

func TestNewPublisher_NilSender(t *testing.T) {
	if _, err := NewPublisher(nil, zerolog.Nop()); err == nil {
		t.Error("expected error for nil sender")
	}
}
