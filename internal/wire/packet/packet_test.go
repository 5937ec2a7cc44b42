package packet

import (
	"net"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	server := NewChannel("test-server")
	if err := server.Attach(serverConn); err != nil {
		t.Fatalf("attach server: %v", err)
	}
	client := NewChannel("test-client")
	if err := client.Attach(clientConn); err != nil {
		t.Fatalf("attach client: %v", err)
	}

	payload := []byte("hello extio")
	done := make(chan error, 1)
	go func() {
		done <- client.Write(&Packet{Type: Message, Payload: payload})
	}()

	got, err := server.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if werr := <-done; werr != nil {
		t.Fatalf("write: %v", werr)
	}

	if got.Type != Message {
		t.Fatalf("expected Message type, got %v", got.Type)
	}
	if got.ID != 1 {
		t.Fatalf("expected first packet id 1, got %d", got.ID)
	}
	if string(got.Payload) != string(payload) {
		t.Fatalf("payload mismatch: got %q want %q", got.Payload, payload)
	}
}

func TestWriteAssignsMonotonicIDs(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	server := NewChannel("test-server")
	_ = server.Attach(serverConn)
	client := NewChannel("test-client")
	_ = client.Attach(clientConn)

	go func() {
		_ = client.Write(&Packet{Type: RawData, Payload: []byte("a")})
		_ = client.Write(&Packet{Type: RawData, Payload: []byte("b")})
	}()

	first, err := server.Read()
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	second, err := server.Read()
	if err != nil {
		t.Fatalf("read second: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1,2 got %d,%d", first.ID, second.ID)
	}
}

func TestWriteRejectsOversizePayload(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	client := NewChannel("test-client")
	_ = client.Attach(clientConn)

	err := client.Write(&Packet{Type: Message, Payload: make([]byte, MaxPayloadSize+1)})
	if err != ErrPayloadTooBig {
		t.Fatalf("expected ErrPayloadTooBig, got %v", err)
	}
}

func TestWriteWithoutConnectionFails(t *testing.T) {
	c := NewChannel("test-unattached")
	err := c.Write(&Packet{Type: Message, Payload: []byte("x")})
	if err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestReadRejectsBadCRC(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	server := NewChannel("test-server")
	_ = server.Attach(serverConn)

	// hand-craft a frame with a corrupted crc field
	payload := []byte("data")
	header := make([]byte, HeaderSize)
	header[0] = byte(Message)
	header[1] = byte(len(payload))
	header[5] = 0xFF // wrong crc byte
	header[9] = 1

	go func() {
		_, _ = clientConn.Write(header)
		_, _ = clientConn.Write(payload)
	}()

	_, err := server.Read()
	if err != ErrCRCMismatch {
		t.Fatalf("expected ErrCRCMismatch, got %v", err)
	}
}

func TestDisconnectClosesConn(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	server := NewChannel("test-server")
	_ = server.Attach(serverConn)
	server.Disconnect()

	err := server.Write(&Packet{Type: Message, Payload: []byte("x")})
	if err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected after disconnect, got %v", err)
	}
}
