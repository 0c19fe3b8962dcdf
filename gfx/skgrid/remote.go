package skgrid

import (
	"fmt"
	"net"
	"time"
)

const ackTimeout = time.Second

// Remote sends frames to a grid controller over TCP. The controller answers
// every frame with a single status byte, 0x01 for success.
type Remote struct {
	sock net.Conn
}

// NewRemote connects to addr.
func NewRemote(addr string) (*Remote, error) {
	sock, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Remote{sock}, nil
}

func (s *Remote) Send(b []byte) error {
	s.sock.SetDeadline(time.Now().Add(ackTimeout))
	n, err := s.sock.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("only wrote %d of %d bytes", n, len(b))
	}
	r := []byte{0}
	if _, err := s.sock.Read(r); err != nil {
		return err
	}
	if r[0] != 0x01 {
		return fmt.Errorf("remote returned error code %02x", r[0])
	}
	return nil
}

func (s *Remote) Close() error {
	return s.sock.Close()
}
