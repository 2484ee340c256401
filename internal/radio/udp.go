package radio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"sync"
	"sync/atomic"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/logging"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

const (
	// Magic is the first byte of every luciole datagram.
	Magic byte = 'L'
	// DatagramSize is magic, group, code and a 4-byte big-endian sender id.
	DatagramSize = 7
	// DefaultAddress is the IPv4 limited-broadcast target.
	DefaultAddress = "255.255.255.255:4210"
)

// Encode builds a datagram.
func Encode(group uint8, code protocol.Code, sender uint32) [DatagramSize]byte {
	pkt := [DatagramSize]byte{Magic, group, byte(code)}
	binary.BigEndian.PutUint32(pkt[3:], sender)
	return pkt
}

// Decode parses a datagram. ok is false for anything that is not exactly one
// well-formed luciole message.
func Decode(b []byte) (group uint8, code protocol.Code, sender uint32, ok bool) {
	if len(b) != DatagramSize || b[0] != Magic {
		return 0, 0, 0, false
	}
	return b[1], protocol.Code(b[2]), binary.BigEndian.Uint32(b[3:]), true
}

// UDPOptions configures a UDP radio.
type UDPOptions struct {
	// Address is the send target. A multicast address also joins the group
	// on Listen's port; any other address is sent to as-is (broadcast or
	// unicast).
	Address string
	// Listen is the local bind address. Empty binds all interfaces on the
	// port of Address.
	Listen string
	Group  uint8
	Inbox  int
	Logger *slog.Logger
}

// UDP is a Radio over UDP datagrams. Own datagrams echoed back by the
// network are recognized by a random 32-bit per-instance sender id.
type UDP struct {
	conn   *net.UDPConn
	target *net.UDPAddr
	group  uint8
	sender uint32
	ch     chan protocol.Code
	log    *slog.Logger

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// ListenUDP binds the socket and starts the receive loop.
func ListenUDP(opts UDPOptions) (*UDP, error) {
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}
	if opts.Inbox <= 0 {
		opts.Inbox = DefaultInbox
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	target, err := net.ResolveUDPAddr("udp4", opts.Address)
	if err != nil {
		return nil, fmt.Errorf("radio: resolve %s: %w", opts.Address, err)
	}

	var conn *net.UDPConn
	if target.IP.IsMulticast() {
		conn, err = net.ListenMulticastUDP("udp4", nil, target)
	} else {
		listen := opts.Listen
		if listen == "" {
			listen = fmt.Sprintf(":%d", target.Port)
		}
		var laddr *net.UDPAddr
		laddr, err = net.ResolveUDPAddr("udp4", listen)
		if err != nil {
			return nil, fmt.Errorf("radio: resolve %s: %w", listen, err)
		}
		conn, err = net.ListenUDP("udp4", laddr)
	}
	if err != nil {
		return nil, fmt.Errorf("radio: listen: %w", err)
	}

	u := &UDP{
		conn:   conn,
		target: target,
		group:  opts.Group,
		sender: rand.Uint32(),
		ch:     make(chan protocol.Code, opts.Inbox),
		log:    opts.Logger.With("radio", "udp"),
		stopCh: make(chan struct{}),
	}
	u.running.Store(true)
	u.wg.Add(1)
	go u.readLoop()

	u.log.Debug("listening", "local", conn.LocalAddr(), "target", target, "group", opts.Group)
	return u, nil
}

// LocalAddr returns the bound socket address.
func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// Send writes one datagram to the target address.
func (u *UDP) Send(code protocol.Code) error {
	if !u.running.Load() {
		return ErrClosed
	}
	pkt := Encode(u.group, code, u.sender)
	if _, err := u.conn.WriteToUDP(pkt[:], u.target); err != nil {
		return fmt.Errorf("radio: send %s: %w", code, err)
	}
	return nil
}

// Receive returns the inbox. It is closed by Close.
func (u *UDP) Receive() <-chan protocol.Code { return u.ch }

// Close stops the receive loop and releases the socket.
func (u *UDP) Close() error {
	if !u.running.CompareAndSwap(true, false) {
		return nil
	}
	close(u.stopCh)
	err := u.conn.Close()
	u.wg.Wait()
	close(u.ch)
	return err
}

func (u *UDP) readLoop() {
	defer u.wg.Done()

	buf := make([]byte, 64)
	for {
		n, from, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-u.stopCh:
				return
			default:
				u.log.Warn("read failed", "err", err)
				continue
			}
		}
		code, ok := u.accept(buf[:n])
		if !ok {
			u.log.Log(context.Background(), logging.LevelTrace, "datagram dropped", "from", from, "len", n)
			continue
		}
		select {
		case u.ch <- code:
		default:
			u.log.Debug("inbox full, dropping", "code", code)
		}
	}
}

// accept filters malformed datagrams, foreign groups and our own echoes.
func (u *UDP) accept(pkt []byte) (protocol.Code, bool) {
	group, code, sender, ok := Decode(pkt)
	if !ok || group != u.group || sender == u.sender {
		return 0, false
	}
	return code, true
}
