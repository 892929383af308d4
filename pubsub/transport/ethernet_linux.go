//go:build linux && ethernet

/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// htons converts a uint16 from host to network byte order, needed because
// AF_PACKET's protocol field (unlike IP-level socket options) is not
// byte-order-corrected by the kernel the way IP_TOS/IPV6_TCLASS are.
func htons(v uint16) uint16 {
	return (v << 8) | (v >> 8)
}

// EthernetConfig configures a raw AF_PACKET channel bound to one
// interface, the transport variant a PubSub implementation uses when it
// owns the link layer directly instead of routing through IP. Launch-time
// scheduling (ETF, SO_TXTIME) is not implemented here: it needs kernel
// support this module has no way to exercise in tests.
type EthernetConfig struct {
	Interface  string
	DestMAC    net.HardwareAddr
	EtherType  uint16 // defaults to 0x88B5 (IEEE 802 Local Experimental 1) if zero
	ReadFrames int    // read buffer size in bytes; 0 selects 1500 bytes
}

// EthernetChannel is a raw Ethernet socket playing both Sender and
// Receiver, for deployments that publish below the IP layer.
type EthernetChannel struct {
	cfg      EthernetConfig
	fd       int
	ifIndex  int
	srcMAC   net.HardwareAddr
	destAddr unix.SockaddrLinklayer
}

// NewEthernet builds a channel in its pre-Register state.
func NewEthernet(cfg EthernetConfig) *EthernetChannel {
	if cfg.EtherType == 0 {
		cfg.EtherType = 0x88B5
	}
	return &EthernetChannel{cfg: cfg}
}

// Register opens an AF_PACKET/SOCK_RAW socket bound to the configured
// interface and protocol.
func (e *EthernetChannel) Register() error {
	proto := int(htons(e.cfg.EtherType))
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, proto)
	if err != nil {
		return fmt.Errorf("opening AF_PACKET socket: %w", err)
	}

	iface, err := net.InterfaceByName(e.cfg.Interface)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("resolving interface %q: %w", e.cfg.Interface, err)
	}

	addr := unix.SockaddrLinklayer{
		Protocol: uint16(proto),
		Ifindex:  iface.Index,
		Halen:    6,
	}
	if len(e.cfg.DestMAC) == 6 {
		copy(addr.Addr[:6], e.cfg.DestMAC)
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return fmt.Errorf("binding to interface %q: %w", e.cfg.Interface, err)
	}

	e.fd = fd
	e.ifIndex = iface.Index
	e.srcMAC = iface.HardwareAddr
	e.destAddr = addr
	return nil
}

// Send writes buf as the payload of one Ethernet frame to the configured
// destination MAC.
func (e *EthernetChannel) Send(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame := make([]byte, 14+len(buf))
	copy(frame[0:6], e.destAddr.Addr[:6])
	copy(frame[6:12], e.srcMAC)
	frame[12] = byte(e.cfg.EtherType >> 8)
	frame[13] = byte(e.cfg.EtherType)
	copy(frame[14:], buf)
	return unix.Sendto(e.fd, frame, 0, &e.destAddr)
}

// Receive reads one raw frame, blocking up to timeout.
func (e *EthernetChannel) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if timeout > 0 {
		tv := unix.NsecToTimeval(timeout.Nanoseconds())
		if err := unix.SetsockoptTimeval(e.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			return nil, err
		}
	}
	size := e.cfg.ReadFrames
	if size == 0 {
		size = 1500
	}
	buf := make([]byte, size)
	n, _, err := unix.Recvfrom(e.fd, buf, 0)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// ReceiveWith loops calling Receive and invoking handler per frame until
// ctx is canceled or a read fails for a reason other than a timeout.
func (e *EthernetChannel) ReceiveWith(ctx context.Context, timeout time.Duration, handler MessageHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		buf, err := e.Receive(ctx, timeout)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				continue
			}
			return err
		}
		handler(ctx, buf)
	}
}

// Close releases the underlying socket.
func (e *EthernetChannel) Close() error {
	if e.fd == 0 {
		return nil
	}
	return unix.Close(e.fd)
}
