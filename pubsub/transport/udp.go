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

// UDPConfig configures one UDP channel. A non-empty MulticastGroup joins
// that group on Register, the way a PubSub publisher/subscriber pair
// rendezvous on a well-known multicast address instead of point-to-point
// unicast.
type UDPConfig struct {
	LocalAddr       string // "ip:port" to bind
	RemoteAddr      string // "ip:port" to send to; empty for receive-only
	MulticastGroup  string // IPv4/IPv6 multicast address to join; empty to skip
	Interface       string // interface name for an IPv6 multicast join; IPv4 joins let the kernel pick
	ReadBufferBytes int    // socket receive buffer size; 0 keeps the OS default
}

// UDPChannel is a UDP socket playing both Sender and Receiver, reused for
// both the publisher side (Send) and the subscriber side (Receive/
// ReceiveWith) of a PubSub UDP connection.
type UDPChannel struct {
	cfg  UDPConfig
	conn *net.UDPConn
	dst  *net.UDPAddr
}

// NewUDP builds a channel in its pre-Register state.
func NewUDP(cfg UDPConfig) *UDPChannel {
	return &UDPChannel{cfg: cfg}
}

// Register binds the local socket, joins the configured multicast group if
// any, and resolves the remote address used by Send.
func (u *UDPChannel) Register() error {
	laddr, err := net.ResolveUDPAddr("udp", u.cfg.LocalAddr)
	if err != nil {
		return fmt.Errorf("resolving local address %q: %w", u.cfg.LocalAddr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("binding %q: %w", u.cfg.LocalAddr, err)
	}
	if u.cfg.ReadBufferBytes > 0 {
		if err := conn.SetReadBuffer(u.cfg.ReadBufferBytes); err != nil {
			conn.Close()
			return fmt.Errorf("setting read buffer: %w", err)
		}
	}
	if u.cfg.MulticastGroup != "" {
		if err := joinMulticast(conn, u.cfg.MulticastGroup, u.cfg.Interface); err != nil {
			conn.Close()
			return fmt.Errorf("joining multicast group %q: %w", u.cfg.MulticastGroup, err)
		}
	}
	u.conn = conn
	if u.cfg.RemoteAddr != "" {
		dst, err := net.ResolveUDPAddr("udp", u.cfg.RemoteAddr)
		if err != nil {
			conn.Close()
			return fmt.Errorf("resolving remote address %q: %w", u.cfg.RemoteAddr, err)
		}
		u.dst = dst
	}
	return nil
}

// Send writes buf as a single UDP datagram to the configured remote
// address, honoring ctx cancellation before the write.
func (u *UDPChannel) Send(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if u.dst == nil {
		return fmt.Errorf("transport: no remote address configured for Send")
	}
	_, err := u.conn.WriteToUDP(buf, u.dst)
	return err
}

// Receive reads one datagram, blocking up to timeout.
func (u *UDPChannel) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if timeout > 0 {
		if err := u.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, 65535)
	n, _, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// ReceiveWith loops calling Receive and invoking handler per datagram until
// ctx is canceled or a read fails for a reason other than a timeout.
func (u *UDPChannel) ReceiveWith(ctx context.Context, timeout time.Duration, handler MessageHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		buf, err := u.Receive(ctx, timeout)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		handler(ctx, buf)
	}
}

// Close releases the underlying socket.
func (u *UDPChannel) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}

func joinMulticast(conn *net.UDPConn, group, ifaceName string) error {
	ip := net.ParseIP(group)
	if ip == nil {
		return fmt.Errorf("invalid multicast address %q", group)
	}
	var ifIndex int
	if ifaceName != "" {
		iface, err := net.InterfaceByName(ifaceName)
		if err != nil {
			return err
		}
		ifIndex = iface.Index
	}
	sc, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	ctrlErr := sc.Control(func(fd uintptr) {
		if ip.To4() != nil {
			mreq := &unix.IPMreq{Multiaddr: [4]byte{ip.To4()[0], ip.To4()[1], ip.To4()[2], ip.To4()[3]}}
			sockErr = unix.SetsockoptIPMreq(int(fd), unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq)
			return
		}
		mreq := &unix.IPv6Mreq{}
		copy(mreq.Multiaddr[:], ip.To16())
		mreq.Interface = uint32(ifIndex)
		sockErr = unix.SetsockoptIPv6Mreq(int(fd), unix.IPPROTO_IPV6, unix.IPV6_JOIN_GROUP, mreq)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return sockErr
}
