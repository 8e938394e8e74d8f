package node

import (
	"context"
	"net"
	"syscall"
)

// listenConfig binds a UDP socket with SO_REUSEADDR and SO_BROADCAST set,
// per §6's requirement that the broadcast socket support both rebinding
// across MOVE commands and sending to the link-local broadcast address.
var listenConfig = net.ListenConfig{
	Control: func(network, address string, c syscall.RawConn) error {
		var ctrlErr error
		err := c.Control(func(fd uintptr) {
			if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
				ctrlErr = err
				return
			}
			if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1); err != nil {
				ctrlErr = err
				return
			}
		})
		if err != nil {
			return err
		}
		return ctrlErr
	},
}

// bindLocation opens a non-blocking-equivalent UDP socket bound to
// 0.0.0.0:port, used both to listen for incoming shares and to send
// broadcast shares to 255.255.255.255:port, per §6.
func bindLocation(port uint16) (*net.UDPConn, error) {
	pc, err := listenConfig.ListenPacket(context.Background(), "udp4", fmtBindAddr(port))
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

func fmtBindAddr(port uint16) string {
	return "0.0.0.0:" + uitoa(uint(port))
}

func broadcastAddr(port uint16) string {
	return "255.255.255.255:" + uitoa(uint(port))
}

func uitoa(v uint) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
