package system

import (
	"errors"
	"net"
	"strings"
)

var ErrNoAddress = errors.New("no IPv4 address on any interface")

// LocalIPv4 returns the first IPv4 address of an interface that is up and not
// a loopback. Wired interfaces are preferred over wireless ones.
func LocalIPv4() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	return pickIPv4(ifaces, func(iface net.Interface) ([]net.Addr, error) { return iface.Addrs() })
}

func pickIPv4(ifaces []net.Interface, addrs func(net.Interface) ([]net.Addr, error)) (string, error) {
	var wireless string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		list, err := addrs(iface)
		if err != nil {
			continue
		}
		for _, addr := range list {
			ip := ipOf(addr)
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			if isWireless(iface.Name) {
				if wireless == "" {
					wireless = ip.String()
				}
				break
			}
			return ip.String(), nil
		}
	}
	if wireless != "" {
		return wireless, nil
	}
	return "", ErrNoAddress
}

func ipOf(addr net.Addr) net.IP {
	var ip net.IP
	switch v := addr.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	}
	return ip.To4()
}

func isWireless(name string) bool {
	return strings.HasPrefix(name, "wl")
}

// EditorURL is the address the web editor is reachable at from another
// device on the network.
func EditorURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		host, port = "", "80"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		if ip, err := LocalIPv4(); err == nil {
			host = ip
		} else {
			host = "127.0.0.1"
		}
	}
	if port == "80" {
		return "http://" + host + "/"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}
