package control

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/golang/glog"
	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service xyscope advertises its control API as.
const ServiceType = "_xyscope._tcp"

// Advertise announces the control API on port until ctx is done.
func Advertise(ctx context.Context, port int) error {
	host, err := os.Hostname()
	if err != nil {
		return err
	}
	ips, err := localIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, ips,
		[]string{"path=/api/v2/graphql", "status=/ws"})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}
	glog.Infof("advertising %s on port %d", ServiceType, port)

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()
	return nil
}

func localIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}
	return ips, nil
}
