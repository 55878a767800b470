package ecodevices

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"
)

// DiscoveryResult represents a discovered Eco-Devices unit.
type DiscoveryResult struct {
	Host     string
	Identity DeviceIdentity
}

// Discover searches for Eco-Devices units on the network.
// It scans the local /24 subnets for hosts serving /status.xml.
// The context controls the overall discovery timeout.
// If the context has no deadline, a 5-second timeout is applied.
// Options (port, credentials) are applied to every probe.
func Discover(ctx context.Context, opts ...ClientOption) ([]DiscoveryResult, error) {
	ips, err := getLocalIPs()
	if err != nil {
		return nil, fmt.Errorf("get local IPs: %w", err)
	}

	var hosts []string
	for _, ip := range ips {
		// Assume /24 subnet
		baseIP := ip.Mask(net.CIDRMask(24, 32))
		for i := 1; i < 255; i++ {
			hosts = append(hosts, net.IP{baseIP[0], baseIP[1], baseIP[2], byte(i)}.String())
		}
	}

	return discoverHosts(ctx, hosts, opts...)
}

// discoverHosts probes each host concurrently and keeps the ones that
// answer with a status document.
func discoverHosts(ctx context.Context, hosts []string, opts ...ClientOption) ([]DiscoveryResult, error) {
	// Apply default timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	// One shared transport for every probe; closed when the scan ends.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	defer transport.CloseIdleConnections()
	hc := &http.Client{Transport: transport}

	probeOpts := append([]ClientOption{WithRequestTimeout(time.Second)}, opts...)
	probeOpts = append(probeOpts, WithHTTPClient(hc))

	type scanResult struct {
		host     string
		identity DeviceIdentity
		ok       bool
	}

	// Use buffered channel to prevent goroutine leaks
	resultsCh := make(chan scanResult, len(hosts))
	var wg sync.WaitGroup

	for _, host := range hosts {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			client, err := NewClient(host, probeOpts...)
			if err != nil {
				resultsCh <- scanResult{host: host}
				return
			}
			defer client.Close()

			id, err := client.FetchIdentity(ctx)
			resultsCh <- scanResult{host: host, identity: id, ok: err == nil}
		}(host)
	}

	// Close channel when all goroutines complete
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var results []DiscoveryResult
	for res := range resultsCh {
		if res.ok {
			results = append(results, DiscoveryResult{Host: res.host, Identity: res.identity})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Host < results[j].Host })

	return results, nil
}

func getLocalIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				ips = append(ips, ip4)
			}
		}
	}
	return ips, nil
}
