// Copyright 2024 The go-ember Authors
// This file is part of the go-ember library.
//
// The go-ember library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ember library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ember library. If not, see <http://www.gnu.org/licenses/>.

package nat

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	natpmp "github.com/jackpal/go-nat-pmp"
)

// pmpMapper speaks NAT-PMP to a specific gateway.
type pmpMapper struct {
	gateway net.IP
	client  *natpmp.Client
}

func newPMP(gateway net.IP) Mapper {
	return &pmpMapper{gateway: gateway, client: natpmp.NewClient(gateway)}
}

func (p *pmpMapper) AddMapping(protocol string, extport, intport int, name string, lifetime time.Duration) (uint16, error) {
	if lifetime <= 0 {
		return 0, errors.New("nat: NAT-PMP mappings need a positive lifetime")
	}
	// The library wants the internal port first. If extport is taken the
	// gateway maps a free port instead and reports it in the response.
	res, err := p.client.AddPortMapping(strings.ToLower(protocol), intport, extport, int(lifetime/time.Second))
	if err != nil {
		return 0, err
	}
	return res.MappedExternalPort, nil
}

func (p *pmpMapper) DeleteMapping(protocol string, extport, intport int) error {
	// NAT-PMP has no delete operation. Requesting the internal port with a
	// zero external port and zero lifetime destroys the mapping.
	_, err := p.client.AddPortMapping(strings.ToLower(protocol), intport, 0, 0)
	return err
}

func (p *pmpMapper) ExternalIP() (net.IP, error) {
	res, err := p.client.GetExternalAddress()
	if err != nil {
		return nil, err
	}
	return res.ExternalIPAddress[:], nil
}

func (p *pmpMapper) String() string { return fmt.Sprintf("pmp:%v", p.gateway) }

// discoverPMP asks every candidate gateway for its external address and
// keeps the first that answers. Responses after the deadline are ignored.
func discoverPMP() Mapper {
	candidates := gatewayCandidates()
	results := make(chan *pmpMapper, len(candidates))
	for _, gw := range candidates {
		gw := gw
		go func() {
			client := natpmp.NewClient(gw)
			if _, err := client.GetExternalAddress(); err != nil {
				results <- nil
				return
			}
			results <- &pmpMapper{gateway: gw, client: client}
		}()
	}
	deadline := time.NewTimer(1 * time.Second)
	defer deadline.Stop()
	for range candidates {
		select {
		case m := <-results:
			if m != nil {
				return m
			}
		case <-deadline.C:
			return nil
		}
	}
	return nil
}

// gatewayCandidates guesses the gateway address for every private IPv4
// network this machine is attached to, assuming the router sits on the
// lowest host address.
func gatewayCandidates() (gws []net.IP) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || !ipnet.IP.IsPrivate() {
				continue
			}
			ip := ipnet.IP.Mask(ipnet.Mask).To4()
			if ip == nil {
				continue
			}
			ip[3] |= 0x01
			gws = append(gws, ip)
		}
	}
	return gws
}
