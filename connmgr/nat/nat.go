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

// Package nat maps the node's peer listening port on the local gateway
// device, using UPnP or NAT-PMP.
package nat

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/emberchain/go-ember/log"
)

// A Mapper exposes a local port through the gateway. Implementations are
// safe for use from multiple goroutines.
type Mapper interface {
	// AddMapping maps extport on the gateway to intport on this machine
	// for the given lifetime. The returned port is the external port that
	// was actually mapped, which may differ from the requested one.
	AddMapping(protocol string, extport, intport int, name string, lifetime time.Duration) (uint16, error)

	// DeleteMapping removes a mapping added earlier.
	DeleteMapping(protocol string, extport, intport int) error

	// ExternalIP returns the gateway's Internet-facing address.
	ExternalIP() (net.IP, error)

	// String describes the mechanism, for logging.
	String() string
}

// Parse turns a port mapping description from the config or the command
// line into a Mapper. Mechanism names are case-insensitive.
//
//	"" or "none"        no mapping, returns a nil Mapper
//	"any"               whichever of UPnP and NAT-PMP answers first
//	"upnp"              UPnP only
//	"pmp"               NAT-PMP with gateway auto-discovery
//	"pmp:192.168.0.1"   NAT-PMP against the given gateway
//	"extip:77.12.33.4"  no mapping, the machine is reachable on the given IP
func Parse(spec string) (Mapper, error) {
	mech, arg, _ := strings.Cut(spec, ":")
	switch strings.ToLower(mech) {
	case "", "none", "off":
		return nil, nil
	case "any", "auto", "on":
		return deferred("UPnP or NAT-PMP", discoverAny), nil
	case "upnp":
		return deferred("UPnP", discoverUPnP), nil
	case "pmp", "natpmp", "nat-pmp":
		if arg == "" {
			return deferred("NAT-PMP", discoverPMP), nil
		}
		gw := net.ParseIP(arg)
		if gw == nil {
			return nil, fmt.Errorf("nat: invalid gateway address %q", arg)
		}
		return newPMP(gw), nil
	case "extip", "ip":
		ip := net.ParseIP(arg)
		if ip == nil {
			return nil, fmt.Errorf("nat: invalid external address %q", arg)
		}
		return ExtIP(ip), nil
	default:
		return nil, fmt.Errorf("nat: unknown mechanism %q", mech)
	}
}

// mapLifetime is the lifetime requested for gateway mappings. Map renews
// the mapping at the same cadence.
const mapLifetime = 10 * time.Minute

// Map keeps extport mapped to the local intport until stop is closed, then
// removes the mapping again. It is meant to run in its own goroutine.
//
// Map does not handle the gateway assigning a different external port than
// the requested one.
func Map(m Mapper, stop <-chan struct{}, protocol string, extport, intport int, name string) {
	logger := log.New("mapper", m, "proto", protocol, "extport", extport, "intport", intport)
	renew := func() {
		if _, err := m.AddMapping(protocol, extport, intport, name, mapLifetime); err != nil {
			logger.Debug("Couldn't map network port", "err", err)
		} else {
			logger.Info("Mapped network port")
		}
	}
	renew()

	ticker := time.NewTicker(mapLifetime)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			logger.Debug("Removing port mapping")
			m.DeleteMapping(protocol, extport, intport)
			return
		case <-ticker.C:
			renew()
		}
	}
}

// ExtIP is a Mapper for a manually configured external address. Mapping
// calls succeed without doing anything.
type ExtIP net.IP

func (ip ExtIP) AddMapping(protocol string, extport, intport int, name string, lifetime time.Duration) (uint16, error) {
	return uint16(extport), nil
}

func (ip ExtIP) DeleteMapping(string, int, int) error { return nil }

func (ip ExtIP) ExternalIP() (net.IP, error) { return net.IP(ip), nil }

func (ip ExtIP) String() string { return fmt.Sprintf("extip:%v", net.IP(ip)) }

// deferredMapper postpones gateway discovery until the first mapping call,
// so Parse returns immediately even though discovery can take seconds.
// Discovery runs at most once; if it fails, every call keeps failing.
type deferredMapper struct {
	name     string
	discover func() Mapper

	once  sync.Once
	found Mapper
}

func deferred(name string, discover func() Mapper) Mapper {
	return &deferredMapper{name: name, discover: discover}
}

func (d *deferredMapper) resolve() (Mapper, error) {
	d.once.Do(func() { d.found = d.discover() })
	if d.found == nil {
		return nil, fmt.Errorf("nat: no %s gateway found", d.name)
	}
	return d.found, nil
}

func (d *deferredMapper) AddMapping(protocol string, extport, intport int, name string, lifetime time.Duration) (uint16, error) {
	m, err := d.resolve()
	if err != nil {
		return 0, err
	}
	return m.AddMapping(protocol, extport, intport, name, lifetime)
}

func (d *deferredMapper) DeleteMapping(protocol string, extport, intport int) error {
	m, err := d.resolve()
	if err != nil {
		return err
	}
	return m.DeleteMapping(protocol, extport, intport)
}

func (d *deferredMapper) ExternalIP() (net.IP, error) {
	m, err := d.resolve()
	if err != nil {
		return nil, err
	}
	return m.ExternalIP()
}

func (d *deferredMapper) String() string { return d.name }

// discoverAny probes UPnP and NAT-PMP in parallel and keeps whichever
// answers first.
func discoverAny() Mapper {
	results := make(chan Mapper, 2)
	go func() { results <- discoverUPnP() }()
	go func() { results <- discoverPMP() }()
	for i := 0; i < cap(results); i++ {
		if m := <-results; m != nil {
			return m
		}
	}
	return nil
}
