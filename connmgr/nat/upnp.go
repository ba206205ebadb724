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

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/dcps/internetgateway1"
	"github.com/huin/goupnp/dcps/internetgateway2"
)

const soapTimeout = 3 * time.Second

// igdClient is the slice of the generated goupnp bindings that port
// mapping needs. WANIPConnection1 and WANIPConnection2 both satisfy it.
type igdClient interface {
	GetExternalIPAddress() (string, error)
	AddPortMapping(remoteHost string, extport uint16, protocol string, intport uint16, intaddr string, enabled bool, desc string, lifetime uint32) error
	DeletePortMapping(remoteHost string, extport uint16, protocol string) error
	GetNATRSIPStatus() (sip bool, nat bool, err error)
}

// upnpMapper drives an Internet Gateway Device over SOAP.
type upnpMapper struct {
	kind   string
	client igdClient
	root   *goupnp.RootDevice
}

func (u *upnpMapper) AddMapping(protocol string, extport, intport int, name string, lifetime time.Duration) (uint16, error) {
	local, err := u.localAddress()
	if err != nil {
		return 0, err
	}
	protocol = strings.ToUpper(protocol)
	seconds := uint32(lifetime / time.Second)

	// Gateways refuse to move an existing mapping, so clear it first.
	u.client.DeletePortMapping("", uint16(extport), protocol)

	err = u.client.AddPortMapping("", uint16(extport), protocol, uint16(intport), local.String(), true, name, seconds)
	if err == nil {
		return uint16(extport), nil
	}
	// IGDv2 gateways can pick a free external port themselves.
	if c2, ok := u.client.(*internetgateway2.WANIPConnection2); ok {
		return c2.AddAnyPortMapping("", uint16(extport), protocol, uint16(intport), local.String(), true, name, seconds)
	}
	return 0, err
}

func (u *upnpMapper) DeleteMapping(protocol string, extport, intport int) error {
	return u.client.DeletePortMapping("", uint16(extport), strings.ToUpper(protocol))
}

func (u *upnpMapper) ExternalIP() (net.IP, error) {
	s, err := u.client.GetExternalIPAddress()
	if err != nil {
		return nil, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, errors.New("nat: gateway returned unparseable external address")
	}
	return ip, nil
}

func (u *upnpMapper) String() string { return "upnp:" + u.kind }

// localAddress returns this machine's address on the interface facing the
// gateway, which the gateway needs as the mapping target.
func (u *upnpMapper) localAddress() (net.IP, error) {
	devaddr, err := net.ResolveUDPAddr("udp4", u.root.URLBase.Host)
	if err != nil {
		return nil, err
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.Contains(devaddr.IP) {
				return ipnet.IP, nil
			}
		}
	}
	return nil, fmt.Errorf("nat: no local address shares a network with gateway %v", devaddr)
}

// discoverUPnP looks for an Internet Gateway Device on the local network,
// preferring the IGDv2 service over IGDv1.
func discoverUPnP() Mapper {
	if m := searchIGD(internetgateway2.URN_WANConnectionDevice_2, matchIGD2); m != nil {
		return m
	}
	return searchIGD(internetgateway1.URN_WANConnectionDevice_1, matchIGD1)
}

func matchIGD2(sc goupnp.ServiceClient) *upnpMapper {
	switch sc.Service.ServiceType {
	case internetgateway2.URN_WANIPConnection_2:
		return &upnpMapper{kind: "IGDv2-IP2", client: &internetgateway2.WANIPConnection2{ServiceClient: sc}}
	case internetgateway2.URN_WANIPConnection_1:
		return &upnpMapper{kind: "IGDv2-IP1", client: &internetgateway2.WANIPConnection1{ServiceClient: sc}}
	}
	return nil
}

func matchIGD1(sc goupnp.ServiceClient) *upnpMapper {
	if sc.Service.ServiceType == internetgateway1.URN_WANIPConnection_1 {
		return &upnpMapper{kind: "IGDv1-IP1", client: &internetgateway1.WANIPConnection1{ServiceClient: sc}}
	}
	return nil
}

// searchIGD runs an SSDP search for the given device URN and returns the
// first advertised service that matches and reports NAT as enabled.
func searchIGD(target string, match func(goupnp.ServiceClient) *upnpMapper) Mapper {
	devs, err := goupnp.DiscoverDevices(target)
	if err != nil {
		return nil
	}
	var found *upnpMapper
	for _, dev := range devs {
		if found != nil {
			break
		}
		if dev.Root == nil {
			continue
		}
		dev.Root.Device.VisitServices(func(service *goupnp.Service) {
			if found != nil {
				return
			}
			sc := goupnp.ServiceClient{
				SOAPClient: service.NewSOAPClient(),
				RootDevice: dev.Root,
				Location:   dev.Location,
				Service:    service,
			}
			sc.SOAPClient.HTTPClient.Timeout = soapTimeout
			m := match(sc)
			if m == nil {
				return
			}
			m.root = dev.Root
			if _, natEnabled, err := m.client.GetNATRSIPStatus(); err == nil && natEnabled {
				found = m
			}
		})
	}
	if found == nil {
		return nil
	}
	return found
}
