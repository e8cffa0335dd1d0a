// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oper

import (
	"net"

	"github.com/YKonovalov/tf-controller/plugins/operdb"
)

// VrfEntry is one VRF instance with its three route tables.
type VrfEntry struct {
	operdb.EntryBase

	name       string
	vn         *VirtualNetwork
	vxlanID    uint32
	routingVrf bool

	evpnTable  *EvpnTable
	inet4Table *InetTable
	inet6Table *InetTable
}

// Name returns the VRF name.
func (vrf *VrfEntry) Name() string {
	return vrf.name
}

// Vn returns the virtual network the VRF belongs to, or nil.
func (vrf *VrfEntry) Vn() *VirtualNetwork {
	return vrf.vn
}

// VxlanID returns the VNI assigned to the VRF.
func (vrf *VrfEntry) VxlanID() uint32 {
	return vrf.vxlanID
}

// SetRoutingVrf flags the VRF as the routing VRF of a logical router.
func (vrf *VrfEntry) SetRoutingVrf(routing bool) {
	vrf.routingVrf = routing
}

// IsRoutingVrf tells whether the VRF was flagged as a routing VRF.
func (vrf *VrfEntry) IsRoutingVrf() bool {
	return vrf.routingVrf
}

// GetEvpnRouteTable returns the EVPN table of the VRF.
func (vrf *VrfEntry) GetEvpnRouteTable() *EvpnTable {
	return vrf.evpnTable
}

// GetInet4UnicastRouteTable returns the IPv4 unicast table of the VRF.
func (vrf *VrfEntry) GetInet4UnicastRouteTable() *InetTable {
	return vrf.inet4Table
}

// GetInet6UnicastRouteTable returns the IPv6 unicast table of the VRF.
func (vrf *VrfEntry) GetInet6UnicastRouteTable() *InetTable {
	return vrf.inet6Table
}

// GetInetUnicastRouteTable returns the unicast table matching the address
// family of ip.
func (vrf *VrfEntry) GetInetUnicastRouteTable(ip net.IP) *InetTable {
	if ip.To4() != nil {
		return vrf.inet4Table
	}
	return vrf.inet6Table
}
