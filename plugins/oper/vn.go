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

	"github.com/apparentlymart/go-cidr/cidr"
	uuid "github.com/satori/go.uuid"

	"github.com/YKonovalov/tf-controller/plugins/operdb"
)

// VnIpam is one subnet configured on a virtual network.
type VnIpam struct {
	Prefix *net.IPNet
}

// IsV4 tells whether the subnet is IPv4.
func (i VnIpam) IsV4() bool {
	return i.Prefix.IP.To4() != nil
}

// IsV6 tells whether the subnet is IPv6.
func (i VnIpam) IsV6() bool {
	return !i.IsV4()
}

// SubnetAddress returns the network address of the subnet.
func (i VnIpam) SubnetAddress() net.IP {
	first, _ := cidr.AddressRange(i.Prefix)
	return first
}

// Plen returns the subnet prefix length.
func (i VnIpam) Plen() int {
	ones, _ := i.Prefix.Mask.Size()
	return ones
}

// VirtualNetwork is one tenant network observed by the agent. A bridge VN
// represents a single subnet broadcast domain; a VXLAN routing VN carries
// the routing VRF shared by all bridge VNs of the same logical router.
type VirtualNetwork struct {
	operdb.EntryBase

	name              string
	vxlanRoutingVn    bool
	logicalRouterUUID uuid.UUID
	ipam              []VnIpam
	vrf               *VrfEntry

	// lrVrf caches the routing VRF the VN's subnets currently resolve
	// through; maintained by the VXLAN routing manager.
	lrVrf *VrfEntry
}

// Name returns the VN name.
func (vn *VirtualNetwork) Name() string {
	return vn.name
}

// VxlanRoutingVn tells whether the VN is a VXLAN routing VN.
func (vn *VirtualNetwork) VxlanRoutingVn() bool {
	return vn.vxlanRoutingVn
}

// LogicalRouterUUID returns the logical router the VN itself advertises.
// Only routing VNs carry a non-nil UUID here; bridge VNs join a logical
// router through their VM interfaces.
func (vn *VirtualNetwork) LogicalRouterUUID() uuid.UUID {
	return vn.logicalRouterUUID
}

// VnIpam returns the subnets configured on the VN.
func (vn *VirtualNetwork) VnIpam() []VnIpam {
	return vn.ipam
}

// GetVrf returns the VRF bound to the VN, or nil.
func (vn *VirtualNetwork) GetVrf() *VrfEntry {
	return vn.vrf
}

// SetLrVrf records the routing VRF the VN currently resolves through.
func (vn *VirtualNetwork) SetLrVrf(vrf *VrfEntry) {
	vn.lrVrf = vrf
}

// LrVrf returns the routing VRF recorded by SetLrVrf, or nil.
func (vn *VirtualNetwork) LrVrf() *VrfEntry {
	return vn.lrVrf
}
