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

// SecurityGroupList is the set of security-group IDs carried by a path.
type SecurityGroupList []uint32

// CommunityList is the set of BGP communities carried by a path.
type CommunityList []string

// TagList is the set of tag IDs carried by a path.
type TagList []uint32

// VnList is a list of virtual-network names (route destination VNs).
type VnList []string

// PathPreference orders paths of the same peer type.
type PathPreference struct {
	Preference uint32
}

// EcmpLoadBalance captures the ECMP hash-field hints of a path.
type EcmpLoadBalance struct {
	Fields []string
}

// Path is one peer's contribution to a route.
type Path struct {
	peer *Peer

	Nexthop     NextHopKey
	NhVrf       string
	Sg          SecurityGroupList
	Communities CommunityList
	Preference  PathPreference
	Ecmp        EcmpLoadBalance
	Tags        TagList
	DestVns     VnList

	// RoutingVrf is remembered on paths installed by the EVPN routing
	// peer and on Type-5 leaks, so that retraction can find the routing
	// VRF the leak was issued against.
	RoutingVrf *VrfEntry

	VxlanID  uint32
	OriginVn string
}

// Peer returns the identity of the path installer.
func (p *Path) Peer() *Peer {
	return p.peer
}

// EvpnRoutingData bundles the attributes of a route installed by the VXLAN
// routing manager.
type EvpnRoutingData struct {
	NhReq       NextHopReq
	Sg          SecurityGroupList
	Communities CommunityList
	Preference  PathPreference
	Ecmp        EcmpLoadBalance
	Tags        TagList
	RoutingVrf  *VrfEntry
	VxlanID     uint32
	DestVns     VnList
	OriginVn    string
}
