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

package vxlanrouting

import (
	uuid "github.com/satori/go.uuid"

	"github.com/YKonovalov/tf-controller/plugins/oper"
)

// handleSubnetRoute reconciles the inter-subnet routes of a bridge VRF:
// while the bridge is attached to a logical router with a routing VRF,
// every peer bridge carries routes for this bridge's subnets and vice
// versa; otherwise those routes are retracted.
func (m *VxlanRouting) handleSubnetRoute(vrf *oper.VrfEntry, bridgeVrf bool) {
	if vrf.Vn() != nil && !vrf.Vn().VxlanRoutingVn() {
		routingVrf := m.mapper.getRoutingVrfUsingVn(vrf.Vn())
		if routingVrf == nil || vrf.IsDeleted() {
			m.deleteSubnetRoute(vrf, nil)
			vrf.Vn().SetLrVrf(nil)
		} else {
			m.updateSubnetRoute(vrf, routingVrf)
			vrf.Vn().SetLrVrf(routingVrf)
		}
	} else if bridgeVrf {
		if vrf.IsDeleted() {
			m.deleteSubnetRoute(vrf, nil)
		}
	}
}

// deleteSubnetRoute retracts the subnet routes between the bridge VRF and
// every peer bridge on the same logical router. With a non-nil ipam only
// that subnet of the bridge is retracted from the peers.
func (m *VxlanRouting) deleteSubnetRoute(vrf *oper.VrfEntry, ipam *oper.VnIpam) {
	if vrf == nil || vrf.Vn() == nil {
		return
	}

	var bridgeVnIpam []oper.VnIpam
	if ipam == nil {
		bridgeVnIpam = vrf.Vn().VnIpam()
	} else {
		bridgeVnIpam = []oper.VnIpam{*ipam}
	}
	if len(bridgeVnIpam) == 0 {
		return
	}

	lrUUID, ok := m.mapper.vnLrSet[vrf.Vn()]
	if !ok || lrUUID == uuid.Nil {
		return
	}
	info, ok := m.mapper.lrVrfInfoMap[lrUUID]
	if !ok || len(info.bridgeVns) == 0 {
		return
	}

	evpnRoutingPeer := m.OperDB.EvpnRoutingPeer()
	for _, peerVn := range info.bridgeVns {
		if peerVn == vrf.Vn() {
			continue
		}
		peerVrf := peerVn.GetVrf()

		for _, item := range bridgeVnIpam {
			if peerVrf == nil {
				continue
			}
			if item.IsV4() {
				peerVrf.GetInet4UnicastRouteTable().Delete(evpnRoutingPeer,
					peerVrf.Name(), item.SubnetAddress(), item.Plen())
			} else {
				peerVrf.GetInet6UnicastRouteTable().Delete(evpnRoutingPeer,
					peerVrf.Name(), item.SubnetAddress(), item.Plen())
			}
			m.metrics.countRouteDel(metricsTableInet)
		}

		peerIpam := peerVn.VnIpam()
		if len(peerIpam) == 0 {
			continue
		}
		for _, item := range peerIpam {
			if item.IsV4() {
				vrf.GetInet4UnicastRouteTable().Delete(evpnRoutingPeer,
					vrf.Name(), item.SubnetAddress(), item.Plen())
			} else {
				vrf.GetInet6UnicastRouteTable().Delete(evpnRoutingPeer,
					vrf.Name(), item.SubnetAddress(), item.Plen())
			}
			m.metrics.countRouteDel(metricsTableInet)
		}
	}
}

// updateSubnetRoute cross-installs subnet routes between the bridge VRF
// and every peer bridge on the same logical router, all resolved through
// the VRF indirection to the routing VRF and carrying its VXLAN id.
func (m *VxlanRouting) updateSubnetRoute(bridgeVrf, routingVrf *oper.VrfEntry) {
	if bridgeVrf.Vn() == nil {
		return
	}

	bridgeVnIpam := bridgeVrf.Vn().VnIpam()
	if len(bridgeVnIpam) == 0 {
		return
	}

	lrUUID, ok := m.mapper.vnLrSet[bridgeVrf.Vn()]
	if !ok || lrUUID == uuid.Nil {
		return
	}
	info, ok := m.mapper.lrVrfInfoMap[lrUUID]
	if !ok || len(info.bridgeVns) == 0 {
		return
	}

	evpnRoutingPeer := m.OperDB.EvpnRoutingPeer()
	nhReq := oper.NextHopReq{
		Key:     &oper.VrfNHKey{VrfName: routingVrf.Name()},
		VrfName: routingVrf.Name(),
	}

	for _, peerVn := range info.bridgeVns {
		if peerVn == bridgeVrf.Vn() {
			continue
		}
		peerVrf := peerVn.GetVrf()

		for _, item := range bridgeVnIpam {
			if peerVrf == nil {
				continue
			}
			table := peerVrf.GetInet4UnicastRouteTable()
			if item.IsV6() {
				table = peerVrf.GetInet6UnicastRouteTable()
			}
			table.AddEvpnRoutingRoute(item.SubnetAddress(), item.Plen(),
				routingVrf, evpnRoutingPeer,
				oper.SecurityGroupList{}, oper.CommunityList{},
				oper.PathPreference{}, oper.EcmpLoadBalance{}, oper.TagList{},
				nhReq, routingVrf.VxlanID(), oper.VnList{})
			m.metrics.countRouteAdd(metricsTableInet)
		}

		peerIpam := peerVn.VnIpam()
		if len(peerIpam) == 0 {
			continue
		}
		for _, item := range peerIpam {
			table := bridgeVrf.GetInet4UnicastRouteTable()
			if item.IsV6() {
				table = bridgeVrf.GetInet6UnicastRouteTable()
			}
			table.AddEvpnRoutingRoute(item.SubnetAddress(), item.Plen(),
				routingVrf, evpnRoutingPeer,
				oper.SecurityGroupList{}, oper.CommunityList{},
				oper.PathPreference{}, oper.EcmpLoadBalance{}, oper.TagList{},
				nhReq, routingVrf.VxlanID(), oper.VnList{})
			m.metrics.countRouteAdd(metricsTableInet)
		}
	}
}
