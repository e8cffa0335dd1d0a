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
	"github.com/YKonovalov/tf-controller/plugins/operdb"
)

// vnNotify tracks virtual networks. A routing VN installs/withdraws the
// routing VRF of its logical router; a bridge VN joins/leaves the logical
// router derived from its attachment interfaces.
func (m *VxlanRouting) vnNotify(part *operdb.Partition, e operdb.Entry) {
	vn, ok := e.(*oper.VirtualNetwork)
	if !ok {
		return
	}
	s, _ := vn.GetState(m.vnListenerID).(*vnState)

	if vn.IsDeleted() {
		if s == nil {
			return
		}
		if s.isRoutingVn {
			m.routingVnNotify(vn, s)
		} else {
			m.bridgeVnNotify(vn, s)
		}
		vn.ClearState(m.vnListenerID)
		return
	}

	if s == nil {
		s = &vnState{}
		vn.SetState(m.vnListenerID, s)
	}

	if vn.VxlanRoutingVn() {
		s.isRoutingVn = true
	}

	s.vrfRef = vn.GetVrf()
	if s.isRoutingVn {
		s.logicalRouterUUID = vn.LogicalRouterUUID()
		m.routingVnNotify(vn, s)
	} else {
		m.bridgeVnNotify(vn, s)
	}
}

// bridgeVnNotify aligns the bridge VN's membership in a logical router
// with the state derived from its attachment interfaces. On any membership
// transition the bridge's EVPN table is re-walked so Type-2 leakage is
// recomputed, and the routing VRF's EVPN table is walked to install or
// retract the Type-5 fan-out on this bridge.
func (m *VxlanRouting) bridgeVnNotify(vn *oper.VirtualNetwork, s *vnState) {
	// VNs advertising their own logical router are not bridge members
	if vn.LogicalRouterUUID() != uuid.Nil {
		return
	}

	cur, hasCur := m.mapper.vnLrSet[vn]
	withdraw := false
	update := true

	// the attachment list may have gained or lost interfaces
	updateLogicalRouterUUID(s)

	if vn.IsDeleted() || vn.GetVrf() == nil {
		withdraw = true
		update = false
	}

	if hasCur && cur != s.logicalRouterUUID && s.logicalRouterUUID != uuid.Nil {
		withdraw = true
	}

	if s.logicalRouterUUID == uuid.Nil {
		withdraw = true
		update = false
	}

	var info *routedVrfInfo
	if hasCur {
		info = m.mapper.lrVrfInfoMap[cur]
	}

	if withdraw {
		if info != nil {
			// drop the peer subnet routes while the VRF is still usable
			if vn.GetVrf() != nil && !vn.GetVrf().IsDeleted() {
				m.deleteSubnetRoute(vn.GetVrf(), nil)
			}
			if info.hasBridgeVn(vn) {
				m.mapper.walkRoutingVrf(cur, vn, false, true)
				info.removeBridgeVn(vn)
			}
			m.mapper.tryDeleteLogicalRouter(cur)
		}
		delete(m.mapper.vnLrSet, vn)
	}

	if update {
		m.mapper.vnLrSet[vn] = s.logicalRouterUUID
		if s.logicalRouterUUID == uuid.Nil {
			return
		}
		info := m.mapper.locateLrInfo(s.logicalRouterUUID)
		info.addBridgeVn(vn)
		m.mapper.walkRoutingVrf(s.logicalRouterUUID, vn, true, false)
	}

	// without a VRF no walk can be scheduled
	if s.vrfRef == nil {
		return
	}

	if update || withdraw {
		if evpnTable := s.vrfRef.GetEvpnRouteTable(); evpnTable != nil {
			m.mapper.walkEvpnTable(evpnTable)
		}
	}
}

// routingVnNotify maintains the ownership of a logical router by its
// routing VN and the installed routing VRF, re-walking every attached
// bridge whenever the routing VRF changes hands.
func (m *VxlanRouting) routingVnNotify(vn *oper.VirtualNetwork, s *vnState) {
	withdraw := false
	update := false
	cur, hasCur := m.mapper.vnLrSet[vn]

	if vn.IsDeleted() || vn.GetVrf() == nil || !s.isRoutingVn {
		update = false
		withdraw = true
	} else {
		update = true
		if hasCur && cur != s.logicalRouterUUID {
			// logical router changed; withdraw from the old one
			withdraw = true
		}
	}

	if withdraw && hasCur {
		if info, ok := m.mapper.lrVrfInfoMap[cur]; ok {
			// Clear only if this VN still owns the logical router. Another
			// routing VN may have claimed it already and its notification
			// may have arrived before this VN's withdrawal.
			if info.parentVn == vn {
				info.parentVn = nil
				info.routingVrf = nil
				m.mapper.walkBridgeVrfs(info)
			}
			m.mapper.tryDeleteLogicalRouter(cur)
		}
		delete(m.mapper.vnLrSet, vn)
	}

	if update {
		if s.logicalRouterUUID == uuid.Nil {
			return
		}
		if _, ok := m.mapper.vnLrSet[vn]; !ok {
			m.mapper.vnLrSet[vn] = s.logicalRouterUUID
		}
		info := m.mapper.locateLrInfo(s.logicalRouterUUID)
		info.parentVn = vn
		if info.routingVrf != vn.GetVrf() {
			info.routingVrf = vn.GetVrf()
			m.mapper.walkBridgeVrfs(info)
		}
	}
}

// vmiNotify tracks logical-router attachment interfaces. The VN notify
// path is re-entered synchronously before the interface is inserted so the
// VN is guaranteed to carry state even when the interface arrives first.
func (m *VxlanRouting) vmiNotify(part *operdb.Partition, e operdb.Entry) {
	vmi, ok := e.(*oper.VmInterface)
	if !ok {
		return
	}

	vn := vmi.Vn()
	s, _ := vmi.GetState(m.vmiListenerID).(*vmiState)

	if vmi.IsDeleted() || vn == nil || vmi.LogicalRouterUUID() == uuid.Nil {
		if s == nil {
			return
		}
		vn = s.vn
		if vnS, _ := vn.GetState(m.vnListenerID).(*vnState); vnS != nil {
			m.deleteVmi(vn, vnS, vmi)
		}
		vmi.ClearState(m.vmiListenerID)
		return
	}

	if vmi.DeviceType() != oper.DeviceTypeVmiOnLr || vmi.VmiType() != oper.VmiTypeRouter {
		return
	}

	if s == nil {
		s = &vmiState{vn: vn}
		vmi.SetState(m.vmiListenerID, s)
	}
	s.logicalRouterUUID = vmi.LogicalRouterUUID()

	// ensure the VN carries state before the interface is pushed into it
	m.vnNotify(m.OperDB.VnTable().Partition(), vn)

	if vnS, _ := vn.GetState(m.vnListenerID).(*vnState); vnS != nil {
		m.addVmi(vn, vnS, vmi)
	}
}

// vrfNotify classifies VRFs and owns their route-table subscriptions. The
// fabric and fabric-policy VRFs are excluded outright.
func (m *VxlanRouting) vrfNotify(part *operdb.Partition, e operdb.Entry) {
	vrf, ok := e.(*oper.VrfEntry)
	if !ok {
		return
	}
	if vrf.Name() == m.AgentConf.FabricVrfName() ||
		vrf.Name() == m.AgentConf.FabricPolicyVrfName() {
		return
	}

	s, _ := vrf.GetState(m.vrfListenerID).(*vrfState)
	if vrf.IsDeleted() {
		if s != nil {
			m.handleSubnetRoute(vrf, s.isBridgeVrf)
			s.unregister()
			vrf.ClearState(m.vrfListenerID)
		}
		return
	}

	if s == nil {
		s = m.newVrfState(vrf)
		vrf.SetState(m.vrfListenerID, s)
	}
	s.isBridgeVrf = vrf.Vn() != nil && !vrf.Vn().VxlanRoutingVn()
	if vrf.Vn() != nil && vrf.Vn().VxlanRoutingVn() {
		vrf.SetRoutingVrf(true)
	}

	m.handleSubnetRoute(vrf, s.isBridgeVrf)
}
