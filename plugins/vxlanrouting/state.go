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

// vnState is the derived state attached to every tracked virtual network.
type vnState struct {
	// vmiList keeps the logical-router attachment interfaces of a bridge
	// VN in insertion order; the first live interface decides the VN's
	// logical router.
	vmiList []*oper.VmInterface

	// isRoutingVn is sticky: once the VN was observed as a VXLAN routing
	// VN it stays classified that way. A config flap must not be able to
	// turn an established routing VN into a bridge VN and back, which
	// would withdraw and re-leak every route on the logical router.
	isRoutingVn bool

	logicalRouterUUID uuid.UUID

	// vrfRef pins the VN's VRF while the state exists so that walks
	// scheduled before an unbind still find the route tables.
	vrfRef *oper.VrfEntry
}

func (s *vnState) hasVmi(vmi *oper.VmInterface) bool {
	for _, it := range s.vmiList {
		if it == vmi {
			return true
		}
	}
	return false
}

// addVmi inserts the interface into the VN's attachment list. When the
// interface became the head of the list and advertises a different logical
// router than recorded, the bridge membership is re-evaluated.
func (m *VxlanRouting) addVmi(vn *oper.VirtualNetwork, s *vnState, vmi *oper.VmInterface) {
	if s.hasVmi(vmi) {
		return
	}
	s.vmiList = append(s.vmiList, vmi)
	if s.logicalRouterUUID != vmi.LogicalRouterUUID() && s.vmiList[0] == vmi {
		m.bridgeVnNotify(vn, s)
	}
}

// deleteVmi removes the interface from the VN's attachment list and
// re-evaluates the bridge membership.
func (m *VxlanRouting) deleteVmi(vn *oper.VirtualNetwork, s *vnState, vmi *oper.VmInterface) {
	for i, it := range s.vmiList {
		if it == vmi {
			s.vmiList = append(s.vmiList[:i], s.vmiList[i+1:]...)
			m.bridgeVnNotify(vn, s)
			return
		}
	}
}

// updateLogicalRouterUUID recomputes the logical router of a bridge VN
// from its attachment list: the first interface with a non-nil UUID wins.
// Interfaces that cleared their UUID are pruned on the way; their own
// delete notification finishes the cleanup.
func updateLogicalRouterUUID(s *vnState) {
	if len(s.vmiList) == 0 {
		s.logicalRouterUUID = uuid.Nil
	}

	for len(s.vmiList) > 0 {
		head := s.vmiList[0]
		s.logicalRouterUUID = head.LogicalRouterUUID()
		if head.LogicalRouterUUID() != uuid.Nil {
			return
		}
		s.vmiList = s.vmiList[1:]
		if len(s.vmiList) == 0 {
			s.logicalRouterUUID = uuid.Nil
			return
		}
	}
}

// vmiState is the derived state attached to tracked logical-router
// attachment interfaces. It remembers the VN so that the interface can be
// detached from it even when the delete notification arrives with the VN
// binding already gone.
type vmiState struct {
	vn                *oper.VirtualNetwork
	logicalRouterUUID uuid.UUID
}

// vrfState owns the route-table subscriptions of one VRF.
type vrfState struct {
	isBridgeVrf bool

	evpnTable  *oper.EvpnTable
	inet4Table *oper.InetTable
	inet6Table *oper.InetTable

	evpnID  operdb.ListenerID
	inet4ID operdb.ListenerID
	inet6ID operdb.ListenerID
}

func (m *VxlanRouting) newVrfState(vrf *oper.VrfEntry) *vrfState {
	s := &vrfState{
		evpnTable:  vrf.GetEvpnRouteTable(),
		inet4Table: vrf.GetInet4UnicastRouteTable(),
		inet6Table: vrf.GetInet6UnicastRouteTable(),
	}
	s.evpnID = s.evpnTable.Register(m.routeNotify)
	s.inet4ID = s.inet4Table.Register(m.routeNotify)
	s.inet6ID = s.inet6Table.Register(m.routeNotify)
	return s
}

func (s *vrfState) unregister() {
	s.evpnTable.Unregister(s.evpnID)
	s.inet4Table.Unregister(s.inet4ID)
	s.inet6Table.Unregister(s.inet6ID)
}
