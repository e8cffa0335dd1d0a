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

// routedVrfInfo is the record of one logical router: the routing VN that
// owns it, the routing VRF and the bridge VNs attached to it. The bridge
// list keeps insertion order; fan-out and origin-VN attribution iterate it
// deterministically.
type routedVrfInfo struct {
	parentVn   *oper.VirtualNetwork
	routingVrf *oper.VrfEntry
	bridgeVns  []*oper.VirtualNetwork
}

func (i *routedVrfInfo) hasBridgeVn(vn *oper.VirtualNetwork) bool {
	for _, it := range i.bridgeVns {
		if it == vn {
			return true
		}
	}
	return false
}

func (i *routedVrfInfo) addBridgeVn(vn *oper.VirtualNetwork) {
	if !i.hasBridgeVn(vn) {
		i.bridgeVns = append(i.bridgeVns, vn)
	}
}

func (i *routedVrfInfo) removeBridgeVn(vn *oper.VirtualNetwork) {
	for idx, it := range i.bridgeVns {
		if it == vn {
			i.bridgeVns = append(i.bridgeVns[:idx], i.bridgeVns[idx+1:]...)
			return
		}
	}
}

// vrfMapper is the central logical-router map plus the walk coordination
// over bridge and routing EVPN tables.
type vrfMapper struct {
	mgr *VxlanRouting

	// lrVrfInfoMap maps a logical-router UUID to its record.
	lrVrfInfoMap map[uuid.UUID]*routedVrfInfo

	// vnLrSet is the reverse index: which logical router a VN currently
	// participates in.
	vnLrSet map[*oper.VirtualNetwork]uuid.UUID

	// evpnTableWalker de-duplicates walks over bridge EVPN tables: at
	// most one walker per table is alive; re-scheduling re-arms it.
	evpnTableWalker map[*operdb.Table]*operdb.Walker
}

func newVrfMapper(mgr *VxlanRouting) *vrfMapper {
	return &vrfMapper{
		mgr:             mgr,
		lrVrfInfoMap:    make(map[uuid.UUID]*routedVrfInfo),
		vnLrSet:         make(map[*oper.VirtualNetwork]uuid.UUID),
		evpnTableWalker: make(map[*operdb.Table]*operdb.Walker),
	}
}

func (vm *vrfMapper) locateLrInfo(lrUUID uuid.UUID) *routedVrfInfo {
	info, ok := vm.lrVrfInfoMap[lrUUID]
	if !ok {
		info = &routedVrfInfo{}
		vm.lrVrfInfoMap[lrUUID] = info
	}
	return info
}

// tryDeleteLogicalRouter drops the logical-router record once neither a
// routing VRF nor any bridge VN holds it.
func (vm *vrfMapper) tryDeleteLogicalRouter(lrUUID uuid.UUID) {
	info, ok := vm.lrVrfInfoMap[lrUUID]
	if !ok {
		return
	}
	if info.routingVrf == nil && len(info.bridgeVns) == 0 {
		delete(vm.lrVrfInfoMap, lrUUID)
	}
}

// walkEvpnTable (re)schedules a full scan of a bridge VRF's EVPN table so
// that Type-2 leakage is recomputed from scratch. Every schedule also
// revisits the subnet routes of the bridge VRF.
func (vm *vrfMapper) walkEvpnTable(table *oper.EvpnTable) {
	w, ok := vm.evpnTableWalker[table.Table]
	if !ok {
		w = table.AllocWalker(
			func(part *operdb.Partition, e operdb.Entry) bool {
				m := vm.mgr
				m.routeNotify(part, e)
				return true
			},
			vm.routeWalkDone)
		vm.evpnTableWalker[table.Table] = w
	}
	table.WalkAgain(w)

	vm.mgr.handleSubnetRoute(table.Vrf(), false)
}

func (vm *vrfMapper) routeWalkDone(w *operdb.Walker, t *operdb.Table) {
	delete(vm.evpnTableWalker, t)
	t.ReleaseWalker(w)
}

// walkRoutingVrf scans the routing VRF's EVPN table of the logical router
// with a per-bridge visitor. No de-duplication: every walk carries its own
// (bridge VN, update/withdraw) parameters.
func (vm *vrfMapper) walkRoutingVrf(lrUUID uuid.UUID, vn *oper.VirtualNetwork,
	update, withdraw bool) {

	if lrUUID == uuid.Nil {
		return
	}
	info, ok := vm.lrVrfInfoMap[lrUUID]
	if !ok || info.routingVrf == nil {
		return
	}
	evpnTable := info.routingVrf.GetEvpnRouteTable()
	if evpnTable == nil {
		return
	}
	w := evpnTable.AllocWalker(
		func(part *operdb.Partition, e operdb.Entry) bool {
			return vm.mgr.routeNotifyInLrEvpnTable(part, e, lrUUID, vn, update, withdraw)
		},
		func(w *operdb.Walker, t *operdb.Table) {
			t.ReleaseWalker(w)
		})
	evpnTable.WalkAgain(w)
}

// walkBridgeVrfs re-scans the EVPN table of every bridge VN attached to
// the logical router.
func (vm *vrfMapper) walkBridgeVrfs(info *routedVrfInfo) {
	for _, vn := range info.bridgeVns {
		vrf := vn.GetVrf()
		if vrf == nil {
			continue
		}
		evpnTable := vrf.GetEvpnRouteTable()
		if evpnTable == nil {
			continue
		}
		vm.walkEvpnTable(evpnTable)
	}
}

func (vm *vrfMapper) getRoutingVrfUsingVn(vn *oper.VirtualNetwork) *oper.VrfEntry {
	if lrUUID, ok := vm.vnLrSet[vn]; ok {
		return vm.getRoutingVrfUsingUuid(lrUUID)
	}
	return nil
}

func (vm *vrfMapper) getRoutingVrfUsingUuid(lrUUID uuid.UUID) *oper.VrfEntry {
	if info, ok := vm.lrVrfInfoMap[lrUUID]; ok {
		return info.routingVrf
	}
	return nil
}

func (vm *vrfMapper) getRoutingVrfUsingEvpnRoute(rt *oper.EvpnRoute) *oper.VrfEntry {
	return vm.getRoutingVrfUsingUuid(vm.getLogicalRouterUuidUsingRoute(rt))
}

// getLogicalRouterUuidUsingRoute resolves the logical router of a route
// through its local VM port path: interface next hop -> VM interface ->
// virtual network -> tracked VN state.
func (vm *vrfMapper) getLogicalRouterUuidUsingRoute(rt *oper.EvpnRoute) uuid.UUID {
	path := rt.FindLocalVmPortPath()
	if path == nil {
		return uuid.Nil
	}
	nh, ok := path.Nexthop.(*oper.InterfaceNHKey)
	if !ok {
		return uuid.Nil
	}
	vmi := vm.mgr.OperDB.FindVmi(nh.IfName)
	if vmi == nil || vmi.Vn() == nil {
		return uuid.Nil
	}
	s, _ := vmi.Vn().GetState(vm.mgr.vnListenerID).(*vnState)
	if s == nil || len(s.vmiList) == 0 {
		return uuid.Nil
	}
	return s.logicalRouterUUID
}
