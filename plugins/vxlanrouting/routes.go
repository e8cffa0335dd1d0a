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

// routeNotify dispatches a route-table notification to the matching
// handler by the row class.
func (m *VxlanRouting) routeNotify(part *operdb.Partition, e operdb.Entry) {
	switch rt := e.(type) {
	case *oper.InetRoute:
		m.inetRouteNotify(rt)
	case *oper.EvpnRoute:
		m.evpnRouteNotify(rt)
	}
}

func (m *VxlanRouting) evpnRouteNotify(rt *oper.EvpnRoute) {
	if rt.IsMulticast() {
		return
	}
	if rt.IsType5() {
		m.evpnType5RouteNotify(rt)
		return
	}
	if rt.IsType2() && rt.Vrf().Vn() != nil {
		m.evpnType2RouteNotify(rt)
	}
}

// inetRouteNotify leaks local VM routes of bridge VRFs into the routing
// VRF's EVPN table as Type-5 routes. Only routes that carry both a local
// VM port path and an EVPN routing path are eligible; the latter marks the
// route as designated for leaking and names the routing VRF.
func (m *VxlanRouting) inetRouteNotify(rt *oper.InetRoute) {
	if rt.Vrf().Vn() == nil || rt.Vrf().Vn().VxlanRoutingVn() {
		return
	}

	evpnRoutingPath := rt.FindPath(m.OperDB.EvpnRoutingPeer())
	if evpnRoutingPath == nil {
		return
	}

	localVmPortPath := rt.FindLocalVmPortPath()
	routingVrf := evpnRoutingPath.RoutingVrf
	// handles the local VM port going away before the routing path does
	if rt.IsDeleted() || localVmPortPath == nil || routingVrf == nil {
		m.deleteEvpnType5Route(rt, evpnRoutingPath)
		return
	}

	m.updateEvpnType5Route(rt, localVmPortPath, routingVrf)
}

// updateEvpnType5Route builds the Type-5 leak of a local VM route: the
// local interface next hop is cloned with the VXLAN routing flag set and
// the path attributes are inherited.
func (m *VxlanRouting) updateEvpnType5Route(rt *oper.InetRoute,
	path *oper.Path, routingVrf *oper.VrfEntry) {

	evpnTable := routingVrf.GetEvpnRouteTable()
	if evpnTable == nil {
		return
	}

	nhKey := path.Nexthop.Clone()
	if ifKey, ok := nhKey.(*oper.InterfaceNHKey); ok {
		ifKey.Flags |= oper.NHFlagVxlanRouting
	}

	evpnTable.AddType5Route(m.OperDB.LocalVmExportPeer(), routingVrf.Name(),
		rt.Addr(), routingVrf.VxlanID(),
		&oper.EvpnRoutingData{
			NhReq:       oper.NextHopReq{Key: nhKey, VrfName: routingVrf.Name()},
			Sg:          path.Sg,
			Communities: path.Communities,
			Preference:  path.Preference,
			Ecmp:        path.Ecmp,
			Tags:        path.Tags,
			RoutingVrf:  routingVrf,
			VxlanID:     routingVrf.VxlanID(),
			DestVns:     path.DestVns,
		})
	m.metrics.countRouteAdd(metricsTableEvpn)
}

// deleteEvpnType5Route retracts the Type-5 leak the inet route produced in
// the routing VRF remembered on its EVPN routing path.
func (m *VxlanRouting) deleteEvpnType5Route(rt *oper.InetRoute, evpnRoutingPath *oper.Path) {
	routingVrf := evpnRoutingPath.RoutingVrf
	if routingVrf == nil {
		return
	}
	evpnTable := routingVrf.GetEvpnRouteTable()
	if evpnTable == nil {
		return
	}
	evpnTable.DeleteType5Route(m.OperDB.LocalVmExportPeer(), routingVrf.Name(), rt.Addr())
	m.metrics.countRouteDel(metricsTableEvpn)
}

// routeNotifyInLrEvpnTable is the visitor of routing-VRF EVPN walks. For a
// membership withdrawal it retracts the fan-out of every non-host Type-5
// row from the target bridge; for a membership addition (single target) or
// a routing-VRF (re)assignment (all bridges) it installs the fan-out.
// Only rows whose best path came from a BGP peer are leaked.
func (m *VxlanRouting) routeNotifyInLrEvpnTable(part *operdb.Partition,
	e operdb.Entry, lrUUID uuid.UUID, vn *oper.VirtualNetwork,
	update, withdraw bool) bool {

	evpnRt, ok := e.(*oper.EvpnRoute)
	if !ok || evpnRt.Vrf().Vn() == nil || !evpnRt.IsType5() {
		return true
	}
	if lrUUID == uuid.Nil {
		return true
	}
	// only non-host prefixes get copied into bridge VRFs
	if m.isHostRoute(evpnRt) {
		return true
	}

	if withdraw {
		if vn == nil || vn.GetVrf() == nil {
			return true
		}
		delBridgeVrf := vn.GetVrf()
		inetTable := delBridgeVrf.GetInetUnicastRouteTable(evpnRt.IPAddr())
		inetTable.Delete(m.OperDB.EvpnRoutingPeer(), delBridgeVrf.Name(),
			evpnRt.IPAddr(), evpnRt.VmIpPlen())
		m.metrics.countRouteDel(metricsTableInet)
		return true
	}

	info, ok := m.mapper.lrVrfInfoMap[lrUUID]
	if !ok {
		return true
	}

	var targets []*oper.VirtualNetwork
	if update && vn != nil {
		targets = []*oper.VirtualNetwork{vn}
	} else {
		targets = info.bridgeVns
	}

	for _, bridgeVn := range targets {
		bridgeVrf := bridgeVn.GetVrf()
		if bridgeVrf == nil {
			continue
		}

		inetTable := bridgeVrf.GetInetUnicastRouteTable(evpnRt.IPAddr())
		if !evpnRt.IsDeleted() {
			p := evpnRt.GetActivePath()
			routingVrf := info.routingVrf
			if p == nil || p.Peer().Type() != oper.PeerBgp || routingVrf == nil {
				return true
			}
			nhReq := oper.NextHopReq{
				Key:     &oper.VrfNHKey{VrfName: routingVrf.Name()},
				VrfName: routingVrf.Name(),
			}
			inetTable.AddEvpnRoutingRoute(evpnRt.IPAddr(), evpnRt.VmIpPlen(),
				routingVrf, m.OperDB.EvpnRoutingPeer(),
				p.Sg, p.Communities, p.Preference, p.Ecmp, p.Tags,
				nhReq, routingVrf.VxlanID(), p.DestVns)
			m.metrics.countRouteAdd(metricsTableInet)
		} else {
			inetTable.Delete(m.OperDB.EvpnRoutingPeer(), bridgeVrf.Name(),
				evpnRt.IPAddr(), evpnRt.VmIpPlen())
			m.metrics.countRouteDel(metricsTableInet)
		}
	}
	return true
}

// evpnType5RouteNotify runs for every Type-5 change in a routing VRF: it
// re-leaks non-host prefixes into all attached bridges and maintains the
// corresponding inet route inside the routing VRF itself, attributing the
// prefix to the bridge VN it originated from when one matches exactly.
func (m *VxlanRouting) evpnType5RouteNotify(rt *oper.EvpnRoute) {
	vrf := rt.Vrf()

	if vrf.Vn() != nil && vrf.Vn().VxlanRoutingVn() && !m.isHostRoute(rt) {
		m.routeNotifyInLrEvpnTable(nil, rt, vrf.Vn().LogicalRouterUUID(), nil, true, false)
	}

	if rt.IsDeleted() {
		inetTable := vrf.GetInetUnicastRouteTable(rt.IPAddr())
		inetTable.Delete(m.OperDB.EvpnRoutingPeer(), vrf.Name(), rt.IPAddr(), rt.VmIpPlen())
		m.metrics.countRouteDel(metricsTableInet)
		return
	}

	p := rt.GetActivePath()
	if p == nil || rt.GetActiveNextHop() == nil {
		return
	}
	nhReq := oper.NextHopReq{
		Key:     rt.GetActiveNextHop().Clone(),
		VrfName: vrf.Name(),
	}

	originVn := ""
	if vrf.Vn() != nil {
		if info, ok := m.mapper.lrVrfInfoMap[vrf.Vn().LogicalRouterUUID()]; ok {
			for _, bridgeVn := range info.bridgeVns {
				bridgeVrf := bridgeVn.GetVrf()
				if bridgeVrf == nil {
					continue
				}
				ucRt := bridgeVrf.GetInetUnicastRouteTable(rt.IPAddr()).GetUcRoute(rt.IPAddr())
				if ucRt != nil && ucRt.Addr().Equal(rt.IPAddr()) &&
					ucRt.Plen() == rt.VmIpPlen() {
					originVn = bridgeVn.Name()
					break
				}
			}
		}
	}

	inetTable := vrf.GetInetUnicastRouteTable(rt.IPAddr())
	inetTable.AddEvpnRoutingRoute(rt.IPAddr(), rt.VmIpPlen(), vrf,
		m.OperDB.EvpnRoutingPeer(),
		p.Sg, p.Communities, p.Preference, p.Ecmp, p.Tags,
		nhReq, p.VxlanID, p.DestVns, originVn)
	m.metrics.countRouteAdd(metricsTableInet)
}

// evpnType2RouteNotify mirrors every Type-2 row of a bridge VRF as an IP
// host route resolved through the routing VRF of the bridge's logical
// router. Rows with an unspecified IP are ignored.
func (m *VxlanRouting) evpnType2RouteNotify(rt *oper.EvpnRoute) {
	ip := rt.IPAddr()
	if ip == nil || ip.IsUnspecified() {
		return
	}

	routingVrf := m.mapper.getRoutingVrfUsingEvpnRoute(rt)
	if rt.IsDeleted() || routingVrf == nil {
		m.deleteInetRoute(rt)
		return
	}
	m.updateInetRoute(rt, routingVrf)
}

// deleteInetRoute removes the host route the Type-2 row produced in the
// bridge VRF's inet table, together with the Type-5 leak that host route
// may have generated.
func (m *VxlanRouting) deleteInetRoute(rt *oper.EvpnRoute) {
	bridgeVrf := rt.Vrf()
	ip := rt.IPAddr()
	if ip == nil || ip.IsUnspecified() {
		return
	}

	inetTable := bridgeVrf.GetInetUnicastRouteTable(ip)

	if inetRt := inetTable.FindRouteUsingKey(ip, rt.VmIpPlen()); inetRt != nil {
		if evpnRoutingPath := inetRt.FindPath(m.OperDB.EvpnRoutingPeer()); evpnRoutingPath != nil {
			m.deleteEvpnType5Route(inetRt, evpnRoutingPath)
		}
	}

	inetTable.Delete(m.OperDB.EvpnRoutingPeer(), bridgeVrf.Name(), ip, rt.VmIpPlen())
	m.metrics.countRouteDel(metricsTableInet)
}

// updateInetRoute installs the host route of a Type-2 row, pointing at the
// VRF indirection to the routing VRF.
func (m *VxlanRouting) updateInetRoute(rt *oper.EvpnRoute, routingVrf *oper.VrfEntry) {
	bridgeVrf := rt.Vrf()
	p := rt.GetActivePath()
	if p == nil {
		return
	}

	inetTable := bridgeVrf.GetInetUnicastRouteTable(rt.IPAddr())
	nhReq := oper.NextHopReq{
		Key:     &oper.VrfNHKey{VrfName: routingVrf.Name()},
		VrfName: routingVrf.Name(),
	}
	inetTable.AddEvpnRoutingRoute(rt.IPAddr(), rt.VmIpPlen(), routingVrf,
		m.OperDB.EvpnRoutingPeer(),
		p.Sg, p.Communities, p.Preference, p.Ecmp, p.Tags,
		nhReq, routingVrf.VxlanID(), p.DestVns)
	m.metrics.countRouteAdd(metricsTableInet)
}

// isHostRoute tells whether the EVPN row advertises a host prefix.
func (m *VxlanRouting) isHostRoute(rt *oper.EvpnRoute) bool {
	if rt == nil || rt.IPAddr() == nil {
		return false
	}
	if rt.IPAddr().To4() != nil {
		return rt.VmIpPlen() == 32
	}
	return rt.VmIpPlen() == 128
}
