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
	"fmt"
	"net"

	"github.com/YKonovalov/tf-controller/plugins/operdb"
)

// EVPN route types handled by the agent.
const (
	// EvpnRouteTypeMacIP is an EVPN Type-2 (MAC + optional IP host)
	// advertisement.
	EvpnRouteTypeMacIP = 2

	// EvpnRouteTypePrefix is an EVPN Type-5 (IP prefix) advertisement.
	EvpnRouteTypePrefix = 5
)

// EvpnRoute is a row of a VRF's EVPN table.
type EvpnRoute struct {
	RouteEntry

	routeType int
	mac       string
	ip        net.IP
	plen      int
	multicast bool
}

// IsType2 tells whether the route is a MAC+IP advertisement.
func (r *EvpnRoute) IsType2() bool {
	return r.routeType == EvpnRouteTypeMacIP
}

// IsType5 tells whether the route is an IP prefix advertisement.
func (r *EvpnRoute) IsType5() bool {
	return r.routeType == EvpnRouteTypePrefix
}

// IsMulticast tells whether the route is a multicast (Type-3) row.
func (r *EvpnRoute) IsMulticast() bool {
	return r.multicast
}

// Mac returns the MAC of a Type-2 route, empty for Type-5.
func (r *EvpnRoute) Mac() string {
	return r.mac
}

// IPAddr returns the IP carried by the route. May be nil/unspecified on
// MAC-only Type-2 rows.
func (r *EvpnRoute) IPAddr() net.IP {
	return r.ip
}

// VmIpPlen returns the prefix length of the advertised IP.
func (r *EvpnRoute) VmIpPlen() int {
	return r.plen
}

// EvpnTable is the EVPN route table of one VRF.
type EvpnTable struct {
	*operdb.Table

	vrf *VrfEntry
	db  *DB
}

func newEvpnTable(db *DB, vrf *VrfEntry) *EvpnTable {
	return &EvpnTable{
		Table: operdb.NewTable(db.log, vrf.Name()+".evpn.route.0", db.sched),
		vrf:   vrf,
		db:    db,
	}
}

// Vrf returns the VRF owning the table.
func (t *EvpnTable) Vrf() *VrfEntry {
	return t.vrf
}

func evpnRouteKey(routeType int, mac string, ip net.IP, plen int) string {
	return fmt.Sprintf("%d-%s-%s/%d", routeType, mac, ip.String(), plen)
}

func (t *EvpnTable) locateRoute(routeType int, mac string, ip net.IP, plen int) *EvpnRoute {
	key := evpnRouteKey(routeType, mac, ip, plen)
	if e := t.Get(key); e != nil {
		return e.(*EvpnRoute)
	}
	rt := &EvpnRoute{
		RouteEntry: RouteEntry{vrf: t.vrf},
		routeType:  routeType,
		mac:        mac,
		ip:         ip,
		plen:       plen,
	}
	return rt
}

// FindType5Route returns the Type-5 route for the host address, or nil.
func (t *EvpnTable) FindType5Route(ip net.IP) *EvpnRoute {
	e := t.Get(evpnRouteKey(EvpnRouteTypePrefix, "", ip, hostPlen(ip)))
	if e == nil {
		return nil
	}
	return e.(*EvpnRoute)
}

// FindType2Route returns the Type-2 route for (mac, ip), or nil.
func (t *EvpnTable) FindType2Route(mac string, ip net.IP) *EvpnRoute {
	e := t.Get(evpnRouteKey(EvpnRouteTypeMacIP, mac, ip, hostPlen(ip)))
	if e == nil {
		return nil
	}
	return e.(*EvpnRoute)
}

// AddType5Route installs or refreshes the peer's path on the Type-5 route
// for the given host address. Repeating the call with identical arguments
// is safe; the last writer wins.
func (t *EvpnTable) AddType5Route(peer *Peer, vrfName string, ip net.IP,
	vxlanID uint32, data *EvpnRoutingData) {

	t.db.sched.Ref()
	defer t.db.sched.Unref()

	rt := t.locateRoute(EvpnRouteTypePrefix, "", ip, hostPlen(ip))
	p := rt.locatePath(peer)
	p.Nexthop = data.NhReq.Key
	p.NhVrf = data.NhReq.VrfName
	p.Sg = data.Sg
	p.Communities = data.Communities
	p.Preference = data.Preference
	p.Ecmp = data.Ecmp
	p.Tags = data.Tags
	p.RoutingVrf = data.RoutingVrf
	p.VxlanID = data.VxlanID
	p.DestVns = data.DestVns
	p.OriginVn = data.OriginVn

	t.db.log.Debugf("evpn %s: add type-5 %s vxlan %d peer %s",
		vrfName, ip, vxlanID, peer.Name())
	t.Update(evpnRouteKey(EvpnRouteTypePrefix, "", ip, hostPlen(ip)), rt)
}

// AddRemoteType5Route installs or refreshes the peer's path on the Type-5
// route of an arbitrary prefix. This is the entry point of prefix routes
// learned from the control node.
func (t *EvpnTable) AddRemoteType5Route(peer *Peer, ip net.IP, plen int,
	vxlanID uint32, data *EvpnRoutingData) {

	t.db.sched.Ref()
	defer t.db.sched.Unref()

	rt := t.locateRoute(EvpnRouteTypePrefix, "", ip, plen)
	p := rt.locatePath(peer)
	p.Nexthop = data.NhReq.Key
	p.NhVrf = data.NhReq.VrfName
	p.Sg = data.Sg
	p.Communities = data.Communities
	p.Preference = data.Preference
	p.Ecmp = data.Ecmp
	p.Tags = data.Tags
	p.RoutingVrf = data.RoutingVrf
	p.VxlanID = data.VxlanID
	p.DestVns = data.DestVns

	t.Update(evpnRouteKey(EvpnRouteTypePrefix, "", ip, plen), rt)
}

// Delete retracts the peer's path from the Type-5 route of (ip, plen). The
// route disappears once the last path is gone. Deleting an absent path is
// a no-op.
func (t *EvpnTable) Delete(peer *Peer, vrfName string, ip net.IP, plen int) {
	t.db.sched.Ref()
	defer t.db.sched.Unref()

	e := t.Get(evpnRouteKey(EvpnRouteTypePrefix, "", ip, plen))
	if e == nil {
		return
	}
	rt := e.(*EvpnRoute)
	if !rt.removePath(peer) {
		return
	}
	t.db.log.Debugf("evpn %s: del type-5 %s/%d peer %s", vrfName, ip, plen, peer.Name())
	if len(rt.paths) == 0 {
		t.MarkDelete(rt)
		return
	}
	t.Notify(rt)
}

// DeleteType5Route retracts the peer's path from the Type-5 route of the
// host address.
func (t *EvpnTable) DeleteType5Route(peer *Peer, vrfName string, ip net.IP) {
	t.Delete(peer, vrfName, ip, hostPlen(ip))
}

// AddType2Route installs or refreshes the peer's path on the Type-2 route
// for (mac, ip).
func (t *EvpnTable) AddType2Route(peer *Peer, mac string, ip net.IP,
	nh NextHopKey, vxlanID uint32) {

	t.db.sched.Ref()
	defer t.db.sched.Unref()

	rt := t.locateRoute(EvpnRouteTypeMacIP, mac, ip, hostPlen(ip))
	p := rt.locatePath(peer)
	p.Nexthop = nh
	p.VxlanID = vxlanID
	t.Update(evpnRouteKey(EvpnRouteTypeMacIP, mac, ip, hostPlen(ip)), rt)
}

// DeleteType2Route retracts the peer's path from the Type-2 route.
func (t *EvpnTable) DeleteType2Route(peer *Peer, mac string, ip net.IP) {
	t.db.sched.Ref()
	defer t.db.sched.Unref()

	rt := t.FindType2Route(mac, ip)
	if rt == nil || !rt.removePath(peer) {
		return
	}
	if len(rt.paths) == 0 {
		t.MarkDelete(rt)
		return
	}
	t.Notify(rt)
}
