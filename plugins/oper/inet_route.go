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
	"net/netip"

	"github.com/gaissmai/cidrtree"

	"github.com/YKonovalov/tf-controller/plugins/operdb"
)

// InetRoute is a row of a VRF's IPv4 or IPv6 unicast table.
type InetRoute struct {
	RouteEntry

	ip   net.IP
	plen int
}

// Addr returns the route prefix address.
func (r *InetRoute) Addr() net.IP {
	return r.ip
}

// Plen returns the route prefix length.
func (r *InetRoute) Plen() int {
	return r.plen
}

// InetTable is the IPv4 or IPv6 unicast route table of one VRF.
type InetTable struct {
	*operdb.Table

	vrf  *VrfEntry
	db   *DB
	ipv6 bool
}

func newInetTable(db *DB, vrf *VrfEntry, ipv6 bool) *InetTable {
	family := "inet"
	if ipv6 {
		family = "inet6"
	}
	return &InetTable{
		Table: operdb.NewTable(db.log, fmt.Sprintf("%s.uc.%s.0", vrf.Name(), family), db.sched),
		vrf:   vrf,
		db:    db,
		ipv6:  ipv6,
	}
}

// Vrf returns the VRF owning the table.
func (t *InetTable) Vrf() *VrfEntry {
	return t.vrf
}

func inetRouteKey(ip net.IP, plen int) string {
	return fmt.Sprintf("%s/%d", ip.String(), plen)
}

// FindRoute returns the route with the exact (ip, plen) key, or nil.
func (t *InetTable) FindRoute(ip net.IP, plen int) *InetRoute {
	e := t.Get(inetRouteKey(ip, plen))
	if e == nil {
		return nil
	}
	return e.(*InetRoute)
}

// GetUcRoute returns the longest-prefix match for the address, or nil.
func (t *InetTable) GetUcRoute(ip net.IP) *InetRoute {
	addr, ok := toNetipAddr(ip)
	if !ok {
		return nil
	}
	var prefixes []netip.Prefix
	byPrefix := make(map[string]*InetRoute)
	for _, key := range t.Keys() {
		rt := t.Get(key).(*InetRoute)
		rtAddr, ok := toNetipAddr(rt.ip)
		if !ok {
			continue
		}
		pfx, err := rtAddr.Prefix(rt.plen)
		if err != nil {
			continue
		}
		prefixes = append(prefixes, pfx)
		byPrefix[pfx.String()] = rt
	}
	if len(prefixes) == 0 {
		return nil
	}
	lpm := cidrtree.New(prefixes...)
	pfx, found := lpm.Lookup(addr)
	if !found {
		return nil
	}
	return byPrefix[pfx.String()]
}

// FindRouteUsingKey returns the route matching (ip, plen) exactly, or the
// next highest (longest) matching route covering ip.
func (t *InetTable) FindRouteUsingKey(ip net.IP, plen int) *InetRoute {
	if rt := t.FindRoute(ip, plen); rt != nil {
		return rt
	}
	return t.GetUcRoute(ip)
}

func (t *InetTable) locateRoute(ip net.IP, plen int) *InetRoute {
	if rt := t.FindRoute(ip, plen); rt != nil {
		return rt
	}
	return &InetRoute{
		RouteEntry: RouteEntry{vrf: t.vrf},
		ip:         ip,
		plen:       plen,
	}
}

// AddEvpnRoutingRoute installs or refreshes the peer's path on (ip, plen),
// pointing at the next hop of nhReq and carrying the attributes inherited
// from the source path. originVn optionally attributes the prefix to the
// bridge VN it originated from.
func (t *InetTable) AddEvpnRoutingRoute(ip net.IP, plen int, routingVrf *VrfEntry,
	peer *Peer, sg SecurityGroupList, communities CommunityList,
	pref PathPreference, ecmp EcmpLoadBalance, tags TagList,
	nhReq NextHopReq, vxlanID uint32, destVns VnList, originVn ...string) {

	t.db.sched.Ref()
	defer t.db.sched.Unref()

	rt := t.locateRoute(ip, plen)
	p := rt.locatePath(peer)
	p.Nexthop = nhReq.Key
	p.NhVrf = nhReq.VrfName
	p.Sg = sg
	p.Communities = communities
	p.Preference = pref
	p.Ecmp = ecmp
	p.Tags = tags
	p.RoutingVrf = routingVrf
	p.VxlanID = vxlanID
	p.DestVns = destVns
	if len(originVn) > 0 {
		p.OriginVn = originVn[0]
	}

	t.db.log.Debugf("%s: add %s/%d nh %s peer %s",
		t.Name(), ip, plen, nhReq.Key, peer.Name())
	t.Update(inetRouteKey(ip, plen), rt)
}

// AddLocalVmRoute installs the path of a locally attached VM port on
// (ip, plen), resolving over the port interface.
func (t *InetTable) AddLocalVmRoute(ip net.IP, plen int, ifName string,
	pref uint32) {

	t.db.sched.Ref()
	defer t.db.sched.Unref()

	rt := t.locateRoute(ip, plen)
	p := rt.locatePath(t.db.localVmPortPeer)
	p.Nexthop = &InterfaceNHKey{IfName: ifName}
	p.NhVrf = t.vrf.Name()
	p.Preference = PathPreference{Preference: pref}
	t.Update(inetRouteKey(ip, plen), rt)
}

// Delete retracts the peer's path from (ip, plen). The route disappears
// once the last path is gone. Deleting an absent path is a no-op.
func (t *InetTable) Delete(peer *Peer, vrfName string, ip net.IP, plen int) {
	t.db.sched.Ref()
	defer t.db.sched.Unref()

	rt := t.FindRoute(ip, plen)
	if rt == nil || !rt.removePath(peer) {
		return
	}
	t.db.log.Debugf("%s: del %s/%d peer %s", t.Name(), ip, plen, peer.Name())
	if len(rt.paths) == 0 {
		t.MarkDelete(rt)
		return
	}
	t.Notify(rt)
}

// toNetipAddr converts a net.IP into netip.Addr, normalizing mapped IPv4.
func toNetipAddr(ip net.IP) (netip.Addr, bool) {
	if v4 := ip.To4(); v4 != nil {
		return netip.AddrFromSlice(v4)
	}
	return netip.AddrFromSlice(ip)
}
