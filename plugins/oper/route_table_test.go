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
	"testing"

	. "github.com/onsi/gomega"

	"github.com/ligato/cn-infra/logging/logrus"
)

func testDB() *DB {
	return NewDB(logrus.DefaultLogger())
}

func TestInetRoutePeerScopedDelete(t *testing.T) {
	RegisterTestingT(t)
	db := testDB()
	db.UpdateVrf(VrfSpec{Name: "blue", VxlanID: 10})
	vrf := db.FindVrf("blue")
	Expect(vrf).ToNot(BeNil())

	table := vrf.GetInet4UnicastRouteTable()
	ip := net.ParseIP("10.1.1.5")

	table.AddLocalVmRoute(ip, 32, "tap0", 100)
	table.AddEvpnRoutingRoute(ip, 32, vrf, db.EvpnRoutingPeer(),
		SecurityGroupList{}, CommunityList{}, PathPreference{}, EcmpLoadBalance{},
		TagList{}, NextHopReq{Key: &VrfNHKey{VrfName: "red"}, VrfName: "red"},
		10, VnList{})

	rt := table.FindRoute(ip, 32)
	Expect(rt).ToNot(BeNil())
	Expect(rt.Paths()).To(HaveLen(2))

	// the local VM path wins the active-path election
	Expect(rt.GetActivePath().Peer().Type()).To(Equal(PeerLocalVmPort))
	Expect(rt.FindLocalVmPortPath()).ToNot(BeNil())

	// deleting one peer's path leaves the other's untouched
	table.Delete(db.EvpnRoutingPeer(), "blue", ip, 32)
	rt = table.FindRoute(ip, 32)
	Expect(rt).ToNot(BeNil())
	Expect(rt.Paths()).To(HaveLen(1))
	Expect(rt.FindPath(db.EvpnRoutingPeer())).To(BeNil())

	// deleting an absent path is a no-op
	table.Delete(db.EvpnRoutingPeer(), "blue", ip, 32)
	Expect(table.FindRoute(ip, 32)).ToNot(BeNil())

	// the route disappears with its last path
	table.Delete(db.LocalVmPortPeer(), "blue", ip, 32)
	Expect(table.FindRoute(ip, 32)).To(BeNil())
}

func TestInetRouteIdempotentAdd(t *testing.T) {
	RegisterTestingT(t)
	db := testDB()
	db.UpdateVrf(VrfSpec{Name: "blue", VxlanID: 10})
	vrf := db.FindVrf("blue")

	table := vrf.GetInet4UnicastRouteTable()
	ip := net.ParseIP("10.1.0.0")

	for i := 0; i < 3; i++ {
		table.AddEvpnRoutingRoute(ip, 24, vrf, db.EvpnRoutingPeer(),
			SecurityGroupList{}, CommunityList{}, PathPreference{}, EcmpLoadBalance{},
			TagList{}, NextHopReq{Key: &VrfNHKey{VrfName: "red"}, VrfName: "red"},
			10, VnList{})
	}

	rt := table.FindRoute(ip, 24)
	Expect(rt).ToNot(BeNil())
	Expect(rt.Paths()).To(HaveLen(1))
}

func TestInetTableLongestPrefixMatch(t *testing.T) {
	RegisterTestingT(t)
	db := testDB()
	db.UpdateVrf(VrfSpec{Name: "blue", VxlanID: 10})
	vrf := db.FindVrf("blue")

	table := vrf.GetInet4UnicastRouteTable()
	nhReq := NextHopReq{Key: &VrfNHKey{VrfName: "red"}, VrfName: "red"}

	table.AddEvpnRoutingRoute(net.ParseIP("10.1.0.0"), 16, vrf, db.EvpnRoutingPeer(),
		SecurityGroupList{}, CommunityList{}, PathPreference{}, EcmpLoadBalance{},
		TagList{}, nhReq, 10, VnList{})
	table.AddEvpnRoutingRoute(net.ParseIP("10.1.1.0"), 24, vrf, db.EvpnRoutingPeer(),
		SecurityGroupList{}, CommunityList{}, PathPreference{}, EcmpLoadBalance{},
		TagList{}, nhReq, 10, VnList{})

	rt := table.GetUcRoute(net.ParseIP("10.1.1.77"))
	Expect(rt).ToNot(BeNil())
	Expect(rt.Plen()).To(Equal(24))

	rt = table.GetUcRoute(net.ParseIP("10.1.2.1"))
	Expect(rt).ToNot(BeNil())
	Expect(rt.Plen()).To(Equal(16))

	Expect(table.GetUcRoute(net.ParseIP("192.168.1.1"))).To(BeNil())

	// exact match preferred, LPM as the fallback
	rt = table.FindRouteUsingKey(net.ParseIP("10.1.1.0"), 24)
	Expect(rt.Plen()).To(Equal(24))
	rt = table.FindRouteUsingKey(net.ParseIP("10.1.1.5"), 32)
	Expect(rt.Plen()).To(Equal(24))
}

func TestEvpnTableTypedRoutes(t *testing.T) {
	RegisterTestingT(t)
	db := testDB()
	db.UpdateVrf(VrfSpec{Name: "routing", VxlanID: 4096})
	vrf := db.FindVrf("routing")

	table := vrf.GetEvpnRouteTable()
	ip := net.ParseIP("10.1.1.5")

	table.AddType5Route(db.LocalVmExportPeer(), "routing", ip, 4096,
		&EvpnRoutingData{
			NhReq:      NextHopReq{Key: &InterfaceNHKey{IfName: "tap0"}, VrfName: "routing"},
			RoutingVrf: vrf,
			VxlanID:    4096,
		})

	rt := table.FindType5Route(ip)
	Expect(rt).ToNot(BeNil())
	Expect(rt.IsType5()).To(BeTrue())
	Expect(rt.VmIpPlen()).To(Equal(32))
	Expect(rt.FindPath(db.LocalVmExportPeer()).RoutingVrf).To(BeIdenticalTo(vrf))

	table.AddType2Route(db.LocalVmPortPeer(), "02:fe:00:00:00:05", ip,
		&InterfaceNHKey{IfName: "tap0"}, 101)
	t2 := table.FindType2Route("02:fe:00:00:00:05", ip)
	Expect(t2).ToNot(BeNil())
	Expect(t2.IsType2()).To(BeTrue())
	Expect(t2.Mac()).To(Equal("02:fe:00:00:00:05"))

	// type-2 and type-5 rows for the same IP do not collide
	Expect(table.Len()).To(Equal(2))

	table.DeleteType5Route(db.LocalVmExportPeer(), "routing", ip)
	Expect(table.FindType5Route(ip)).To(BeNil())
	Expect(table.FindType2Route("02:fe:00:00:00:05", ip)).ToNot(BeNil())
}

func TestVnVrfLinking(t *testing.T) {
	RegisterTestingT(t)
	db := testDB()

	// VN observed before its VRF: the link is established when the VRF
	// arrives
	db.UpdateVirtualNetwork(VirtualNetworkSpec{Name: "net-a", VrfName: "vrf-a"})
	vn := db.FindVn("net-a")
	Expect(vn).ToNot(BeNil())
	Expect(vn.GetVrf()).To(BeNil())

	db.UpdateVrf(VrfSpec{Name: "vrf-a", VxlanID: 5})
	Expect(vn.GetVrf()).ToNot(BeNil())
	Expect(vn.GetVrf().Name()).To(Equal("vrf-a"))
	Expect(vn.GetVrf().Vn()).To(BeIdenticalTo(vn))

	// VRF delete unbinds both sides
	db.DeleteVrf("vrf-a")
	Expect(vn.GetVrf()).To(BeNil())
	Expect(db.FindVrf("vrf-a")).To(BeNil())
}
