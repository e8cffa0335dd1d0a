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
	"fmt"
	"net"
	"sort"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/logging"
	"github.com/ligato/cn-infra/logging/logrus"
	uuid "github.com/satori/go.uuid"

	"github.com/YKonovalov/tf-controller/plugins/agentconf"
	"github.com/YKonovalov/tf-controller/plugins/oper"
)

const (
	lr1UUID = "11111111-2222-3333-4444-555555555555"

	routingVn  = "R"
	routingVrf = "rVRF"
	routingVni = 4096

	bridgeVnA   = "A"
	bridgeVrfA  = "aVRF"
	bridgeVniA  = 101
	subnetA     = "10.0.0.0/24"
	vmiA        = "vmi-a"
	workloadTap = "tap1"

	bridgeVnB  = "B"
	bridgeVrfB = "bVRF"
	bridgeVniB = 102
	subnetB    = "10.0.1.0/24"
	vmiB       = "vmi-b"

	remotePrefix = "10.0.2.0/24"
	vmIP         = "10.0.0.5"
	vmMac        = "02:fe:00:00:00:05"
)

type fixture struct {
	db  *oper.DB
	mgr *VxlanRouting
	lr1 uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	RegisterTestingT(t)

	db := oper.NewDB(logrus.DefaultLogger())

	conf := &agentconf.AgentConf{
		Deps: agentconf.Deps{
			PluginDeps: infra.PluginDeps{
				Log: logging.ForPlugin("agentconf"),
			},
		},
	}
	Expect(conf.Init()).To(BeNil())

	mgr := &VxlanRouting{
		Deps: Deps{
			PluginDeps: infra.PluginDeps{
				Log: logging.ForPlugin("vxlanrouting"),
			},
			OperDB:    db,
			AgentConf: conf,
		},
	}
	Expect(mgr.Init()).To(BeNil())

	lr1, err := uuid.FromString(lr1UUID)
	Expect(err).To(BeNil())

	return &fixture{db: db, mgr: mgr, lr1: lr1}
}

func (f *fixture) addRoutingVn(vn, vrf string, vni uint32, lr uuid.UUID) {
	f.db.UpdateVrf(oper.VrfSpec{Name: vrf, VxlanID: vni})
	f.db.UpdateVirtualNetwork(oper.VirtualNetworkSpec{
		Name:              vn,
		VxlanRouting:      true,
		LogicalRouterUUID: lr,
		VrfName:           vrf,
	})
}

func (f *fixture) addBridgeVn(vn, vrf string, vni uint32, subnets ...string) {
	f.db.UpdateVrf(oper.VrfSpec{Name: vrf, VxlanID: vni})
	spec := oper.VirtualNetworkSpec{
		Name:    vn,
		VrfName: vrf,
	}
	for _, subnet := range subnets {
		_, prefix, err := net.ParseCIDR(subnet)
		Expect(err).To(BeNil())
		spec.IpamSubnets = append(spec.IpamSubnets, prefix)
	}
	f.db.UpdateVirtualNetwork(spec)
}

func (f *fixture) attachVmi(name, vn string, lr uuid.UUID) {
	f.db.UpdateVmInterface(oper.VmInterfaceSpec{
		Name:              name,
		DeviceType:        oper.DeviceTypeVmiOnLr,
		VmiType:           oper.VmiTypeRouter,
		VnName:            vn,
		LogicalRouterUUID: lr,
	})
}

func (f *fixture) addWorkloadVmi(name, vn string) {
	f.db.UpdateVmInterface(oper.VmInterfaceSpec{
		Name:       name,
		DeviceType: oper.DeviceTypeVmOnTap,
		VmiType:    oper.VmiTypeInstance,
		VnName:     vn,
	})
}

func (f *fixture) findInetRoute(vrfName, prefix string) *oper.InetRoute {
	vrf := f.db.FindVrf(vrfName)
	Expect(vrf).ToNot(BeNil())
	ip, ipNet, err := net.ParseCIDR(prefix)
	Expect(err).To(BeNil())
	plen, _ := ipNet.Mask.Size()
	return vrf.GetInetUnicastRouteTable(ip).FindRoute(ip, plen)
}

// checkInvariants asserts the properties that must hold after every fully
// processed notification: the reverse VN index matches the bridge lists,
// no empty logical-router record is retained and the owner of a routing
// VRF is always the recorded parent VN.
func (f *fixture) checkInvariants() {
	mapper := f.mgr.mapper
	for lr, info := range mapper.lrVrfInfoMap {
		Expect(info.routingVrf != nil || len(info.bridgeVns) > 0).To(BeTrue(),
			fmt.Sprintf("logical router %s kept empty", lr))
		for _, vn := range info.bridgeVns {
			Expect(mapper.vnLrSet[vn]).To(Equal(lr))
		}
		if info.routingVrf != nil {
			Expect(info.parentVn).ToNot(BeNil())
			Expect(info.parentVn.GetVrf()).To(Equal(info.routingVrf))
		}
	}
}

// routesSnapshot renders all routes of the given VRFs with their path
// peers; used for the attach/detach round-trip law.
func (f *fixture) routesSnapshot(vrfNames ...string) []string {
	var snap []string
	for _, vrfName := range vrfNames {
		vrf := f.db.FindVrf(vrfName)
		if vrf == nil {
			continue
		}
		for _, key := range vrf.GetInet4UnicastRouteTable().Keys() {
			rt := vrf.GetInet4UnicastRouteTable().Get(key).(*oper.InetRoute)
			for _, p := range rt.Paths() {
				snap = append(snap, fmt.Sprintf("%s/inet4/%s/%s", vrfName, key, p.Peer().Name()))
			}
		}
		for _, key := range vrf.GetInet6UnicastRouteTable().Keys() {
			rt := vrf.GetInet6UnicastRouteTable().Get(key).(*oper.InetRoute)
			for _, p := range rt.Paths() {
				snap = append(snap, fmt.Sprintf("%s/inet6/%s/%s", vrfName, key, p.Peer().Name()))
			}
		}
		for _, key := range vrf.GetEvpnRouteTable().Keys() {
			rt := vrf.GetEvpnRouteTable().Get(key).(*oper.EvpnRoute)
			for _, p := range rt.Paths() {
				snap = append(snap, fmt.Sprintf("%s/evpn/%s/%s", vrfName, key, p.Peer().Name()))
			}
		}
	}
	sort.Strings(snap)
	return snap
}

// leakedPathCount counts the routes installed by the manager across all
// known VRFs (EVPN routing peer plus local VM export peer paths).
func (f *fixture) leakedPathCount(vrfNames ...string) int {
	count := 0
	for _, snapEntry := range f.routesSnapshot(vrfNames...) {
		if strings.HasSuffix(snapEntry, "/evpn-routing") ||
			strings.HasSuffix(snapEntry, "/local-vm-export") {
			count++
		}
	}
	return count
}

func (f *fixture) coldAttach() {
	f.addRoutingVn(routingVn, routingVrf, routingVni, f.lr1)
	f.addBridgeVn(bridgeVnA, bridgeVrfA, bridgeVniA, subnetA)
	f.attachVmi(vmiA, bridgeVnA, f.lr1)
	f.addBridgeVn(bridgeVnB, bridgeVrfB, bridgeVniB, subnetB)
	f.attachVmi(vmiB, bridgeVnB, f.lr1)
}

func TestColdAttach(t *testing.T) {
	f := newFixture(t)
	f.coldAttach()

	info := f.mgr.mapper.lrVrfInfoMap[f.lr1]
	Expect(info).ToNot(BeNil())
	Expect(info.routingVrf).ToNot(BeNil())
	Expect(info.routingVrf.Name()).To(Equal(routingVrf))
	Expect(info.parentVn.Name()).To(Equal(routingVn))
	Expect(info.bridgeVns).To(HaveLen(2))

	// peer subnets cross-installed, resolved through the routing VRF
	rtA := f.findInetRoute(bridgeVrfA, subnetB)
	Expect(rtA).ToNot(BeNil())
	pathA := rtA.FindPath(f.db.EvpnRoutingPeer())
	Expect(pathA).ToNot(BeNil())
	nh, isVrfNH := pathA.Nexthop.(*oper.VrfNHKey)
	Expect(isVrfNH).To(BeTrue())
	Expect(nh.VrfName).To(Equal(routingVrf))
	Expect(pathA.VxlanID).To(BeEquivalentTo(routingVni))

	rtB := f.findInetRoute(bridgeVrfB, subnetA)
	Expect(rtB).ToNot(BeNil())
	Expect(rtB.FindPath(f.db.EvpnRoutingPeer())).ToNot(BeNil())

	// the bridge never routes its own subnet through the routing VRF
	Expect(f.findInetRoute(bridgeVrfA, subnetA)).To(BeNil())

	f.checkInvariants()
}

func TestType2Leak(t *testing.T) {
	f := newFixture(t)
	f.coldAttach()
	f.addWorkloadVmi(workloadTap, bridgeVnA)

	aVrf := f.db.FindVrf(bridgeVrfA)
	ip := net.ParseIP(vmIP)

	aVrf.GetInet4UnicastRouteTable().AddLocalVmRoute(ip, 32, workloadTap, 100)
	aVrf.GetEvpnRouteTable().AddType2Route(f.db.LocalVmPortPeer(), vmMac, ip,
		&oper.InterfaceNHKey{IfName: workloadTap}, bridgeVniA)

	// host route in the bridge VRF resolved through the routing VRF
	hostRt := f.findInetRoute(bridgeVrfA, vmIP+"/32")
	Expect(hostRt).ToNot(BeNil())
	hostPath := hostRt.FindPath(f.db.EvpnRoutingPeer())
	Expect(hostPath).ToNot(BeNil())
	nh, isVrfNH := hostPath.Nexthop.(*oper.VrfNHKey)
	Expect(isVrfNH).To(BeTrue())
	Expect(nh.VrfName).To(Equal(routingVrf))

	// the local VM route got leaked as Type-5 into the routing VRF
	rVrf := f.db.FindVrf(routingVrf)
	type5 := rVrf.GetEvpnRouteTable().FindType5Route(ip)
	Expect(type5).ToNot(BeNil())
	leak := type5.FindPath(f.db.LocalVmExportPeer())
	Expect(leak).ToNot(BeNil())
	ifNH, isIfNH := leak.Nexthop.(*oper.InterfaceNHKey)
	Expect(isIfNH).To(BeTrue())
	Expect(ifNH.IfName).To(Equal(workloadTap))
	Expect(ifNH.Flags & oper.NHFlagVxlanRouting).ToNot(BeZero())

	// the routing VRF resolves the host IP locally as well
	Expect(f.findInetRoute(routingVrf, vmIP+"/32")).ToNot(BeNil())

	f.checkInvariants()
}

func TestType5Fanout(t *testing.T) {
	f := newFixture(t)
	f.coldAttach()

	rVrf := f.db.FindVrf(routingVrf)
	ip, ipNet, err := net.ParseCIDR(remotePrefix)
	Expect(err).To(BeNil())
	plen, _ := ipNet.Mask.Size()

	rVrf.GetEvpnRouteTable().AddRemoteType5Route(f.db.BgpPeer("control-node"),
		ip, plen, routingVni,
		&oper.EvpnRoutingData{
			NhReq:   oper.NextHopReq{Key: &oper.VrfNHKey{VrfName: routingVrf}, VrfName: routingVrf},
			VxlanID: routingVni,
		})

	for _, bridge := range []string{bridgeVrfA, bridgeVrfB} {
		rt := f.findInetRoute(bridge, remotePrefix)
		Expect(rt).ToNot(BeNil())
		p := rt.FindPath(f.db.EvpnRoutingPeer())
		Expect(p).ToNot(BeNil())
		nh, isVrfNH := p.Nexthop.(*oper.VrfNHKey)
		Expect(isVrfNH).To(BeTrue())
		Expect(nh.VrfName).To(Equal(routingVrf))
	}

	// the routing VRF keeps its own inet view of the prefix
	Expect(f.findInetRoute(routingVrf, remotePrefix)).ToNot(BeNil())

	f.checkInvariants()
}

func TestLocalLeakDoesNotFanOut(t *testing.T) {
	f := newFixture(t)
	f.coldAttach()
	f.addWorkloadVmi(workloadTap, bridgeVnA)

	aVrf := f.db.FindVrf(bridgeVrfA)
	ip := net.ParseIP(vmIP)
	aVrf.GetInet4UnicastRouteTable().AddLocalVmRoute(ip, 32, workloadTap, 100)
	aVrf.GetEvpnRouteTable().AddType2Route(f.db.LocalVmPortPeer(), vmMac, ip,
		&oper.InterfaceNHKey{IfName: workloadTap}, bridgeVniA)

	// the local leak is a host route on the local VM export peer: it must
	// not fan back out into the bridge VRFs
	Expect(f.findInetRoute(bridgeVrfB, vmIP+"/32")).To(BeNil())

	f.checkInvariants()
}

func TestBridgeDetach(t *testing.T) {
	f := newFixture(t)
	f.coldAttach()

	rVrf := f.db.FindVrf(routingVrf)
	ip, ipNet, _ := net.ParseCIDR(remotePrefix)
	plen, _ := ipNet.Mask.Size()
	rVrf.GetEvpnRouteTable().AddRemoteType5Route(f.db.BgpPeer("control-node"),
		ip, plen, routingVni,
		&oper.EvpnRoutingData{
			NhReq:   oper.NextHopReq{Key: &oper.VrfNHKey{VrfName: routingVrf}, VrfName: routingVrf},
			VxlanID: routingVni,
		})
	Expect(f.findInetRoute(bridgeVrfB, remotePrefix)).ToNot(BeNil())

	// clearing the attachment UUID detaches B from the logical router
	f.db.UpdateVmInterface(oper.VmInterfaceSpec{
		Name:              vmiB,
		DeviceType:        oper.DeviceTypeVmiOnLr,
		VmiType:           oper.VmiTypeRouter,
		VnName:            bridgeVnB,
		LogicalRouterUUID: uuid.Nil,
	})

	info := f.mgr.mapper.lrVrfInfoMap[f.lr1]
	Expect(info).ToNot(BeNil())
	Expect(info.bridgeVns).To(HaveLen(1))
	Expect(info.bridgeVns[0].Name()).To(Equal(bridgeVnA))

	// all routes installed in bVRF by the manager are retracted
	Expect(f.leakedPathCount(bridgeVrfB)).To(BeZero())

	// A loses the subnet route of B, keeps the remote prefix
	Expect(f.findInetRoute(bridgeVrfA, subnetB)).To(BeNil())
	Expect(f.findInetRoute(bridgeVrfA, remotePrefix)).ToNot(BeNil())

	f.checkInvariants()
}

func TestAttachDetachRoundTrip(t *testing.T) {
	f := newFixture(t)

	f.addRoutingVn(routingVn, routingVrf, routingVni, f.lr1)
	f.addBridgeVn(bridgeVnA, bridgeVrfA, bridgeVniA, subnetA)
	f.attachVmi(vmiA, bridgeVnA, f.lr1)
	f.addBridgeVn(bridgeVnB, bridgeVrfB, bridgeVniB, subnetB)

	before := f.routesSnapshot(routingVrf, bridgeVrfA, bridgeVrfB)

	f.attachVmi(vmiB, bridgeVnB, f.lr1)
	Expect(f.findInetRoute(bridgeVrfA, subnetB)).ToNot(BeNil())

	f.db.DeleteVmInterface(vmiB)

	after := f.routesSnapshot(routingVrf, bridgeVrfA, bridgeVrfB)
	Expect(after).To(Equal(before))

	f.checkInvariants()
}

func TestRoutingVnHandoff(t *testing.T) {
	f := newFixture(t)
	f.coldAttach()

	const (
		routingVn2  = "R2"
		routingVrf2 = "rVRF2"
		routingVni2 = 4097
	)
	f.addRoutingVn(routingVn2, routingVrf2, routingVni2, f.lr1)

	info := f.mgr.mapper.lrVrfInfoMap[f.lr1]
	Expect(info).ToNot(BeNil())
	Expect(info.parentVn.Name()).To(Equal(routingVn2))
	Expect(info.routingVrf.Name()).To(Equal(routingVrf2))

	// peer subnet routes re-homed onto the new routing VRF
	rtA := f.findInetRoute(bridgeVrfA, subnetB)
	Expect(rtA).ToNot(BeNil())
	nh := rtA.FindPath(f.db.EvpnRoutingPeer()).Nexthop.(*oper.VrfNHKey)
	Expect(nh.VrfName).To(Equal(routingVrf2))

	// the delete of the previous owner must not clear the logical router
	f.db.DeleteVirtualNetwork(routingVn)

	info = f.mgr.mapper.lrVrfInfoMap[f.lr1]
	Expect(info).ToNot(BeNil())
	Expect(info.parentVn.Name()).To(Equal(routingVn2))
	Expect(info.routingVrf.Name()).To(Equal(routingVrf2))

	f.checkInvariants()
}

func TestColdTeardown(t *testing.T) {
	f := newFixture(t)
	f.coldAttach()
	f.addWorkloadVmi(workloadTap, bridgeVnA)

	aVrf := f.db.FindVrf(bridgeVrfA)
	rVrf := f.db.FindVrf(routingVrf)
	ip := net.ParseIP(vmIP)
	aVrf.GetInet4UnicastRouteTable().AddLocalVmRoute(ip, 32, workloadTap, 100)
	aVrf.GetEvpnRouteTable().AddType2Route(f.db.LocalVmPortPeer(), vmMac, ip,
		&oper.InterfaceNHKey{IfName: workloadTap}, bridgeVniA)

	remoteIP, remoteNet, _ := net.ParseCIDR(remotePrefix)
	remotePlen, _ := remoteNet.Mask.Size()
	rVrf.GetEvpnRouteTable().AddRemoteType5Route(f.db.BgpPeer("control-node"),
		remoteIP, remotePlen, routingVni,
		&oper.EvpnRoutingData{
			NhReq:   oper.NextHopReq{Key: &oper.VrfNHKey{VrfName: routingVrf}, VrfName: routingVrf},
			VxlanID: routingVni,
		})

	// withdraw the data-plane rows first, as the control node would
	rVrf.GetEvpnRouteTable().Delete(f.db.BgpPeer("control-node"), routingVrf,
		remoteIP, remotePlen)
	aVrf.GetEvpnRouteTable().DeleteType2Route(f.db.LocalVmPortPeer(), vmMac, ip)
	aVrf.GetInet4UnicastRouteTable().Delete(f.db.LocalVmPortPeer(), bridgeVrfA, ip, 32)

	// then the configuration
	f.db.DeleteVmInterface(workloadTap)
	f.db.DeleteVmInterface(vmiA)
	f.db.DeleteVmInterface(vmiB)
	f.db.DeleteVirtualNetwork(bridgeVnA)
	f.db.DeleteVirtualNetwork(bridgeVnB)
	f.db.DeleteVirtualNetwork(routingVn)
	f.db.DeleteVrf(bridgeVrfA)
	f.db.DeleteVrf(bridgeVrfB)
	f.db.DeleteVrf(routingVrf)

	Expect(f.mgr.mapper.lrVrfInfoMap).To(BeEmpty())
	Expect(f.mgr.mapper.vnLrSet).To(BeEmpty())
	Expect(f.leakedPathCount(routingVrf, bridgeVrfA, bridgeVrfB)).To(BeZero())
}

func TestVmiBeforeVn(t *testing.T) {
	f := newFixture(t)

	// the attachment interface arrives before its VN; once the VN shows
	// up, the interface is re-delivered and the VN notify path is
	// re-entered synchronously so the insertion still lands
	f.addRoutingVn(routingVn, routingVrf, routingVni, f.lr1)
	f.attachVmi(vmiA, bridgeVnA, f.lr1)
	f.db.UpdateVrf(oper.VrfSpec{Name: bridgeVrfA, VxlanID: bridgeVniA})
	_, prefix, _ := net.ParseCIDR(subnetA)
	f.db.UpdateVirtualNetwork(oper.VirtualNetworkSpec{
		Name:        bridgeVnA,
		VrfName:     bridgeVrfA,
		IpamSubnets: []*net.IPNet{prefix},
	})

	info := f.mgr.mapper.lrVrfInfoMap[f.lr1]
	Expect(info).ToNot(BeNil())
	Expect(info.bridgeVns).To(HaveLen(1))
	Expect(info.bridgeVns[0].Name()).To(Equal(bridgeVnA))

	f.checkInvariants()
}

func TestGetVxlanRoutingMap(t *testing.T) {
	f := newFixture(t)
	f.coldAttach()

	lrs := f.mgr.GetVxlanRoutingMap()
	Expect(lrs).To(HaveLen(1))
	Expect(lrs[0].LogicalRouterUUID).To(Equal(lr1UUID))
	Expect(lrs[0].RoutingVrf).To(Equal(routingVrf))
	Expect(lrs[0].ParentRoutingVn).To(Equal(routingVn))
	Expect(lrs[0].BridgeVrfs).To(HaveLen(2))
}
