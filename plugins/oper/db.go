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

	"github.com/ligato/cn-infra/idxmap"
	idxmap_mem "github.com/ligato/cn-infra/idxmap/mem"
	"github.com/ligato/cn-infra/logging"
	uuid "github.com/satori/go.uuid"

	"github.com/YKonovalov/tf-controller/plugins/operdb"
)

// API is the operational-database interface exposed to the other plugins.
type API interface {
	// Scheduler returns the walk scheduler serializing all DB mutations.
	Scheduler() *operdb.Scheduler

	// VnTable returns the virtual-network table.
	VnTable() *operdb.Table

	// VmiTable returns the VM-interface table.
	VmiTable() *operdb.Table

	// VrfTable returns the VRF table.
	VrfTable() *operdb.Table

	// FindVn returns the virtual network by name, or nil.
	FindVn(name string) *VirtualNetwork

	// FindVmi returns the VM interface by name, or nil.
	FindVmi(name string) *VmInterface

	// FindVrf returns the VRF by name, or nil.
	FindVrf(name string) *VrfEntry

	// LocalVmPortPeer identifies paths of locally attached VM ports.
	LocalVmPortPeer() *Peer

	// LocalVmExportPeer identifies Type-5 leaks out of bridge VRFs.
	LocalVmExportPeer() *Peer

	// EvpnRoutingPeer identifies routes leaked into bridge VRFs.
	EvpnRoutingPeer() *Peer

	// BgpPeer returns (allocating on first use) the peer identity of a
	// control-node BGP session.
	BgpPeer(name string) *Peer

	// UpdateVirtualNetwork applies a VN config document.
	UpdateVirtualNetwork(spec VirtualNetworkSpec)

	// DeleteVirtualNetwork withdraws a VN.
	DeleteVirtualNetwork(name string)

	// UpdateVmInterface applies a VMI config document.
	UpdateVmInterface(spec VmInterfaceSpec)

	// DeleteVmInterface withdraws a VMI.
	DeleteVmInterface(name string)

	// UpdateVrf applies a VRF config document.
	UpdateVrf(spec VrfSpec)

	// DeleteVrf withdraws a VRF.
	DeleteVrf(name string)
}

// VirtualNetworkSpec is the apply-side representation of a VN.
type VirtualNetworkSpec struct {
	Name              string
	VxlanRouting      bool
	LogicalRouterUUID uuid.UUID
	VrfName           string
	IpamSubnets       []*net.IPNet
}

// VmInterfaceSpec is the apply-side representation of a VMI.
type VmInterfaceSpec struct {
	Name              string
	DeviceType        VmiDeviceType
	VmiType           VmiType
	VnName            string
	LogicalRouterUUID uuid.UUID
}

// VrfSpec is the apply-side representation of a VRF.
type VrfSpec struct {
	Name    string
	VxlanID uint32
}

// DB owns the observable tables of the agent's operational state.
type DB struct {
	log   logging.Logger
	sched *operdb.Scheduler

	vnTable  *operdb.Table
	vmiTable *operdb.Table
	vrfTable *operdb.Table

	// vrfIndex is a secondary name index over VRFs, consumable by REST
	// handlers and the CLI without walking the table.
	vrfIndex idxmap.NamedMappingRW

	// vnByVrfName resolves the VN that claims a VRF which has not been
	// observed yet at the time the VN config arrived.
	vnByVrfName map[string]*VirtualNetwork

	localVmPortPeer   *Peer
	localVmExportPeer *Peer
	evpnRoutingPeer   *Peer
	bgpPeers          map[string]*Peer
}

// NewDB creates an empty operational database.
func NewDB(log logging.Logger) *DB {
	sched := operdb.NewScheduler(log)
	db := &DB{
		log:               log,
		sched:             sched,
		vnTable:           operdb.NewTable(log, "db.vn.0", sched),
		vmiTable:          operdb.NewTable(log, "db.interface.0", sched),
		vrfTable:          operdb.NewTable(log, "db.vrf.0", sched),
		vrfIndex:          idxmap_mem.NewNamedMapping(log, "vrf-index", nil),
		vnByVrfName:       make(map[string]*VirtualNetwork),
		localVmPortPeer:   NewPeer("local-vm-port", PeerLocalVmPort),
		localVmExportPeer: NewPeer("local-vm-export", PeerLocalVmExport),
		evpnRoutingPeer:   NewPeer("evpn-routing", PeerEvpnRouting),
		bgpPeers:          make(map[string]*Peer),
	}
	return db
}

// Scheduler returns the walk scheduler serializing all DB mutations.
func (d *DB) Scheduler() *operdb.Scheduler {
	return d.sched
}

// VnTable returns the virtual-network table.
func (d *DB) VnTable() *operdb.Table {
	return d.vnTable
}

// VmiTable returns the VM-interface table.
func (d *DB) VmiTable() *operdb.Table {
	return d.vmiTable
}

// VrfTable returns the VRF table.
func (d *DB) VrfTable() *operdb.Table {
	return d.vrfTable
}

// FindVn returns the virtual network by name, or nil.
func (d *DB) FindVn(name string) *VirtualNetwork {
	if e := d.vnTable.Get(name); e != nil {
		return e.(*VirtualNetwork)
	}
	return nil
}

// FindVmi returns the VM interface by name, or nil.
func (d *DB) FindVmi(name string) *VmInterface {
	if e := d.vmiTable.Get(name); e != nil {
		return e.(*VmInterface)
	}
	return nil
}

// FindVrf returns the VRF by name, or nil.
func (d *DB) FindVrf(name string) *VrfEntry {
	if val, found := d.vrfIndex.GetValue(name); found {
		return val.(*VrfEntry)
	}
	return nil
}

// LocalVmPortPeer identifies paths of locally attached VM ports.
func (d *DB) LocalVmPortPeer() *Peer {
	return d.localVmPortPeer
}

// LocalVmExportPeer identifies Type-5 leaks out of bridge VRFs.
func (d *DB) LocalVmExportPeer() *Peer {
	return d.localVmExportPeer
}

// EvpnRoutingPeer identifies routes leaked into bridge VRFs.
func (d *DB) EvpnRoutingPeer() *Peer {
	return d.evpnRoutingPeer
}

// BgpPeer returns (allocating on first use) the peer identity of a
// control-node BGP session.
func (d *DB) BgpPeer(name string) *Peer {
	if p, ok := d.bgpPeers[name]; ok {
		return p
	}
	p := NewPeer(name, PeerBgp)
	d.bgpPeers[name] = p
	return p
}

// UpdateVirtualNetwork applies a VN config document: the VN entry is
// created or refreshed, linked with its VRF when that is already known,
// and all VN listeners are notified.
func (d *DB) UpdateVirtualNetwork(spec VirtualNetworkSpec) {
	d.sched.Ref()
	defer d.sched.Unref()

	var vn *VirtualNetwork
	if e := d.vnTable.Get(spec.Name); e != nil {
		vn = e.(*VirtualNetwork)
	} else {
		vn = &VirtualNetwork{name: spec.Name}
	}
	vn.vxlanRoutingVn = spec.VxlanRouting
	vn.logicalRouterUUID = spec.LogicalRouterUUID
	vn.ipam = nil
	for _, prefix := range spec.IpamSubnets {
		vn.ipam = append(vn.ipam, VnIpam{Prefix: prefix})
	}

	// re-home the VRF claim
	oldVrf := vn.vrf
	for vrfName, claimer := range d.vnByVrfName {
		if claimer == vn && vrfName != spec.VrfName {
			delete(d.vnByVrfName, vrfName)
		}
	}
	if spec.VrfName != "" {
		d.vnByVrfName[spec.VrfName] = vn
		vn.vrf = d.FindVrf(spec.VrfName)
	} else {
		vn.vrf = nil
	}
	if oldVrf != nil && oldVrf != vn.vrf {
		oldVrf.vn = nil
	}

	newlyLinked := vn.vrf != nil && vn.vrf.vn != vn
	if vn.vrf != nil {
		vn.vrf.vn = vn
	}

	d.vnTable.Update(spec.Name, vn)
	if newlyLinked {
		d.vrfTable.Notify(vn.vrf)
	} else if oldVrf != nil && vn.vrf == nil {
		d.vrfTable.Notify(oldVrf)
	}

	// interfaces that named this VN before it was observed link up now
	for _, key := range d.vmiTable.Keys() {
		vmi := d.vmiTable.Get(key).(*VmInterface)
		if vmi.vnName == spec.Name && vmi.vn != vn {
			vmi.vn = vn
			d.vmiTable.Notify(vmi)
		}
	}
}

// DeleteVirtualNetwork withdraws a VN, notifying VN listeners in the
// delete direction and re-notifying the unlinked VRF.
func (d *DB) DeleteVirtualNetwork(name string) {
	vn := d.FindVn(name)
	if vn == nil {
		return
	}
	d.sched.Ref()
	defer d.sched.Unref()

	d.vnTable.MarkDelete(vn)
	for vrfName, claimer := range d.vnByVrfName {
		if claimer == vn {
			delete(d.vnByVrfName, vrfName)
		}
	}
	// unbind the interfaces of the deleted VN
	for _, key := range d.vmiTable.Keys() {
		vmi := d.vmiTable.Get(key).(*VmInterface)
		if vmi.vn == vn {
			vmi.vn = nil
			d.vmiTable.Notify(vmi)
		}
	}
	if vn.vrf != nil {
		vrf := vn.vrf
		vn.vrf = nil
		vrf.vn = nil
		d.vrfTable.Notify(vrf)
	}
}

// UpdateVmInterface applies a VMI config document.
func (d *DB) UpdateVmInterface(spec VmInterfaceSpec) {
	d.sched.Ref()
	defer d.sched.Unref()

	var vmi *VmInterface
	if e := d.vmiTable.Get(spec.Name); e != nil {
		vmi = e.(*VmInterface)
	} else {
		vmi = &VmInterface{name: spec.Name}
	}
	vmi.deviceType = spec.DeviceType
	vmi.vmiType = spec.VmiType
	vmi.logicalRouterUUID = spec.LogicalRouterUUID
	vmi.vnName = spec.VnName
	vmi.vn = d.FindVn(spec.VnName)
	if vmi.vn != nil && vmi.vn.IsDeleted() {
		vmi.vn = nil
	}

	d.vmiTable.Update(spec.Name, vmi)
}

// DeleteVmInterface withdraws a VMI.
func (d *DB) DeleteVmInterface(name string) {
	vmi := d.FindVmi(name)
	if vmi == nil {
		return
	}
	d.sched.Ref()
	defer d.sched.Unref()

	d.vmiTable.MarkDelete(vmi)
}

// UpdateVrf applies a VRF config document: the VRF entry and its three
// route tables are created on first sight, the entry is linked with the VN
// claiming it and VRF listeners are notified. A VN waiting for this VRF is
// re-notified so its trackers observe the now-complete binding.
func (d *DB) UpdateVrf(spec VrfSpec) {
	d.sched.Ref()
	defer d.sched.Unref()

	var vrf *VrfEntry
	if e := d.vrfTable.Get(spec.Name); e != nil {
		vrf = e.(*VrfEntry)
	} else {
		vrf = &VrfEntry{name: spec.Name}
		vrf.evpnTable = newEvpnTable(d, vrf)
		vrf.inet4Table = newInetTable(d, vrf, false)
		vrf.inet6Table = newInetTable(d, vrf, true)
		d.vrfIndex.Put(spec.Name, vrf)
	}
	vrf.vxlanID = spec.VxlanID

	var linkedVn *VirtualNetwork
	if vn := d.vnByVrfName[spec.Name]; vn != nil && !vn.IsDeleted() {
		if vn.vrf != vrf {
			linkedVn = vn
		}
		vn.vrf = vrf
		vrf.vn = vn
	}

	d.vrfTable.Update(spec.Name, vrf)
	if linkedVn != nil {
		d.vnTable.Notify(linkedVn)
	}
}

// DeleteVrf withdraws a VRF. VRF listeners run their teardown first; the
// VN that owned the VRF is then re-notified with the binding gone.
func (d *DB) DeleteVrf(name string) {
	vrf := d.FindVrf(name)
	if vrf == nil {
		return
	}
	d.sched.Ref()
	defer d.sched.Unref()

	d.vrfTable.MarkDelete(vrf)
	d.vrfIndex.Delete(name)
	if vrf.vn != nil {
		vn := vrf.vn
		vrf.vn = nil
		vn.vrf = nil
		if !vn.IsDeleted() {
			d.vnTable.Notify(vn)
		}
	}
}
