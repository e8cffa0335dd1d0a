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
	uuid "github.com/satori/go.uuid"

	"github.com/YKonovalov/tf-controller/plugins/operdb"
)

// VmiDeviceType classifies the device a VM interface is realized on.
type VmiDeviceType int

const (
	// DeviceTypeNone is an unclassified interface.
	DeviceTypeNone VmiDeviceType = iota

	// DeviceTypeVmOnTap is a regular VM port on a tap device.
	DeviceTypeVmOnTap

	// DeviceTypeVmiOnLr is an interface instantiated on a logical router.
	DeviceTypeVmiOnLr
)

// VmiType classifies the role of a VM interface.
type VmiType int

const (
	// VmiTypeInstance is a workload port.
	VmiTypeInstance VmiType = iota

	// VmiTypeRouter is a logical-router attachment port.
	VmiTypeRouter
)

// VmInterface is one VM interface observed by the agent.
type VmInterface struct {
	operdb.EntryBase

	name              string
	deviceType        VmiDeviceType
	vmiType           VmiType
	logicalRouterUUID uuid.UUID
	vnName            string
	vn                *VirtualNetwork
}

// Name returns the interface name.
func (vmi *VmInterface) Name() string {
	return vmi.name
}

// DeviceType returns the device classification of the interface.
func (vmi *VmInterface) DeviceType() VmiDeviceType {
	return vmi.deviceType
}

// VmiType returns the role classification of the interface.
func (vmi *VmInterface) VmiType() VmiType {
	return vmi.vmiType
}

// LogicalRouterUUID returns the logical router the interface advertises,
// or uuid.Nil.
func (vmi *VmInterface) LogicalRouterUUID() uuid.UUID {
	return vmi.logicalRouterUUID
}

// Vn returns the virtual network the interface is bound to, or nil.
func (vmi *VmInterface) Vn() *VirtualNetwork {
	return vmi.vn
}
