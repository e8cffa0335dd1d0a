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

// Package model defines the configuration documents of the vrouter agent
// as stored in the KV data store. The documents satisfy proto.Message and
// are (de)serialized with the JSON serializer configured on the KV plugin.
package model

import "encoding/json"

// VnConfig is the configuration document of a virtual network.
type VnConfig struct {
	Name string `json:"name"`

	// VxlanRouting flags the VN as a VXLAN routing VN.
	VxlanRouting bool `json:"vxlanRouting"`

	// LogicalRouterUUID is set on routing VNs only; bridge VNs join a
	// logical router through their VM interfaces.
	LogicalRouterUUID string `json:"logicalRouterUuid"`

	// VrfName binds the VN to its VRF.
	VrfName string `json:"vrfName"`

	// IpamSubnets lists the subnets of the VN in CIDR notation.
	IpamSubnets []string `json:"ipamSubnets"`
}

// Reset implements proto.Message.
func (c *VnConfig) Reset() { *c = VnConfig{} }

// String implements proto.Message.
func (c *VnConfig) String() string { return jsonString(c) }

// ProtoMessage implements proto.Message.
func (c *VnConfig) ProtoMessage() {}

// VmiConfig is the configuration document of a VM interface.
type VmiConfig struct {
	Name string `json:"name"`

	// DeviceType is one of "vm-on-tap", "vmi-on-lr".
	DeviceType string `json:"deviceType"`

	// VmiType is one of "instance", "router".
	VmiType string `json:"vmiType"`

	// VnName binds the interface to its virtual network.
	VnName string `json:"vnName"`

	// LogicalRouterUUID advertises the logical router the interface is
	// attached to, empty when detached.
	LogicalRouterUUID string `json:"logicalRouterUuid"`
}

// Reset implements proto.Message.
func (c *VmiConfig) Reset() { *c = VmiConfig{} }

// String implements proto.Message.
func (c *VmiConfig) String() string { return jsonString(c) }

// ProtoMessage implements proto.Message.
func (c *VmiConfig) ProtoMessage() {}

// VrfConfig is the configuration document of a VRF.
type VrfConfig struct {
	Name string `json:"name"`

	// VxlanID is the VNI assigned to the VRF.
	VxlanID uint32 `json:"vxlanId"`
}

// Reset implements proto.Message.
func (c *VrfConfig) Reset() { *c = VrfConfig{} }

// String implements proto.Message.
func (c *VrfConfig) String() string { return jsonString(c) }

// ProtoMessage implements proto.Message.
func (c *VrfConfig) ProtoMessage() {}

func jsonString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
