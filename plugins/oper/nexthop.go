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

import "fmt"

// NHFlags modify the forwarding semantics of an interface next hop.
type NHFlags uint32

// NHFlagVxlanRouting requests the VXLAN routing rewrite: the packet is
// routed (not bridged) and the inner destination MAC is replaced before
// encapsulation.
const NHFlagVxlanRouting NHFlags = 1 << 0

// NextHopKey identifies a next hop. Keys are cloned before modification so
// that a flag change never mutates a next hop referenced by another path.
type NextHopKey interface {
	Clone() NextHopKey
	String() string
}

// InterfaceNHKey points at a local interface.
type InterfaceNHKey struct {
	IfName string
	Flags  NHFlags
}

// Clone returns a copy of the key.
func (k *InterfaceNHKey) Clone() NextHopKey {
	c := *k
	return &c
}

func (k *InterfaceNHKey) String() string {
	return fmt.Sprintf("interface:%s flags:%#x", k.IfName, uint32(k.Flags))
}

// VrfNHKey is a VRF-indirection next hop: lookup of the packet continues
// in the named VRF.
type VrfNHKey struct {
	VrfName string
}

// Clone returns a copy of the key.
func (k *VrfNHKey) Clone() NextHopKey {
	c := *k
	return &c
}

func (k *VrfNHKey) String() string {
	return "vrf:" + k.VrfName
}

// NextHopReq carries a next-hop key together with the VRF the next hop
// resolves in.
type NextHopReq struct {
	Key     NextHopKey
	VrfName string
}
