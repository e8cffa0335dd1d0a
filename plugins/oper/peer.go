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

// PeerType classifies the subsystem that installed a path. The numeric
// order doubles as path preference: a path from a lower-valued peer type
// wins the active-path election.
type PeerType int

const (
	// PeerLocalVmPort marks paths contributed by locally attached VM ports.
	PeerLocalVmPort PeerType = iota

	// PeerLocalVmExport marks EVPN Type-5 routes leaked out of bridge VRFs
	// on behalf of local VM ports.
	PeerLocalVmExport

	// PeerBgp marks paths learned from the control node over BGP.
	PeerBgp

	// PeerEvpnRouting marks routes installed into bridge VRFs by the VXLAN
	// routing manager.
	PeerEvpnRouting
)

// Peer tags every path with the identity of its installer. Route deletes
// are scoped to a peer: removing one peer's path leaves the paths of the
// other peers untouched.
type Peer struct {
	name     string
	peerType PeerType
}

// NewPeer creates a peer identity.
func NewPeer(name string, peerType PeerType) *Peer {
	return &Peer{name: name, peerType: peerType}
}

// Name returns the peer name.
func (p *Peer) Name() string {
	return p.name
}

// Type returns the peer classification.
func (p *Peer) Type() PeerType {
	return p.peerType
}
