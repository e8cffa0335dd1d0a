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

	"github.com/YKonovalov/tf-controller/plugins/operdb"
)

// RouteEntry is the part shared by EVPN and inet unicast routes: the owning
// VRF and the per-peer path list. The path list keeps insertion order
// within a peer type; the active path is the one with the most preferred
// peer type, first-installed winning ties.
type RouteEntry struct {
	operdb.EntryBase

	vrf   *VrfEntry
	paths []*Path
}

// Vrf returns the VRF the route belongs to.
func (r *RouteEntry) Vrf() *VrfEntry {
	return r.vrf
}

// Paths returns the path list of the route.
func (r *RouteEntry) Paths() []*Path {
	return r.paths
}

// FindPath returns the path installed by the given peer, or nil.
func (r *RouteEntry) FindPath(peer *Peer) *Path {
	for _, p := range r.paths {
		if p.peer == peer {
			return p
		}
	}
	return nil
}

// FindLocalVmPortPath returns the path contributed by a locally attached
// VM port, or nil.
func (r *RouteEntry) FindLocalVmPortPath() *Path {
	for _, p := range r.paths {
		if p.peer.Type() == PeerLocalVmPort {
			return p
		}
	}
	return nil
}

// GetActivePath returns the currently preferred path, or nil on a route
// with no paths left.
func (r *RouteEntry) GetActivePath() *Path {
	var best *Path
	for _, p := range r.paths {
		if best == nil || p.peer.Type() < best.peer.Type() {
			best = p
		}
	}
	return best
}

// GetActiveNextHop returns the next hop of the active path, or nil.
func (r *RouteEntry) GetActiveNextHop() NextHopKey {
	p := r.GetActivePath()
	if p == nil {
		return nil
	}
	return p.Nexthop
}

// locatePath returns the peer's path, creating it when absent.
func (r *RouteEntry) locatePath(peer *Peer) *Path {
	if p := r.FindPath(peer); p != nil {
		return p
	}
	p := &Path{peer: peer}
	r.paths = append(r.paths, p)
	return p
}

// removePath drops the peer's path; returns false if the peer had none.
func (r *RouteEntry) removePath(peer *Peer) bool {
	for i, p := range r.paths {
		if p.peer == peer {
			r.paths = append(r.paths[:i], r.paths[i+1:]...)
			return true
		}
	}
	return false
}

// hostPlen returns the host prefix length for the address family of ip.
func hostPlen(ip net.IP) int {
	if ip.To4() != nil {
		return 32
	}
	return 128
}
