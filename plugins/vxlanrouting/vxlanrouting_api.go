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
	"sort"

	"github.com/YKonovalov/tf-controller/plugins/vxlanrouting/restapi"
)

// API defines the methods provided by the VxlanRouting plugin for use by
// other plugins and the REST layer.
type API interface {
	// GetVxlanRoutingMap returns one record per logical router known to
	// the agent. Safe to call from outside the event goroutine.
	GetVxlanRoutingMap() []restapi.VxlanRoutingMap
}

// GetVxlanRoutingMap returns one record per logical router known to the
// agent, sorted by logical-router UUID.
func (m *VxlanRouting) GetVxlanRoutingMap() (lrs []restapi.VxlanRoutingMap) {
	m.OperDB.Scheduler().Synchronize(func() {
		for lrUUID, info := range m.mapper.lrVrfInfoMap {
			record := restapi.VxlanRoutingMap{
				LogicalRouterUUID: lrUUID.String(),
			}
			if info.routingVrf != nil {
				record.RoutingVrf = info.routingVrf.Name()
			}
			if info.parentVn != nil {
				record.ParentRoutingVn = info.parentVn.Name()
			}
			for _, bridgeVn := range info.bridgeVns {
				bridge := restapi.BridgeVrf{BridgeVn: bridgeVn.Name()}
				if bridgeVn.GetVrf() != nil {
					bridge.BridgeVrf = bridgeVn.GetVrf().Name()
				}
				record.BridgeVrfs = append(record.BridgeVrfs, bridge)
			}
			lrs = append(lrs, record)
		}
	})
	sort.Slice(lrs, func(i, j int) bool {
		return lrs[i].LogicalRouterUUID < lrs[j].LogicalRouterUUID
	})
	return lrs
}
