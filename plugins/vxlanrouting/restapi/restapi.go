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

package restapi

const (
	// RESTPrefix is the versioned prefix of the vrouter agent REST urls.
	RESTPrefix = "/vrouter/v1/"

	// RestURLVxlanRouting is the URL of the VXLAN routing status endpoint.
	RestURLVxlanRouting = RESTPrefix + "vxlan-routing"
)

// BridgeVrf describes one bridge VN attached to a logical router.
type BridgeVrf struct {
	BridgeVn  string `json:"bridgeVn"`
	BridgeVrf string `json:"bridgeVrf"`
}

// VxlanRoutingMap is the operational record of one logical router.
type VxlanRoutingMap struct {
	LogicalRouterUUID string      `json:"logicalRouterUuid"`
	RoutingVrf        string      `json:"routingVrf"`
	ParentRoutingVn   string      `json:"parentRoutingVn"`
	BridgeVrfs        []BridgeVrf `json:"bridgeVrfs"`
}

// VxlanRoutingStatus is the response of the VXLAN routing status endpoint.
type VxlanRoutingStatus struct {
	LogicalRouters []VxlanRoutingMap `json:"logicalRouters"`
}
