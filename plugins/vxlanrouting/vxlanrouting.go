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
	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/rpc/rest"

	prometheusplugin "github.com/ligato/cn-infra/rpc/prometheus"

	"github.com/YKonovalov/tf-controller/plugins/agentconf"
	"github.com/YKonovalov/tf-controller/plugins/oper"
	"github.com/YKonovalov/tf-controller/plugins/operdb"
)

// VxlanRouting reacts to virtual-network, VM-interface, VRF and route-table
// notifications and keeps the logical-router topology map from which all
// inter-subnet route leakage is derived: EVPN Type-2 routes re-appear as IP
// host routes resolved through the routing VRF, local VM routes are leaked
// as Type-5 routes into the routing VRF, remote Type-5 routes fan out into
// every attached bridge VRF and peer bridge subnets are cross-installed.
type VxlanRouting struct {
	Deps

	mapper *vrfMapper

	vnListenerID  operdb.ListenerID
	vmiListenerID operdb.ListenerID
	vrfListenerID operdb.ListenerID

	metrics metrics
}

// Deps groups the dependencies of the plugin.
type Deps struct {
	infra.PluginDeps
	OperDB       oper.API
	AgentConf    agentconf.API
	HTTPHandlers rest.HTTPHandlers
	Prometheus   prometheusplugin.API
}

// Init registers the VRF, VN and VMI listeners on the operational database
// and exposes the REST + metrics surfaces. Listener registration order
// follows the dependency chain: route-table subscriptions (armed per VRF)
// are consumed by handlers that read the map maintained from VN and VMI
// notifications.
func (m *VxlanRouting) Init() error {
	m.mapper = newVrfMapper(m)

	m.vrfListenerID = m.OperDB.VrfTable().Register(m.vrfNotify)
	m.vnListenerID = m.OperDB.VnTable().Register(m.vnNotify)
	m.vmiListenerID = m.OperDB.VmiTable().Register(m.vmiNotify)

	m.registerRESTHandlers()
	return m.registerMetrics()
}

// Close unregisters all listeners.
func (m *VxlanRouting) Close() error {
	m.OperDB.VrfTable().Unregister(m.vrfListenerID)
	m.OperDB.VnTable().Unregister(m.vnListenerID)
	m.OperDB.VmiTable().Unregister(m.vmiListenerID)
	return nil
}
