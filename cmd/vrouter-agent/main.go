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

package main

import (
	"github.com/ligato/cn-infra/agent"
	"github.com/ligato/cn-infra/db/keyval/etcd"
	"github.com/ligato/cn-infra/health/probe"
	"github.com/ligato/cn-infra/logging/logrus"
	"github.com/ligato/cn-infra/rpc/rest"
	"github.com/ligato/cn-infra/servicelabel"

	prometheusplugin "github.com/ligato/cn-infra/rpc/prometheus"

	"github.com/YKonovalov/tf-controller/plugins/agentconf"
	"github.com/YKonovalov/tf-controller/plugins/configsync"
	"github.com/YKonovalov/tf-controller/plugins/oper"
	"github.com/YKonovalov/tf-controller/plugins/vxlanrouting"
)

// VRouterAgent is the per-host control-plane daemon wiring tenant subnets
// to their logical routers over VXLAN EVPN.
type VRouterAgent struct {
	ServiceLabel servicelabel.ReaderAPI
	HealthProbe  *probe.Plugin
	HTTP         *rest.Plugin
	Prometheus   *prometheusplugin.Plugin
	AgentConf    *agentconf.AgentConf
	OperDB       *oper.Plugin
	ConfigSync   *configsync.ConfigSync
	VxlanRouting *vxlanrouting.VxlanRouting
}

func (a *VRouterAgent) String() string {
	return "VRouterAgent"
}

// Init is called at startup phase. Method added in order to implement
// Plugin interface.
func (a *VRouterAgent) Init() error {
	return nil
}

// Close is called at cleanup phase. Method added in order to implement
// Plugin interface.
func (a *VRouterAgent) Close() error {
	return nil
}

func main() {
	configsync.DefaultPlugin.RemoteDB = &etcd.DefaultPlugin

	vrouterAgent := &VRouterAgent{
		ServiceLabel: &servicelabel.DefaultPlugin,
		HealthProbe:  &probe.DefaultPlugin,
		HTTP:         &rest.DefaultPlugin,
		Prometheus:   &prometheusplugin.DefaultPlugin,
		AgentConf:    &agentconf.DefaultPlugin,
		OperDB:       &oper.DefaultPlugin,
		ConfigSync:   &configsync.DefaultPlugin,
		VxlanRouting: &vxlanrouting.DefaultPlugin,
	}

	a := agent.NewAgent(agent.AllPlugins(vrouterAgent))
	if err := a.Run(); err != nil {
		logrus.DefaultLogger().Fatal(err)
	}
}
