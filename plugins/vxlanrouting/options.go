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
	"github.com/ligato/cn-infra/logging"
	"github.com/ligato/cn-infra/rpc/rest"

	prometheusplugin "github.com/ligato/cn-infra/rpc/prometheus"

	"github.com/YKonovalov/tf-controller/plugins/agentconf"
	"github.com/YKonovalov/tf-controller/plugins/oper"
)

// DefaultPlugin is a default instance of the VxlanRouting plugin.
var DefaultPlugin = *NewPlugin()

// NewPlugin creates a new VxlanRouting with the provided Options.
func NewPlugin(opts ...Option) *VxlanRouting {
	p := &VxlanRouting{}

	p.PluginName = "vxlanrouting"
	p.OperDB = &oper.DefaultPlugin
	p.AgentConf = &agentconf.DefaultPlugin
	p.HTTPHandlers = &rest.DefaultPlugin
	p.Prometheus = &prometheusplugin.DefaultPlugin

	for _, o := range opts {
		o(p)
	}

	if p.Deps.Log == nil {
		p.Deps.Log = logging.ForPlugin(p.String())
	}

	return p
}

// Option is a function that acts on a VxlanRouting plugin to inject
// Dependencies or configuration.
type Option func(*VxlanRouting)

// UseDeps returns Option that can inject custom dependencies.
func UseDeps(cb func(*Deps)) Option {
	return func(p *VxlanRouting) {
		cb(&p.Deps)
	}
}
