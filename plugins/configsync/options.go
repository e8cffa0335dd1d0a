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

package configsync

import (
	"github.com/ligato/cn-infra/logging"

	"github.com/YKonovalov/tf-controller/plugins/oper"
)

// DefaultPlugin is a default instance of the ConfigSync plugin.
var DefaultPlugin = *NewPlugin()

// NewPlugin creates a new ConfigSync with the provided Options.
func NewPlugin(opts ...Option) *ConfigSync {
	p := &ConfigSync{}

	p.PluginName = "configsync"
	p.OperDB = &oper.DefaultPlugin

	for _, o := range opts {
		o(p)
	}

	if p.Deps.Log == nil {
		p.Deps.Log = logging.ForPlugin(p.String())
	}

	return p
}

// Option is a function that acts on a ConfigSync plugin to inject
// Dependencies or configuration.
type Option func(*ConfigSync)

// UseDeps returns Option that can inject custom dependencies.
func UseDeps(cb func(*Deps)) Option {
	return func(p *ConfigSync) {
		cb(&p.Deps)
	}
}
