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
	"github.com/ligato/cn-infra/infra"
)

// Plugin wraps the operational database into the plugin lifecycle. The DB
// itself is created eagerly so that dependent plugins can wire it at
// construction time.
type Plugin struct {
	Deps

	*DB
}

// Deps groups the dependencies of the plugin.
type Deps struct {
	infra.PluginDeps
}

// Init is NOOP - the database is created in the constructor.
func (p *Plugin) Init() error {
	return nil
}

// Close is NOOP.
func (p *Plugin) Close() error {
	return nil
}
