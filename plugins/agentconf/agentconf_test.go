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

package agentconf

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/logging"
)

func TestDefaults(t *testing.T) {
	RegisterTestingT(t)

	conf := &AgentConf{
		Deps: Deps{
			PluginDeps: infra.PluginDeps{
				Log: logging.ForPlugin("agentconf"),
			},
		},
	}
	Expect(conf.Init()).To(BeNil())

	Expect(conf.FabricVrfName()).To(Equal("default-domain:default-project:ip-fabric:__default__"))
	Expect(conf.FabricPolicyVrfName()).To(Equal("default-domain:default-project:ip-fabric:ip-fabric"))
	Expect(conf.GetConfig()).ToNot(BeNil())
}
