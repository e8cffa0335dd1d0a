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

// Package agentconf loads the static configuration of the vrouter agent.
// The path to the configuration file can be specified with the
// `-agent-config=<path>` argument or the `AGENT_CONFIG` environment
// variable.
package agentconf

import (
	"github.com/ligato/cn-infra/infra"
	"github.com/pkg/errors"
)

// API defines the read access to the agent configuration provided for the
// other plugins.
type API interface {
	// GetConfig returns the loaded configuration.
	GetConfig() *Config

	// FabricVrfName returns the name of the fabric VRF.
	FabricVrfName() string

	// FabricPolicyVrfName returns the name of the fabric policy VRF.
	FabricPolicyVrfName() string
}

// Config represents the configuration of the vrouter agent.
type Config struct {
	// FabricVrfName is the VRF carrying the underlay traffic of the node.
	// It never participates in tenant routing.
	FabricVrfName string `json:"fabricVrfName"`

	// FabricPolicyVrfName is the policy-enabled view of the fabric VRF.
	FabricPolicyVrfName string `json:"fabricPolicyVrfName"`
}

func defaultConfig() *Config {
	return &Config{
		FabricVrfName:       "default-domain:default-project:ip-fabric:__default__",
		FabricPolicyVrfName: "default-domain:default-project:ip-fabric:ip-fabric",
	}
}

// AgentConf loads and serves the agent configuration.
type AgentConf struct {
	Deps

	config *Config
}

// Deps groups the dependencies of the plugin.
type Deps struct {
	infra.PluginDeps
}

// Init loads the configuration file, keeping built-in defaults for options
// the file does not mention.
func (c *AgentConf) Init() error {
	c.config = defaultConfig()
	if c.Cfg != nil {
		if _, err := c.Cfg.LoadValue(c.config); err != nil {
			return errors.Wrap(err, "failed to load agent configuration")
		}
	}
	c.Log.Infof("Agent configuration: %+v", c.config)
	return nil
}

// Close is NOOP.
func (c *AgentConf) Close() error {
	return nil
}

// GetConfig returns the loaded configuration.
func (c *AgentConf) GetConfig() *Config {
	return c.config
}

// FabricVrfName returns the name of the fabric VRF.
func (c *AgentConf) FabricVrfName() string {
	return c.config.FabricVrfName
}

// FabricPolicyVrfName returns the name of the fabric policy VRF.
func (c *AgentConf) FabricPolicyVrfName() string {
	return c.config.FabricPolicyVrfName
}
