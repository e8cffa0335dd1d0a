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

package model

import "strings"

const (
	// ConfigPrefix is the root of the vrouter configuration key space.
	ConfigPrefix = "vrouter/config/"

	// VnKeyword identifies virtual-network configuration.
	VnKeyword = "vn"

	// VmiKeyword identifies VM-interface configuration.
	VmiKeyword = "vmi"

	// VrfKeyword identifies VRF configuration.
	VrfKeyword = "vrf"
)

// KeyPrefix returns the prefix under which all documents of the given
// keyword are stored.
func KeyPrefix(keyword string) string {
	return ConfigPrefix + keyword + "/"
}

// Key returns the key under which the named document should be stored.
func Key(keyword, name string) string {
	return KeyPrefix(keyword) + name
}

// ParseKey parses the keyword and document name from a configuration key.
// Returns empty strings if the key does not belong to the vrouter
// configuration key space.
func ParseKey(key string) (keyword, name string) {
	if !strings.HasPrefix(key, ConfigPrefix) {
		return "", ""
	}
	suffix := strings.TrimPrefix(key, ConfigPrefix)
	parts := strings.SplitN(suffix, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}
