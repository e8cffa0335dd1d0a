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

// Package oper holds the operational object model of the vrouter agent:
// virtual networks with their IPAM subnets, VM interfaces, VRFs and the
// per-VRF route tables (EVPN plus IPv4/IPv6 unicast). All objects live in
// observable tables (plugins/operdb); configuration changes are applied
// through the DB methods and fan out to table listeners synchronously.
package oper
