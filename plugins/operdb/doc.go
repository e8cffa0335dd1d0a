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

// Package operdb implements the observable tables that back the operational
// state of the vrouter agent. A table keeps keyed entries, notifies registered
// listeners synchronously about entry changes and lets every listener attach
// its own derived state to each entry. Table walks are deferred: a walker
// scheduled while a notification is being processed runs only after the
// outermost mutation has fully unwound, so walk visitors always observe
// post-transition state.
package operdb
