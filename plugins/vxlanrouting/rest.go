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
	"net/http"

	"github.com/unrolled/render"

	"github.com/YKonovalov/tf-controller/plugins/vxlanrouting/restapi"
)

func (m *VxlanRouting) registerRESTHandlers() {
	if m.HTTPHandlers == nil {
		m.Log.Warnf("No http handler provided, skipping registration of VXLAN routing REST handlers")
		return
	}

	m.HTTPHandlers.RegisterHTTPHandler(restapi.RestURLVxlanRouting, m.vxlanRoutingGetHandler, "GET")
	m.Log.Infof("VXLAN routing REST handler registered: GET %v", restapi.RestURLVxlanRouting)
}

func (m *VxlanRouting) vxlanRoutingGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		m.Log.Debug("Getting VXLAN routing state")

		status := restapi.VxlanRoutingStatus{
			LogicalRouters: m.GetVxlanRoutingMap(),
		}
		formatter.JSON(w, http.StatusOK, status)
	}
}
