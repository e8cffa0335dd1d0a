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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// prometheusMetricsPath is the registry path of the VXLAN routing
	// metrics.
	prometheusMetricsPath = "/vxlan"

	metricsTableEvpn = "evpn"
	metricsTableInet = "inet"
)

// metrics bundles the collectors of the plugin. All counters stay usable
// (as no-ops) when the Prometheus plugin is not deployed, e.g. in tests.
type metrics struct {
	routeAdds *prometheus.CounterVec
	routeDels *prometheus.CounterVec
}

func (s *metrics) countRouteAdd(table string) {
	if s.routeAdds != nil {
		s.routeAdds.WithLabelValues(table).Inc()
	}
}

func (s *metrics) countRouteDel(table string) {
	if s.routeDels != nil {
		s.routeDels.WithLabelValues(table).Inc()
	}
}

// registerMetrics creates the VXLAN routing registry and the collectors:
// gauges reflecting the logical-router map and counters of issued route
// operations.
func (m *VxlanRouting) registerMetrics() error {
	if m.Prometheus == nil {
		return nil
	}

	err := m.Prometheus.NewRegistry(prometheusMetricsPath,
		promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError, ErrorLog: m.Log})
	if err != nil {
		return err
	}

	logicalRouters := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "vrouter",
		Subsystem: "vxlan_routing",
		Name:      "logical_routers",
		Help:      "Number of logical routers known to the agent.",
	}, func() float64 {
		var count int
		m.OperDB.Scheduler().Synchronize(func() {
			count = len(m.mapper.lrVrfInfoMap)
		})
		return float64(count)
	})

	bridgeMemberships := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "vrouter",
		Subsystem: "vxlan_routing",
		Name:      "bridge_vn_memberships",
		Help:      "Number of bridge VN attachments across all logical routers.",
	}, func() float64 {
		var count int
		m.OperDB.Scheduler().Synchronize(func() {
			for _, info := range m.mapper.lrVrfInfoMap {
				count += len(info.bridgeVns)
			}
		})
		return float64(count)
	})

	m.metrics.routeAdds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vrouter",
		Subsystem: "vxlan_routing",
		Name:      "route_adds_total",
		Help:      "Leaked route installs issued, by target table class.",
	}, []string{"table"})

	m.metrics.routeDels = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vrouter",
		Subsystem: "vxlan_routing",
		Name:      "route_deletes_total",
		Help:      "Leaked route retractions issued, by target table class.",
	}, []string{"table"})

	for _, collector := range []prometheus.Collector{
		logicalRouters, bridgeMemberships, m.metrics.routeAdds, m.metrics.routeDels,
	} {
		if err := m.Prometheus.Register(prometheusMetricsPath, collector); err != nil {
			return err
		}
	}
	return nil
}
