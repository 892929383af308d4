/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rt

import "github.com/prometheus/client_golang/prometheus"

// channelMetrics counts realtime publish cycles and the offset-table
// invalidations that force a fall back to a full re-encode.
type channelMetrics struct {
	cycles        prometheus.Counter
	invalidations prometheus.Counter
	cycleErrors   prometheus.Counter
	reshapes      prometheus.Counter
}

func newChannelMetrics(reg prometheus.Registerer, channelName string) *channelMetrics {
	m := &channelMetrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pubsub",
			Subsystem:   "rt",
			Name:        "cycles_total",
			Help:        "Realtime publish cycles completed without re-encoding.",
			ConstLabels: prometheus.Labels{"channel": channelName},
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pubsub",
			Subsystem:   "rt",
			Name:        "offset_invalidations_total",
			Help:        "Cycles that fell back to CONFIGURED because a field's encoded length changed.",
			ConstLabels: prometheus.Labels{"channel": channelName},
		}),
		cycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pubsub",
			Subsystem:   "rt",
			Name:        "cycle_errors_total",
			Help:        "Cycles that failed for a reason other than an offset invalidation (security, transport).",
			ConstLabels: prometheus.Labels{"channel": channelName},
		}),
		reshapes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pubsub",
			Subsystem:   "rt",
			Name:        "reconfigure_reshapes_total",
			Help:        "Configure calls whose message shape differed from the previously configured one, as opposed to a value-only reconfigure.",
			ConstLabels: prometheus.Labels{"channel": channelName},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.cycles, m.invalidations, m.cycleErrors, m.reshapes)
	}
	return m
}
