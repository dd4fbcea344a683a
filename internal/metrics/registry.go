// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "securechan"

// Registry is the Prometheus registry all metrics in this package are
// registered against. A dedicated registry (rather than the global
// default) keeps /metrics free of the Go runtime collectors unless a
// caller opts into them.
var Registry = prometheus.NewRegistry()
