// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FileBytesProcessed tracks bytes of encrypted file AE blobs uploaded
	// (encrypt) and downloaded (decrypt).
	FileBytesProcessed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "file_ae",
			Name:      "bytes_total",
			Help:      "Total bytes of encrypted file AE blobs uploaded and downloaded",
		},
		[]string{"direction"}, // encrypt, decrypt
	)

	// FileOperations tracks encrypt/decrypt outcomes.
	FileOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "file_ae",
			Name:      "operations_total",
			Help:      "Total number of file AE operations",
		},
		[]string{"direction", "status"}, // encrypt/decrypt, success/integrity_failure
	)
)
