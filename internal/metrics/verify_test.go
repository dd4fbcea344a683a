// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistration(t *testing.T) {
	if HandshakesInitiated == nil {
		t.Error("HandshakesInitiated metric is nil")
	}
	if HandshakesCompleted == nil {
		t.Error("HandshakesCompleted metric is nil")
	}
	if HandshakesFailed == nil {
		t.Error("HandshakesFailed metric is nil")
	}
	if HandshakeDuration == nil {
		t.Error("HandshakeDuration metric is nil")
	}

	if SessionsCreated == nil {
		t.Error("SessionsCreated metric is nil")
	}
	if SessionsActive == nil {
		t.Error("SessionsActive metric is nil")
	}
	if SessionsExpired == nil {
		t.Error("SessionsExpired metric is nil")
	}
	if SessionDuration == nil {
		t.Error("SessionDuration metric is nil")
	}
	if SessionMessageSize == nil {
		t.Error("SessionMessageSize metric is nil")
	}

	if CryptoOperations == nil {
		t.Error("CryptoOperations metric is nil")
	}

	if FramesProcessed == nil {
		t.Error("FramesProcessed metric is nil")
	}
	if ReplayAttacksDetected == nil {
		t.Error("ReplayAttacksDetected metric is nil")
	}

	if FileBytesProcessed == nil {
		t.Error("FileBytesProcessed metric is nil")
	}
	if FileOperations == nil {
		t.Error("FileOperations metric is nil")
	}
}

func TestMetricsIncrement(t *testing.T) {
	HandshakesInitiated.WithLabelValues("client").Inc()
	HandshakesCompleted.WithLabelValues("success").Inc()
	HandshakesFailed.WithLabelValues("authentication_failed").Inc()
	HandshakeDuration.WithLabelValues("finalize").Observe(0.05)

	SessionsCreated.WithLabelValues("success").Inc()
	SessionsActive.Inc()
	SessionsExpired.Inc()
	SessionDuration.WithLabelValues("build").Observe(0.001)
	SessionMessageSize.WithLabelValues("outbound").Observe(1024)

	CryptoOperations.WithLabelValues("sign", "ecdsa-p256").Inc()
	CryptoOperations.WithLabelValues("decrypt", "rsa-oaep").Inc()

	FramesProcessed.WithLabelValues("accepted").Inc()
	ReplayAttacksDetected.Inc()

	FileBytesProcessed.WithLabelValues("encrypt").Add(4096)
	FileOperations.WithLabelValues("decrypt", "success").Inc()

	if count := testutil.CollectAndCount(HandshakesInitiated); count == 0 {
		t.Error("HandshakesInitiated has no metrics collected")
	}
	if count := testutil.CollectAndCount(SessionsCreated); count == 0 {
		t.Error("SessionsCreated has no metrics collected")
	}
	if count := testutil.CollectAndCount(CryptoOperations); count == 0 {
		t.Error("CryptoOperations has no metrics collected")
	}
	if count := testutil.CollectAndCount(FileBytesProcessed); count == 0 {
		t.Error("FileBytesProcessed has no metrics collected")
	}
}
