// SPDX-License-Identifier: LGPL-3.0-or-later

package session

import (
	"sync"
	"time"
)

// NonceCache stores seen (client_id, nonce) pairs with a TTL, implementing
// the session framer's replay protection: a frame nonce already recorded
// for a client_id within the TTL window is a replay.
type NonceCache struct {
	ttl  time.Duration
	data sync.Map // client_id -> *sync.Map (nonce -> expiryUnix)
	tick *time.Ticker
	stop chan struct{}
}

// NewNonceCache creates a TTL-based replay cache (typical TTL: 5-10 minutes,
// matching the frame freshness skew it backs).
func NewNonceCache(ttl time.Duration) *NonceCache {
	nc := &NonceCache{
		ttl:  ttl,
		stop: make(chan struct{}),
		tick: time.NewTicker(time.Minute),
	}
	go nc.gcLoop()
	return nc
}

// Seen returns true if (clientID, nonce) was seen before; otherwise it
// records it and returns false. Implements session.ReplayChecker.
func (n *NonceCache) Seen(clientID, nonce string) bool {
	if clientID == "" || nonce == "" {
		return false
	}
	exp := time.Now().Add(n.ttl).Unix()

	v, _ := n.data.LoadOrStore(clientID, &sync.Map{})
	m := v.(*sync.Map)

	if old, ok := m.Load(nonce); ok {
		if prevExp, _ := old.(int64); prevExp >= time.Now().Unix() {
			return true
		}
	}
	m.Store(nonce, exp)
	return false
}

// DeleteKey removes all nonces recorded for a client_id (call on session
// close or eviction).
func (n *NonceCache) DeleteKey(clientID string) {
	n.data.Delete(clientID)
}

// Close stops the background GC goroutine.
func (n *NonceCache) Close() {
	close(n.stop)
	if n.tick != nil {
		n.tick.Stop()
	}
}

func (n *NonceCache) gcLoop() {
	for {
		select {
		case <-n.tick.C:
			now := time.Now().Unix()
			n.data.Range(func(k, v any) bool {
				m := v.(*sync.Map)
				empty := true
				m.Range(func(nk, nv any) bool {
					if exp, _ := nv.(int64); exp < now {
						m.Delete(nk)
					} else {
						empty = false
					}
					return true
				})
				if empty {
					n.data.Delete(k)
				}
				return true
			})
		case <-n.stop:
			return
		}
	}
}
