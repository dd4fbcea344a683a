// SPDX-License-Identifier: LGPL-3.0-or-later

package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securechan/securechan/config"
	"github.com/securechan/securechan/handshake"
	"github.com/securechan/securechan/httpapi"
	"github.com/securechan/securechan/internal/store/memory"
	"github.com/securechan/securechan/keyschedule"
)

const testJWTSecret = "test-jwt-secret"

func testBearerToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	cfg := &config.SessionConfig{
		KeySchedule: "hmac",
		FrameSkew:   5 * time.Minute,
		MaxAge:      time.Hour,
		IdleTimeout: 10 * time.Minute,
	}
	srv := New(cfg, memory.NewStore(), testJWTSecret, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts, srv
}

// TestHandshakeRoundTrip drives a full client/server handshake over real
// HTTP and checks that the resulting session can exchange an authenticated
// frame. Covers P1-P2.
func TestHandshakeRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)

	c := httpapi.NewClient(ts.URL, 5*time.Second, 10*time.Second)
	err := c.Handshake(context.Background(), keyschedule.HMACDeriver{})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ClientID())

	reply, err := c.SendFrame(context.Background(), []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(reply))
}

// TestHandshakeRoundTrip_HKDF exercises the alternate key schedule end to
// end, so both Variant A and Variant B get an HTTP-level test.
func TestHandshakeRoundTrip_HKDF(t *testing.T) {
	cfg := &config.SessionConfig{
		KeySchedule: "hkdf",
		FrameSkew:   5 * time.Minute,
		MaxAge:      time.Hour,
		IdleTimeout: 10 * time.Minute,
	}
	srv := New(cfg, memory.NewStore(), testJWTSecret, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	defer srv.Close()

	c := httpapi.NewClient(ts.URL, 5*time.Second, 10*time.Second)
	err := c.Handshake(context.Background(), keyschedule.HKDFDeriver{})
	require.NoError(t, err)

	reply, err := c.SendFrame(context.Background(), []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, "ping", string(reply))
}

// TestFrameReplayRejected resends the exact same frame twice and checks the
// second attempt is rejected as a replay. Covers P3.
func TestFrameReplayRejected(t *testing.T) {
	ts, srv := newTestServer(t)

	c := httpapi.NewClient(ts.URL, 5*time.Second, 10*time.Second)
	require.NoError(t, c.Handshake(context.Background(), keyschedule.HMACDeriver{}))

	sess, ok := srv.sessMgr.GetSession(c.ClientID())
	require.True(t, ok)

	wire, err := sess.Build([]byte("duplicate-me"))
	require.NoError(t, err)

	// First delivery through the real session.Parse path (server side,
	// mirroring what /session/test does) must succeed.
	_, _, err = sess.Parse(wire, srv.sessMgr.ReplayChecker(), 5*time.Minute)
	require.NoError(t, err)

	// Second delivery of the identical wire frame must be rejected.
	_, _, err = sess.Parse(wire, srv.sessMgr.ReplayChecker(), 5*time.Minute)
	assert.Error(t, err)
}

// TestHandshakeInitReplayRejected posts the exact same M1 request twice and
// checks the second /handshake/init is rejected as a replay rather than
// minted a fresh client_id. Covers S2.
func TestHandshakeInitReplayRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	ch, err := handshake.NewClientHandshake()
	require.NoError(t, err)
	initReq, err := ch.Init()
	require.NoError(t, err)

	body, err := json.Marshal(initReq)
	require.NoError(t, err)

	resp1, err := ts.Client().Post(ts.URL+"/handshake/init", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp1.Body.Close()
	require.Equal(t, 200, resp1.StatusCode)

	resp2, err := ts.Client().Post(ts.URL+"/handshake/init", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, 409, resp2.StatusCode)
}

// TestFinalizeWrongClientID checks that finalizing under a client_id that
// never completed /handshake/init is rejected rather than silently
// succeeding.
func TestFinalizeWrongClientID(t *testing.T) {
	ts, _ := newTestServer(t)

	c := httpapi.NewClient(ts.URL, 5*time.Second, 10*time.Second)
	err := c.Handshake(context.Background(), keyschedule.HMACDeriver{})
	require.NoError(t, err)

	// A finalize request posted under a client_id nobody initiated should
	// fail, not silently attach to an unrelated pending handshake.
	req, err2 := http.NewRequest(http.MethodPost, ts.URL+"/handshake/finalize", bytes.NewReader([]byte(`{"encrypted":"","signature3":""}`)))
	require.NoError(t, err2)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", "never-initiated")
	resp, err2 := ts.Client().Do(req)
	require.NoError(t, err2)
	defer resp.Body.Close()
	assert.NotEqual(t, 200, resp.StatusCode)
}

// TestUploadRequiresBearerToken checks the upload endpoint rejects a request
// that carries no bearer token.
func TestUploadRequiresBearerToken(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/files/one/encrypted", bytes.NewReader([]byte{}))
	require.NoError(t, err)
	req.Header.Set("X-Client-ID", "nonexistent")
	req.Header.Set("X-Orig-Filename", "")
	req.Header.Set("X-Orig-Mime", "text/plain")
	req.Header.Set("X-File-Category", "unknown")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 403, resp.StatusCode)
}

// TestUploadAndDownloadRoundTrip uploads an encrypted blob under a valid
// bearer token and fetches it back byte for byte.
func TestUploadAndDownloadRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)

	c := httpapi.NewClient(ts.URL, 5*time.Second, 10*time.Second)
	require.NoError(t, c.Handshake(context.Background(), keyschedule.HMACDeriver{}))
	c.SetBearerToken(testBearerToken(t, c.ClientID()))

	plaintext := []byte("this is the file content being protected")
	uploadResp, err := c.EncryptAndUploadFile(context.Background(), "notes.txt", "text/plain", "text", bytes.NewReader(plaintext))
	require.NoError(t, err)
	assert.NotEmpty(t, uploadResp.ObjID)
	assert.Equal(t, "notes.txt", uploadResp.Name)

	var out bytes.Buffer
	require.NoError(t, c.DownloadAndDecryptFile(context.Background(), &out, uploadResp.URL))
	assert.Equal(t, plaintext, out.Bytes())
}

// TestDownloadTamperedBlobFailsIntegrity corrupts a stored blob in place and
// checks decryption surfaces an integrity failure rather than garbage
// plaintext.
func TestDownloadTamperedBlobFailsIntegrity(t *testing.T) {
	ts, srv := newTestServer(t)

	c := httpapi.NewClient(ts.URL, 5*time.Second, 10*time.Second)
	require.NoError(t, c.Handshake(context.Background(), keyschedule.HMACDeriver{}))
	c.SetBearerToken(testBearerToken(t, c.ClientID()))

	uploadResp, err := c.EncryptAndUploadFile(context.Background(), "a.bin", "application/octet-stream", "unknown", bytes.NewReader([]byte("secret bytes")))
	require.NoError(t, err)

	blob, err := srv.store.Objects().Get(context.Background(), uploadResp.ObjID)
	require.NoError(t, err)
	tampered := append([]byte(nil), blob...)
	tampered[len(tampered)-1] ^= 0xFF
	require.NoError(t, srv.store.Objects().Put(context.Background(), uploadResp.ObjID, tampered))

	var out bytes.Buffer
	err = c.DownloadAndDecryptFile(context.Background(), &out, uploadResp.URL)
	assert.Error(t, err)
}
