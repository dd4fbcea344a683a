// SPDX-License-Identifier: LGPL-3.0-or-later

// Package httpapi is the client-side HTTP binding for the securechan
// handshake, session-frame and file-AE protocols: it drives
// handshake.ClientHandshake and session.Session through the wire shapes of
// spec.md §6 against a securechan reference server (or any compatible
// peer).
package httpapi

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/securechan/securechan/fileae"
	"github.com/securechan/securechan/handshake"
	"github.com/securechan/securechan/keyschedule"
	"github.com/securechan/securechan/session"
)

// Client drives a handshake and subsequent session/file traffic against a
// single base URL, mirroring the teacher's HTTPTransport: a thin wrapper
// around *http.Client with protocol-specific marshalling on top.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	finalizeTimeout time.Duration
	bearerToken     string

	clientID  string
	sess      *session.Session
	keys      keyschedule.Keys
	signKey   *ecdsa.PrivateKey
	verifyKey *ecdsa.PublicKey
}

// NewClient creates a Client against baseURL with the given finalize and
// general request timeouts (5s / 30s are the module's own defaults, per
// spec.md §5).
func NewClient(baseURL string, finalizeTimeout, requestTimeout time.Duration) *Client {
	if finalizeTimeout <= 0 {
		finalizeTimeout = 5 * time.Second
	}
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Client{
		baseURL:         baseURL,
		httpClient:      &http.Client{Timeout: requestTimeout},
		finalizeTimeout: finalizeTimeout,
	}
}

// SetBearerToken attaches an Authorization: Bearer header to subsequent
// EncryptAndUploadFile/DownloadAndDecryptFile requests.
func (c *Client) SetBearerToken(token string) {
	c.bearerToken = token
}

// ClientID returns the client_id assigned by the server once the handshake
// has completed.
func (c *Client) ClientID() string { return c.clientID }

// Handshake runs the full two-message handshake against the server and, on
// success, derives session keys with deriver and establishes the client's
// local session.Session for subsequent SendFrame/SendEncrypted/EncryptAndUploadFile calls.
func (c *Client) Handshake(ctx context.Context, deriver keyschedule.Deriver) error {
	ch, err := handshake.NewClientHandshake()
	if err != nil {
		return fmt.Errorf("httpapi: %w", err)
	}

	m1, err := ch.Init()
	if err != nil {
		return fmt.Errorf("httpapi: handshake init: %w", err)
	}

	var m1resp handshake.InitResponse
	if err := c.postJSON(ctx, "/handshake/init", nil, m1, &m1resp); err != nil {
		return fmt.Errorf("httpapi: post /handshake/init: %w", err)
	}

	m2, err := ch.Finalize(m1resp)
	if err != nil {
		return fmt.Errorf("httpapi: handshake finalize (local): %w", err)
	}

	finalizeCtx, cancel := context.WithTimeout(ctx, c.finalizeTimeout)
	defer cancel()

	var m2resp handshake.FinalizeResponse
	headers := map[string]string{"X-Client-ID": m1resp.ClientID}
	if err := c.postJSON(finalizeCtx, "/handshake/finalize", headers, m2, &m2resp); err != nil {
		return fmt.Errorf("httpapi: post /handshake/finalize: %w", err)
	}

	result, err := ch.Complete(m2resp)
	if err != nil {
		return fmt.Errorf("httpapi: handshake complete: %w", err)
	}

	if deriver == nil {
		deriver = keyschedule.Default()
	}
	keys, err := deriver.Derive(result.SharedSecret[:])
	if err != nil {
		return fmt.Errorf("httpapi: derive session keys: %w", err)
	}

	c.clientID = result.ClientID
	c.keys = keys
	c.signKey = result.ClientSignKey
	c.verifyKey = result.ServerVerifyKey
	c.sess = session.New(result.ClientID, keys, result.ClientSignKey, result.ServerVerifyKey, session.Config{})
	return nil
}

// SendFrame builds a session frame over payload and posts it to
// /session/test, returning the server's echoed plaintext.
func (c *Client) SendFrame(ctx context.Context, payload []byte) ([]byte, error) {
	if c.sess == nil {
		return nil, fmt.Errorf("httpapi: no established session, call Handshake first")
	}

	wire, err := c.sess.Build(payload)
	if err != nil {
		return nil, fmt.Errorf("httpapi: build frame: %w", err)
	}

	var resp struct {
		Plaintext string `json:"plaintext"`
	}
	headers := map[string]string{"X-Client-ID": c.clientID}
	if err := c.postJSON(ctx, "/session/test", headers, wire, &resp); err != nil {
		return nil, fmt.Errorf("httpapi: post /session/test: %w", err)
	}
	return []byte(resp.Plaintext), nil
}

// SendEncrypted builds a session frame over payload and posts it to an
// arbitrary application path, returning the raw response body undecoded for
// the caller to interpret.
func (c *Client) SendEncrypted(ctx context.Context, path string, payload []byte) ([]byte, error) {
	if c.sess == nil {
		return nil, fmt.Errorf("httpapi: no established session, call Handshake first")
	}
	wire, err := c.sess.Build(payload)
	if err != nil {
		return nil, fmt.Errorf("httpapi: build frame: %w", err)
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("httpapi: marshal frame: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpapi: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpapi: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpapi: %s: http %d: %s", path, resp.StatusCode, string(out))
	}
	return out, nil
}

// EncryptAndUploadFile encrypts r's contents under the session's keys and
// uploads the resulting blob to /files/one/encrypted.
func (c *Client) EncryptAndUploadFile(ctx context.Context, name, mime, category string, r io.Reader) (*FileUploadResponse, error) {
	if c.sess == nil {
		return nil, fmt.Errorf("httpapi: no established session, call Handshake first")
	}

	pr, pw := io.Pipe()
	go func() {
		err := fileae.EncryptStream(pw, r, c.keys, nil)
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/one/encrypted", pr)
	if err != nil {
		return nil, fmt.Errorf("httpapi: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Client-ID", c.clientID)
	req.Header.Set("X-Orig-Filename", base64.StdEncoding.EncodeToString([]byte(name)))
	req.Header.Set("X-Orig-Mime", mime)
	req.Header.Set("X-File-Category", category)
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpapi: upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpapi: read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpapi: upload: http %d: %s", resp.StatusCode, string(body))
	}

	var out FileUploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("httpapi: decode upload response: %w", err)
	}
	return &out, nil
}

// DownloadAndDecryptFile fetches the object at url and decrypts it into w
// under the session's keys.
func (c *Client) DownloadAndDecryptFile(ctx context.Context, w io.Writer, url string) error {
	if c.sess == nil {
		return fmt.Errorf("httpapi: no established session, call Handshake first")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+url, nil)
	if err != nil {
		return fmt.Errorf("httpapi: new request: %w", err)
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpapi: download failed: %w", err)
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpapi: read download body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpapi: download: http %d", resp.StatusCode)
	}

	plain, err := fileae.DecryptBuffered(blob, c.keys)
	if err != nil {
		return fmt.Errorf("httpapi: decrypt download: %w", err)
	}
	_, err = w.Write(plain)
	return err
}

// postJSON marshals body, optionally attaches headers, posts to
// baseURL+path and decodes the JSON response into out. A non-200 response
// is turned into an error carrying the response's {"error": "..."} message
// when present.
func (c *Client) postJSON(ctx context.Context, path string, headers map[string]string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("http %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
