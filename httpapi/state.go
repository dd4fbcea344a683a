// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"encoding/json"
	"fmt"

	"github.com/securechan/securechan/internal/primitives"
	"github.com/securechan/securechan/keyschedule"
	"github.com/securechan/securechan/session"
)

// State is the on-disk shape a Client's post-handshake session can be
// persisted to, so that separate CLI invocations (one process per command)
// can share a single handshake across a "handshake" then "send"/"upload"
// sequence.
type State struct {
	ClientID     string `json:"client_id"`
	BaseURL      string `json:"base_url"`
	EncKey       string `json:"enc_key"`
	MacKey       string `json:"mac_key"`
	SignKeyDER   string `json:"sign_key_der"`
	VerifyKeyDER string `json:"verify_key_der"`
}

// ExportState captures the Client's established session for persistence.
// It fails if no session has been established yet.
func (c *Client) ExportState() (*State, error) {
	if c.sess == nil {
		return nil, fmt.Errorf("httpapi: no established session to export")
	}

	signDER, err := primitives.MarshalPrivateKeyDER(c.signKey)
	if err != nil {
		return nil, fmt.Errorf("httpapi: marshal sign key: %w", err)
	}
	verifyDER, err := primitives.MarshalECDSAPublicKeyDER(c.verifyKey)
	if err != nil {
		return nil, fmt.Errorf("httpapi: marshal verify key: %w", err)
	}

	return &State{
		ClientID:     c.clientID,
		BaseURL:      c.baseURL,
		EncKey:       primitives.Base64Encode(c.keys.Enc[:]),
		MacKey:       primitives.Base64Encode(c.keys.Mac[:]),
		SignKeyDER:   primitives.Base64Encode(signDER),
		VerifyKeyDER: primitives.Base64Encode(verifyDER),
	}, nil
}

// MarshalState is a convenience wrapper producing the indented JSON form
// written to the CLI's session file.
func (c *Client) MarshalState() ([]byte, error) {
	st, err := c.ExportState()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(st, "", "  ")
}

// LoadState reconstructs a Client's session from previously exported state,
// without re-running the handshake.
func LoadState(data []byte) (*Client, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("httpapi: decode session state: %w", err)
	}

	encBytes, err := primitives.Base64Decode(st.EncKey)
	if err != nil {
		return nil, fmt.Errorf("httpapi: decode enc key: %w", err)
	}
	macBytes, err := primitives.Base64Decode(st.MacKey)
	if err != nil {
		return nil, fmt.Errorf("httpapi: decode mac key: %w", err)
	}
	signDER, err := primitives.Base64Decode(st.SignKeyDER)
	if err != nil {
		return nil, fmt.Errorf("httpapi: decode sign key: %w", err)
	}
	verifyDER, err := primitives.Base64Decode(st.VerifyKeyDER)
	if err != nil {
		return nil, fmt.Errorf("httpapi: decode verify key: %w", err)
	}

	signKey, err := primitives.ParseECDSAPrivateKeyDER(signDER)
	if err != nil {
		return nil, fmt.Errorf("httpapi: parse sign key: %w", err)
	}
	verifyKey, err := primitives.ParseECDSAPublicKeyDER(verifyDER)
	if err != nil {
		return nil, fmt.Errorf("httpapi: parse verify key: %w", err)
	}

	var keys keyschedule.Keys
	if len(encBytes) != keyschedule.KeySize || len(macBytes) != keyschedule.KeySize {
		return nil, fmt.Errorf("httpapi: corrupt session state: wrong key length")
	}
	copy(keys.Enc[:], encBytes)
	copy(keys.Mac[:], macBytes)

	c := NewClient(st.BaseURL, 0, 0)
	c.clientID = st.ClientID
	c.keys = keys
	c.signKey = signKey
	c.verifyKey = verifyKey
	c.sess = session.New(st.ClientID, keys, signKey, verifyKey, session.Config{})
	return c, nil
}
