// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/securechan/securechan/httpapi"
)

// loadClient reconstructs a Client from the persisted session file written
// by the handshake subcommand. Commands that need an established session
// (send, upload, download) call this instead of running their own
// handshake.
func loadClient() (*httpapi.Client, error) {
	data, err := os.ReadFile(sessionFile)
	if err != nil {
		return nil, fmt.Errorf("no session found at %s, run 'securechan-cli handshake' first: %w", sessionFile, err)
	}
	c, err := httpapi.LoadState(data)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return c, nil
}

// saveClient persists c's established session to the CLI's session file.
func saveClient(c *httpapi.Client) error {
	data, err := c.MarshalState()
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(sessionFile, data, 0600); err != nil {
		return fmt.Errorf("write session file %s: %w", sessionFile, err)
	}
	return nil
}
