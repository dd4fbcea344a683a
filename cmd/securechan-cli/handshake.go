// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/securechan/securechan/httpapi"
	"github.com/securechan/securechan/keyschedule"
)

var handshakeTimeout time.Duration

var handshakeCmd = &cobra.Command{
	Use:   "handshake",
	Short: "Run the two-message handshake against a server",
	Long: `Runs the full RSA-3072/ECDSA-P256 mutual handshake against the
server at --base-url, derives session keys on success, and saves the
resulting session to --session-file for subsequent send/upload/download
calls.`,
	Example: `  securechan-cli handshake --base-url https://localhost:8443`,
	RunE:    runHandshake,
}

func init() {
	rootCmd.AddCommand(handshakeCmd)
	handshakeCmd.Flags().DurationVar(&handshakeTimeout, "timeout", 30*time.Second, "overall handshake timeout")
}

func runHandshake(cmd *cobra.Command, args []string) error {
	var deriver keyschedule.Deriver
	switch keySchedule {
	case "hkdf":
		deriver = keyschedule.HKDFDeriver{}
	case "hmac", "":
		deriver = keyschedule.HMACDeriver{}
	default:
		return fmt.Errorf("unknown key schedule %q (want hmac or hkdf)", keySchedule)
	}

	c := httpapi.NewClient(baseURL, 5*time.Second, 30*time.Second)
	if bearerToken != "" {
		c.SetBearerToken(bearerToken)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()

	if err := c.Handshake(ctx, deriver); err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}

	if err := saveClient(c); err != nil {
		return err
	}

	fmt.Printf("handshake established\n  client_id: %s\n  session file: %s\n", c.ClientID(), sessionFile)
	return nil
}
