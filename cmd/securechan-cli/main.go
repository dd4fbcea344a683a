// Copyright (C) 2025 securechan contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "securechan-cli",
	Short: "securechan CLI - handshake, session and file operations",
	Long: `securechan-cli drives the securechan mutual-handshake, session-frame
and encrypted-file protocols against a securechan reference server (or any
compatible peer).

This tool supports:
- Running the two-message RSA/ECDSA handshake, saving the session and
  printing the assigned client_id
- Sending an authenticated session frame and printing the server's reply
- Encrypting and uploading a file under an established session
- Downloading and decrypting a previously uploaded file`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&baseURL, "base-url", "u", "http://localhost:8443", "securechan server base URL")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "bearer-token", "", "bearer token for file upload/download")
	rootCmd.PersistentFlags().StringVar(&keySchedule, "key-schedule", "hmac", "session key schedule (hmac or hkdf)")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", ".securechan-session.json", "path to persist session state between invocations")

	// Note: Commands are registered in their respective files
	// - handshake.go: handshakeCmd
	// - send.go: sendCmd
	// - upload.go: uploadCmd
	// - download.go: downloadCmd
}

var (
	baseURL     string
	bearerToken string
	keySchedule string
	sessionFile string
)
