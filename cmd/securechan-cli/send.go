// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sendMessage string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an authenticated frame to /session/test and print the reply",
	Long: `Builds a session frame over the given message under the
session saved by a prior handshake call, posts it to /session/test, and
prints the server's echoed plaintext.`,
	Example: `  securechan-cli send --message "ping"`,
	RunE:    runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendMessage, "message", "m", "", "message to send (required)")
	_ = sendCmd.MarkFlagRequired("message")
}

func runSend(cmd *cobra.Command, args []string) error {
	c, err := loadClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply, err := c.SendFrame(ctx, []byte(sendMessage))
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	fmt.Println(string(reply))
	return nil
}
