// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var downloadOutput string

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Fetch and decrypt a previously uploaded file",
	Long: `Fetches the encrypted blob at url (as returned by 'upload', e.g.
/files/one/<id>) and decrypts it under the established session's file
keys, writing the plaintext to --output or stdout.`,
	Args:    cobra.ExactArgs(1),
	Example: `  securechan-cli download /files/one/3fa0c2 --output photo.jpg`,
	RunE:    runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file (default: stdout)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	c, err := loadClient()
	if err != nil {
		return err
	}
	if bearerToken != "" {
		c.SetBearerToken(bearerToken)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var out *os.File
	if downloadOutput == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(downloadOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", downloadOutput, err)
		}
		defer out.Close()
	}

	if err := c.DownloadAndDecryptFile(ctx, out, args[0]); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	if downloadOutput != "" {
		fmt.Printf("saved to %s\n", downloadOutput)
	}
	return nil
}
