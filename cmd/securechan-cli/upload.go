// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	uploadMime     string
	uploadCategory string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Encrypt and upload a file under the established session",
	Long: `Streams path through the session's file authenticated-encryption
keys and uploads the resulting blob to /files/one/encrypted, printing the
server-assigned object id and URL.`,
	Args:    cobra.ExactArgs(1),
	Example: `  securechan-cli upload photo.jpg --mime image/jpeg --category photo`,
	RunE:    runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadMime, "mime", "application/octet-stream", "original file MIME type")
	uploadCmd.Flags().StringVar(&uploadCategory, "category", "unknown", "file category (photo, video, text, unknown)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	c, err := loadClient()
	if err != nil {
		return err
	}
	if bearerToken != "" {
		c.SetBearerToken(bearerToken)
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	resp, err := c.EncryptAndUploadFile(ctx, filepath.Base(path), uploadMime, uploadCategory, f)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Printf("uploaded\n  obj_id: %s\n  url: %s\n  name: %s\n  mime_type: %s\n  created_at: %s\n",
		resp.ObjID, resp.URL, resp.Name, resp.MimeType, resp.CreatedAt)
	return nil
}
