// SPDX-License-Identifier: LGPL-3.0-or-later

package fileae

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/securechan/securechan/internal/primitives"
	"github.com/securechan/securechan/keyschedule"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives the running total of plaintext bytes consumed so
// far; it may be nil.
type ProgressFunc func(totalRead uint64)

// EncryptStream reads plaintext from r in DefaultChunkSize chunks and
// writes file_nonce || iv || ciphertext || tag to w. PKCS#7 padding is
// applied only once, against the final chunk, never mid-stream.
func EncryptStream(w io.Writer, r io.Reader, keys keyschedule.Keys, progress ProgressFunc) error {
	fileNonce, err := NewFileNonce()
	if err != nil {
		return fmt.Errorf("fileae: encrypt stream: %w", err)
	}
	iv, err := primitives.RandomBytes(IVSize)
	if err != nil {
		return fmt.Errorf("fileae: encrypt stream: %w", err)
	}
	if _, err := w.Write(fileNonce); err != nil {
		return fmt.Errorf("fileae: encrypt stream: write file_nonce: %w", err)
	}
	if _, err := w.Write(iv); err != nil {
		return fmt.Errorf("fileae: encrypt stream: write iv: %w", err)
	}

	pr, pw := io.Pipe()
	g := new(errgroup.Group)

	g.Go(func() error {
		defer pw.Close()
		return encryptChunks(pw, r, keys.Enc[:], iv)
	})

	mac := primitives.NewHMACSHA256(keys.Mac[:])
	mac.Write(iv)

	g.Go(func() error {
		buf := make([]byte, DefaultChunkSize)
		var total uint64
		for {
			n, err := pr.Read(buf)
			if n > 0 {
				mac.Write(buf[:n])
				if _, werr := w.Write(buf[:n]); werr != nil {
					return fmt.Errorf("fileae: encrypt stream: write ciphertext: %w", werr)
				}
				total += uint64(n)
				if progress != nil {
					progress(total)
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("fileae: encrypt stream: read ciphertext: %w", err)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}

	tag := mac.Sum(nil)
	if _, err := w.Write(tag); err != nil {
		return fmt.Errorf("fileae: encrypt stream: write tag: %w", err)
	}
	return nil
}

// encryptChunks drives the CBC encrypter over src in DefaultChunkSize reads,
// keeping any sub-block remainder until the next read (or EOF, when it is
// finally PKCS#7-padded), so padding never happens mid-stream.
func encryptChunks(dst io.Writer, src io.Reader, key, iv []byte) error {
	enc, err := primitives.NewAESCBCEncrypter(key, iv)
	if err != nil {
		return err
	}

	buf := make([]byte, DefaultChunkSize)
	var carry []byte
	for {
		n, rerr := src.Read(buf)
		data := append(carry, buf[:n]...)

		if rerr == io.EOF {
			padded := primitives.PKCS7Pad(data, primitives.AESBlockSize)
			ciphertext := make([]byte, len(padded))
			enc.CryptBlocks(ciphertext, padded)
			_, werr := dst.Write(ciphertext)
			return werr
		}
		if rerr != nil {
			return rerr
		}

		aligned := (len(data) / primitives.AESBlockSize) * primitives.AESBlockSize
		if aligned > 0 {
			ciphertext := make([]byte, aligned)
			enc.CryptBlocks(ciphertext, data[:aligned])
			if _, werr := dst.Write(ciphertext); werr != nil {
				return werr
			}
		}
		carry = append([]byte(nil), data[aligned:]...)
	}
}

// EncryptReader returns an io.ReadCloser that streams the encrypted blob
// lazily, suitable as an *http.Request body for a streamed upload. Errors
// from the underlying encryption are surfaced through Read.
func EncryptReader(r io.Reader, keys keyschedule.Keys, progress ProgressFunc) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		err := EncryptStream(pw, r, keys, progress)
		pw.CloseWithError(err)
	}()
	return pr
}

// HumanizeProgress adapts a ProgressFunc to log human-readable byte counts,
// e.g. HumanizeProgress(func(s string) { log.Println(s) }).
func HumanizeProgress(log func(string)) ProgressFunc {
	return func(total uint64) {
		log(fmt.Sprintf("encrypted %s so far", humanize.Bytes(total)))
	}
}
