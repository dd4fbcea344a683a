// SPDX-License-Identifier: LGPL-3.0-or-later

package fileae

import (
	"fmt"
	"io"

	"github.com/securechan/securechan/internal/primitives"
	"github.com/securechan/securechan/keyschedule"
)

// DecryptBuffered reads the full blob, verifies its tag, and only then
// decrypts and unpads. Tag verification happens before any plaintext is
// produced, per the file AE stream's decrypt contract.
func DecryptBuffered(blob []byte, keys keyschedule.Keys) ([]byte, error) {
	if len(blob) < NonceSize+IVSize+TagSize {
		return nil, ErrIntegrityFailure
	}

	iv := blob[NonceSize : NonceSize+IVSize]
	ciphertext := blob[NonceSize+IVSize : len(blob)-TagSize]
	tag := blob[len(blob)-TagSize:]

	expected := primitives.HMACSHA256(keys.Mac[:], concat(iv, ciphertext))
	if !primitives.ConstantTimeEqual(tag, expected) {
		return nil, ErrIntegrityFailure
	}

	plaintext, err := primitives.AESCBCDecrypt(keys.Enc[:], iv, ciphertext)
	if err != nil {
		return nil, ErrIntegrityFailure
	}
	return plaintext, nil
}

// DecryptStream verifies an entire blob's tag against src (which must
// support random access, since the tag trails the ciphertext it covers and
// cannot be confirmed before the body has been read), then streams the
// decrypted, unpadded plaintext to w. No plaintext reaches w unless the tag
// matched.
func DecryptStream(w io.Writer, src io.ReaderAt, size int64, keys keyschedule.Keys) error {
	if size < NonceSize+IVSize+TagSize {
		return ErrIntegrityFailure
	}

	ivOff := int64(NonceSize)
	bodyOff := ivOff + IVSize
	bodyLen := size - bodyOff - TagSize

	iv := make([]byte, IVSize)
	if _, err := src.ReadAt(iv, ivOff); err != nil {
		return fmt.Errorf("fileae: decrypt stream: read iv: %w", err)
	}
	tag := make([]byte, TagSize)
	if _, err := src.ReadAt(tag, size-TagSize); err != nil {
		return fmt.Errorf("fileae: decrypt stream: read tag: %w", err)
	}

	mac := primitives.NewHMACSHA256(keys.Mac[:])
	mac.Write(iv)

	section := io.NewSectionReader(src, bodyOff, bodyLen)
	buf := make([]byte, DefaultChunkSize)
	for {
		n, err := section.Read(buf)
		if n > 0 {
			mac.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("fileae: decrypt stream: read body: %w", err)
		}
	}

	if !primitives.ConstantTimeEqual(tag, mac.Sum(nil)) {
		return ErrIntegrityFailure
	}

	dec, err := primitives.NewAESCBCDecrypter(keys.Enc[:], iv)
	if err != nil {
		return fmt.Errorf("fileae: decrypt stream: %w", err)
	}

	section = io.NewSectionReader(src, bodyOff, bodyLen)
	var lastBlock []byte
	buf = make([]byte, DefaultChunkSize)
	for {
		n, err := section.Read(buf)
		if n > 0 {
			if n%primitives.AESBlockSize != 0 {
				return ErrIntegrityFailure
			}
			plain := make([]byte, n)
			dec.CryptBlocks(plain, buf[:n])

			// Hold back the final block of the stream until EOF, since it
			// carries the PKCS#7 padding that must be stripped before
			// writing to w.
			if lastBlock != nil {
				if _, werr := w.Write(lastBlock); werr != nil {
					return werr
				}
			}
			lastBlock = plain[n-primitives.AESBlockSize:]
			if n > primitives.AESBlockSize {
				if _, werr := w.Write(plain[:n-primitives.AESBlockSize]); werr != nil {
					return werr
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("fileae: decrypt stream: read body: %w", err)
		}
	}

	unpadded, err := primitives.PKCS7Unpad(lastBlock, primitives.AESBlockSize)
	if err != nil {
		return ErrIntegrityFailure
	}
	_, err = w.Write(unpadded)
	return err
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
