// SPDX-License-Identifier: LGPL-3.0-or-later

package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// AESBlockSize is the AES block size; frames are padded to a multiple of it.
const AESBlockSize = aes.BlockSize

// AESCBCEncrypt PKCS#7-pads plaintext and encrypts it under key (AES-256,
// since key is expected to be 32 bytes) with a freshly generated IV.
// It returns the IV and the ciphertext separately.
func AESCBCEncrypt(key, plaintext []byte) (iv, ciphertext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("primitives: aes-cbc new cipher: %w", err)
	}

	iv = make([]byte, AESBlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("primitives: aes-cbc iv: %w", err)
	}

	padded := PKCS7Pad(plaintext, AESBlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return iv, ciphertext, nil
}

// AESCBCDecrypt decrypts ciphertext under key and iv and removes the
// PKCS#7 padding.
func AESCBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("primitives: aes-cbc new cipher: %w", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%AESBlockSize != 0 {
		return nil, fmt.Errorf("primitives: aes-cbc: ciphertext is not a multiple of the block size")
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return PKCS7Unpad(plaintext, AESBlockSize)
}

// NewAESCBCEncrypter returns a block-mode encrypter for streaming use; the
// caller owns padding and IV generation (see fileae.EncryptStream).
func NewAESCBCEncrypter(key, iv []byte) (cipher.BlockMode, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("primitives: aes-cbc new cipher: %w", err)
	}
	return cipher.NewCBCEncrypter(block, iv), nil
}

// NewAESCBCDecrypter returns a block-mode decrypter for streaming use.
func NewAESCBCDecrypter(key, iv []byte) (cipher.BlockMode, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("primitives: aes-cbc new cipher: %w", err)
	}
	return cipher.NewCBCDecrypter(block, iv), nil
}
