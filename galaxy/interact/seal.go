// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package interact

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealState encrypts a modulated state string with key (exactly
// chacha20poly1305.KeySize bytes), returning a base64 token suitable
// for round-tripping through an untrusted store (a cookie, a save
// file) between runs of cmd/galaxyctl. OpenState reverses it.
//
// Grounded on elasticproxy/proxy_http/cryptbytes.go's aeadBox, adapted
// from a JSON-tagged struct to a single self-describing token since
// galaxyctl has no surrounding JSON envelope to carry nonce/payload
// fields separately.
func SealState(key []byte, modulatedState string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("interact: SealState: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("interact: SealState: generating nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(modulatedState), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// OpenState reverses SealState, rejecting a token that does not
// authenticate under key.
func OpenState(key []byte, token string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("interact: OpenState: %w", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("interact: OpenState: decoding token: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("interact: OpenState: token shorter than a nonce")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("interact: OpenState: %w", err)
	}
	return string(plain), nil
}
