// SPDX-License-Identifier: LGPL-3.0-or-later

package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// jwtVerifier parses (never issues) the bearer token attached to
// /files/one/encrypted and /files/one/{id}, standing in for an out-of-scope
// login service: it verifies a pre-shared HS256 secret and extracts the
// subject claim, nothing more.
type jwtVerifier struct {
	secret []byte
}

func newJWTVerifier(secret string) *jwtVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

// verify parses tokenString as an HS256 JWT and returns its subject claim.
func (v *jwtVerifier) verify(tokenString string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("%w: server has no jwt secret configured", ErrAuthentication)
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: unrecognized claims", ErrAuthentication)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrAuthentication)
	}
	return sub, nil
}

// requireBearer wraps next with Authorization: Bearer <jwt> enforcement,
// per spec.md §6's file-upload header conventions.
func (s *Server) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authz, prefix) {
			writeError(w, fmt.Errorf("%w: missing bearer token", ErrAuthentication))
			return
		}
		if _, err := s.jwt.verify(strings.TrimPrefix(authz, prefix)); err != nil {
			writeError(w, err)
			return
		}
		next(w, r)
	}
}
