// Package auth verifies identity assertions issued by the chat platform,
// maps identities to access tiers and signs the bearer tokens handed out
// after a successful session initialization.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

const (
	hashKey = "hash"
	userKey = "user"
)

// VerifyInitData checks the signature of a platform identity assertion.
//
// The assertion is a '&'-joined list of key=value pairs. The "hash" pair
// carries the lowercase hex HMAC-SHA256 of the remaining pairs exactly as
// transmitted (only surrounding whitespace trimmed), sorted as "key=value"
// strings and joined with '\n'; the HMAC key is SHA-256(secret). The "user"
// pair holds the JSON identity object, either raw or URL-encoded.
func VerifyInitData(raw string, secret string) (*models.IdentityClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, common.ErrMissingPayload
	}

	pairs, err := parsePairs(raw)
	if err != nil {
		return nil, err
	}

	provided, ok := pairs[hashKey]
	if !ok || provided == "" {
		return nil, fmt.Errorf("%w: no hash", common.ErrMalformedPayload)
	}
	delete(pairs, hashKey)

	expected := sign(dataCheckString(pairs), secret)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return nil, common.ErrInvalidSignature
	}

	userValue, ok := pairs[userKey]
	if !ok {
		return nil, fmt.Errorf("%w: no user", common.ErrMalformedPayload)
	}

	claims, err := decodeUser(userValue)
	if err != nil {
		return nil, err
	}
	if claims.ID == 0 {
		return nil, fmt.Errorf("%w: user without id", common.ErrMalformedPayload)
	}

	return claims, nil
}

// SignInitData builds a signed assertion out of fields. Any "hash" entry in
// fields is ignored. It is the inverse of VerifyInitData and is used by
// tooling and tests.
func SignInitData(fields map[string]string, secret string) string {
	pairs := make(map[string]string, len(fields))
	for k, v := range fields {
		if k != hashKey {
			pairs[k] = v
		}
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		pairs[k] = url.QueryEscape(pairs[k])
		parts = append(parts, k+"="+pairs[k])
	}
	parts = append(parts, hashKey+"="+sign(dataCheckString(pairs), secret))

	return strings.Join(parts, "&")
}

func parsePairs(raw string) (map[string]string, error) {
	pairs := make(map[string]string)
	for _, part := range strings.Split(raw, "&") {
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: bad pair %q", common.ErrMalformedPayload, part)
		}

		if _, dup := pairs[key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %s", common.ErrMalformedPayload, key)
		}
		pairs[key] = strings.TrimSpace(value)
	}
	return pairs, nil
}

// decodeUser parses the user object. A value that is not JSON as sent is
// URL-decoded first.
func decodeUser(value string) (*models.IdentityClaims, error) {
	var claims models.IdentityClaims
	if err := json.Unmarshal([]byte(value), &claims); err == nil {
		return &claims, nil
	}

	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return nil, fmt.Errorf("%w: user: %v", common.ErrMalformedPayload, err)
	}
	claims = models.IdentityClaims{}
	if err := json.Unmarshal([]byte(decoded), &claims); err != nil {
		return nil, fmt.Errorf("%w: user: %v", common.ErrMalformedPayload, err)
	}
	return &claims, nil
}

// dataCheckString sorts the full "key=value" lines, not just the keys.
func dataCheckString(pairs map[string]string) string {
	lines := make([]string, 0, len(pairs))
	for k, v := range pairs {
		lines = append(lines, k+"="+v)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func sign(data, secret string) string {
	key := sha256.Sum256([]byte(secret))
	defer common.WipeByteArray(key[:])
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
