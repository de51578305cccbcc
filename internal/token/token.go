// Package token mints the identity tokens handed to the game client.
//
// Tokens have the three-segment shape of a signed web token,
// "hdr.<payload>.sig", but carry no real header or signature: the client
// only checks the shape and reads the payload.
package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	configstore "github.com/hylauncher/hylauncher/internal/config/store"
)

// Scope is embedded in every minted token.
const Scope = "client:session"

const (
	headerSegment    = "hdr"
	signatureSegment = "sig"
)

// ErrMalformed is returned by Decode for strings that are not of the
// hdr.<payload>.sig shape.
var ErrMalformed = errors.New("token: malformed")

// Claims is the identity record carried in the token payload.
type Claims struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

// ClaimsFor builds the claims for a profile.
func ClaimsFor(profile configstore.Profile) Claims {
	return Claims{
		Sub:   profile.UUID,
		Name:  profile.Username,
		Scope: Scope,
	}
}

// Mint returns the token for profile. The result is a pure function of the
// profile's uuid and username.
func Mint(profile configstore.Profile) string {
	return Encode(ClaimsFor(profile))
}

// Encode serialises claims as compact JSON, base64url encodes them without
// padding and wraps the result as hdr.<payload>.sig.
func Encode(claims Claims) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings cannot fail.
	_ = enc.Encode(claims)
	payload := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	return headerSegment + "." + base64.RawURLEncoding.EncodeToString(payload) + "." + signatureSegment
}

// Decode extracts the claims from a token produced by Mint.
func Decode(tok string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(tok), ".")
	if len(parts) != 3 || parts[0] != headerSegment || parts[2] != signatureSegment || parts[1] == "" {
		return Claims{}, ErrMalformed
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}
