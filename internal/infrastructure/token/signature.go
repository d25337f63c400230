package token

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/xxh3"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

const signatureType = "entity+jws"

// SignatureConfig is the key material for entity signatures. VerifyKeys
// holds retired public keys by key id so signatures made before a rotation
// still verify.
type SignatureConfig struct {
	PrivateKey ed25519.PrivateKey
	VerifyKeys map[string]ed25519.PublicKey
}

type signatureHeader struct {
	Alg  string            `json:"alg"`
	Typ  string            `json:"typ"`
	Kind domain.EntityKind `json:"kind"`
	Kid  string            `json:"kid"`
}

// Signer produces detached compact-JWS signatures over a canonical CBOR
// encoding of an entity. The payload starts with the entity kind so a
// signature for one kind can never match another.
type Signer struct {
	private ed25519.PrivateKey
	kid     string
	keys    map[string]ed25519.PublicKey
	enc     cbor.EncMode
}

func NewSigner(cfg SignatureConfig) (*Signer, error) {
	if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("signer: invalid ed25519 private key")
	}
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("signer: cbor encoder: %w", err)
	}

	pub := cfg.PrivateKey.Public().(ed25519.PublicKey)
	s := &Signer{
		private: cfg.PrivateKey,
		kid:     KeyID(pub),
		keys:    make(map[string]ed25519.PublicKey, len(cfg.VerifyKeys)+1),
		enc:     enc,
	}
	for kid, key := range cfg.VerifyKeys {
		s.keys[kid] = key
	}
	s.keys[s.kid] = pub
	return s, nil
}

// KeyID names a public key by its xxh3 fingerprint.
func KeyID(pub ed25519.PublicKey) string {
	return fmt.Sprintf("%016x", xxh3.Hash(pub))
}

// KeyFromSeed builds a private key from a base64 encoded 32 byte seed.
// An empty seed generates a fresh key; generated reports whether it did.
func KeyFromSeed(seedB64 string) (key ed25519.PrivateKey, generated bool, err error) {
	if seedB64 == "" {
		_, key, err = ed25519.GenerateKey(rand.Reader)
		return key, true, err
	}
	seed, err := base64.StdEncoding.DecodeString(seedB64)
	if err != nil {
		return nil, false, fmt.Errorf("decode signature seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, false, fmt.Errorf("signature seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), false, nil
}

// NewSignerFromSeed builds a signer from configuration strings: a base64
// seed (empty generates a key) and base64 retired public keys.
func NewSignerFromSeed(seedB64 string, verifyKeysB64 []string) (*Signer, bool, error) {
	key, generated, err := KeyFromSeed(seedB64)
	if err != nil {
		return nil, false, err
	}
	verifyKeys, err := ParseVerifyKeys(verifyKeysB64)
	if err != nil {
		return nil, false, err
	}
	s, err := NewSigner(SignatureConfig{PrivateKey: key, VerifyKeys: verifyKeys})
	return s, generated, err
}

// ParseVerifyKeys decodes base64 public keys and indexes them by key id.
func ParseVerifyKeys(keysB64 []string) (map[string]ed25519.PublicKey, error) {
	keys := make(map[string]ed25519.PublicKey, len(keysB64))
	for _, k := range keysB64 {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("decode verify key: %w", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("verify key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
		}
		pub := ed25519.PublicKey(raw)
		keys[KeyID(pub)] = pub
	}
	return keys, nil
}

// KeyID returns the id of the active signing key.
func (s *Signer) KeyID() string { return s.kid }

// Sign returns header.payload.signature for entity under kind.
func (s *Signer) Sign(kind domain.EntityKind, entity any) (string, error) {
	payload, err := s.canonical(kind, entity)
	if err != nil {
		return "", err
	}
	header, err := json.Marshal(signatureHeader{
		Alg:  jwt.SigningMethodEdDSA.Alg(),
		Typ:  signatureType,
		Kind: kind,
		Kid:  s.kid,
	})
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", kind, err)
	}

	signing := encodeSegment(header) + "." + encodeSegment(payload)
	sig, err := jwt.SigningMethodEdDSA.Sign(signing, s.private)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", kind, err)
	}
	return signing + "." + encodeSegment(sig), nil
}

// Check verifies signature and that it was produced for exactly this
// entity snapshot under kind.
func (s *Signer) Check(signature string, kind domain.EntityKind, entity any) error {
	parts := strings.Split(signature, ".")
	if len(parts) != 3 {
		return fmt.Errorf("%w: expected 3 segments, got %d", domain.ErrSignatureMalformed, len(parts))
	}

	rawHeader, err := decodeSegment(parts[0])
	if err != nil {
		return fmt.Errorf("%w: header: %v", domain.ErrSignatureMalformed, err)
	}
	var header signatureHeader
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return fmt.Errorf("%w: header: %v", domain.ErrSignatureMalformed, err)
	}
	if header.Alg != jwt.SigningMethodEdDSA.Alg() || header.Typ != signatureType {
		return fmt.Errorf("%w: unsupported alg %q typ %q", domain.ErrSignatureMalformed, header.Alg, header.Typ)
	}
	if header.Kind != kind {
		return fmt.Errorf("%w: signed as %q, presented as %q", domain.ErrSignatureKindMismatch, header.Kind, kind)
	}

	pub, ok := s.keys[header.Kid]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", domain.ErrSignatureInvalid, header.Kid)
	}
	sig, err := decodeSegment(parts[2])
	if err != nil {
		return fmt.Errorf("%w: signature: %v", domain.ErrSignatureMalformed, err)
	}
	if err := jwt.SigningMethodEdDSA.Verify(parts[0]+"."+parts[1], sig, pub); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}

	signed, err := decodeSegment(parts[1])
	if err != nil {
		return fmt.Errorf("%w: payload: %v", domain.ErrSignatureMalformed, err)
	}
	presented, err := s.canonical(kind, entity)
	if err != nil {
		return err
	}
	if !bytes.Equal(signed, presented) {
		return domain.ErrSignatureEntityMismatch
	}
	return nil
}

func (s *Signer) Verify(signature string, kind domain.EntityKind, entity any) bool {
	return s.Check(signature, kind, entity) == nil
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(seg)
}
