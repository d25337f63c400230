package token

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

func newTestSigner(t *testing.T, seed byte) *Signer {
	t.Helper()
	key := ed25519.NewKeyFromSeed(bytesOf(seed, ed25519.SeedSize))
	s, err := NewSigner(SignatureConfig{PrivateKey: key})
	require.NoError(t, err)
	return s
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

var sharedID = uuid.MustParse("6f1c2d64-5a1e-4a5e-9f59-0d7c1f1d9a01")

func sampleUser() domain.Identity {
	return domain.Identity{ID: sharedID, Login: "alice_smith", Role: domain.RoleClient, Active: true}
}

func sampleMovie() domain.Movie {
	return domain.Movie{
		ID:             sharedID,
		Title:          "Metropolis",
		BasePrice:      decimal.RequireFromString("12.50"),
		ScreeningRoom:  3,
		AvailableSeats: 40,
		ScreeningTime:  time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC),
	}
}

func sampleTicket() domain.Ticket {
	return domain.Ticket{
		ID:         sharedID,
		MovieTime:  time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC),
		FinalPrice: decimal.RequireFromString("8.75"),
		ClientID:   uuid.MustParse("9b4b8e0e-3c35-4a55-8f0a-5a1b3f0b7c11"),
		MovieID:    uuid.MustParse("0c3a4b7e-1f2d-4e5a-9b8c-7d6e5f4a3b2c"),
	}
}

func TestSigner_VerifiesUnchangedEntities(t *testing.T) {
	s := newTestSigner(t, 1)

	cases := []struct {
		kind   domain.EntityKind
		entity any
	}{
		{domain.KindUser, sampleUser()},
		{domain.KindMovie, sampleMovie()},
		{domain.KindTicket, sampleTicket()},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			sig, err := s.Sign(tc.kind, tc.entity)
			require.NoError(t, err)
			require.True(t, s.Verify(sig, tc.kind, tc.entity))
		})
	}
}

func TestSigner_AcceptsPointersAndValues(t *testing.T) {
	s := newTestSigner(t, 1)
	m := sampleMovie()

	sig, err := s.Sign(domain.KindMovie, &m)
	require.NoError(t, err)
	require.NoError(t, s.Check(sig, domain.KindMovie, m))
}

func TestSigner_DetectsFieldDrift(t *testing.T) {
	s := newTestSigner(t, 1)

	t.Run("user", func(t *testing.T) {
		sig, err := s.Sign(domain.KindUser, sampleUser())
		require.NoError(t, err)
		for name, mutate := range map[string]func(*domain.Identity){
			"login":  func(u *domain.Identity) { u.Login = "alice_smyth" },
			"role":   func(u *domain.Identity) { u.Role = domain.RoleAdmin },
			"active": func(u *domain.Identity) { u.Active = false },
			"id":     func(u *domain.Identity) { u.ID = uuid.New() },
		} {
			u := sampleUser()
			mutate(&u)
			require.ErrorIs(t, s.Check(sig, domain.KindUser, u), domain.ErrSignatureEntityMismatch, name)
		}
	})

	t.Run("movie", func(t *testing.T) {
		sig, err := s.Sign(domain.KindMovie, sampleMovie())
		require.NoError(t, err)
		for name, mutate := range map[string]func(*domain.Movie){
			"title": func(m *domain.Movie) { m.Title = "Metropolis II" },
			"price": func(m *domain.Movie) { m.BasePrice = decimal.RequireFromString("12.51") },
			"room":  func(m *domain.Movie) { m.ScreeningRoom = 4 },
			"seats": func(m *domain.Movie) { m.AvailableSeats = 39 },
			"time":  func(m *domain.Movie) { m.ScreeningTime = m.ScreeningTime.Add(time.Minute) },
		} {
			m := sampleMovie()
			mutate(&m)
			require.ErrorIs(t, s.Check(sig, domain.KindMovie, m), domain.ErrSignatureEntityMismatch, name)
		}
	})

	t.Run("ticket", func(t *testing.T) {
		sig, err := s.Sign(domain.KindTicket, sampleTicket())
		require.NoError(t, err)
		for name, mutate := range map[string]func(*domain.Ticket){
			"time":   func(tk *domain.Ticket) { tk.MovieTime = tk.MovieTime.Add(time.Hour) },
			"price":  func(tk *domain.Ticket) { tk.FinalPrice = decimal.RequireFromString("0.01") },
			"client": func(tk *domain.Ticket) { tk.ClientID = uuid.New() },
			"movie":  func(tk *domain.Ticket) { tk.MovieID = uuid.New() },
		} {
			tk := sampleTicket()
			mutate(&tk)
			require.ErrorIs(t, s.Check(sig, domain.KindTicket, tk), domain.ErrSignatureEntityMismatch, name)
		}
	})
}

func TestSigner_SwappedFieldsFail(t *testing.T) {
	s := newTestSigner(t, 1)
	tk := sampleTicket()
	sig, err := s.Sign(domain.KindTicket, tk)
	require.NoError(t, err)

	tk.ClientID, tk.MovieID = tk.MovieID, tk.ClientID
	require.False(t, s.Verify(sig, domain.KindTicket, tk))
}

func TestSigner_EquivalentPricesMatch(t *testing.T) {
	s := newTestSigner(t, 1)
	m := sampleMovie()
	sig, err := s.Sign(domain.KindMovie, m)
	require.NoError(t, err)

	m.BasePrice = decimal.RequireFromString("12.5")
	require.True(t, s.Verify(sig, domain.KindMovie, m))
}

func TestSigner_CrossKindRejected(t *testing.T) {
	s := newTestSigner(t, 1)
	sig, err := s.Sign(domain.KindMovie, sampleMovie())
	require.NoError(t, err)

	require.ErrorIs(t, s.Check(sig, domain.KindUser, sampleUser()), domain.ErrSignatureKindMismatch)
	require.ErrorIs(t, s.Check(sig, domain.KindTicket, sampleTicket()), domain.ErrSignatureKindMismatch)
}

func TestSigner_RelabelledKindFailsSignature(t *testing.T) {
	s := newTestSigner(t, 1)
	sig, err := s.Sign(domain.KindMovie, sampleMovie())
	require.NoError(t, err)

	parts := strings.Split(sig, ".")
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	relabelled := strings.Replace(string(header), `"kind":"movie"`, `"kind":"user"`, 1)
	parts[0] = base64.RawURLEncoding.EncodeToString([]byte(relabelled))

	require.ErrorIs(t, s.Check(strings.Join(parts, "."), domain.KindUser, sampleUser()), domain.ErrSignatureInvalid)
}

func TestSigner_WrongEntityTypeIsUnsignable(t *testing.T) {
	s := newTestSigner(t, 1)
	_, err := s.Sign(domain.KindUser, sampleMovie())
	require.ErrorIs(t, err, domain.ErrUnsignableEntity)
}

func TestSigner_ForeignKeyRejected(t *testing.T) {
	a := newTestSigner(t, 1)
	b := newTestSigner(t, 2)

	sig, err := b.Sign(domain.KindUser, sampleUser())
	require.NoError(t, err)
	require.ErrorIs(t, a.Check(sig, domain.KindUser, sampleUser()), domain.ErrSignatureInvalid)
}

func TestSigner_RotationKeepsOldSignaturesValid(t *testing.T) {
	old := newTestSigner(t, 1)
	sig, err := old.Sign(domain.KindUser, sampleUser())
	require.NoError(t, err)

	oldPub := ed25519.NewKeyFromSeed(bytesOf(1, ed25519.SeedSize)).Public().(ed25519.PublicKey)
	rotated, err := NewSigner(SignatureConfig{
		PrivateKey: ed25519.NewKeyFromSeed(bytesOf(2, ed25519.SeedSize)),
		VerifyKeys: map[string]ed25519.PublicKey{KeyID(oldPub): oldPub},
	})
	require.NoError(t, err)
	require.NotEqual(t, old.KeyID(), rotated.KeyID())
	require.True(t, rotated.Verify(sig, domain.KindUser, sampleUser()))
}

func TestSigner_Malformed(t *testing.T) {
	s := newTestSigner(t, 1)
	for _, sig := range []string{"", "a.b", "!!.??.**", "e30.e30.e30"} {
		require.ErrorIs(t, s.Check(sig, domain.KindUser, sampleUser()), domain.ErrSignatureMalformed, sig)
	}
}

func TestKeyFromSeed(t *testing.T) {
	seed := base64.StdEncoding.EncodeToString(bytesOf(7, ed25519.SeedSize))
	k1, generated, err := KeyFromSeed(seed)
	require.NoError(t, err)
	require.False(t, generated)
	k2, _, err := KeyFromSeed(seed)
	require.NoError(t, err)
	require.Equal(t, k1, k2)

	_, generated, err = KeyFromSeed("")
	require.NoError(t, err)
	require.True(t, generated)

	_, _, err = KeyFromSeed(base64.StdEncoding.EncodeToString([]byte("short")))
	require.Error(t, err)
}

func TestParseVerifyKeys(t *testing.T) {
	pub := ed25519.NewKeyFromSeed(bytesOf(7, ed25519.SeedSize)).Public().(ed25519.PublicKey)

	keys, err := ParseVerifyKeys([]string{" " + base64.StdEncoding.EncodeToString(pub) + " "})
	require.NoError(t, err)
	require.Equal(t, pub, keys[KeyID(pub)])

	_, err = ParseVerifyKeys([]string{"not base64!"})
	require.Error(t, err)
	_, err = ParseVerifyKeys([]string{base64.StdEncoding.EncodeToString([]byte("short"))})
	require.Error(t, err)
}

func TestNewSignerFromSeed(t *testing.T) {
	seed := base64.StdEncoding.EncodeToString(bytesOf(3, ed25519.SeedSize))

	a, generated, err := NewSignerFromSeed(seed, nil)
	require.NoError(t, err)
	require.False(t, generated)
	b, _, err := NewSignerFromSeed(seed, nil)
	require.NoError(t, err)
	require.Equal(t, a.KeyID(), b.KeyID())

	user := sampleUser()
	sig, err := a.Sign(domain.KindUser, user)
	require.NoError(t, err)
	require.True(t, b.Verify(sig, domain.KindUser, user))

	_, generated, err = NewSignerFromSeed("", nil)
	require.NoError(t, err)
	require.True(t, generated)
}
