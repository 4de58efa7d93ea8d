package secrets_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/go-airtable-forms/internal/secrets"
	"github.com/stretchr/testify/require"
)

func TestXChaCha_RoundTrip(t *testing.T) {
	s, err := secrets.NewXChaCha("correct horse battery staple")
	require.NoError(t, err)

	sealed, err := s.Seal("oaa.access-token")
	require.NoError(t, err)
	require.NotContains(t, sealed, "oaa.access-token")
	require.True(t, strings.HasPrefix(sealed, "sealed:v1:"))

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "oaa.access-token", opened)
}

func TestXChaCha_NonceIsRandom(t *testing.T) {
	s, err := secrets.NewXChaCha("key")
	require.NoError(t, err)

	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestXChaCha_WrongKey(t *testing.T) {
	s1, err := secrets.NewXChaCha("key-1")
	require.NoError(t, err)
	s2, err := secrets.NewXChaCha("key-2")
	require.NoError(t, err)

	sealed, err := s1.Seal("refresh-token")
	require.NoError(t, err)
	_, err = s2.Open(sealed)
	require.Error(t, err)
}

func TestXChaCha_PlaintextPassThrough(t *testing.T) {
	s, err := secrets.NewXChaCha("key")
	require.NoError(t, err)

	opened, err := s.Open("legacy-plaintext")
	require.NoError(t, err)
	require.Equal(t, "legacy-plaintext", opened)

	sealed, err := s.Seal("")
	require.NoError(t, err)
	require.Empty(t, sealed)
}

func TestNew(t *testing.T) {
	s, err := secrets.New("")
	require.NoError(t, err)
	require.IsType(t, secrets.Noop{}, s)

	s, err = secrets.New("key")
	require.NoError(t, err)
	require.IsType(t, &secrets.XChaCha{}, s)
}
