package vault

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/kv"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	return New(kv.NewMemoryStore(), "unit-test-master-secret", 10, zerolog.Nop())
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	ct, err := encryptString("secret", "my-api-key")
	require.NoError(t, err)

	pt, err := decryptString("secret", ct)
	require.NoError(t, err)
	require.Equal(t, "my-api-key", pt)
}

func TestDecrypt_TamperedCiphertextFailsIntegrity(t *testing.T) {
	ct, err := encryptString("secret", "my-api-key")
	require.NoError(t, err)

	tampered := []byte(ct)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = decryptString("secret", string(tampered))
	require.Error(t, err)
	kind, ok := apperrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, apperrors.KindIntegrity, kind)
}

func TestDecrypt_MalformedEncoding(t *testing.T) {
	_, err := decryptString("secret", "not-valid-base64-!!!")
	kind, ok := apperrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, apperrors.KindEncoding, kind)
}

func TestVault_StoreListGetActiveDelete_RoundTrip(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	keyID, err := v.Store(ctx, StoreRequest{
		Owner:     "user-1",
		Provider:  ProviderExchange,
		Venue:     "binance",
		Plaintext: "api-key-value",
		Secret:    "api-secret-value",
	})
	require.NoError(t, err)
	require.NotEmpty(t, keyID)

	handles, err := v.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, handles, 1)
	require.Equal(t, keyID, handles[0].KeyID)

	dec, err := v.GetActive(ctx, "user-1", ProviderExchange, "binance")
	require.NoError(t, err)
	require.Equal(t, "api-key-value", dec.Plaintext)
	require.Equal(t, "api-secret-value", dec.Secret)

	require.NoError(t, v.MarkUsed(ctx, "user-1", keyID))

	require.NoError(t, v.Delete(ctx, "user-1", keyID))
	handles, err = v.List(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, handles)

	_, err = v.GetActive(ctx, "user-1", ProviderExchange, "binance")
	kind, ok := apperrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, apperrors.KindNotFound, kind)
}

func TestVault_CustomProviderRequiresBaseURL(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	_, err := v.Store(ctx, StoreRequest{
		Owner:     "user-1",
		Provider:  ProviderCustom,
		Plaintext: "token",
	})
	require.Error(t, err)
	kind, ok := apperrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, apperrors.KindConfiguration, kind)
}

func TestVault_MaxAIKeysEnforced(t *testing.T) {
	ctx := context.Background()
	v := New(kv.NewMemoryStore(), "secret", 1, zerolog.Nop())

	_, err := v.Store(ctx, StoreRequest{Owner: "user-1", Provider: ProviderOpenAI, Plaintext: "sk-1"})
	require.NoError(t, err)

	_, err = v.Store(ctx, StoreRequest{Owner: "user-1", Provider: ProviderAnthropic, Plaintext: "sk-2"})
	require.Error(t, err)
	kind, ok := apperrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, apperrors.KindValidation, kind)
}

func TestVault_DefaultLeverageRangeValidated(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	bad := 101

	_, err := v.Store(ctx, StoreRequest{
		Owner:     "user-1",
		Provider:  ProviderExchange,
		Venue:     "okx",
		Plaintext: "key",
		Metadata:  Metadata{DefaultLeverage: &bad},
	})
	require.Error(t, err)
}

func TestExchangeCompatibility_ScoresByDistinctVenueCount(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	result, err := v.CheckExchangeCompatibility(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, result.ArbitrageCompatible)
	require.False(t, result.TechnicalCompatible)

	// The first call cached a zero-venue result for user-1; store two venues
	// under a distinct owner so the scoring logic itself is asserted.
	_, err = v.Store(ctx, StoreRequest{Owner: "user-2", Provider: ProviderExchange, Venue: "binance", Plaintext: "k1"})
	require.NoError(t, err)
	_, err = v.Store(ctx, StoreRequest{Owner: "user-2", Provider: ProviderExchange, Venue: "okx", Plaintext: "k2"})
	require.NoError(t, err)

	result, err = v.CheckExchangeCompatibility(ctx, "user-2")
	require.NoError(t, err)
	require.True(t, result.ArbitrageCompatible)
}
