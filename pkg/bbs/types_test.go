package bbs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusFromCode(t *testing.T) {
	tests := []struct {
		code    int32
		want    SignatureProofStatus
		wantErr bool
	}{
		{code: 200, want: StatusSuccess},
		{code: 400, want: StatusBadSignature},
		{code: 401, want: StatusBadHiddenMessage},
		{code: 402, want: StatusBadRevealedMessage},
		{code: 0, wantErr: true},
		{code: 201, wantErr: true},
		{code: 500, wantErr: true},
	}
	for _, tt := range tests {
		status, err := statusFromCode("VerifyProof", tt.code)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrContractViolation, "code %d", tt.code)
			continue
		}
		require.NoError(t, err, "code %d", tt.code)
		require.Equal(t, tt.want, status)
	}
}

func TestStatusVerified(t *testing.T) {
	require.True(t, StatusSuccess.Verified())
	require.False(t, StatusBadSignature.Verified())
	require.False(t, StatusBadHiddenMessage.Verified())
	require.False(t, StatusBadRevealedMessage.Verified())
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "Success", StatusSuccess.String())
	require.Equal(t, "BadSignature", StatusBadSignature.String())
	require.Equal(t, "BadHiddenMessage", StatusBadHiddenMessage.String())
	require.Equal(t, "BadRevealedMessage", StatusBadRevealedMessage.String())
	require.Equal(t, "Unknown", SignatureProofStatus(7).String())
}

func TestProofMessageType(t *testing.T) {
	require.Equal(t, "Revealed", Revealed.String())
	require.Equal(t, "HiddenProofSpecificBlinding", HiddenProofSpecificBlinding.String())
	require.Equal(t, "HiddenExternalBlinding", HiddenExternalBlinding.String())
	require.Equal(t, "Unknown", ProofMessageType(0).String())

	require.True(t, Revealed.valid())
	require.False(t, ProofMessageType(4).valid())

	// Native contract values; renumbering breaks the wire.
	require.Equal(t, int32(1), int32(Revealed))
	require.Equal(t, int32(2), int32(HiddenProofSpecificBlinding))
	require.Equal(t, int32(3), int32(HiddenExternalBlinding))
}

func TestKeyPairHasSecretKey(t *testing.T) {
	var nilPair *KeyPair
	require.False(t, nilPair.HasSecretKey())
	require.False(t, (&KeyPair{PublicKey: []byte{1}}).HasSecretKey())
	require.True(t, (&KeyPair{PublicKey: []byte{1}, SecretKey: []byte{2}}).HasSecretKey())
}

func TestZeroizeBytes(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	ZeroizeBytes(buf)
	for i, b := range buf {
		require.Zerof(t, b, "byte %d not zeroized", i)
	}
}
