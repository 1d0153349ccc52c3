package algorand

import (
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	acct := crypto.GenerateAccount()
	alg := New()

	assert.NoError(t, alg.ValidateAddress(acct.Address.String()))
	assert.Error(t, alg.ValidateAddress("not-an-address"))

	// flip a checksum character
	addr := []byte(acct.Address.String())
	if addr[len(addr)-1] == 'A' {
		addr[len(addr)-1] = 'B'
	} else {
		addr[len(addr)-1] = 'A'
	}
	assert.Error(t, alg.ValidateAddress(string(addr)))
}

func TestVerifySignature(t *testing.T) {
	acct := crypto.GenerateAccount()
	other := crypto.GenerateAccount()
	msg := []byte("custody-login:1700000000")

	sig, err := crypto.SignBytes(acct.PrivateKey, msg)
	require.NoError(t, err)

	alg := New()
	tests := []struct {
		name    string
		address string
		msg     []byte
		sig     []byte
		wantErr bool
	}{
		{name: "valid", address: acct.Address.String(), msg: msg, sig: sig},
		{name: "other signer", address: other.Address.String(), msg: msg, sig: sig, wantErr: true},
		{name: "tampered message", address: acct.Address.String(), msg: []byte("custody-login:1700000001"), sig: sig, wantErr: true},
		{name: "short signature", address: acct.Address.String(), msg: msg, sig: sig[:10], wantErr: true},
		{name: "bad address", address: "nope", msg: msg, sig: sig, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := alg.VerifySignature(tt.address, tt.msg, tt.sig)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
