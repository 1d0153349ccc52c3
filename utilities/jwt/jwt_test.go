package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestGenerateJWT(t *testing.T) {
	SetKeyPair(newKey(t))

	type args struct {
		address string
		chain   string
		ttl     time.Duration
	}
	tests := []struct {
		name    string
		args    args
		verify  string
		wantErr bool
	}{
		{
			name:   "sanity - algorand",
			args:   args{address: "EMAVMBG5P4AHJBNDSJSFH2USQSWIE6QQOVQLAPGXI2HQ3OJ7ILH6CDMOVU", chain: "algorand", ttl: time.Hour},
			verify: "EMAVMBG5P4AHJBNDSJSFH2USQSWIE6QQOVQLAPGXI2HQ3OJ7ILH6CDMOVU",
		},
		{
			name:    "other audience",
			args:    args{address: "alice", chain: "algorand", ttl: time.Hour},
			verify:  "mallory",
			wantErr: true,
		},
		{
			name:    "expired",
			args:    args{address: "alice", chain: "algorand", ttl: -time.Hour},
			verify:  "alice",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiresIn, err := GenerateJWT(tt.args.address, tt.args.chain, tt.args.ttl)
			require.NoError(t, err)
			assert.Equal(t, int(tt.args.ttl.Seconds()), expiresIn)

			claims, err := VerifyJWT(tt.verify, token)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyJWT() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				assert.Equal(t, tt.args.chain, claims["chain"])
				assert.Equal(t, tt.args.address, claims["address"])
			}
		})
	}
}

func TestVerifyJWTForeignKey(t *testing.T) {
	SetKeyPair(newKey(t))
	token, _, err := GenerateJWT("alice", "algorand", time.Hour)
	require.NoError(t, err)

	SetKeyPair(newKey(t))
	_, err = VerifyJWT("alice", token)
	assert.Error(t, err)
}

func TestLoadKeyPair(t *testing.T) {
	jwk := jose.JSONWebKey{Key: newKey(t), Algorithm: string(jose.RS256), Use: "sig", KeyID: "test"}
	raw, err := json.Marshal(jwk)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "jwk.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	require.NoError(t, LoadKeyPair(path))

	token, _, err := GenerateJWT("alice", "algorand", time.Minute)
	require.NoError(t, err)
	_, err = VerifyJWT("alice", token)
	assert.NoError(t, err)

	pub, err := json.Marshal(jwk.Public())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, pub, 0o600))
	assert.Error(t, LoadKeyPair(path))
}
