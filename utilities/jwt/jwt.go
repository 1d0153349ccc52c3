package jwt

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"gopkg.in/square/go-jose.v2"

	"custody/pkg/consts"
	"custody/utilities"
)

type jwtClaims struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
	jwt.StandardClaims
}

var (
	keyMu      sync.RWMutex
	signingKey *jose.JSONWebKey
	verifyKey  *jose.JSONWebKey
)

var errNoKey = errors.New("jwt signing key not loaded")

// LoadKeyPair reads an RSA private JWK from path.
func LoadKeyPair(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading jwk %s: %w", path, err)
	}

	var pvtKey jose.JSONWebKey
	if err := pvtKey.UnmarshalJSON(raw); err != nil {
		return err
	}

	if _, ok := pvtKey.Key.(*rsa.PrivateKey); !ok {
		return fmt.Errorf("jwk %s is not an RSA private key", path)
	}

	setKeys(&pvtKey)

	return nil
}

// SetKeyPair installs key as the token signing key.
func SetKeyPair(key *rsa.PrivateKey) {
	setKeys(&jose.JSONWebKey{Key: key, Algorithm: string(jose.RS256), Use: "sig"})
}

func setKeys(pvtKey *jose.JSONWebKey) {
	pubKey := pvtKey.Public()

	keyMu.Lock()
	defer keyMu.Unlock()
	signingKey = pvtKey
	verifyKey = &pubKey
}

func getRSAKeyPair() (*jose.JSONWebKey, *jose.JSONWebKey, error) {
	keyMu.RLock()
	defer keyMu.RUnlock()

	if signingKey == nil || verifyKey == nil {
		return nil, nil, errNoKey
	}

	return signingKey, verifyKey, nil
}

func signPayload(key *jose.JSONWebKey, payload []byte) (jws string, err error) {
	signer, err := jose.NewSigner(jose.SigningKey{Key: key, Algorithm: jose.RS256}, &jose.SignerOptions{})
	if err != nil {
		return "", err
	}

	signature, err := signer.Sign(payload)
	if err != nil {
		return "", err
	}

	return signature.CompactSerialize()
}

func GenerateJWT(address, chain string, ttl time.Duration) (string, int, error) {
	log := utilities.NewLogger("GenerateJWT")

	now := utilities.TimeNow()
	expiryTime := now.Add(ttl)
	claims := jwtClaims{
		chain,
		address,
		jwt.StandardClaims{
			Subject:   consts.AppName,
			Audience:  address,
			ExpiresAt: expiryTime.Unix(),
			Issuer:    consts.AppName,
			IssuedAt:  now.Unix(),
		},
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", 0, err
	}

	key, _, err := getRSAKeyPair()
	if err != nil {
		return "", 0, err
	}

	jwtToken, err := signPayload(key, payload)
	if err != nil {
		return "", 0, err
	}

	log.Debugf("Token generated for %s with expiry %s", address, expiryTime)

	return jwtToken, int(ttl.Seconds()), nil
}

// VerifyJWT verifies jwt token and returns claims
func VerifyJWT(address, jwtToken string) (map[string]string, error) {
	log := utilities.NewLogger("VerifyJWT")

	jws, err := jose.ParseSigned(jwtToken)
	if err != nil {
		log.WithError(err).Error("parsing failed")
		return nil, err
	}

	_, pubKey, err := getRSAKeyPair()
	if err != nil {
		log.WithError(err).Error("unable to get rsa key pair")
		return nil, err
	}

	payload, err := jws.Verify(pubKey)
	if err != nil {
		log.WithError(err).Error("jws verify failed")
		return nil, err
	}

	claims := &jwtClaims{}
	err = json.Unmarshal(payload, claims)
	if err != nil {
		log.WithError(err).Error("unmarshal failed")
		return nil, err
	}

	err = claims.StandardClaims.Valid()
	if err != nil {
		log.WithError(err).Error("standard claims invalid")
		return nil, err
	}

	if yes := claims.StandardClaims.VerifyAudience(address, true); !yes {
		return nil, fmt.Errorf("invalid audience %s", address)
	}

	if claims.StandardClaims.Subject != consts.AppName {
		return nil, fmt.Errorf("invalid subject %s", claims.StandardClaims.Subject)
	}

	if yes := claims.StandardClaims.VerifyExpiresAt(utilities.UnixTime(), true); !yes {
		return nil, fmt.Errorf("token expired")
	}

	return map[string]string{
		"chain":   claims.Chain,
		"address": claims.Address,
	}, nil
}
