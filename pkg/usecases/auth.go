package usecases

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"custody/config"
	"custody/pkg/consts"
	"custody/pkg/entities"
	"custody/pkg/repo/driver/chain"
	"custody/utilities"
	"custody/utilities/jwt"
)

// ChainResolver returns the identity verifier of a network.
type ChainResolver func(network string) (chain.Chain, error)

type AuthUseCases struct {
	conf   *config.CustodyConfModel
	chains ChainResolver
	clock  Clock
}

type AuthUseCaseImply interface {
	Login(ctx context.Context, req entities.LoginRequest) (entities.LoginResponse, error)
}

func NewAuthUseCases(conf *config.CustodyConfModel, chains ChainResolver, clock Clock) AuthUseCaseImply {
	if clock == nil {
		clock = utilities.UnixTime
	}
	return &AuthUseCases{conf: conf, chains: chains, clock: clock}
}

// LoginMessage is what a wallet signs to log in at timestamp.
func LoginMessage(timestamp int64) []byte {
	return []byte(consts.LoginMessagePrefix + cast.ToString(timestamp))
}

// Login checks a wallet signature over the login message and issues a token
// for the signing address.
func (a *AuthUseCases) Login(_ context.Context, req entities.LoginRequest) (entities.LoginResponse, error) {
	log := utilities.NewLoggerWithFields("Login", map[string]interface{}{
		"address": req.Address,
		"chain":   req.Chain,
	})

	network := strings.ToLower(req.Chain)
	if network == "" {
		network = consts.Algorand
	}

	verifier, err := a.chains(network)
	if err != nil {
		return entities.LoginResponse{}, fmt.Errorf("%w: %s", ErrUnsupportedChain, network)
	}

	skew := int64(cast.ToDuration(a.conf.LoginMaxSkew).Seconds())
	if delta := a.clock() - req.Timestamp; delta > skew || delta < -skew {
		return entities.LoginResponse{}, fmt.Errorf("%w: %ds", ErrLoginExpired, delta)
	}

	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		return entities.LoginResponse{}, fmt.Errorf("%w: signature is not base64", ErrInvalidLogin)
	}

	if err := verifier.VerifySignature(req.Address, LoginMessage(req.Timestamp), signature); err != nil {
		log.WithError(err).Info("login rejected")
		return entities.LoginResponse{}, fmt.Errorf("%w: %v", ErrInvalidLogin, err)
	}

	token, expiresIn, err := jwt.GenerateJWT(req.Address, network, cast.ToDuration(a.conf.LoginTokenExpiry))
	if err != nil {
		log.WithError(err).Error("failed to generate token")
		return entities.LoginResponse{}, err
	}

	log.Info("user logged in")

	return entities.LoginResponse{Token: token, ExpiresIn: expiresIn}, nil
}
