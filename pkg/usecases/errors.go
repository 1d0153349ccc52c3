package usecases

import "errors"

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrInvalidLogin     = errors.New("login signature rejected")
	ErrLoginExpired     = errors.New("login timestamp outside accepted skew")
)
