package middlewares

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/spf13/cast"

	"custody/config"
	"custody/pkg/consts"
	"custody/pkg/entities"
	"custody/utilities"
	"custody/utilities/jwt"
)

// verified tokens are trusted for this long before the signature is checked again
const tokenCacheTTL = time.Minute

type Middlewares struct {
	Cache *cache.Cache
}

// NewMiddlewares
func NewMiddlewares() *Middlewares {
	return &Middlewares{
		Cache: cache.New(tokenCacheTTL, 2*tokenCacheTTL),
	}
}

func (m *Middlewares) verify(address, token string) (map[string]string, error) {
	key := address + ":" + token
	if claims, ok := m.Cache.Get(key); ok {
		return claims.(map[string]string), nil
	}

	claims, err := jwt.VerifyJWT(address, token)
	if err != nil {
		return nil, err
	}

	m.Cache.SetDefault(key, claims)

	return claims, nil
}

func (m *Middlewares) ValidateToken(ctx *gin.Context) {
	log := utilities.NewLogger("ValidateToken")

	tokenValue := ctx.GetHeader("Authorization")
	if len(tokenValue) == 0 || len(strings.Split(tokenValue, " ")) != 2 {
		ctx.AbortWithStatusJSON(
			http.StatusBadRequest, entities.ErrorResponse{
				StatusCode: http.StatusBadRequest,
				Message:    "Missing Authorization in API header",
			},
		)
		return
	}

	token := strings.Split(tokenValue, " ")[1]

	address := ctx.GetHeader("X-USER-ADDRESS")
	if len(address) == 0 {
		ctx.AbortWithStatusJSON(
			http.StatusBadRequest, entities.ErrorResponse{
				StatusCode: http.StatusBadRequest,
				Message:    "Missing X-USER-ADDRESS in API header",
			},
		)
		return
	}

	claims, err := m.verify(address, token)
	if err != nil {
		log.WithError(err).Errorf("jwt verification failed for user %s", address)
		ctx.AbortWithStatusJSON(
			http.StatusUnauthorized, entities.ErrorResponse{
				StatusCode: http.StatusUnauthorized,
				Message:    "Authentication failed",
			},
		)
		return
	}

	log.Debugf("User %s validated", address)

	ctx.Set(consts.UserChain, claims["chain"])
	ctx.Set(consts.UserAddress, claims["address"])
	ctx.Set(consts.UserToken, token)

	ctx.Next()
}

func (m *Middlewares) IsAdminUser(ctx *gin.Context) {
	log := utilities.NewLogger("IsAdminUser")

	chain, _ := ctx.Get(consts.UserChain)
	address, _ := ctx.Get(consts.UserAddress)
	if !config.IsAdminUser(cast.ToString(chain), cast.ToString(address)) {
		log.Errorf("user %s is not privileged", address)
		ctx.AbortWithStatusJSON(
			http.StatusForbidden, entities.ErrorResponse{
				StatusCode: http.StatusForbidden,
				Message:    "Authentication failed",
			},
		)
		return
	}

	ctx.Set(consts.AdminUser, true)

	ctx.Next()
}

// VerifyWebsocketRequest authenticates a websocket upgrade, where browsers
// cannot set headers and the credentials come as query parameters.
func (m *Middlewares) VerifyWebsocketRequest(ctx *gin.Context, address, token string) error {
	claims, err := m.verify(address, token)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	ctx.Set(consts.UserChain, claims["chain"])
	ctx.Set(consts.UserAddress, claims["address"])
	ctx.Set(consts.UserToken, token)

	return nil
}
