package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"custody/config"
	"custody/pkg/cache"
	"custody/pkg/consts"
	controllersLib "custody/pkg/controllers"
	"custody/pkg/engine"
	"custody/pkg/middlewares"
	repoLib "custody/pkg/repo"
	chainLib "custody/pkg/repo/driver/chain"
	"custody/pkg/repo/driver/db"
	"custody/pkg/repo/driver/medium"
	"custody/pkg/usecases"
	"custody/utilities"
	"custody/utilities/jwt"
)

const shutdownTimeout = 5 * time.Second

// initVaults restores the engine from the last saved state and starts the
// checkpointer.
func initVaults(
	ctx context.Context, conf *config.CustodyConfModel, vaultRepo repoLib.VaultRepoImply, publishers []medium.EventPublisher,
) *usecases.VaultUseCases {
	log := utilities.NewLogger("initVaults")

	opts := usecases.VaultOptions{
		CancelBudget: conf.Vault.CancelBudget,
		Decimals:     conf.Currency.Decimals,
		Symbol:       conf.Currency.Symbol,
	}
	if chainLib.IsChainSupported(consts.Algorand) {
		algorand, _ := chainLib.GetChain(consts.Algorand)
		opts.AddressValidator = algorand.ValidateAddress
	} else {
		log.Warn("algorand chain not enabled, vault addresses are not validated")
	}

	vaultUseCases := usecases.NewVaultUseCases(
		engine.New(engine.NewMemoryLedger()), vaultRepo,
		cache.NewStateCache(cast.ToDuration(conf.Vault.StateCacheTTL)), publishers, opts,
	)

	if err := vaultUseCases.Restore(ctx); err != nil {
		log.WithError(err).Fatal("unable to restore vault state")
	}

	if err := vaultUseCases.Bootstrap(ctx, conf.Vault.Root); err != nil {
		log.WithError(err).Fatal("unable to bootstrap root vault")
	}

	vaultUseCases.RunCheckpointer(ctx, cast.ToDuration(conf.Vault.CheckpointInterval))

	return vaultUseCases
}

func Run() {
	ctx := context.Background()
	ctx, cancelFn := context.WithCancel(ctx)

	// init the env config
	conf, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("unable to initialize environment variables %s", err.Error())
	}

	// Initialise the logger
	utilities.InitLogger(conf.LogLevel, conf.LogFormat)
	log := utilities.NewLogger("run")

	log.Info("Loading token signing key")
	if err := jwt.LoadKeyPair(conf.Auth.KeyPath); err != nil {
		log.WithError(err).Fatal("failed to load token signing key")
	}

	log.Info("Initialising DB")
	session, err := db.NewCassandraSession(conf.DB)
	if err != nil {
		log.Fatal("unable to create cassandra session ", err.Error())
	}
	defer session.Close()

	// initialise the blockchain network clients
	log.Info("Initialising Chains")
	chainLib.LoadChains()

	log.Info("Initialising event publishers")
	vaultWS := medium.NewWebSocket()
	publishers := []medium.EventPublisher{vaultWS, medium.NewPublisher(conf.Events.AmqpURL, conf.Events.Exchange)}
	defer func() {
		for _, publisher := range publishers {
			publisher.Close()
		}
	}()

	// here initalizing the router
	if conf.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := initRouter(conf)

	path, err := url.JoinPath(config.GetConfig().Server.APIPrefix, config.GetConfig().Mode)
	if err != nil {
		log.Panic(err)
	}

	api := router.Group(path)

	var vaultUseCases *usecases.VaultUseCases
	{
		// repo initialization
		vaultRepo := repoLib.NewVaultRepo(session, conf)
		repo := repoLib.NewRepo(session, conf)

		// initializing usecases
		log.Info("Initialising vaults")
		vaultUseCases = initVaults(ctx, conf, vaultRepo, publishers)
		authUseCases := usecases.NewAuthUseCases(conf, chainLib.GetChain, nil)
		useCases := usecases.NewUseCases(repo)

		// initializing middleware
		m := middlewares.NewMiddlewares()

		// initializing controllersLib
		vaultControllers := controllersLib.NewVaultController(api, vaultUseCases, vaultWS, m, conf.Currency.Decimals)
		authControllers := controllersLib.NewAuthController(api, authUseCases)
		controllers := controllersLib.NewController(api, useCases, vaultUseCases)

		// init the routes
		vaultControllers.InitRoutes()
		authControllers.InitRoutes()
		controllers.InitRoutes()
	}

	// run the app
	launch(ctx, cancelFn, router, vaultUseCases.Checkpoint)
}

func initRouter(conf *config.CustodyConfModel) *gin.Engine {
	router := gin.Default()

	router.Use(
		cors.New(
			cors.Config{
				AllowOrigins: []string{"*"},
				AllowMethods: []string{"PUT", "PATCH", "POST", "DELETE", "GET", "OPTIONS"},
				AllowHeaders: []string{
					"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept",
					"origin", "Cache-Control", "X-USER-ADDRESS", "HOST",
				},
				AllowCredentials: true,
				MaxAge:           12 * time.Hour,
			},
		),
	)

	if conf.Mode == "stage" || conf.Mode == "local" {
		router.GET("/debug/pprof/*profile", gin.WrapF(pprof.Index))
	}

	router.Use(gzip.Gzip(gzip.DefaultCompression))

	return router
}

// launch
func launch(
	ctx context.Context, cancelFn context.CancelFunc, router *gin.Engine, checkpoint func(context.Context) error,
) {
	log := utilities.NewLogger("launch")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.GetConfig().Server.Port),
		Handler: router,
	}

	go func() {
		// service connections
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	log.Infof("Server listening on %d, routes under %s", config.GetConfig().Server.Port, config.PathPrefix)

	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown Server ...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server Shutdown")
	}

	cancelFn()
	if err := checkpoint(shutdownCtx); err != nil {
		log.WithError(err).Error("unsaved vault state lost on shutdown")
	}

	log.Println("Server exiting")
}
