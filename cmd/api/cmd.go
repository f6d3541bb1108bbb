package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/portfoliodash/backend/internal/bootstrap"
	"github.com/portfoliodash/backend/internal/client/portfoliodata"
	"github.com/portfoliodash/backend/internal/config"
	"github.com/portfoliodash/backend/internal/handlers"
	"github.com/portfoliodash/backend/internal/response"
	"github.com/portfoliodash/backend/internal/router"
	"github.com/portfoliodash/backend/internal/services"
	"github.com/portfoliodash/backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// upstream data service credentials
	tokenStore := store.NewServiceTokenStore(bs.SecretManager, cfg.ProjectID)
	token, err := tokenStore.GetToken(context.Background(), cfg.Environment)
	exitOnError("data service token lookup failed", err, bs.Log)
	dataClient := portfoliodata.NewAdapter(cfg.DataServiceURL, token)

	// stores
	lstore := store.NewLayoutStore(bs.Firestore)
	slstore := store.NewSavedLayoutStore(bs.Firestore)

	// services
	visibility := services.NewVisibilityTracker()
	lserv := services.NewLayoutService(lstore, slstore, visibility, nil)
	bserv := services.NewBatchService(dataClient, cfg.BatchTTL)
	hub := services.NewRefreshHub(bserv, dataClient, bs.Coordinator, cfg.RefreshEvery)
	defer hub.Close()
	visibility.SetOnChange(func(uid string) {
		hub.RetargetBatch(uid, visibility.Visible(uid))
	})

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.LayoutSvc = lserv
	deps.BatchSvc = bserv
	deps.PriceSvc = dataClient
	deps.VisibleSet = visibility
	deps.Hub = hub

	// router
	r := router.NewRouter(deps)
	err = http.ListenAndServe(":8080", r)
	exitOnError("server start failed", err, bs.Log)
}
