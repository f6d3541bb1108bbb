package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"

	"github.com/portfoliodash/backend/internal/config"
	"github.com/portfoliodash/backend/internal/coord"
	"github.com/portfoliodash/backend/pkg/logger"
)

type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	Firebase      *auth.Client
	SecretManager *secretmanager.Client
	Coordinator   *coord.Coordinator
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.SecretManager, err = InitSecretManager(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.Coordinator, err = coord.New(&redis.Options{Addr: cfg.RedisAddr}, cfg.Environment)
	if err != nil {
		return bs, err
	}
	if err = bs.Coordinator.Ping(applicationCtx); err != nil {
		return bs, err
	}

	return bs, nil
}

func (bs *Bootstrap) Close() {
	if bs.Coordinator != nil {
		bs.Coordinator.Close()
	}
	if bs.SecretManager != nil {
		bs.SecretManager.Close()
	}
	if bs.Firestore != nil {
		bs.Firestore.Close()
	}
}
