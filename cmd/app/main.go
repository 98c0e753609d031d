package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Blue-Finch-Software/linkkeeper-back/internal/auth"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/config"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/db"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/service"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/transport"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			newLogger,
			db.NewGormClient,
			auth.NewHasher,
			auth.NewTokenCodec,
			service.NewAuth,
			service.NewUser,
			service.NewBookmark,
			transport.NewHTTPServer,
		),
		fx.Invoke(func(*transport.HTTPServer) {}),
	)

	app.Run()
}

func newLogger() (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
