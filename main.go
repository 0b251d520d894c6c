package main

import (
	"net/http"
	"os"
	"time"

	"github.com/fiffu/farewatch/app"
	"github.com/fiffu/farewatch/config"
	"github.com/fiffu/farewatch/lib"
	"github.com/fiffu/farewatch/lib/pricing"
	"github.com/fiffu/farewatch/lib/watcher"
	"github.com/fiffu/farewatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewRedis),
		fx.Provide(app.NewKV),
		fx.Provide(app.NewNameSource),
		fx.Provide(app.NewTransport),

		fx.Provide(fx.Annotate(lib.NewRepo, fx.As(new(watcher.Repo)))),
		fx.Provide(pricing.NewClient),
		fx.Provide(senders.NewSenderRegistry),
		fx.Provide(watcher.NewWatcher),

		fx.Provide(lib.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*watcher.Watcher) {}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}
