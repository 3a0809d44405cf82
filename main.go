package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/k64z/steamcm/steamclient"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	username := os.Getenv("STEAM_USERNAME")
	refreshToken := os.Getenv("STEAM_REFRESH_TOKEN")
	if username == "" || refreshToken == "" {
		logger.Error("STEAM_USERNAME and STEAM_REFRESH_TOKEN must be set")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := steamclient.New(
		steamclient.WithTransport(steamclient.TransportTCP),
		steamclient.WithLogger(logger),
		steamclient.WithDisconnectHandler(func(ev *steamclient.DisconnectEvent) {
			if ev.ServerInitiated {
				logger.Warn("server closed the session", "eresult", ev.EResult)
			} else {
				logger.Error("connection dropped", "err", ev.Err)
			}
		}),
	)

	connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
	defer connectCancel()
	if err := client.Connect(connectCtx, true, false); err != nil {
		logger.Error("connect failed", "err", err)
		os.Exit(1)
	}
	defer client.Disconnect()

	loginCtx, loginCancel := context.WithTimeout(ctx, 15*time.Second)
	defer loginCancel()
	if err := client.Login(loginCtx, username, refreshToken, 0); err != nil {
		logger.Error("login failed", "err", err)
		os.Exit(1)
	}

	picsCtx, picsCancel := context.WithTimeout(ctx, 15*time.Second)
	defer picsCancel()
	info, err := client.GetProductInfo(picsCtx, []steamclient.ProductInfoApp{{AppID: 730}})
	if err != nil {
		logger.Error("get product info failed", "err", err)
	} else {
		for _, app := range info {
			logger.Info("product info", "app_id", app.AppID, "bytes", len(app.Buffer))
		}
	}

	<-ctx.Done()
}
