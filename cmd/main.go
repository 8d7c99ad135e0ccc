package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SuperRPS/config"
	"SuperRPS/internal/game/manager"
	"SuperRPS/internal/httpapi"
	"SuperRPS/internal/relay"
	"SuperRPS/internal/storage"
	"SuperRPS/internal/utils"
	"SuperRPS/internal/websocket"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		utils.Log.Fatal("load config failed", "err", err)
	}
	utils.InitLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//-------------------------------------------------------
	// 1. 房间存储：Redis 可选，默认内存
	//-------------------------------------------------------
	store := relay.NewMemoryStore()
	if cfg.Redis.Enabled {
		rdb, err := storage.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			utils.Log.Fatal("redis init failed", "err", err)
		}
		defer rdb.Close()
		store = relay.NewRedisStore(rdb, cfg.Redis.RoomTTL)
		utils.Log.Info("room presence mirrored to redis", "addr", cfg.Redis.Addr)
	}
	registry := relay.NewRegistry(store)
	defer registry.Close()

	//-------------------------------------------------------
	// 2. Hub + GameManager
	//-------------------------------------------------------
	hub := websocket.NewHub()
	gameMgr := manager.NewGameManager(hub, registry, cfg.Game.Settings, cfg.Game.RevealDelay)
	hub.SetHandler(gameMgr)
	go hub.Run()

	//-------------------------------------------------------
	// 3. HTTP 路由
	//-------------------------------------------------------
	r := httpapi.NewRouter(httpapi.Deps{
		Hub:            hub,
		Registry:       registry,
		Secret:         []byte(cfg.JWT.Secret),
		TokenTTL:       cfg.JWT.TTL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Defaults:       cfg.Game.Settings,
		RevealDelay:    cfg.Game.RevealDelay,
	})

	srv := &http.Server{Addr: cfg.Server.Port, Handler: r}
	go func() {
		utils.Log.Info("Server running", "addr", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.Fatal("listen failed", "err", err)
		}
	}()

	<-ctx.Done()
	utils.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	hub.Close()
	<-hub.Done()
}
