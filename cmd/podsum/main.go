package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podsum/internal/auth"
	"podsum/internal/config"
	"podsum/internal/db"
	httpx "podsum/internal/http"
	"podsum/internal/httpclient"
	"podsum/internal/pipeline"
	"podsum/internal/podcast"
	"podsum/internal/resolver"
	"podsum/internal/summarize"
	"podsum/internal/transcribe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)

	store := &podcast.Repo{DB: gdb}
	engine := &pipeline.Engine{
		Store: store,
		Resolver: resolver.New(
			httpclient.NewClient(httpclient.BrowserClient),
			httpclient.NewClient(httpclient.APIClient),
		),
		Transcriber: transcribe.NewClient(cfg.VolcAppID, cfg.VolcAccessToken, cfg.VolcSecretKey, cfg.VolcBaseURL),
		Summarizer:  summarize.NewClient(cfg.ArkAPIKey, cfg.ArkBaseURL, cfg.ArkModel),
	}

	r := httpx.NewRouter(cfg, gdb, jwtSvc, store, engine)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
