package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"teamspace.org/internal/config"
	"teamspace.org/internal/httpapi"
	"teamspace.org/internal/obs"
	"teamspace.org/internal/password"
	"teamspace.org/internal/session"
	"teamspace.org/internal/token"
	"teamspace.org/internal/user"
	"teamspace.org/internal/workspace"
)

var version = "0.3.0"

func main() {
	// .env is optional; the environment wins when both are set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()

	var db *sql.DB
	if cfg.PGDSN != "" {
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if db == nil {
		log.Fatal("missing TEAMSPACE_PG_DSN")
	}

	signer, err := token.NewSigner(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		log.Fatalf("token signer: %v", err)
	}
	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("password hasher: %v", err)
	}

	users := user.NewPGStore(db)
	workspaces := workspace.NewPGStore(db)

	sessions, err := session.NewService(users, signer, hasher)
	if err != nil {
		log.Fatalf("session service: %v", err)
	}
	wsService, err := workspace.NewService(workspaces)
	if err != nil {
		log.Fatalf("workspace service: %v", err)
	}
	invitations, err := workspace.NewInvitationService(workspaces, users)
	if err != nil {
		log.Fatalf("invitation service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, cfg, sessions, wsService, invitations, signer)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting teamspace-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
