package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfagnish/usersvc/internal/config"
	"github.com/alfagnish/usersvc/internal/events"
	"github.com/alfagnish/usersvc/internal/grpchealth"
	"github.com/alfagnish/usersvc/internal/server"
	"github.com/alfagnish/usersvc/internal/store"
	"github.com/alfagnish/usersvc/internal/users"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 1. Load configuration from environment variables.
	cfg := config.Load()
	log.Printf("config: listen=%s store=%s db=%s collection=%s strict=%t grpc=%q",
		cfg.ListenAddr, cfg.Store, cfg.Database, cfg.Collection, cfg.StrictValidation, cfg.GRPCAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the persistence handle once; every handler shares it.
	st := openStore(ctx, cfg)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Printf("store close error: %v", err)
		}
	}()

	// 3. Create the change-event hub.
	hub := events.NewHub()
	defer hub.Close()

	// 4. Set up the chi router with all handlers.
	handler, err := server.New(cfg, st, hub)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// 5. Start the HTTP server.
	g.Go(func() error {
		log.Printf("users service listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 6. Optionally start the gRPC health service.
	if cfg.GRPCAddr != "" {
		watcher := grpchealth.NewWatcher(st, cfg.HealthInterval)
		gs := grpchealth.NewServer(watcher.Health())

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}

		g.Go(func() error {
			watcher.Run(gctx)
			return nil
		})
		g.Go(func() error {
			log.Printf("grpc health listening on %s", cfg.GRPCAddr)
			return gs.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			gs.GracefulStop()
			return nil
		})
	}

	// Graceful shutdown on SIGINT / SIGTERM or a server failure.
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown error: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
	}
	log.Println("users service stopped")
}

// openStore opens the configured store. In strict mode a failed
// connection is fatal; in loose mode it is logged and the service falls
// back to an in-memory store.
func openStore(ctx context.Context, cfg *config.Config) users.Store {
	if cfg.Store == config.StoreMemory {
		log.Println("using in-memory store")
		return store.NewMemory()
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	log.Printf("connecting to document store %s ...", cfg.Database)
	m, err := store.OpenMongo(connectCtx, cfg.MongoURI, cfg.Database, cfg.Collection)
	if err != nil {
		if cfg.StrictValidation {
			log.Fatalf("document store connection failed: %v", err)
		}
		log.Printf("WARNING: document store unavailable, using in-memory store: %v", err)
		return store.NewMemory()
	}
	log.Println("document store connected")
	return m
}
