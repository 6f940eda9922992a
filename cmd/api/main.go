package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/talktotj/chat/backend/internal/config"
	"github.com/talktotj/chat/backend/internal/handler"
	"github.com/talktotj/chat/backend/internal/handler/web"
	"github.com/talktotj/chat/backend/internal/model/persona"
	"github.com/talktotj/chat/backend/internal/service/ai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	active, err := loadPersona(cfg.Persona)
	if err != nil {
		log.Fatalf("failed to load persona: %v", err)
	}
	log.Printf("persona %q (%s) active", active.ID, active.Name)

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		// Keep serving; every relay call reports the construction error as a provider failure.
		log.Printf("warning: failed to initialize %s chat model: %v", cfg.AI.ProviderName(), err)
		chatModel = ai.Unavailable(err)
	} else {
		log.Printf("AI provider %s initialized (model=%s, timeout=%s)", cfg.AI.ProviderName(), cfg.AI.ModelName(), cfg.AI.Timeout)
	}
	if closer, ok := chatModel.(io.Closer); ok {
		defer closer.Close()
	}

	aiService := ai.NewService(chatModel, active, ai.Options{
		Provider: cfg.AI.ProviderName(),
		Timeout:  cfg.AI.Timeout,
	})

	page, err := web.New(active)
	if err != nil {
		log.Fatalf("failed to render chat page: %v", err)
	}

	router := handler.NewRouter(aiService, page, cfg.Server.AllowedOrigin)

	startServer(ctx, cfg.Server, cfg.AI.Timeout, router)
}

// loadPersona merges PERSONA_FILE profiles over the built-in ones and picks PERSONA_ID.
func loadPersona(cfg config.PersonaConfig) (persona.Persona, error) {
	items := persona.Seed()
	if cfg.File != "" {
		loaded, err := persona.LoadFile(cfg.File)
		if err != nil {
			return persona.Persona{}, err
		}
		items = append(loaded, items...)
	}

	store := persona.NewMemoryStore(items)
	active, ok := store.FindByID(cfg.ID)
	if !ok {
		return persona.Persona{}, errors.New("unknown PERSONA_ID " + cfg.ID)
	}
	return active, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, aiTimeout time.Duration, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      aiTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("[server] chat relay listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
