package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/signchain/signchain/internal/auth"
	"github.com/signchain/signchain/internal/config"
	"github.com/signchain/signchain/internal/db"
	"github.com/signchain/signchain/internal/excel"
	"github.com/signchain/signchain/internal/genai"
	httphandler "github.com/signchain/signchain/internal/http"
	"github.com/signchain/signchain/internal/http/middleware"
	"github.com/signchain/signchain/internal/layout"
	"github.com/signchain/signchain/internal/ledger"
	"github.com/signchain/signchain/internal/logger"
	"github.com/signchain/signchain/internal/metrics"
	"github.com/signchain/signchain/internal/pdf"
	"github.com/signchain/signchain/internal/repository"
	"github.com/signchain/signchain/internal/service"
	"github.com/signchain/signchain/internal/storage"
	"github.com/signchain/signchain/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	ctx := context.Background()

	anchorStore, err := newAnchorStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	pdfGenerator, err := pdf.NewGenerator(cfg.PDF.FontPath, layout.A4())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}

	uploader, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init storage backend")
	}

	signer, err := newSigner(cfg.Ledger.WalletMnemonic)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore wallet signer")
	}

	chain, err := newLedger(cfg.Ledger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init ledger client")
	}

	var textGenerator genai.TextGenerator
	if cfg.GenAI.APIKey != "" {
		textGenerator = genai.New(cfg.GenAI.BaseURL, cfg.GenAI.APIKey, cfg.GenAI.Model, cfg.GenAI.Timeout)
	} else {
		log.Warn().Msg("no generative AI key configured, serving simulated contracts")
	}

	m := metrics.New()

	var ledgerSigner ledger.Signer
	if signer != nil {
		ledgerSigner = signer
	}

	walletService := service.NewWalletService(wallet.NewConnector(signer), auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL), log)
	contractService := service.NewContractService(textGenerator, m, log)
	documentService := service.NewDocumentService(pdfGenerator, uploader, cfg.PDF.DefaultTitle, m, log)
	anchorService := service.NewAnchorService(chain, ledgerSigner, anchorStore, excel.NewGenerator(), m, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(walletService, contractService, documentService, anchorService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg, log, m)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.GenAI.Timeout + 30*time.Second,
	}

	go func() {
		log.Info().
			Str("addr", addr).
			Str("storage", cfg.Storage.Backend).
			Str("ledger", string(chain.Mode())).
			Bool("server_signer", signer != nil).
			Msg("starting signchain service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
}

func newAnchorStore(cfg *config.Config, log zerolog.Logger) (service.AnchorStore, error) {
	if cfg.DB.DSN == "" {
		log.Warn().Msg("DB_DSN is empty, anchor history is kept in memory")
		return repository.NewMemoryAnchorRepository(), nil
	}
	database, err := db.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return repository.NewAnchorRepository(database), nil
}

func newSigner(phrase string) (*wallet.MnemonicSigner, error) {
	if phrase == "" {
		return nil, nil
	}
	return wallet.NewMnemonicSigner(phrase)
}

func newLedger(cfg config.LedgerConfig) (ledger.Ledger, error) {
	if cfg.Mode != config.LedgerLive {
		return ledger.NewSimulated(), nil
	}
	return ledger.NewLive(cfg.AlgodServer, cfg.AlgodToken, cfg.ConfirmRounds)
}
