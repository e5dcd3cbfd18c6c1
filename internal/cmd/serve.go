package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dativo-io/parley/internal/cases"
	"github.com/dativo-io/parley/internal/config"
	"github.com/dativo-io/parley/internal/intent"
	"github.com/dativo-io/parley/internal/llm"
	"github.com/dativo-io/parley/internal/pipeline"
	"github.com/dativo-io/parley/internal/policy"
	"github.com/dativo-io/parley/internal/server"
	"github.com/dativo-io/parley/internal/telephony"
)

var (
	serveAddr string
	serveSeed bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the voice support HTTP server",
	Long: `Start the Parley HTTP server.

Exposes the Twilio voice webhooks (/voice, /transfer) and the call
lifecycle API used by the speech collaborators. Each registered call
gets its own conversation monitor, which polls the transcript and
drives the intent pipeline.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveSeed, "seed-demo", true, "seed demo cases into an empty case database")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "serve")
	defer span.End()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	pipe, store, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := server.NewRegistry(pipe, cfg.PollInterval(), cfg.Keywords(), cfg.CallIdleTTL())
	if err := registry.StartJanitor(); err != nil {
		return err
	}
	defer registry.Stop()

	srv := server.NewServer(registry,
		server.WithCompanyName(cfg.CompanyName),
		server.WithSupportNumber(cfg.SupportPhoneNumber),
		server.WithWebsocketURL(cfg.WebsocketURL),
	)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.ListenAddr).
			Str("provider", cfg.LLMProvider).
			Str("model", cfg.LLMModel).
			Msg("server_starting")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigCtx.Done():
	}

	log.Info().Msg("shutdown_started")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	log.Info().Msg("shutdown_complete")
	return nil
}

// buildPipeline wires provider, classifier, policy engine, case store, and
// telephony into the per-utterance pipeline. The returned store must be
// closed by the caller.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, *cases.Store, error) {
	provider, err := resolveProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	classifier := intent.NewClassifier(provider, cfg.LLMModel)

	engine, err := policy.NewEngine(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading authorization policy: %w", err)
	}

	store, err := cases.NewStore(cfg.CasesDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening case store: %w", err)
	}
	if serveSeed {
		if err := store.SeedDemo(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("seeding demo cases: %w", err)
		}
	}

	var transfer pipeline.Transferer
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		transfer = telephony.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	} else {
		log.Warn().Msg("twilio_credentials_missing_escalation_disabled")
	}
	if cfg.SupportPhoneNumber == "" {
		log.Warn().Msg("support_phone_number_missing_escalation_disabled")
	}

	return pipeline.New(classifier, engine, store, transfer, cfg.SupportPhoneNumber), store, nil
}

// resolveProvider builds the configured LLM provider. A bare OPENAI_API_KEY
// env var works as a fallback for the PARLEY_-prefixed one.
func resolveProvider(cfg *config.Config) (llm.Provider, error) {
	openaiKey := cfg.OpenAIAPIKey
	if openaiKey == "" {
		if k := os.Getenv("OPENAI_API_KEY"); k != "" {
			log.Debug().Msg("using_unprefixed_openai_api_key")
			openaiKey = k
		}
	}
	anthropicKey := cfg.AnthropicAPIKey
	if anthropicKey == "" {
		anthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	provider, err := llm.Resolve(cfg.LLMProvider, openaiKey, anthropicKey)
	if err != nil {
		return nil, fmt.Errorf("resolving LLM provider %q: %w", cfg.LLMProvider, err)
	}
	if viper.GetBool("verbose") {
		log.Debug().Str("provider", provider.Name()).Str("model", cfg.LLMModel).Msg("llm_provider_resolved")
	}
	return provider, nil
}
