package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/greenlens/greenlens/internal/agent"
	"github.com/greenlens/greenlens/internal/classify"
	"github.com/greenlens/greenlens/internal/extract"
	"github.com/greenlens/greenlens/internal/llm"
	"github.com/greenlens/greenlens/internal/receipts"
	"github.com/greenlens/greenlens/internal/server"
	"github.com/greenlens/greenlens/internal/store"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the advisor HTTP API",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	st, err := store.Open(ctx, store.Config{
		Driver:        viper.GetString("store.driver"),
		MongoURI:      viper.GetString("store.mongo_uri"),
		MongoDatabase: viper.GetString("store.mongo_database"),
		SQLitePath:    viper.GetString("store.sqlite_path"),
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close(ctx) }()

	llmCfg, err := llmConfig()
	if err != nil {
		return err
	}

	// The extraction/valuation client is needed on the first receipt, so it
	// is built eagerly; the agent's client comes from the lazy singleton.
	client, err := llm.NewClient(llmCfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	engine := classify.New(classify.NewLLMValuer(client), logger)
	extractor := extract.NewLLMExtractor(client)
	processor := receipts.NewService(extractor, engine, st, logger)

	agentFor := func() (server.ChatAgent, error) {
		return agent.Default(llmCfg, st, logger)
	}

	srv := server.New(server.Config{
		Addr: viper.GetString("server.addr"),
	}, processor, agentFor, logger)

	return srv.Run(ctx)
}

func llmConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "openai"
	}

	cfg := llm.Config{
		Provider:    provider,
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		Timeout:     viper.GetDuration("llm.timeout"),
	}

	cfg.APIKey = viper.GetString("llm.api_key")
	if cfg.APIKey == "" {
		switch provider {
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.APIKey == "" {
		return llm.Config{}, fmt.Errorf("no API key configured for LLM provider %s", provider)
	}

	return cfg, nil
}
