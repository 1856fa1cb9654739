package cmd

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/llm"
	"github.com/abhisek/quizly/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quiz backend service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := appConfig.NewLogger(os.Stderr)

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = appConfig.Addr
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		llmCfg := appConfig.LLM
		if p, _ := cmd.Flags().GetString("provider"); p != "" {
			llmCfg.Provider = p
		}
		provider, err := llm.NewProvider(ctx, llmCfg, st.EventRepo(), logger)
		if err != nil {
			return fmt.Errorf("configure LLM provider: %w", err)
		}

		var cache grading.Cache
		if appConfig.RedisURL != "" {
			opts, err := redis.ParseURL(appConfig.RedisURL)
			if err != nil {
				return fmt.Errorf("parse QUIZLY_REDIS_URL: %w", err)
			}
			client := redis.NewClient(opts)
			defer client.Close()
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("redis unavailable, grade cache disabled", "error", err)
			} else {
				cache = grading.NewRedisCache(client, grading.DefaultCacheTTL)
			}
		}

		srv := server.New(server.Deps{
			Quizzes:     st.QuizRepo(),
			Grader:      grading.NewCachedGrader(grading.NewLLMGrader(provider, grading.DefaultGraderConfig()), cache, logger),
			Explainer:   grading.NewLLMExplainer(provider, grading.DefaultExplainerConfig()),
			DB:          st.DB(),
			CORSOrigins: appConfig.CORSOrigins,
			Logger:      logger,
		})

		logger.Info("starting quizly backend",
			"provider", llmCfg.Provider,
			"model", provider.ModelID(),
			"grade_cache", cache != nil,
		)
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides QUIZLY_ADDR)")
	serveCmd.Flags().String("provider", "", "LLM provider: anthropic, openai, gemini, openrouter, groq or mock")
}
