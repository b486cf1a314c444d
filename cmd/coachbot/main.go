// Command coachbot runs the coaching bot against stdin for local use.
//
// Each input line is "<user_id> <message>"; the reply is printed to
// stdout. Configuration comes from the environment (see .env.example).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/haven-labs/coachbot-go/pkg/access"
	"github.com/haven-labs/coachbot-go/pkg/coach"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := coach.LoadConfigFromEnv()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	storage, err := coach.NewStorage(&cfg.Storage)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer storage.Close()

	provider, err := coach.NewProvider(&cfg.LLM)
	if err != nil {
		logger.Fatal("failed to create llm provider", zap.Error(err))
	}
	defer provider.Close()

	handler, err := coach.NewHandler(&coach.HandlerConfig{
		Provider:      provider,
		Profiles:      storage.Profiles,
		History:       storage.History,
		States:        storage.States,
		Registry:      access.NewStaticRegistry(cfg.Bot.AccessCodes),
		SystemPrompt:  cfg.Bot.SystemPrompt,
		HistoryWindow: cfg.Bot.HistoryWindow,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to create handler", zap.Error(err))
	}
	defer handler.Close()

	logger.Info("coachbot ready",
		zap.String("storage", cfg.Storage.Provider),
		zap.String("llm", cfg.LLM.Provider))
	fmt.Println("coachbot console. Input lines: <user_id> <message>. Ctrl-D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		userID, text, ok := strings.Cut(line, " ")
		if !ok {
			fmt.Println("usage: <user_id> <message>")
			continue
		}

		reply := handler.HandleMessage(context.Background(), userID, text)
		fmt.Printf("[%s] %s\n", userID, reply)
	}
	if err := scanner.Err(); err != nil {
		logger.Error("stdin read failed", zap.Error(err))
	}
}
