// Package main is the leadchat CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/chat"
	"github.com/metalogics/leadchat/internal/config"
	"github.com/metalogics/leadchat/internal/embedding"
	"github.com/metalogics/leadchat/internal/generator"
	"github.com/metalogics/leadchat/internal/keyword"
	"github.com/metalogics/leadchat/internal/knowledge"
	"github.com/metalogics/leadchat/internal/lead"
	"github.com/metalogics/leadchat/internal/mailer"
	"github.com/metalogics/leadchat/internal/retrieval"
	"github.com/metalogics/leadchat/internal/server"
	"github.com/metalogics/leadchat/internal/storage"
	"github.com/metalogics/leadchat/internal/watcher"
	"github.com/metalogics/leadchat/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/leadchat/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used, so that "leadchat server" from the project dir uses the project's
// config (including debug). Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("leadchat version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (retrieval scores, corpus reloads, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Knowledge.Watch {
		watchSvc := watcher.NewWatcher(cfg.Knowledge.Path, func() {
			if err := components.Knowledge.Reload(); err != nil {
				logger.Warn("corpus reload from watch failed", zap.Error(err))
				return
			}
			if err := components.Keyword.Rebuild(components.Knowledge.Snapshot().Documents); err != nil {
				logger.Warn("keyword index rebuild from watch failed", zap.Error(err))
			}
		}, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Pipeline,
		components.Leads,
		components.Knowledge,
		components.Keyword,
		components.Cache,
		components.Storage,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildAskMessage joins all positional args with spaces so multi-word messages
// work the same with or without shell quoting.
func buildAskMessage(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the pipeline in-process)")
	sessionID := fs.String("session", "", "session ID to continue a conversation")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: leadchat ask [flags] <message>")
		os.Exit(1)
	}
	message := buildAskMessage(fs.Args())
	if message == "" {
		fmt.Println("Usage: leadchat ask [flags] <message>")
		os.Exit(1)
	}

	if *serverURL != "" {
		turn, err := askViaHTTP(*serverURL, *sessionID, message)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		printTurn(turn)
		return
	}

	// In-process pipeline (when server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Pipeline.HandleUserMessage(context.Background(), *sessionID, message, chat.ClientInfo{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	printTurn(&askResponse{
		Response:          result.AnswerText,
		SessionID:         result.SessionID,
		Confidence:        result.Confidence,
		ShouldCaptureLead: result.ShouldCaptureLead,
	})
}

type askResponse struct {
	Response          string `json:"response"`
	SessionID         string `json:"sessionId"`
	Confidence        string `json:"confidence"`
	ShouldCaptureLead bool   `json:"shouldCaptureLead"`
}

func askViaHTTP(serverURL, sessionID, message string) (*askResponse, error) {
	body, err := json.Marshal(map[string]string{"message": message, "sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/chat/message", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out askResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func printTurn(turn *askResponse) {
	fmt.Println(turn.Response)
	fmt.Printf("\nsession:    %s\n", turn.SessionID)
	fmt.Printf("confidence: %s\n", turn.Confidence)
	if turn.ShouldCaptureLead {
		fmt.Println("lead:       capture suggested")
	}
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Documents      int    `json:"documents"`
	CachedVectors  int    `json:"cached_vectors"`
	Conversations  int    `json:"conversations"`
	Leads          int    `json:"leads"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:      %d   # knowledge corpus size\n", status.Documents)
		fmt.Printf("cached_vectors: %d   # embedded documents in cache\n", status.CachedVectors)
		fmt.Printf("conversations:  %d\n", status.Conversations)
		fmt.Printf("leads:          %d\n", status.Leads)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage:     %d   # database size on disk\n", *status.DiskUsageBytes)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage   *storage.SQLiteStorage
	Knowledge *knowledge.Store
	Keyword   *keyword.Index
	Cache     *embedding.Cache
	Pipeline  *chat.Pipeline
	Leads     *lead.Service
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	kstore := knowledge.NewStore(cfg.Knowledge.Path, logger)
	if err := kstore.Load(); err != nil {
		return nil, fmt.Errorf("failed to load knowledge corpus: %w", err)
	}

	kwIndex, err := keyword.NewIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	if err := kwIndex.Rebuild(kstore.Snapshot().Documents); err != nil {
		return nil, fmt.Errorf("failed to build keyword index: %w", err)
	}

	timeout := time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second
	var embedder embedding.Provider
	var completer generator.CompletionProvider
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		clientCfg := openai.DefaultConfig(apiKey)
		if cfg.OpenAI.BaseURL != "" {
			clientCfg.BaseURL = cfg.OpenAI.BaseURL
		}
		client := openai.NewClientWithConfig(clientCfg)
		embedder = embedding.NewOpenAIProvider(client, cfg.OpenAI.EmbeddingModel, timeout)
		completer = generator.NewOpenAICompletion(client, cfg.OpenAI.CompletionModel, timeout)
	} else {
		// No API key: mock providers keep local development working.
		logger.Warn("OPENAI_API_KEY not set, using mock providers")
		embedder = embedding.NewMockProvider(64)
		completer = &generator.MockCompletion{Reply: "This is a development instance without an OpenAI API key configured. Please contact us directly for details."}
	}

	cache := embedding.NewCache()
	pipeline := chat.NewPipeline(
		retrieval.NewRetriever(kstore, embedder, cache, logger),
		generator.NewGenerator(completer, generator.Options{
			MaxTokens:    cfg.Generator.MaxTokens,
			Temperature:  cfg.Generator.Temperature,
			MaxDocLength: cfg.Generator.MaxDocLength,
		}, logger),
		lead.NewDetector(cfg.Lead.Triggers...),
		store,
		chat.Options{
			TopK:           cfg.Retrieval.TopK,
			Threshold:      cfg.Retrieval.Threshold,
			ContextTurns:   cfg.Generator.ContextTurns,
			MaxMessageSize: cfg.Generator.MaxMessageSize,
		},
		logger,
	)

	var m mailer.Mailer
	if cfg.Mail.Host != "" {
		m = mailer.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.From)
	} else {
		m = &mailer.LogMailer{Logger: logger}
	}
	leads := lead.NewService(store, m, logger)

	return &Components{
		Storage:   store,
		Knowledge: kstore,
		Keyword:   kwIndex,
		Cache:     cache,
		Pipeline:  pipeline,
		Leads:     leads,
	}, nil
}

func printUsage() {
	fmt.Println(`leadchat - Lead-generation chat widget backend

Usage:
  leadchat server [flags]          Start the HTTP server
  leadchat ask [flags] <message>   Send one chat message
  leadchat status [flags]          Show corpus/cache/lead counts
  leadchat version                 Show version
  leadchat help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/leadchat/config.yaml)
  --debug            Enable debug logging (retrieval scores, corpus reloads, etc.)

Ask Flags:
  --config string    Config file path (for in-process mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to run the pipeline in-process.
  --session string   Session ID to continue a conversation

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  leadchat server
  leadchat ask "Do you build mobile apps?"
  leadchat ask --session 7f3a... "and what would that cost?"
  leadchat status --output json`)
}
