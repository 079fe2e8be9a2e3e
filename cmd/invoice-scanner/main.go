package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/option"

	"github.com/zombor/invoice-scanner/internal/expense"
	"github.com/zombor/invoice-scanner/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("invoice-scanner")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "invoice-scanner.db", "Database file path")
		completerType = fs.StringLong("completer", "gemini", "Text model: 'gemini', 'ollama' or 'openai'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llama3.1", "Ollama model name (e.g., llama3.1, qwen2.5, mistral)")
		openaiKey     = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiURL     = fs.StringLong("openai-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
		openaiModel   = fs.StringLong("openai-model", "gpt-4o", "OpenAI model name")
		visionKey     = fs.StringLong("vision-key", "", "Google Cloud Vision API key")
		visionCreds   = fs.StringLong("vision-credentials", "", "Google Cloud service account JSON file (defaults to application default credentials)")
		maxWidth      = fs.IntLong("max-width", scanning.DefaultMaxWidth, "Images wider than this are downscaled before OCR")
		llmTimeout    = fs.DurationLong("llm-timeout", scanning.DefaultCompletionTimeout, "Timeout for each completion attempt")
		llmRetries    = fs.IntLong("llm-retries", scanning.DefaultMaxRetries, "Completion retries after the first attempt")
		retryDelay    = fs.DurationLong("retry-delay", scanning.DefaultRetryDelay, "Delay between completion attempts")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_SCANNER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := expense.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize completer based on type
	var completer scanning.Completer
	switch *completerType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini completer...", "model", *geminiModel)
		completer, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama completer...", "url", *ollamaURL, "model", *ollamaModel)
		completer, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	case "openai":
		apiKey := *openaiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		slog.Info("Initializing OpenAI completer...", "url", *openaiURL, "model", *openaiModel)
		completer, err = scanning.NewOpenAI(*openaiURL, apiKey, *openaiModel)
		if err != nil {
			slog.Error("Failed to initialize OpenAI", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid completer type", "type", *completerType, "valid", "gemini, ollama or openai")
		os.Exit(1)
	}
	defer completer.Close()

	// Initialize OCR
	var visionOpts []option.ClientOption
	switch {
	case *visionCreds != "":
		visionOpts = append(visionOpts, option.WithCredentialsFile(*visionCreds))
	case *visionKey != "":
		visionOpts = append(visionOpts, option.WithAPIKey(*visionKey))
	}
	slog.Info("Initializing Vision OCR...")
	detector, err := scanning.NewVision(context.Background(), visionOpts...)
	if err != nil {
		slog.Error("Failed to initialize Vision", "error", err)
		os.Exit(1)
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := scanning.NewMetrics(registry)

	// Initialize pipeline
	pipeline := scanning.NewPipeline(
		scanning.NewPreprocessor(*maxWidth),
		scanning.NewExtractor(detector, metrics),
		scanning.NewParser(completer, scanning.ParserConfig{
			MaxTokens:  scanning.DefaultMaxTokens,
			Timeout:    *llmTimeout,
			MaxRetries: *llmRetries,
			RetryDelay: *retryDelay,
		}, metrics),
		scanning.NewValidator(time.Now),
		scanning.NewAssembler(&scanning.UUIDGenerator{}),
		metrics,
	)

	// Initialize service
	expenseService := expense.NewService(db, pipeline, scanning.NewClassifier(completer))

	// Initialize server
	basicAuth := expense.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := expense.NewServer(expenseService, basicAuth, registry)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version, "prompt_version", scanning.PromptVersion)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
