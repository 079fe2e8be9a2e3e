package scanning

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Completion defaults
const (
	DefaultMaxTokens         = 2000
	DefaultCompletionTimeout = 60 * time.Second
	DefaultMaxRetries        = 2
	DefaultRetryDelay        = 2 * time.Second
)

// Completer defines the text-completion capability. Implementations send the
// prompt at temperature 0 and return the model's reply.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	// Close releases resources held by the client
	Close() error
}

// ParserConfig configures the completion stage
type ParserConfig struct {
	MaxTokens  int
	Timeout    time.Duration // per attempt
	MaxRetries int           // attempts after the first
	RetryDelay time.Duration
}

func (c ParserConfig) withDefaults() ParserConfig {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultCompletionTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// DefaultParserConfig returns the production retry policy: two retries, two seconds apart
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		MaxTokens:  DefaultMaxTokens,
		Timeout:    DefaultCompletionTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// Parser sends cleaned OCR text to the completer and returns its raw reply
type Parser struct {
	completer Completer
	cfg       ParserConfig
	metrics   *Metrics
}

// NewParser creates a Parser; metrics may be nil
func NewParser(completer Completer, cfg ParserConfig, metrics *Metrics) *Parser {
	return &Parser{completer: completer, cfg: cfg.withDefaults(), metrics: metrics}
}

// Parse completes the extraction prompt. Completer errors are retried with a
// fixed delay; a reply of "unknown" is a valid answer and is never retried.
func (p *Parser) Parse(ctx context.Context, cleaned string) (string, error) {
	prompt := BuildInvoicePrompt(cleaned)
	slog.Info("Sending extraction prompt", "prompt_version", PromptVersion, "prompt_chars", len(prompt))

	reply, err := p.complete(ctx, prompt, p.cfg.MaxTokens)
	if err != nil {
		return "", &ScanError{Kind: KindTransientFailure, Detail: "completion failed", Err: err}
	}

	slog.Info("Received completion", "reply_chars", len(reply))
	if isUnknownReply(reply) {
		return "", &ScanError{Kind: KindNotAnInvoice, Detail: "model replied unknown", Raw: reply}
	}
	return reply, nil
}

// complete runs one completion with the bounded retry loop
func (p *Parser) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var (
		reply   string
		attempt int
	)
	operation := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()

		text, err := p.completer.Complete(attemptCtx, prompt, maxTokens)
		if err != nil {
			p.metrics.completionAttempt(false)
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		p.metrics.completionAttempt(true)
		reply = text
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.cfg.RetryDelay), uint64(p.cfg.MaxRetries)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		slog.Warn("Completion failed, retrying",
			"attempt", attempt,
			"retries_left", p.cfg.MaxRetries-attempt+1,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		slog.Error("Completion failed", "attempts", attempt, "error", err)
		return "", err
	}
	return reply, nil
}
