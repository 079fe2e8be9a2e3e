package scanning

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Spending buckets
const (
	SpendingNeeds   = "needs"
	SpendingWants   = "wants"
	SpendingSavings = "savings"
)

// ErrInvalidClassification is returned when the model answers outside the known buckets
var ErrInvalidClassification = errors.New("invalid classification from model")

const classifyMaxTokens = 16

// Classifier sorts a purchase into needs, wants or savings
type Classifier struct {
	completer Completer
}

// NewClassifier creates a Classifier backed by completer
func NewClassifier(completer Completer) *Classifier {
	return &Classifier{completer: completer}
}

// Classify asks the model for the spending bucket of a single purchase
func (c *Classifier) Classify(ctx context.Context, description string, price float64) (string, error) {
	prompt := fmt.Sprintf(
		"A purchase described as %q costing %.2f belongs to exactly one of these spending categories: "+
			"\"needs\", \"wants\" or \"savings\". Reply with the single most fitting category and nothing else.",
		description, price,
	)

	reply, err := c.completer.Complete(ctx, prompt, classifyMaxTokens)
	if err != nil {
		return "", fmt.Errorf("classifying purchase: %w", err)
	}

	bucket := strings.ToLower(strings.Trim(strings.TrimSpace(reply), `"'.`))
	switch bucket {
	case SpendingNeeds, SpendingWants, SpendingSavings:
		return bucket, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidClassification, reply)
}
