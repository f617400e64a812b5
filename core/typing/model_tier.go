package typing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/archivekit/dossier/core/scoring"
	"github.com/archivekit/dossier/model"
)

const (
	defaultClassifierModel = "claude-3-5-haiku-20241022"
	maxRetries             = 2
	initialBackoff         = 500 * time.Millisecond
	maxContextExcerpt      = 400
)

// ErrAPIKeyRequired is returned when no Anthropic API key is available
var ErrAPIKeyRequired = errors.New("API key required")

// ModelTier classifies entity types with a high-capability language model.
// Treated as authoritative when its confidence clears the cascade threshold.
type ModelTier struct {
	client         anthropic.Client
	model          anthropic.Model
	maxRetries     int
	initialBackoff time.Duration
}

// NewModelTier creates the model tier. Env var ANTHROPIC_API_KEY takes
// precedence over the explicit apiKey.
func NewModelTier(apiKey string) (*ModelTier, error) {
	envKey := os.Getenv("ANTHROPIC_API_KEY")
	if envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY environment variable or provide via config", ErrAPIKeyRequired)
	}

	return &ModelTier{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          defaultClassifierModel,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}, nil
}

// Name returns the tier name
func (t *ModelTier) Name() string {
	return TierModel
}

// Attempt asks the model for a three-way classification of the mention text
// with a short context excerpt
func (t *ModelTier) Attempt(ctx context.Context, text string, bundle *model.EvidenceBundle) (*TypeResult, error) {
	prompt := buildTypePrompt(text, bundle)

	response, err := t.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return parseTypeResponse(response)
}

func (t *ModelTier) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	params := anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: 32,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := t.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		message, err := t.client.Messages.New(ctx, params)
		if err == nil {
			if len(message.Content) > 0 {
				content := message.Content[0]
				if content.Type == "text" {
					return content.Text, nil
				}
				return "", fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type)
			}
			return "", fmt.Errorf("unexpected response format: no content blocks")
		}

		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if !isRetryable(err) {
			return "", fmt.Errorf("non-retryable error: %w", err)
		}
	}

	return "", fmt.Errorf("failed after %d retries: %w", t.maxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		statusCode := apiErr.StatusCode
		return statusCode == 429 || statusCode >= 500
	}

	return false
}

func buildTypePrompt(text string, bundle *model.EvidenceBundle) string {
	var b strings.Builder
	b.WriteString("Classify the entity below as exactly one of: person, organization, location.\n")
	b.WriteString("Answer with a single line in the format: <type> <confidence>\n")
	b.WriteString("where confidence is a number between 0.0 and 1.0. No other text.\n\n")
	b.WriteString("Entity: ")
	b.WriteString(text)
	b.WriteString("\n")

	if bundle != nil && bundle.ContextText != "" {
		excerpt := bundle.ContextText
		if len(excerpt) > maxContextExcerpt {
			excerpt = excerpt[:maxContextExcerpt]
		}
		b.WriteString("Context: ")
		b.WriteString(excerpt)
		b.WriteString("\n")
	}

	return b.String()
}

// parseTypeResponse parses a "<type> <confidence>" model answer. It tolerates
// surrounding prose by scanning tokens for a type word and a float.
func parseTypeResponse(response string) (*TypeResult, error) {
	tokens := strings.Fields(strings.ToLower(response))

	var entityType model.EntityType
	confidence := -1.0

	for _, token := range tokens {
		trimmed := strings.Trim(token, ".,:;()\"'")
		switch trimmed {
		case "person":
			entityType = model.EntityPerson
		case "organization", "organisation":
			entityType = model.EntityOrganization
		case "location":
			entityType = model.EntityLocation
		default:
			if v, err := strconv.ParseFloat(trimmed, 64); err == nil && v >= 0 && v <= 1 && confidence < 0 {
				confidence = v
			}
		}
	}

	if entityType == "" {
		return nil, fmt.Errorf("no entity type in model response %q", response)
	}
	if confidence < 0 {
		confidence = 0.5
	}

	return &TypeResult{
		Type:       entityType,
		Confidence: scoring.Clamp01(confidence),
	}, nil
}
