package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
)

const systemPrompt = "You are a network infrastructure analyst advising an enterprise on wireless architecture. " +
	"You explain total-cost-of-ownership results to executives. Use only the numbers you are given. Respond with strict JSON only."

const (
	maxAttempts        = 3
	narrativeMaxTokens = 1024
)

// transportBackoff is the wait before the second and third attempts.
var transportBackoff = [...]time.Duration{time.Second, 2 * time.Second}

// ErrDisabled is returned by NewAnthropicModelFromEnv when TCO_NO_LLM is set.
var ErrDisabled = errors.New("llm narrative disabled by TCO_NO_LLM")

type failureClass int

const (
	failureNone failureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

type LLMCaller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicModel sends narration prompts to the Messages API.
type AnthropicModel struct {
	messages  AnthropicMessager
	model     anthropic.Model
	maxTokens int64
}

// newMessagesClient is replaced in tests.
var newMessagesClient = func(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

// NewAnthropicModelFromEnv reads ANTHROPIC_API_KEY and the optional
// TCO_LLM_MODEL override.
func NewAnthropicModelFromEnv() (*AnthropicModel, error) {
	if envEnabled("TCO_NO_LLM") {
		return nil, ErrDisabled
	}
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	m := &AnthropicModel{
		messages:  newMessagesClient(apiKey),
		model:     anthropic.ModelClaudeSonnet4_20250514,
		maxTokens: narrativeMaxTokens,
	}
	if name := strings.TrimSpace(os.Getenv("TCO_LLM_MODEL")); name != "" {
		m.model = anthropic.Model(name)
	}
	return m, nil
}

func (m *AnthropicModel) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := m.messages.New(ctx, anthropic.MessageNewParams{
		Model:       m.model,
		MaxTokens:   m.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// LLMAdvisor asks a model to narrate an evaluation. Responses that are empty,
// not JSON, or fail validation are retried with feedback.
type LLMAdvisor struct {
	caller LLMCaller
	sleep  func(context.Context, time.Duration) error
}

func NewLLMAdvisor(caller LLMCaller) *LLMAdvisor {
	return &LLMAdvisor{caller: caller, sleep: sleepCtx}
}

func (a *LLMAdvisor) Narrate(ctx context.Context, res tco.Result) (Narrative, error) {
	prompt, err := buildPrompt(res)
	if err != nil {
		return Narrative{}, err
	}
	feedback := ""
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fullPrompt := prompt + "\n\nRespond with only valid JSON matching the schema."
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}

		raw, err := a.caller.GenerateJSON(ctx, fullPrompt)
		if err != nil {
			switch classifyTransportError(err) {
			case failureTimeout, failureRateLimit, failureServer:
				if attempt < maxAttempts {
					if err := a.sleep(ctx, transportBackoff[min(attempt, len(transportBackoff))-1]); err != nil {
						return Narrative{}, err
					}
					continue
				}
			}
			return Narrative{}, fmt.Errorf("narrative transport failure: %w", err)
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			feedback = "Your previous response was empty. Respond with valid JSON."
			continue
		}

		var n Narrative
		if err := json.Unmarshal([]byte(narrativeJSON(raw)), &n); err != nil {
			if attempt == maxAttempts {
				return Narrative{}, fmt.Errorf("narrative failed json parse: %w", err)
			}
			feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
			continue
		}
		if err := n.validate(); err != nil {
			if attempt == maxAttempts {
				return Narrative{}, fmt.Errorf("narrative failed validation: %w", err)
			}
			feedback = fmt.Sprintf("Your response failed validation: %s. Fix these issues.", err)
			continue
		}
		n.Source = SourceLLM
		return n, nil
	}
	return Narrative{}, errors.New("narrative failed after retries")
}

type promptFacts struct {
	Parameters     tco.ScenarioParameters                  `json:"parameters"`
	Devices        tco.DeviceCounts                        `json:"devices"`
	Comparison     []tco.ComparisonRow                     `json:"comparison"`
	Recommendation tco.Recommendation                      `json:"recommendation"`
	BreakEven      string                                  `json:"private_5g_break_even"`
	NPV            []tco.NPVSet                            `json:"npv"`
	Spread         map[tco.Architecture]map[string]float64 `json:"monte_carlo_spread"`
}

func buildPrompt(res tco.Result) (string, error) {
	facts := promptFacts{
		Parameters:     res.Parameters,
		Devices:        res.Devices,
		Comparison:     res.Comparison,
		Recommendation: res.Recommendation,
		BreakEven:      res.BreakEven.String(),
		NPV:            res.NPV,
		Spread:         map[tco.Architecture]map[string]float64{},
	}
	for arch, mc := range res.MonteCarlo {
		facts.Spread[arch] = map[string]float64{"p5": mc.Summary.P5, "p50": mc.Summary.P50, "p95": mc.Summary.P95}
	}
	blob, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode prompt facts: %w", err)
	}
	return `Summarize this wireless total-cost-of-ownership comparison for an executive audience.

Evaluation:
` + string(blob) + `

Return a JSON object with exactly these fields:
{
  "headline": "one sentence naming the recommended architecture and its risk-adjusted TCO",
  "summary": "two to four sentences on why it wins and by how much",
  "risks": ["up to five short caveats the reader should check"]
}`, nil
}

// narrativeJSON keeps the outermost JSON object, dropping code fences and
// any prose the model wrapped around it.
func narrativeJSON(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return strings.TrimSpace(raw)
	}
	return raw[start : end+1]
}

func classifyTransportError(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return failureRateLimit
		case apiErr.StatusCode >= 500:
			return failureServer
		case apiErr.StatusCode >= 400:
			return failureClient
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func envEnabled(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
