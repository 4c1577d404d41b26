package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/joescharf/fixxy/internal/models"
)

// ErrUnknownTask is returned for a task name the tutor has no prompt for.
var ErrUnknownTask = errors.New("unknown task")

// ErrEmptyReply is returned when the provider answers without any text.
var ErrEmptyReply = errors.New("no text content in API response")

// Defaults for the tutor's completion requests.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// Completer runs one system+user chat completion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CompletionParams tunes a completer.
type CompletionParams struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

func (p CompletionParams) withDefaults() CompletionParams {
	if p.Temperature == 0 {
		p.Temperature = DefaultTemperature
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}
	return p
}

// AnthropicCompleter wraps the Anthropic Messages API.
type AnthropicCompleter struct {
	api    *anthropic.Client
	params CompletionParams
}

// NewAnthropicCompleter creates a completer with the given API key.
func NewAnthropicCompleter(apiKey string, params CompletionParams) *AnthropicCompleter {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicCompleter{
		api:    &client,
		params: params.withDefaults(),
	}
}

func (c *AnthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.params.Model),
		MaxTokens:   int64(c.params.MaxTokens),
		Temperature: anthropic.Float(c.params.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", ErrEmptyReply
}

// OpenAICompleter talks to any OpenAI-compatible chat completions API,
// such as Together.
type OpenAICompleter struct {
	api    *openai.Client
	params CompletionParams
}

// NewOpenAICompleter creates a completer. An empty baseURL uses OpenAI's.
func NewOpenAICompleter(apiKey, baseURL string, params CompletionParams) *OpenAICompleter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompleter{
		api:    openai.NewClientWithConfig(cfg),
		params: params.withDefaults(),
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.params.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(c.params.Temperature),
		MaxTokens:   c.params.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}

// Tutor turns an ask request into a task-specific prompt and returns the
// cleaned reply.
type Tutor struct {
	completer Completer
	log       zerolog.Logger
}

// NewTutor creates a tutor over completer.
func NewTutor(completer Completer, log zerolog.Logger) *Tutor {
	return &Tutor{completer: completer, log: log}
}

// Answer runs the prompt for req.Task and strips markdown from the reply.
func (t *Tutor) Answer(ctx context.Context, req models.AskRequest) (string, error) {
	system, user, err := buildPrompt(req)
	if err != nil {
		return "", err
	}

	t.log.Debug().Str("task", req.Task).Str("language", req.Language).Msg("completion request")
	raw, err := t.completer.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	return StripMarkdown(raw), nil
}

const (
	explainSystem = "You are a DSA tutor. Your name is IE-Fixxy. Break down the following problem into:\n" +
		"1. Summary\n2. Concepts involved\n3. Constraints and edge cases\n4. Step-by-step approach\n" +
		"As a DSA tutor please dont entertain any additional questions just answer DSA related questions, " +
		"also reply in a polite tone when encountered off topic questions"

	solveSystem = "You are a coding assistant. Provide a correct and efficient solution to the problem. " +
		"Include time and space complexity. Use best practices."

	debugSystem = "You are a coding debugger. Identify the bugs, explain them clearly, and provide a fixed version."

	testCasesSystem = "You are a test case generator. Provide test cases including:\n" +
		"1. Basic examples\n2. Edge cases\n3. Stress tests\n" +
		"Each should have Input and Expected Output."
)

// buildPrompt constructs the system and user prompts for a task. Solve is
// accepted here even though the front-end never sends it.
func buildPrompt(req models.AskRequest) (system string, user string, err error) {
	switch req.Task {
	case "Explain":
		return explainSystem, req.Question, nil
	case "Solve":
		return solveSystem, fmt.Sprintf("Problem:\n%s\nLanguage: %s", req.Question, req.Language), nil
	case "Debug":
		return debugSystem, fmt.Sprintf("Language: %s\nBuggy Code:\n%s", req.Language, req.Code), nil
	case "TestCases":
		return testCasesSystem, req.Question, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownTask, req.Task)
	}
}

var (
	emphasisRe  = regexp.MustCompile(`\*{1,2}(.*?)\*{1,2}`)
	headingRe   = regexp.MustCompile(`#+\s*`)
	blankLineRe = regexp.MustCompile(`\n{2,}`)
)

// StripMarkdown removes bold/italic markers and heading hashes, collapses
// runs of newlines and trims the result.
func StripMarkdown(text string) string {
	text = emphasisRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = blankLineRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
