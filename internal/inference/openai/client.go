package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/at-ishikawa/glossa/internal/inference"
	"resty.dev/v3"
)

// Client talks to any OpenAI-compatible chat completions endpoint,
// such as the Hugging Face router serving Qwen models.
type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
	retryDelay       time.Duration
}

func NewClient(baseURL, apiKey, model string, retryAttempts uint, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
		retryDelay:       200 * time.Millisecond,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	TopP        float32   `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

const chooseSenseSystemPrompt = `You are an assistant for word sense disambiguation tasks.

Instructions:
Based on the context provided in the sentence, identify which meaning of the word is most appropriate.
Return only the number corresponding to the correct meaning.`

// ChooseSense implements the inference.Client interface
func (client *Client) ChooseSense(ctx context.Context, params inference.ChooseSenseRequest) (string, error) {
	var meanings strings.Builder
	for i, meaning := range params.Meanings {
		fmt.Fprintf(&meanings, "%d. %s\n", i+1, meaning)
	}
	userMessage := fmt.Sprintf("Word: %q\nSentence: %q\n\nMeanings:\n%s", params.Word, params.Sentence, strings.TrimRight(meanings.String(), "\n"))

	return client.complete(ctx, ChatCompletionRequest{
		Model: client.model,
		Messages: []Message{
			{Role: RoleSystem, Content: chooseSenseSystemPrompt},
			{Role: RoleUser, Content: userMessage},
		},
		Temperature: 0.5,
		TopP:        0.7,
		MaxTokens:   10,
	})
}

const findProperNounsSystemPrompt = `Be a disambiguation assistant. Whatever you receive as input, only give back a response following the example output strictly.

Analyze the following ASL gloss sentence with reference to the original English sentence to classify each word. Identify whether each word is a proper noun and return only a list of proper noun words.

Example:
ASL Gloss: "MY NAME BRAND"
Original English Sentence: "My name is Brand."

Example Output:
["BRAND"]

Output:`

// FindProperNouns implements the inference.Client interface
func (client *Client) FindProperNouns(ctx context.Context, params inference.FindProperNounsRequest) (string, error) {
	return client.complete(ctx, ChatCompletionRequest{
		Model: client.model,
		Messages: []Message{
			{Role: RoleSystem, Content: findProperNounsSystemPrompt},
			{Role: RoleUser, Content: fmt.Sprintf("ASL Gloss: %q\nOriginal English Sentence: %q", params.Gloss, params.Sentence)},
		},
		Temperature: 0.5,
		TopP:        0.7,
		MaxTokens:   50,
	})
}

const convertToGlossSystemPrompt = `Translate the following English sentence into ASL gloss. Use direct, formulaic translation and omit every word ASL does not need. Do not include eyebrow, body movement or other non-manual markers.

Rules:
1. Order: [Time] + [Location] + [Topic/Subject] + [Comment/Action/Verb] + [Object/Descriptor]. "Yesterday, I went to the store." -> "YESTERDAY STORE ME GO."
2. Drop articles and helping verbs (a, an, the, is, am, are). "The dog is barking." -> "DOG BARK."
3. Time words go first. "Tomorrow, I will call you." -> "TOMORROW ME CALL YOU."
4. Location follows time and precedes the topic. "In the library, she studies." -> "LIBRARY SHE STUDY."
5. Always include pronouns. "I understand you." -> "YOU ME UNDERSTAND."
6. Yes/no questions keep topic-comment order and end with a question mark. "Do you like coffee?" -> "COFFEE YOU LIKE?"
7. WH-questions put the WH-word last. "Where is the bathroom?" -> "BATHROOM WHERE."
8. Commands drop an understood subject. "Give me the book." -> "BOOK GIVE-ME."
9. Negation puts NOT after the verb. "I don't want coffee." -> "COFFEE ME WANT NOT."
10. Conditionals start with SUPPOSE or IF. "If it rains, we will stay home." -> "SUPPOSE RAIN, WE STAY HOME."
11. Rhetorical questions are followed by their answer. "Why am I tired? I didn't sleep." -> "WHY ME TIRED? SLEEP NONE."
12. Comparisons: [Object 1] + [Comparison] + [Object 2]. "Cats are smaller than dogs." -> "CAT SMALL COMPARE DOG."
13. Adjectives follow the noun. "The red car is fast." -> "CAR RED FAST."
14. Repetition marks emphasis or continuity. "He keeps calling me." -> "CALL ME CONTINUE."
15. Plurals use a plural sign or repetition unless a number is given. "The children are playing." -> "CHILDREN PLAY."

Reply with the gloss only, in capital letters.`

// ConvertToGloss implements the inference.Client interface
func (client *Client) ConvertToGloss(ctx context.Context, params inference.ConvertToGlossRequest) (string, error) {
	maxTokens := params.MaxWords
	if maxTokens <= 0 {
		maxTokens = 50
	}
	return client.complete(ctx, ChatCompletionRequest{
		Model: client.model,
		Messages: []Message{
			{Role: RoleSystem, Content: convertToGlossSystemPrompt},
			{Role: RoleUser, Content: fmt.Sprintf("'%s'", params.Sentence)},
		},
		Temperature: 0.2,
		TopP:        0.8,
		MaxTokens:   maxTokens,
	})
}

func (client *Client) complete(ctx context.Context, requestBody ChatCompletionRequest) (string, error) {
	var content string
	err := client.withRetry(ctx, func() error {
		c, err := client.chatCompletion(ctx, requestBody)
		if err != nil {
			return err
		}
		content = c
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (client *Client) chatCompletion(ctx context.Context, requestBody ChatCompletionRequest) (string, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody, _ := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return "", fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := strings.TrimSpace(responseBody.Choices[0].Message.Content)
	slog.Default().Debug("oracle response content",
		"model", requestBody.Model,
		"request", requestBody.Messages[len(requestBody.Messages)-1].Content,
		"response", content,
	)
	return content, nil
}
