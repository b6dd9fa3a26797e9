// The advisor is the text-generation collaborator behind the recommendation
// engine. Every call is best-effort: the engine has a deterministic fallback
// for each one, so advisor errors never surface to users.

package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Profile is a coarse description of the user's taste, derived from their
// favorites. It drives candidate search and scoring.
type Profile struct {
	PreferredGenres []string `json:"preferredGenres"`
	SearchTerms     []string `json:"searchTerms"`
	Complexity      string   `json:"complexity"`
}

// genrePalette is the fixed list of common genres offered to the model when
// profiling.
var genrePalette = []string{
	"Action", "Adventure", "Comedy", "Drama", "Fantasy",
	"Romance", "Sci-Fi", "Slice of Life", "Supernatural",
}

// Advisor generates reading profiles and per-candidate reasons.
type Advisor interface {
	GenerateProfile(ctx context.Context, favoriteCount int) (*Profile, error)
	GenerateReason(ctx context.Context, title string, genres, preferredGenres []string) (string, error)
}

// OpenAIAdvisor implements Advisor against an OpenAI-compatible chat
// completion endpoint.
type OpenAIAdvisor struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIAdvisor creates an advisor. baseURL may be empty to use the
// default OpenAI endpoint.
func NewOpenAIAdvisor(apiKey, baseURL, model string, temperature float64) *OpenAIAdvisor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdvisor{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: float32(temperature),
	}
}

// GenerateProfile asks the model for a reading profile as a JSON object.
func (a *OpenAIAdvisor) GenerateProfile(ctx context.Context, favoriteCount int) (*Profile, error) {
	prompt := fmt.Sprintf(`Analyze a manga reader's library:

Number of favorites: %d
Common genres to pick from: %s

Based on this, produce a recommendation profile with:
1. 3 genres they probably like
2. 2 search terms to find similar manga

Respond with JSON only, using this structure:
{
  "preferredGenres": ["genre1", "genre2", "genre3"],
  "searchTerms": ["term1", "term2"],
  "complexity": "beginner|intermediate|advanced"
}`, favoriteCount, strings.Join(genrePalette, ", "))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens:   300,
		Temperature: a.temperature,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}
	return parseProfile(resp.Choices[0].Message.Content)
}

// GenerateReason asks the model for a short human-readable justification for
// recommending a manga.
func (a *OpenAIAdvisor) GenerateReason(ctx context.Context, title string, genres, preferredGenres []string) (string, error) {
	prompt := fmt.Sprintf(`Write a short, appealing reason (at most 80 characters) why this manga could suit the reader:

Manga: %s
Genres: %s
Reader prefers: %s

Example answers:
- "Epic action just the way you like it"
- "Combines romance and adventure perfectly"

Respond with the reason only, no quotes.`,
		title, strings.Join(genres, ", "), strings.Join(preferredGenres, ", "))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens:   60,
		Temperature: 0.8,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	reason := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reason == "" {
		return "", fmt.Errorf("blank reason in completion response")
	}
	return reason, nil
}

// parseProfile decodes the model's JSON answer. Models occasionally wrap the
// object in a markdown fence, so decoding starts at the first brace.
func parseProfile(content string) (*Profile, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion response")
	}

	var profile Profile
	if err := json.Unmarshal([]byte(content[start:end+1]), &profile); err != nil {
		return nil, fmt.Errorf("malformed profile JSON: %w", err)
	}
	return &profile, nil
}
