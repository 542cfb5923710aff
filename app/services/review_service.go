package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hsmarket/storefront/app/models"
	"github.com/hsmarket/storefront/pkg/http"
	"github.com/hsmarket/storefront/pkg/logger"
	"github.com/hsmarket/storefront/pkg/metrics"
)

const reviewPrompt = "Generate 3 short, punchy, and enthusiastic product reviews for 'AirPods 4th Gen Replicas' " +
	"in Moroccan Arabic (Darija) mixed with some French/English tech terms if needed. " +
	"The reviews should highlight sound quality, battery life, and the free protective case bonus. " +
	"Use Moroccan names."

const reviewCount = 3

// ReviewConfig points the generator at a Gemini deployment. An empty APIKey
// disables generation.
type ReviewConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

type ReviewService struct {
	cfg ReviewConfig
}

func NewReviewService(cfg ReviewConfig) *ReviewService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &ReviewService{cfg: cfg}
}

type schema struct {
	Type       string            `json:"type"`
	Items      *schema           `json:"items,omitempty"`
	Properties map[string]schema `json:"properties,omitempty"`
	Required   []string          `json:"required,omitempty"`
}

type generateRequest struct {
	Contents []struct {
		Parts []textPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"responseMimeType"`
		ResponseSchema   schema `json:"responseSchema"`
	} `json:"generationConfig"`
}

type textPart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []textPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func newGenerateRequest() generateRequest {
	var req generateRequest
	req.Contents = []struct {
		Parts []textPart `json:"parts"`
	}{{Parts: []textPart{{Text: reviewPrompt}}}}
	req.GenerationConfig.ResponseMimeType = "application/json"
	req.GenerationConfig.ResponseSchema = schema{
		Type: "ARRAY",
		Items: &schema{
			Type: "OBJECT",
			Properties: map[string]schema{
				"author": {Type: "STRING"},
				"rating": {Type: "NUMBER"},
				"text":   {Type: "STRING"},
			},
			Required: []string{"author", "rating", "text"},
		},
	}
	return req
}

// GenerateReviews asks the model for three Darija reviews. It never fails:
// any problem yields the fallback reviews.
func (s *ReviewService) GenerateReviews(ctx context.Context) []models.Review {
	reviews, err := s.generate(ctx)
	if err != nil {
		logger.WithCtx(ctx).Warn("review generation failed, serving fallback", "error", err)
		metrics.ReviewsGenerated.WithLabelValues("fallback").Inc()
		return models.FallbackReviews()
	}
	metrics.ReviewsGenerated.WithLabelValues("generated").Inc()
	return reviews
}

func (s *ReviewService) generate(ctx context.Context) ([]models.Review, error) {
	if s.cfg.APIKey == "" {
		return nil, errors.New("no API key configured")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", s.cfg.Endpoint, url.PathEscape(s.cfg.Model))
	resp, err := http.Post(endpoint).
		WithContext(ctx).
		Header("x-goog-api-key", s.cfg.APIKey).
		Body(newGenerateRequest()).
		Timeout(s.cfg.Timeout).
		Retry(1, 0).
		Send()
	if err != nil {
		return nil, err
	}
	if err := resp.Throw(); err != nil {
		return nil, err
	}

	var out generateResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("empty model response")
	}

	return parseReviews(out.Candidates[0].Content.Parts[0].Text)
}

func parseReviews(text string) ([]models.Review, error) {
	var reviews []models.Review
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &reviews); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	if len(reviews) < reviewCount {
		return nil, fmt.Errorf("got %d reviews, want %d", len(reviews), reviewCount)
	}
	reviews = reviews[:reviewCount]
	for i, r := range reviews {
		if strings.TrimSpace(r.Author) == "" || strings.TrimSpace(r.Text) == "" || r.Rating < 1 || r.Rating > 5 {
			return nil, fmt.Errorf("review %d is malformed", i)
		}
	}
	return reviews, nil
}
