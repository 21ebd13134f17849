package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const imageAttempts = 3

// imageGenerationRequest is the body of an OpenAI images request.
type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// ImageService generates recipe photos and stores them in object storage.
type ImageService struct {
	apiKey   string
	apiURL   string
	uploader ObjectUploader
	client   *http.Client
	backoff  time.Duration
	logger   *zap.Logger
}

// NewImageService creates an ImageService. uploader may be nil, in which
// case generated images keep the provider URL and UploadImage fails.
func NewImageService(apiKey, apiURL string, uploader ObjectUploader, logger *zap.Logger) *ImageService {
	return &ImageService{
		apiKey:   apiKey,
		apiURL:   apiURL,
		uploader: uploader,
		client:   &http.Client{Timeout: 60 * time.Second},
		backoff:  time.Second,
		logger:   logger,
	}
}

// GenerateRecipeImage creates a photo for the draft and returns its URL.
func (s *ImageService) GenerateRecipeImage(ctx context.Context, draft *RecipeDraft) (url string, err error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: image generation is not configured", ErrUnavailable)
	}
	start := time.Now()
	defer func() {
		aiRequests.WithLabelValues("openai", "image", outcome(err)).Inc()
		aiRequestDuration.WithLabelValues("openai", "image").Observe(time.Since(start).Seconds())
	}()

	prompt := recipeImagePrompt(draft)
	var imageURL string
	for attempt := 1; attempt <= imageAttempts; attempt++ {
		imageURL, err = s.generate(ctx, prompt)
		if err == nil {
			break
		}
		s.logger.Warn("Image generation attempt failed",
			zap.Int("attempt", attempt),
			zap.String("recipe", draft.Name),
			zap.Error(err))
		if attempt == imageAttempts {
			return "", fmt.Errorf("%w: image generation failed after %d attempts: %v", ErrUnavailable, imageAttempts, err)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}

	stored, err := s.mirror(ctx, imageURL)
	if err != nil {
		s.logger.Warn("Keeping provider image URL", zap.String("url", imageURL), zap.Error(err))
		return imageURL, nil
	}
	return stored, nil
}

func (s *ImageService) generate(ctx context.Context, prompt string) (string, error) {
	data, err := json.Marshal(imageGenerationRequest{
		Model:          "dall-e-3",
		Prompt:         prompt,
		N:              1,
		Size:           "1024x1024",
		Quality:        "standard",
		ResponseFormat: "url",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var result imageGenerationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", fmt.Errorf("no image in API response")
	}
	return result.Data[0].URL, nil
}

// mirror copies a provider image into our bucket.
func (s *ImageService) mirror(ctx context.Context, imageURL string) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("no object storage configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image, status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}
	return s.UploadImage(ctx, data, "image/png")
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// UploadImage stores a user-supplied image and returns its public URL.
func (s *ImageService) UploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("%w: object storage is not configured", ErrUnavailable)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported image type %q", ErrInvalidInput, contentType)
	}
	key := fmt.Sprintf("recipe-images/%s.%s", uuid.New().String(), ext)
	url, err := s.uploader.UploadObject(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}
	s.logger.Info("Image uploaded", zap.String("url", url), zap.Int("bytes", len(data)))
	return url, nil
}

var categoryStyles = map[string]string{
	"dessert":     "beautifully plated dessert",
	"breakfast":   "appetizing breakfast dish",
	"main course": "elegantly presented main dish",
	"lunch":       "elegantly presented main dish",
	"dinner":      "elegantly presented main dish",
	"appetizer":   "attractive appetizer",
	"snack":       "delicious snack",
	"soup":        "steaming bowl of soup",
	"salad":       "fresh and colorful salad",
	"cocktail":    "cocktail in a chilled glass",
	"beverage":    "refreshing beverage",
}

const maxImagePrompt = 900

func recipeImagePrompt(draft *RecipeDraft) string {
	parts := []string{"A professional food photography shot of " + strings.ToLower(draft.Name)}
	if draft.Description != "" {
		parts = append(parts, strings.ToLower(draft.Description))
	}
	if c := strings.ToLower(draft.Cuisine); c != "" && c != "unknown" {
		parts = append(parts, c+" style")
	}
	category := strings.ToLower(draft.Category)
	if draft.Kind == "cocktail" && category == "" {
		category = "cocktail"
	}
	if style, ok := categoryStyles[category]; ok {
		parts = append(parts, style)
	}
	parts = append(parts, "natural lighting, shallow depth of field, restaurant quality presentation")

	prompt := strings.Join(parts, ", ")
	if len(prompt) > maxImagePrompt {
		prompt = prompt[:maxImagePrompt]
	}
	return prompt
}
