package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryUploader struct {
	objects map[string][]byte
	err     error
}

func (u *memoryUploader) UploadObject(_ context.Context, key string, data []byte, _ string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[key] = data
	return "https://bucket.example/" + key, nil
}

// imageAPI fails the first failures calls, then returns a URL on the same server.
func imageAPI(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generations":
			if calls.Add(1) <= failures {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"data":[{"url":"` + srv.URL + `/image.png"}]}`))
		case "/image.png":
			_, _ = w.Write([]byte("\x89PNG fake"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testDraft() *RecipeDraft {
	return &RecipeDraft{Name: "Lemon Tart", Description: "Sharp and sweet", Cuisine: "French", Category: "Dessert"}
}

func TestGenerateRecipeImageRetriesAndUploads(t *testing.T) {
	srv, calls := imageAPI(t, 2)
	uploader := &memoryUploader{}
	svc := NewImageService("key", srv.URL+"/generations", uploader, zap.NewNop())
	svc.backoff = 0

	url, err := svc.GenerateRecipeImage(context.Background(), testDraft())
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	assert.True(t, strings.HasPrefix(url, "https://bucket.example/recipe-images/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	require.Len(t, uploader.objects, 1)
}

func TestGenerateRecipeImageFallsBackToProviderURL(t *testing.T) {
	srv, _ := imageAPI(t, 0)
	svc := NewImageService("key", srv.URL+"/generations", &memoryUploader{err: errors.New("access denied")}, zap.NewNop())

	url, err := svc.GenerateRecipeImage(context.Background(), testDraft())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/image.png", url)
}

func TestGenerateRecipeImageGivesUp(t *testing.T) {
	srv, calls := imageAPI(t, 10)
	svc := NewImageService("key", srv.URL+"/generations", nil, zap.NewNop())
	svc.backoff = 0

	_, err := svc.GenerateRecipeImage(context.Background(), testDraft())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, imageAttempts, calls.Load())

	_, err = NewImageService("", srv.URL, nil, zap.NewNop()).GenerateRecipeImage(context.Background(), testDraft())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestUploadImage(t *testing.T) {
	uploader := &memoryUploader{}
	svc := NewImageService("", "", uploader, zap.NewNop())

	url, err := svc.UploadImage(context.Background(), []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	_, err = svc.UploadImage(context.Background(), []byte("text"), "text/plain")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UploadImage(context.Background(), nil, "image/png")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewImageService("", "", nil, zap.NewNop()).UploadImage(context.Background(), []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecipeImagePrompt(t *testing.T) {
	prompt := recipeImagePrompt(testDraft())
	assert.Contains(t, prompt, "lemon tart")
	assert.Contains(t, prompt, "french style")
	assert.Contains(t, prompt, "beautifully plated dessert")

	cocktail := recipeImagePrompt(&RecipeDraft{Name: "Negroni", Kind: "cocktail"})
	assert.Contains(t, cocktail, "cocktail in a chilled glass")

	long := recipeImagePrompt(&RecipeDraft{Name: strings.Repeat("a", 2000)})
	assert.Len(t, long, maxImagePrompt)
}
