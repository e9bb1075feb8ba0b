package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/at-ishikawa/glossa/internal/compose"
	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/at-ishikawa/glossa/internal/gloss"
	"github.com/at-ishikawa/glossa/internal/inference"
	mock_dictionary "github.com/at-ishikawa/glossa/internal/mocks/dictionary"
	mock_inference "github.com/at-ishikawa/glossa/internal/mocks/inference"
	"github.com/at-ishikawa/glossa/internal/sign"
	"github.com/at-ishikawa/glossa/internal/synthesis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type synthesizerFunc func(ctx context.Context, gloss, sentence string) (compose.Artifact, error)

func (f synthesizerFunc) Synthesize(ctx context.Context, gloss, sentence string) (compose.Artifact, error) {
	return f(ctx, gloss, sentence)
}

type recordedRequest struct {
	route string
	code  int
}

type requestRecorder struct {
	requests []recordedRequest
}

func (r *requestRecorder) ObserveHTTPRequest(route string, code int) {
	r.requests = append(r.requests, recordedRequest{route: route, code: code})
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ConvertToGloss(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(client *mock_inference.MockClient)
		wantStatus int
		wantBody   string
	}{
		{
			name: "returns the cleaned gloss",
			body: `{"english_text":"Where is the bathroom?"}`,
			setupMock: func(client *mock_inference.MockClient) {
				client.EXPECT().
					ConvertToGloss(gomock.Any(), inference.ConvertToGlossRequest{Sentence: "Where is the bathroom?", MaxWords: 5}).
					Return(`ASL Gloss: "BATHROOM WHERE?"`, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"gloss":"BATHROOM WHERE"}`,
		},
		{
			name:       "empty text",
			body:       `{"english_text":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"no English text provided"}`,
		},
		{
			name:       "too many words",
			body:       `{"english_text":"one two three four five six"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"input too long, limit it to 5 words"}`,
		},
		{
			name:       "malformed body",
			body:       `{"english_text":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid JSON request body"}`,
		},
		{
			name: "oracle failure",
			body: `{"english_text":"hello"}`,
			setupMock: func(client *mock_inference.MockClient) {
				client.EXPECT().ConvertToGloss(gomock.Any(), gomock.Any()).Return("", errors.New("response error 500: boom"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"failed to convert text to gloss"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock_inference.NewMockClient(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(client)
			}
			repo, err := dictionary.NewMemoryRepository()
			require.NoError(t, err)
			h := NewHandler(gloss.NewConverter(client, 5), nil, repo, "").Routes()

			rec := serve(t, h, http.MethodPost, "/api/convert-to-gloss", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandler_PrepareVideo(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		synthesize   synthesizerFunc
		wantStatus   int
		wantResponse PrepareVideoResponse
	}{
		{
			name: "returns resolved segments",
			body: `{"gloss":"MY NAME ANN","context":"My name is Ann."}`,
			synthesize: func(_ context.Context, g, sentence string) (compose.Artifact, error) {
				assert.Equal(t, "MY NAME ANN", g)
				assert.Equal(t, "My name is Ann.", sentence)
				return compose.Artifact{Segments: []sign.ResolvedSegment{
					{Token: "my", ClipPath: "/clips/my.mp4", Route: sign.RouteSign},
					{Token: "a", ClipPath: "/clips/a.mp4", Route: sign.RouteFingerspell},
				}}, nil
			},
			wantStatus: http.StatusOK,
			wantResponse: PrepareVideoResponse{
				VideoReady: true,
				Segments: []SegmentResponse{
					{Token: "my", Route: sign.RouteSign},
					{Token: "a", Route: sign.RouteFingerspell},
				},
			},
		},
		{
			name: "context is optional",
			body: `{"gloss":"DOG"}`,
			synthesize: func(_ context.Context, _, sentence string) (compose.Artifact, error) {
				assert.Empty(t, sentence)
				return compose.Artifact{Segments: []sign.ResolvedSegment{{Token: "dog", Route: sign.RouteSign}}}, nil
			},
			wantStatus: http.StatusOK,
			wantResponse: PrepareVideoResponse{
				VideoReady: true,
				Segments:   []SegmentResponse{{Token: "dog", Route: sign.RouteSign}},
			},
		},
		{
			name: "empty gloss is a client error",
			body: `{"gloss":"  "}`,
			synthesize: func(context.Context, string, string) (compose.Artifact, error) {
				return compose.Artifact{}, synthesis.ErrEmptyGloss
			},
			wantStatus: http.StatusBadRequest,
			wantResponse: PrepareVideoResponse{
				Segments: []SegmentResponse{},
				Error:    "no gloss provided",
			},
		},
		{
			name: "nothing resolvable is a client error",
			body: `{"gloss":"XYZZY"}`,
			synthesize: func(context.Context, string, string) (compose.Artifact, error) {
				return compose.Artifact{}, fmt.Errorf("%w: %w", synthesis.ErrInvalidInput, compose.ErrNoClips)
			},
			wantStatus: http.StatusBadRequest,
			wantResponse: PrepareVideoResponse{
				Segments: []SegmentResponse{},
				Error:    "no signs could be resolved for the gloss",
			},
		},
		{
			name: "composition failure is a server error",
			body: `{"gloss":"DOG"}`,
			synthesize: func(context.Context, string, string) (compose.Artifact, error) {
				return compose.Artifact{}, fmt.Errorf("composer.Compose() > %w", compose.ErrCompositionFailed)
			},
			wantStatus: http.StatusInternalServerError,
			wantResponse: PrepareVideoResponse{
				Segments: []SegmentResponse{},
				Error:    "failed to prepare video",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := dictionary.NewMemoryRepository()
			require.NoError(t, err)
			h := NewHandler(nil, tt.synthesize, repo, "").Routes()

			rec := serve(t, h, http.MethodPost, "/api/prepare-video", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var got PrepareVideoResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantResponse, got)
		})
	}
}

func TestHandler_Words(t *testing.T) {
	repo, err := dictionary.NewMemoryRepository(
		dictionary.WordEntry{Words: []string{"hello", "hi"}, Definitions: []dictionary.SenseDefinition{{Meaning: "greeting", VideoURL: "hello.mp4"}}},
		dictionary.WordEntry{Words: []string{"dog"}, Definitions: []dictionary.SenseDefinition{{Meaning: "animal", VideoURL: "dog.mp4"}}},
	)
	require.NoError(t, err)
	h := NewHandler(nil, nil, repo, "").Routes()

	rec := serve(t, h, http.MethodGet, "/api/words", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"words":["dog","hello","hi"]}`, rec.Body.String())

	rec = serve(t, h, http.MethodPost, "/api/admin/words",
		`{"words":["Hi, Hey"],"definitions":[{"meaning":"informal greeting","video_url":"https://example.com/hey.mp4"}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"words":["hi","hey"],"definitions":[{"meaning":"informal greeting","video_url":"https://example.com/hey.mp4"}]}`, rec.Body.String())

	// the old entry sharing "hi" is replaced as a whole
	rec = serve(t, h, http.MethodGet, "/api/words", "")
	assert.JSONEq(t, `{"words":["dog","hey","hi"]}`, rec.Body.String())
}

func TestHandler_Words_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setupMock  func(repo *mock_dictionary.MockRepository)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "list store failure",
			method: http.MethodGet,
			path:   "/api/words",
			setupMock: func(repo *mock_dictionary.MockRepository) {
				repo.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("connection lost"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"failed to list words"}`,
		},
		{
			name:       "entry without forms",
			method:     http.MethodPost,
			path:       "/api/admin/words",
			body:       `{"words":[" , "],"definitions":[]}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   fmt.Sprintf(`{"error":%q}`, dictionary.ErrNoSurfaceForms.Error()),
		},
		{
			name:   "replace store failure",
			method: http.MethodPost,
			path:   "/api/admin/words",
			body:   `{"words":["dog"],"definitions":[]}`,
			setupMock: func(repo *mock_dictionary.MockRepository) {
				repo.EXPECT().Replace(gomock.Any(), dictionary.WordEntry{Words: []string{"dog"}, Definitions: []dictionary.SenseDefinition{}}).
					Return(errors.New("deadlock"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"failed to save word entry"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mock_dictionary.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}
			h := NewHandler(nil, nil, repo, "").Routes()

			rec := serve(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandler_Video(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "merged.mp4")
	repo, err := dictionary.NewMemoryRepository()
	require.NoError(t, err)
	h := NewHandler(nil, nil, repo, videoPath).Routes()

	rec := serve(t, h, http.MethodGet, "/video", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(videoPath, []byte("video-bytes"), 0o644))
	rec = serve(t, h, http.MethodGet, "/video", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "video-bytes", rec.Body.String())
}

func TestHandler_Middleware(t *testing.T) {
	repo, err := dictionary.NewMemoryRepository()
	require.NoError(t, err)
	observer := &requestRecorder{}
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	h := NewHandler(nil, nil, repo, "",
		WithMetrics(metricsHandler, observer),
		WithAllowedOrigins([]string{"http://localhost:3000"}),
	).Routes()

	t.Run("assigns a request id", func(t *testing.T) {
		rec := serve(t, h, http.MethodGet, "/api/words", "")
		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	})

	t.Run("keeps the caller's request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/words", nil)
		req.Header.Set(requestIDHeader, "req-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "req-1", rec.Header().Get(requestIDHeader))
	})

	t.Run("serves metrics", func(t *testing.T) {
		rec := serve(t, h, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "# metrics", rec.Body.String())
	})

	t.Run("allowed origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/prepare-video", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origins get no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/words", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown paths", func(t *testing.T) {
		rec := serve(t, h, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	assert.Equal(t, []recordedRequest{
		{route: "GET /api/words", code: http.StatusOK},
		{route: "GET /api/words", code: http.StatusOK},
		{route: "GET /metrics", code: http.StatusOK},
		{route: "GET /api/words", code: http.StatusOK},
		{route: "unmatched", code: http.StatusNotFound},
	}, observer.requests)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	ctx := context.WithValue(context.Background(), requestIDKey{}, "abc")
	assert.Equal(t, "abc", RequestID(ctx))
}
