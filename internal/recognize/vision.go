package recognize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultVisionEndpoint is the Cloud Vision annotate endpoint.
const DefaultVisionEndpoint = "https://vision.googleapis.com/v1/images:annotate"

const visionTimeout = 10 * time.Second

// GoogleVision recognizes answers with Google Cloud Vision TEXT_DETECTION,
// authenticated by API key.
type GoogleVision struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// VisionOption configures a GoogleVision backend.
type VisionOption func(*GoogleVision)

// WithVisionEndpoint overrides the annotate endpoint.
func WithVisionEndpoint(endpoint string) VisionOption {
	return func(g *GoogleVision) { g.endpoint = endpoint }
}

// WithVisionHTTPClient sets the HTTP client used for requests.
func WithVisionHTTPClient(c *http.Client) VisionOption {
	return func(g *GoogleVision) { g.client = c }
}

// NewGoogleVision creates a Cloud Vision backend.
func NewGoogleVision(apiKey string, opts ...VisionOption) *GoogleVision {
	g := &GoogleVision{
		apiKey:   apiKey,
		endpoint: DefaultVisionEndpoint,
		client:   &http.Client{Timeout: visionTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GoogleVision) Name() string    { return "google-vision" }
func (g *GoogleVision) Available() bool { return g.apiKey != "" }

type visionRequest struct {
	Requests []visionImageRequest `json:"requests"`
}

type visionImageRequest struct {
	Image struct {
		Content string `json:"content"`
	} `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

func (g *GoogleVision) Recognize(ctx context.Context, img Image) (int, bool) {
	if !g.Available() || img.Empty() {
		return 0, false
	}
	text, err := g.annotate(ctx, img)
	if err != nil {
		slog.WarnContext(ctx, "google vision request failed", "error", err)
		return 0, false
	}
	return ExtractInteger(text)
}

// annotate returns the full detected text of the first annotation.
func (g *GoogleVision) annotate(ctx context.Context, img Image) (string, error) {
	var ir visionImageRequest
	ir.Image.Content = base64.StdEncoding.EncodeToString(img.Data)
	ir.Features = []visionFeature{{Type: "TEXT_DETECTION"}}

	body, err := json.Marshal(visionRequest{Requests: []visionImageRequest{ir}})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	u, err := url.Parse(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision API returned %s", resp.Status)
	}

	var out visionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Responses) == 0 {
		return "", nil
	}
	first := out.Responses[0]
	if first.Error != nil {
		return "", fmt.Errorf("vision API error %d: %s", first.Error.Code, first.Error.Message)
	}
	if len(first.TextAnnotations) == 0 {
		return "", nil
	}
	return first.TextAnnotations[0].Description, nil
}
