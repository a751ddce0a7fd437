// Package detector is the HTTP client for the embedding/face-detection
// sidecar. The sidecar computes the signals the core never computes itself:
// CLIP-style image embeddings and per-face detection output (confidence,
// bounding box, eye landmarks, expression probabilities).
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "http://localhost:8000"

// Client talks to the detector sidecar. It is safe for concurrent use. The
// connection is verified lazily on first use, exactly once, so constructing a
// Client is cheap and concurrent first calls do not race the warm-up.
type Client struct {
	baseURL string
	client  *http.Client

	warmOnce sync.Once
	warmErr  error
}

// NewClient creates a detector client. An empty baseURL falls back to the
// default sidecar address. The timeout bounds every request, including model
// inference; detector latency is variable and a stalled photo must not block
// a whole batch.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// warm checks the sidecar once. Subsequent calls return the cached result.
func (c *Client) warm(ctx context.Context) error {
	c.warmOnce.Do(func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			c.warmErr = fmt.Errorf("failed to create health request: %w", err)
			return
		}
		resp, err := c.client.Do(req)
		if err != nil {
			c.warmErr = fmt.Errorf("detector unavailable at %s: %w", c.baseURL, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			c.warmErr = fmt.Errorf("detector health check failed (status %d)", resp.StatusCode)
		}
	})
	return c.warmErr
}

// embeddingResponse is the sidecar's embedding payload.
type embeddingResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// Face is one detected face.
type Face struct {
	BBox      []float64   `json:"bbox"` // [x1, y1, x2, y2] in pixels
	DetScore  float64     `json:"det_score"`
	HappyProb float64     `json:"happy_prob"`
	LeftEye   [][]float64 `json:"left_eye"`  // 6 [x, y] landmark points
	RightEye  [][]float64 `json:"right_eye"` // 6 [x, y] landmark points
}

// FaceResult is the sidecar's face detection payload for one image.
type FaceResult struct {
	FacesCount int    `json:"faces_count"`
	Faces      []Face `json:"faces"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Model      string `json:"model"`
}

// ComputeEmbedding computes the embedding vector for an image.
func (c *Client) ComputeEmbedding(ctx context.Context, imageData []byte) ([]float32, error) {
	if err := c.warm(ctx); err != nil {
		return nil, err
	}

	body, err := c.postMultipartImage(ctx, "/embed/image", imageData)
	if err != nil {
		return nil, err
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(embResp.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	return embResp.Embedding, nil
}

// DetectFaces runs face detection on an image. An image with no faces returns
// an empty Faces slice, not an error.
func (c *Client) DetectFaces(ctx context.Context, imageData []byte) (*FaceResult, error) {
	if err := c.warm(ctx); err != nil {
		return nil, err
	}

	body, err := c.postMultipartImage(ctx, "/detect/faces", imageData)
	if err != nil {
		return nil, err
	}

	var faceResp FaceResult
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse face response: %w", err)
	}
	return &faceResp, nil
}

// postMultipartImage posts the image as a multipart form to the endpoint,
// with an explicit Content-Type from magic byte detection.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// detectMIMEType detects the MIME type from image data.
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// BMP: 42 4D
	if data[0] == 0x42 && data[1] == 0x4D {
		return "image/bmp"
	}
	return "application/octet-stream"
}
