package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/tarjim/tarjim/internal/document"
)

// EnginePaddle is the registry name of the primary high-accuracy engine,
// served by an external PaddleOCR inference process.
const EnginePaddle = "paddle"

// RemoteBackend talks to an OCR inference server over HTTP. The server
// owns the heavy model; this client only ships images and parses regions.
type RemoteBackend struct {
	name     string
	endpoint string
	language string
	client   *http.Client
}

// NewRemoteBackend creates a client for an HTTP OCR inference endpoint.
func NewRemoteBackend(name, endpoint, language string) *RemoteBackend {
	return &RemoteBackend{
		name:     name,
		endpoint: endpoint,
		language: language,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (r *RemoteBackend) Name() string { return r.name }

type remoteRequest struct {
	Image    string `json:"image"` // base64-encoded PNG
	Language string `json:"language,omitempty"`
}

type remoteRegion struct {
	Text       string     `json:"text"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"` // x1, y1, x2, y2
}

type remoteResponse struct {
	Results []remoteRegion `json:"results"`
}

// Recognize posts the image to the inference server and converts the
// returned regions.
func (r *RemoteBackend) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &Error{Engine: r.name, Message: "encode image", Err: err}
	}

	body, err := json.Marshal(remoteRequest{
		Image:    base64.StdEncoding.EncodeToString(buf.Bytes()),
		Language: r.language,
	})
	if err != nil {
		return nil, &Error{Engine: r.name, Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Engine: r.name, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &Error{Engine: r.name, Message: "engine unavailable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Engine: r.name, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Engine: r.name, Message: "decode response", Err: err}
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, reg := range parsed.Results {
		if reg.Text == "" {
			continue
		}
		results = append(results, Result{
			Text:       reg.Text,
			Confidence: reg.Confidence,
			BBox: document.BBox{
				X1: reg.BBox[0], Y1: reg.BBox[1],
				X2: reg.BBox[2], Y2: reg.BBox[3],
			},
		})
	}
	return results, nil
}
