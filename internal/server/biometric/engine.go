// Package biometric turns captured images into face embeddings via an
// external engine and decides whether embeddings match.
package biometric

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/facevault/internal/netx"
)

// Face is one detection reported by the engine.
type Face struct {
	Embedding  []float64 `json:"embedding"`
	Confidence float64   `json:"confidence"`
}

// Engine detects faces in an image and returns their embeddings. The engine
// is untrusted: its output is validated by Policy before use.
type Engine interface {
	Detect(ctx context.Context, image []byte) ([]Face, error)
}

const maxEngineResponse = 4 << 20

type detectRequest struct {
	Image string `json:"image_base64"`
}

type detectResponse struct {
	Faces []Face `json:"faces"`
}

// HTTPEngine calls an embedding service over HTTP:
//
//	POST {baseURL}/v1/faces  {"image_base64": "..."}
//	200 {"faces": [{"embedding": [...], "confidence": 0.98}]}
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

func NewHTTPEngine(baseURL string, timeout time.Duration) *HTTPEngine {
	return &HTTPEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *HTTPEngine) Detect(ctx context.Context, image []byte) ([]Face, error) {
	var out detectResponse
	err := netx.PostJSON(ctx, e.client, e.baseURL+"/v1/faces",
		detectRequest{Image: base64.StdEncoding.EncodeToString(image)}, &out, maxEngineResponse)
	if err != nil {
		return nil, fmt.Errorf("engine request: %w", err)
	}
	return out.Faces, nil
}

// Ping checks the engine is reachable; any non-5xx response counts.
func (e *HTTPEngine) Ping(ctx context.Context) error {
	if _, err := netx.Probe(ctx, e.client, e.baseURL+"/healthz"); err != nil {
		return fmt.Errorf("engine health: %w", err)
	}
	return nil
}
