package biometric

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dmitrijs2005/facevault/internal/common"
)

// Metric selects the embedding distance function.
type Metric string

const (
	Euclidean Metric = "euclidean"
	Cosine    Metric = "cosine"
)

const (
	// MaxDimensions bounds accepted embedding length.
	MaxDimensions = 4096
	// MaxAbsValue bounds every embedding component.
	MaxAbsValue = 1e6
	// DefaultThreshold is the match distance used when none is configured.
	DefaultThreshold = 0.7
)

// ErrNoMatch means no reference clears the threshold.
var ErrNoMatch = fmt.Errorf("%w: no matching face", common.ErrorUnauthorized)

// Reference is a stored embedding tagged with its owner.
type Reference struct {
	ID        string
	Embedding []float64
}

// Policy applies validation and the match rule on top of an Engine.
type Policy struct {
	engine        Engine
	threshold     float64
	metric        Metric
	minConfidence float64
}

func NewPolicy(engine Engine, threshold float64, metric Metric, minConfidence float64) (*Policy, error) {
	if engine == nil {
		return nil, errors.New("biometric engine is required")
	}
	if threshold <= 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("invalid match threshold %v", threshold)
	}
	switch metric {
	case Euclidean, Cosine:
	case "":
		metric = Euclidean
	default:
		return nil, fmt.Errorf("unsupported metric %q", metric)
	}
	return &Policy{engine: engine, threshold: threshold, metric: metric, minConfidence: minConfidence}, nil
}

// DecodeImage decodes base64 image data, accepting an optional data-URL
// prefix ("data:image/png;base64,...").
func DecodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty image", common.ErrorBiometricRejected)
	}
	img, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		img, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: image is not valid base64", common.ErrorBiometricRejected)
		}
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("%w: empty image", common.ErrorBiometricRejected)
	}
	return img, nil
}

// Extract returns the single usable embedding in image. Every engine failure
// or unusable result is common.ErrorBiometricRejected.
func (p *Policy) Extract(ctx context.Context, image []byte) ([]float64, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", common.ErrorBiometricRejected)
	}

	faces, err := p.engine.Detect(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: engine: %v", common.ErrorBiometricRejected, err)
	}

	switch len(faces) {
	case 0:
		return nil, fmt.Errorf("%w: no face detected", common.ErrorBiometricRejected)
	case 1:
	default:
		return nil, fmt.Errorf("%w: multiple faces detected", common.ErrorBiometricRejected)
	}

	face := faces[0]
	if math.IsNaN(face.Confidence) || face.Confidence < p.minConfidence {
		return nil, fmt.Errorf("%w: face confidence too low", common.ErrorBiometricRejected)
	}
	if err := ValidateEmbedding(face.Embedding); err != nil {
		return nil, err
	}
	return face.Embedding, nil
}

// ValidateEmbedding checks length and component bounds.
func ValidateEmbedding(e []float64) error {
	if len(e) == 0 {
		return fmt.Errorf("%w: empty embedding", common.ErrorBiometricRejected)
	}
	if len(e) > MaxDimensions {
		return fmt.Errorf("%w: embedding has %d dimensions", common.ErrorBiometricRejected, len(e))
	}
	for _, v := range e {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: embedding has non-finite values", common.ErrorBiometricRejected)
		}
		if math.Abs(v) > MaxAbsValue {
			return fmt.Errorf("%w: embedding value out of range", common.ErrorBiometricRejected)
		}
	}
	return nil
}

// Distance returns the configured distance; ok is false when the vectors
// cannot be compared (empty, different length, zero norm for cosine).
func (p *Policy) Distance(a, b []float64) (d float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	switch p.metric {
	case Cosine:
		var dot, na, nb float64
		for i := range a {
			dot += a[i] * b[i]
			na += a[i] * a[i]
			nb += b[i] * b[i]
		}
		if na == 0 || nb == 0 {
			return 0, false
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), true
	default:
		var sum float64
		for i := range a {
			diff := a[i] - b[i]
			sum += diff * diff
		}
		return math.Sqrt(sum), true
	}
}

// Matches reports distance <= threshold.
func (p *Policy) Matches(a, b []float64) bool {
	d, ok := p.Distance(a, b)
	return ok && d <= p.threshold
}

// Identify returns the id of the only reference matching candidate.
// No match is ErrNoMatch; more than one is common.ErrorAmbiguousMatch.
func (p *Policy) Identify(candidate []float64, refs []Reference) (string, error) {
	var matched []string
	for _, ref := range refs {
		if p.Matches(candidate, ref.Embedding) {
			matched = append(matched, ref.ID)
		}
	}

	switch len(matched) {
	case 0:
		return "", ErrNoMatch
	case 1:
		return matched[0], nil
	default:
		return "", fmt.Errorf("%w: %d references within threshold", common.ErrorAmbiguousMatch, len(matched))
	}
}

// Compare extracts a face from each image and reports whether they match.
func (p *Policy) Compare(ctx context.Context, imageA, imageB []byte) (bool, error) {
	a, err := p.Extract(ctx, imageA)
	if err != nil {
		return false, err
	}
	b, err := p.Extract(ctx, imageB)
	if err != nil {
		return false, err
	}
	return p.Matches(a, b), nil
}
