package biometric

import (
	"context"
	"errors"
)

// fakeEngine maps image bytes to canned detections.
type fakeEngine struct {
	faces map[string][]Face
	err   error
}

func (f *fakeEngine) Detect(_ context.Context, image []byte) ([]Face, error) {
	if f.err != nil {
		return nil, f.err
	}
	faces, ok := f.faces[string(image)]
	if !ok {
		return nil, errors.New("unknown image")
	}
	return faces, nil
}

func oneFace(e ...float64) []Face {
	return []Face{{Embedding: e, Confidence: 0.99}}
}
