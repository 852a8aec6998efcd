// Package artifact persists fitted pipelines as versioned, checksummed JSON.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/happyhackingspace/hamspam/pipeline"
)

const (
	// Format identifies hamspam model artifacts.
	Format = "hamspam-model"
	// Version is the artifact layout this package reads and writes.
	Version = 1
)

var (
	// ErrCorrupt is returned for unreadable artifacts or checksum mismatches.
	ErrCorrupt = errors.New("artifact: corrupt")
	// ErrIncompatible is returned for artifacts of another format or version.
	ErrIncompatible = errors.New("artifact: incompatible")
	// ErrNotFound is returned when a store has no artifact under a name.
	ErrNotFound = errors.New("artifact: not found")
)

// Meta describes how a model was produced.
type Meta struct {
	ID              uuid.UUID      `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	Params          map[string]any `json:"params,omitempty"`
	CVMean          float64        `json:"cv_mean"`
	HoldoutAccuracy float64        `json:"holdout_accuracy"`
	TrainSize       int            `json:"train_size,omitempty"`
	Partial         bool           `json:"partial,omitempty"`
}

// NewMeta returns metadata with a fresh ID and the current time.
func NewMeta() Meta {
	return Meta{ID: uuid.New(), CreatedAt: time.Now().UTC()}
}

type envelope struct {
	Format   string          `json:"format"`
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Meta     Meta            `json:"meta"`
	Model    json.RawMessage `json:"model"`
}

// Encode writes m and meta to w.
func Encode(w io.Writer, m *pipeline.Model, meta Meta) error {
	if m == nil {
		return fmt.Errorf("artifact: nil model")
	}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("artifact: encode model: %w", err)
	}
	env := envelope{
		Format:   Format,
		Version:  Version,
		Checksum: checksum(body),
		Meta:     meta,
		Model:    body,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	return nil
}

// Decode reads an artifact from r and returns the initialised model.
func Decode(r io.Reader) (*pipeline.Model, Meta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("artifact: read: %w", err)
	}
	return Unmarshal(data)
}

// Marshal encodes m and meta to bytes.
func Marshal(m *pipeline.Model, meta Meta) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m, meta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an artifact from bytes.
func Unmarshal(data []byte) (*pipeline.Model, Meta, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, Meta{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if env.Format != Format {
		return nil, Meta{}, fmt.Errorf("%w: format %q, want %q", ErrIncompatible, env.Format, Format)
	}
	if env.Version != Version {
		return nil, Meta{}, fmt.Errorf("%w: version %d, want %d", ErrIncompatible, env.Version, Version)
	}
	if len(env.Model) == 0 || string(env.Model) == "null" {
		return nil, Meta{}, fmt.Errorf("%w: no model", ErrCorrupt)
	}

	// The model bytes may have been re-indented inside the envelope.
	var body bytes.Buffer
	if err := json.Compact(&body, env.Model); err != nil {
		return nil, Meta{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if sum := checksum(body.Bytes()); sum != env.Checksum {
		return nil, Meta{}, fmt.Errorf("%w: checksum %s, want %s", ErrCorrupt, sum, env.Checksum)
	}

	var m pipeline.Model
	if err := json.Unmarshal(body.Bytes(), &m); err != nil {
		return nil, Meta{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := m.Init(); err != nil {
		return nil, Meta{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &m, env.Meta, nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
