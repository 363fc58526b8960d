// Package artifact loads the classifier and its feature manifest once per process.
package artifact

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/model/forest"
)

const (
	DefaultModelKey    = "rf_parkinsons_v1.json"
	DefaultManifestKey = "selected_features.json"
)

// Loader reads both artifacts on the first Load call and serves the same
// objects, or the same error, to every later caller.
type Loader struct {
	storage     ports.ObjectStorage
	modelKey    string
	manifestKey string

	once       sync.Once
	classifier ports.Classifier
	manifest   domain.FeatureManifest
	version    string
	err        error
}

func NewLoader(storage ports.ObjectStorage, modelKey, manifestKey string) *Loader {
	if modelKey == "" {
		modelKey = DefaultModelKey
	}
	if manifestKey == "" {
		manifestKey = DefaultManifestKey
	}
	return &Loader{
		storage:     storage,
		modelKey:    modelKey,
		manifestKey: manifestKey,
	}
}

func (l *Loader) Load(ctx context.Context) (ports.Classifier, domain.FeatureManifest, error) {
	l.once.Do(func() {
		l.err = l.load(ctx)
		if l.err != nil {
			slog.Error("artifact_load_failed", "model", l.modelKey, "manifest", l.manifestKey, "error", l.err)
			return
		}
		slog.Info("artifact_loaded",
			"model", l.modelKey,
			"manifest", l.manifestKey,
			"features", len(l.manifest),
			"model_version", l.version,
		)
	})
	if l.err != nil {
		return nil, nil, l.err
	}
	return l.classifier, l.manifest, nil
}

// ModelVersion is the short SHA-256 of the model file, empty until a successful Load.
func (l *Loader) ModelVersion() string {
	return l.version
}

func (l *Loader) load(ctx context.Context) error {
	rawModel, err := l.read(ctx, l.modelKey)
	if err != nil {
		return domain.WrapError(domain.ErrArtifactLoad, "read model", err)
	}
	model, err := forest.Decode(bytes.NewReader(rawModel))
	if err != nil {
		return domain.WrapError(domain.ErrArtifactLoad, "decode model", err)
	}

	rawManifest, err := l.read(ctx, l.manifestKey)
	if err != nil {
		return domain.WrapError(domain.ErrArtifactLoad, "read manifest", err)
	}
	manifest, err := DecodeManifest(rawManifest)
	if err != nil {
		return domain.WrapError(domain.ErrArtifactLoad, "decode manifest", err)
	}
	if n := model.NumFeatures(); n > 0 && n != len(manifest) {
		return domain.WrapError(
			domain.ErrArtifactLoad,
			"check artifacts",
			fmt.Errorf("model expects %d features, manifest lists %d", n, len(manifest)),
		)
	}

	sum := sha256.Sum256(rawModel)
	l.classifier = model
	l.manifest = manifest
	l.version = hex.EncodeToString(sum[:])[:12]
	return nil
}

func (l *Loader) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := l.storage.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, nil
}

// DecodeManifest parses a flat JSON array of unique, non-empty feature names.
func DecodeManifest(raw []byte) (domain.FeatureManifest, error) {
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("manifest must be a JSON array of strings: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.New("manifest lists no features")
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, errors.New("manifest contains an empty feature name")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("manifest lists %q twice", name)
		}
		seen[name] = struct{}{}
	}
	return domain.FeatureManifest(names), nil
}
