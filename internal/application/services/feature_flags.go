package services

import (
	"os"
)

type FeatureFlags struct {
	embeddingShadowEnabled bool
}

func NewFeatureFlags() *FeatureFlags {
	shadow := os.Getenv("FEATURE_EMBEDDING_SHADOW") == "true"

	return &FeatureFlags{
		embeddingShadowEnabled: shadow,
	}
}

// EmbeddingShadowEnabled reports whether embedding similarity is computed
// and logged alongside decisions without affecting them
func (f *FeatureFlags) EmbeddingShadowEnabled() bool {
	return f.embeddingShadowEnabled
}
