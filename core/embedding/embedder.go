// Package embedding provides name embeddings used for similar-name entity
// search (alias candidate detection) via pgvector.
package embedding

import (
	"fmt"

	"github.com/archivekit/dossier/helper"
	"github.com/knights-analytics/hugot"
)

// Func generates an embedding vector for a piece of text
type Func func(text string) ([]float32, error)

// DefaultEmbedder creates an embedder using the all-MiniLM-L6-v2 sentence
// transformer (384 dimensions)
func DefaultEmbedder() (Func, error) {
	modelName := "sentence-transformers/all-MiniLM-L6-v2"
	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "name-embedder-pipeline",
	}
	embeddingPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := embeddingPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		return result.Embeddings[0], nil
	}, nil
}
