package main

import (
	"context"
	"fmt"
	"log"

	"github.com/archivekit/dossier"
	"github.com/archivekit/dossier/helper"
	"github.com/archivekit/dossier/model"
	"github.com/google/uuid"
)

// A handful of mentions as they might come out of document extraction:
// the same people observed across depositions, flight logs and news articles.
type rawMention struct {
	text       string
	sourceType model.SourceType
	context    string
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// nil taxonomy loads the built-in default
	d, err := dossier.NewDossier(dbConfig, nil, model.DefaultClassifyConfig())
	if err != nil {
		log.Fatalf("Failed to create dossier: %v", err)
	}
	defer d.Close()

	ctx := context.Background()

	documents := map[uuid.UUID][]rawMention{
		uuid.New(): {
			{"Sarah Kellen", model.SourceDeposition, "the assistant worked for the household and was on the payroll"},
			{"Ghislaine Maxwell", model.SourceDeposition, "testified about who arranged the trips"},
		},
		uuid.New(): {
			{"Sarah Kellen", model.SourceFlightLog, "passenger aboard the jet, listed on the manifest"},
			{"Ghislaine Maxwell", model.SourceFlightLog, "flew aboard as passenger on the manifest"},
		},
		uuid.New(): {
			{"Sarah Kellen's", model.SourceNewsArticle, "named as a scheduler who worked for the estate"},
		},
	}

	// Record mentions; entities are upserted and variant spellings merge
	var entityIDs []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for documentID, mentions := range documents {
		for _, m := range mentions {
			entity, _, err := d.RecordMention(ctx, m.text, documentID, m.sourceType, m.context)
			if err != nil {
				log.Fatalf("Failed to record mention %q: %v", m.text, err)
			}
			if !seen[entity.ID] {
				seen[entity.ID] = true
				entityIDs = append(entityIDs, entity.ID)
			}
		}
	}
	fmt.Printf("Recorded %d mentions across %d documents, %d entities\n",
		5, len(documents), len(entityIDs))

	// Classify each entity: type cascade, then relationship categories
	for _, entityID := range entityIDs {
		entity, err := d.ClassifyEntity(ctx, entityID)
		if err != nil {
			log.Fatalf("Failed to classify entity: %v", err)
		}

		fmt.Printf("\n%s (%s, confidence %.2f, tier %s, %d connections)\n",
			entity.DisplayName, entity.EntityType, entity.TypeConfidence,
			entity.ClassifierTier, entity.ConnectionCount)
		for _, assignment := range entity.RelationshipCategories {
			flag := ""
			if assignment.Conflict {
				flag = " [conflicting]"
			}
			fmt.Printf("  - %s: %.2f (%s, %d sources)%s\n",
				assignment.CategoryType, assignment.Confidence,
				assignment.ConfidenceBand, len(assignment.EvidenceSources), flag)
		}
	}

	fraction, err := d.CategorizedFraction()
	if err != nil {
		log.Fatalf("Failed to compute categorized fraction: %v", err)
	}
	fmt.Printf("\nCategorized fraction: %.2f\n", fraction)
}
