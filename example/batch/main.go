package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/archivekit/dossier"
	"github.com/archivekit/dossier/helper"
	"github.com/archivekit/dossier/model"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	config := model.ClassifyConfig{
		Workers:             8,
		Tier1Timeout:        15 * time.Second,
		AcceptanceThreshold: 0.6,
		ContinueOnError:     true,
	}

	d, err := dossier.NewDossier(dbConfig, nil, config)
	if err != nil {
		log.Fatalf("Failed to create dossier: %v", err)
	}
	defer d.Close()

	// Pipeline metrics on the process-wide registry
	d.EnableMetrics(prometheus.DefaultRegisterer)

	// Optional tiers: the model tier needs ANTHROPIC_API_KEY, the NER tier
	// downloads an ONNX model on first use. The rule tier always runs last,
	// so the pipeline works without either.
	if err := d.UseModelTier(""); err != nil {
		log.Printf("Model tier disabled: %v", err)
	}
	if err := d.UseNERTier(); err != nil {
		log.Printf("NER tier disabled: %v", err)
	}

	ctx := context.Background()

	// Simulate extraction output: passengers recurring across flight logs,
	// staff in depositions, and an address that shares a name with a firm
	flights := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, flight := range flights {
		record(ctx, d, "Jeffrey Epstein", flight, model.SourceFlightLog, "passenger aboard the jet on the manifest")
		record(ctx, d, "Nadia Marcinkova", flight, model.SourceFlightLog, "listed as passenger, flew aboard for the trip")
	}

	deposition := uuid.New()
	record(ctx, d, "Juan Alessi", deposition, model.SourceDeposition, "the butler worked for the household, hired on the payroll")
	record(ctx, d, "Park Row", deposition, model.SourceDeposition, "the townhouse residence at Park Row, purchased per property records")
	record(ctx, d, "Park Row Associates Ltd", uuid.New(), model.SourceFinancial, "wire transfer from the account, payment per the ledger")

	// Garbage survives extraction sometimes; the gate drops it
	if _, _, err := d.RecordMention(ctx, "SSR SSR TKNEAFHK1", flights[0], model.SourceFlightLog, ""); err != nil {
		fmt.Printf("Rejected: %v\n", err)
	}

	// Classify the full population with bounded concurrency
	result, err := d.ClassifyAll(ctx)
	if err != nil {
		log.Fatalf("Batch classification failed: %v", err)
	}
	fmt.Printf("Batch: %d processed, %d classified, %d rejected, %d failed in %s\n",
		result.Processed, result.Classified, result.Rejected, result.Failed, result.Duration)
	for _, entityError := range result.Errors {
		fmt.Printf("  failed %s: %v\n", entityError.Name, entityError.Err)
	}

	// Advisory conflict report: nothing is merged automatically
	report, err := d.DetectConflicts()
	if err != nil {
		log.Fatalf("Conflict detection failed: %v", err)
	}
	fmt.Printf("\nConflict report over %d entities\n", report.EntityCount)
	for _, typeConflict := range report.TypeConflicts {
		fmt.Printf("  type conflict %q: %v\n", typeConflict.NormalizedName, typeConflict.EntityTypes)
	}
	for _, match := range report.PartialMatches {
		fmt.Printf("  partial match (%s): %q ~ %q\n", match.Severity, match.ShortName, match.LongName)
	}

	fraction, err := d.CategorizedFraction()
	if err != nil {
		log.Fatalf("Failed to compute categorized fraction: %v", err)
	}
	fmt.Printf("\nCategorized fraction: %.2f\n", fraction)
}

func record(ctx context.Context, d *dossier.Dossier, text string, documentID uuid.UUID, sourceType model.SourceType, contextWindow string) {
	if _, _, err := d.RecordMention(ctx, text, documentID, sourceType, contextWindow); err != nil {
		log.Fatalf("Failed to record mention %q: %v", text, err)
	}
}
