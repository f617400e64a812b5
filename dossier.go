package dossier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/archivekit/dossier/core/category"
	"github.com/archivekit/dossier/core/conflict"
	"github.com/archivekit/dossier/core/embedding"
	"github.com/archivekit/dossier/core/evidence"
	"github.com/archivekit/dossier/core/typing"
	"github.com/archivekit/dossier/database"
	"github.com/archivekit/dossier/helper"
	"github.com/archivekit/dossier/metrics"
	"github.com/archivekit/dossier/model"
	loadSql "github.com/archivekit/dossier/sql"
	"github.com/archivekit/dossier/taxonomy"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoCategoriesAssigned is returned by ClassifyAll when a non-empty entity
// population produced zero category assignments. An archive of this kind
// always yields matches, so an empty result means the pipeline is broken
// upstream, not that there is nothing to find.
var ErrNoCategoriesAssigned = errors.New("no categories assigned across entire entity population")

// Dossier provides a unified interface to evidence collection, type
// classification, relationship categorization and persistence
type Dossier struct {
	DB       *helper.Database
	Entities *database.EntitiesDBHandler
	Mentions *database.MentionsDBHandler
	Taxonomy *taxonomy.Taxonomy

	collector   *evidence.Collector
	categorizer *category.Categorizer
	ruleTier    *typing.RuleTier
	modelTier   *typing.ModelTier
	nerTier     *typing.NERTier
	cascade     *typing.Cascade
	embedder    embedding.Func
	metrics     *metrics.Metrics
	config      model.ClassifyConfig

	// Per-entity serialization for concurrent classification
	locks sync.Map

	// Logging
	log *slog.Logger
}

// NewDossier creates a new Dossier instance with all handlers initialized.
// A nil taxonomy loads the built-in default. A taxonomy that fails validation
// is a fatal configuration error: no instance is returned.
func NewDossier(dbConfig *helper.DatabaseConfiguration, tax *taxonomy.Taxonomy, config model.ClassifyConfig) (*Dossier, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	if tax == nil {
		var err error
		tax, err = taxonomy.Default()
		if err != nil {
			return nil, helper.NewError("load default taxonomy", err)
		}
	}

	if config.Workers <= 0 {
		config.Workers = model.DefaultClassifyConfig().Workers
	}

	// Initialize database
	db := helper.NewDatabase("dossier", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (entities first, then mentions)
	// force=false to not reload if functions already exist
	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	mentions, err := database.NewMentionsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create mentions handler", err)
	}

	categorizer, err := category.NewCategorizer(tax, logger)
	if err != nil {
		return nil, helper.NewError("create categorizer", err)
	}

	d := &Dossier{
		DB:          db,
		Entities:    entities,
		Mentions:    mentions,
		Taxonomy:    tax,
		collector:   evidence.NewCollector(logger),
		categorizer: categorizer,
		ruleTier:    typing.NewRuleTier(),
		config:      config,
		log:         logger,
	}
	d.rebuildCascade()

	return d, nil
}

// Close closes the database connection
func (d *Dossier) Close() error {
	return d.DB.Close()
}

// UseModelTier enables the language-model classification tier as the first
// tier of the cascade. The key falls back to the ANTHROPIC_API_KEY
// environment variable when empty.
func (d *Dossier) UseModelTier(apiKey string) error {
	tier, err := typing.NewModelTier(apiKey)
	if err != nil {
		return helper.NewError("create model tier", err)
	}
	d.modelTier = tier
	d.rebuildCascade()
	return nil
}

// UseNERTier enables the statistical NER classification tier, attempted after
// the model tier (if any) and before the rule tier
func (d *Dossier) UseNERTier() error {
	tier, err := typing.NewNERTier()
	if err != nil {
		return helper.NewError("create ner tier", err)
	}
	d.nerTier = tier
	d.rebuildCascade()
	return nil
}

// UseNameEmbedder enables name embeddings for similar-name search.
// This uses the all-MiniLM-L6-v2 model (384 dimensions).
func (d *Dossier) UseNameEmbedder() error {
	embedder, err := embedding.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create name embedder", err)
	}
	d.embedder = embedder
	return nil
}

// EnableMetrics registers pipeline metrics on the given registerer.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func (d *Dossier) EnableMetrics(reg prometheus.Registerer) {
	d.metrics = metrics.New(reg)
}

// rebuildCascade assembles the tier order: model, then NER, then rules.
// The rule tier is always last so every gate-passing candidate gets a type.
func (d *Dossier) rebuildCascade() {
	tiers := []typing.Tier{}
	if d.modelTier != nil {
		tiers = append(tiers, d.modelTier)
	}
	if d.nerTier != nil {
		tiers = append(tiers, d.nerTier)
	}
	tiers = append(tiers, d.ruleTier)
	d.cascade = typing.NewCascade(d.log, d.config, tiers...)
}

// RecordMention validates and stores one observed mention, upserting its
// entity. The entity receives a provisional rule-tier type so it is queryable
// immediately; ClassifyEntity refines it with the full cascade and evidence.
// Texts failing the validation gate are rejected with typing.ErrRejected.
func (d *Dossier) RecordMention(ctx context.Context, rawText string, documentID uuid.UUID, sourceType model.SourceType, contextWindow string) (*model.Entity, *model.EntityMention, error) {
	if !sourceType.Valid() {
		return nil, nil, helper.NewError("record mention", fmt.Errorf("unknown source type %q", sourceType))
	}

	if err := typing.Validate(rawText); err != nil {
		if d.metrics != nil {
			d.metrics.MentionsRejected.Inc()
		}
		return nil, nil, err
	}

	mention := model.NewMention(rawText, documentID, sourceType, contextWindow)

	bundle := &model.EvidenceBundle{
		MentionCount: 1,
		SourceCounts: map[model.SourceType]int{sourceType: 1},
		ContextText:  contextWindow,
		Sources:      []model.EvidenceSource{{DocumentID: documentID, SourceType: sourceType}},
	}
	result, err := d.ruleTier.Attempt(ctx, rawText, bundle)
	if err != nil {
		return nil, nil, helper.NewError("provisional classification", err)
	}

	entity := model.NewEntity(rawText, result.Type)
	entity.DisplayName = model.StripPossessive(rawText)
	entity.TypeConfidence = result.Confidence
	entity.ClassifierTier = typing.TierRule
	if err := d.Entities.InsertEntity(entity); err != nil {
		return nil, nil, helper.NewError("upsert entity", err)
	}

	mention.EntityID = entity.ID
	if err := d.Mentions.InsertMention(mention); err != nil {
		return nil, nil, helper.NewError("insert mention", err)
	}

	d.log.Info("Recorded mention",
		slog.String("entity_id", entity.ID.String()),
		slog.String("raw_text", rawText),
		slog.String("source_type", string(sourceType)))

	return entity, mention, nil
}

// ClassifyEntity runs the full pipeline for one stored entity: evidence
// collection, the type cascade, relationship categorization, and persistence.
// Concurrent calls for the same entity id are serialized; the stored
// assignments are always the complete output of a single run.
func (d *Dossier) ClassifyEntity(ctx context.Context, entityID uuid.UUID) (*model.Entity, error) {
	unlock := d.lockEntity(entityID)
	defer unlock()

	entity, err := d.Entities.SelectEntity(entityID)
	if err != nil {
		return nil, helper.NewError("select entity", err)
	}

	mentions, err := d.Mentions.SelectMentionsByEntity(entityID)
	if err != nil {
		return nil, helper.NewError("select mentions", err)
	}

	documentEntities, err := d.Mentions.SelectCoMentionedEntities(entityID)
	if err != nil {
		return nil, helper.NewError("select co-mentioned entities", err)
	}

	bundle, err := d.collector.Collect(entityID, mentions, documentEntities)
	if err != nil {
		return nil, helper.NewError("collect evidence", err)
	}
	bundle.ConnectionCount = len(bundle.CoOccurring)

	result, tier, err := d.cascade.Classify(ctx, entity.DisplayName, bundle)
	if err != nil {
		if errors.Is(err, typing.ErrRejected) && d.metrics != nil {
			d.metrics.MentionsRejected.Inc()
		}
		return nil, helper.NewError("classify type", err)
	}

	err = d.Entities.UpdateEntityClassification(entityID, result.Type, result.Confidence, tier)
	if err != nil {
		return nil, helper.NewError("update classification", err)
	}

	err = d.Entities.UpdateEntityConnectionCount(entityID, bundle.ConnectionCount)
	if err != nil {
		return nil, helper.NewError("update connection count", err)
	}

	assignments := d.categorizer.Categorize(result.Type, bundle, d.neighborCategories)
	err = d.Entities.UpdateEntityCategories(entityID, assignments)
	if err != nil {
		return nil, helper.NewError("update categories", err)
	}

	if d.embedder != nil {
		vector, err := d.embedder(entity.NormalizedName)
		if err != nil {
			return nil, helper.NewError("embed name", err)
		}
		err = d.Entities.UpdateEntityEmbedding(entityID, vector)
		if err != nil {
			return nil, helper.NewError("update embedding", err)
		}
	}

	if d.metrics != nil {
		d.metrics.EntitiesClassified.WithLabelValues(tier, string(result.Type)).Inc()
		for _, assignment := range assignments {
			d.metrics.CategoriesAssigned.WithLabelValues(assignment.CategoryType, string(assignment.ConfidenceBand)).Inc()
			if assignment.Conflict {
				d.metrics.ConflictsFlagged.Inc()
			}
		}
	}

	entity.EntityType = result.Type
	entity.TypeConfidence = result.Confidence
	entity.ClassifierTier = tier
	entity.ConnectionCount = bundle.ConnectionCount
	entity.RelationshipCategories = assignments

	d.log.Info("Classified entity",
		slog.String("entity_id", entityID.String()),
		slog.String("entity_type", string(result.Type)),
		slog.String("tier", tier),
		slog.Int("categories", len(assignments)))

	return entity, nil
}

// neighborCategories looks up the persisted category types of a co-occurring
// entity for the hierarchical scoring strategy
func (d *Dossier) neighborCategories(entityID uuid.UUID) []string {
	neighbor, err := d.Entities.SelectEntity(entityID)
	if err != nil {
		return nil
	}
	types := make([]string, 0, len(neighbor.RelationshipCategories))
	for _, assignment := range neighbor.RelationshipCategories {
		types = append(types, assignment.CategoryType)
	}
	return types
}

// DetectConflicts scans the full entity set for same-name-different-type
// collisions and partial-name matches. The report is advisory; entities are
// never merged or mutated.
func (d *Dossier) DetectConflicts() (*model.ConflictReport, error) {
	entities, err := d.allEntities()
	if err != nil {
		return nil, err
	}

	report, err := conflict.Detect(entities)
	if err != nil {
		return nil, helper.NewError("detect conflicts", err)
	}

	d.log.Info("Generated conflict report",
		slog.Int("entities", report.EntityCount),
		slog.Int("type_conflicts", len(report.TypeConflicts)),
		slog.Int("partial_matches", len(report.PartialMatches)))

	return report, nil
}

// CategorizedFraction returns the fraction of stored entities holding at
// least one category assignment. A value far below the expected baseline for
// this kind of archive indicates a broken pipeline, not a quiet corpus.
func (d *Dossier) CategorizedFraction() (float64, error) {
	total, categorized, err := d.Entities.CountEntityCategorization()
	if err != nil {
		return 0, helper.NewError("count categorization", err)
	}
	if total == 0 {
		return 0, nil
	}

	fraction := float64(categorized) / float64(total)
	if d.metrics != nil {
		d.metrics.CategorizedRatio.Set(fraction)
	}
	return fraction, nil
}

// SimilarEntities finds stored entities whose name embedding is closest to
// the given name. Requires UseNameEmbedder. Results are alias candidates for
// human review only.
func (d *Dossier) SimilarEntities(name string, limit int) ([]*database.EntityMatch, error) {
	if d.embedder == nil {
		return nil, helper.NewError("similar entities", fmt.Errorf("name embedder not set, use UseNameEmbedder() first"))
	}

	vector, err := d.embedder(model.NormalizeName(name))
	if err != nil {
		return nil, helper.NewError("embed name", err)
	}

	return d.Entities.SelectEntitiesBySimilarName(vector, limit)
}

// ChangeIndexType changes the name embedding index type between HNSW and IVFFlat
func (d *Dossier) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return d.Entities.ChangeIndexType(ctx, indexType, params)
}

// lockEntity acquires the per-entity mutex and returns its release func
func (d *Dossier) lockEntity(entityID uuid.UUID) func() {
	value, _ := d.locks.LoadOrStore(entityID, &sync.Mutex{})
	mutex := value.(*sync.Mutex)
	mutex.Lock()
	return mutex.Unlock
}

// allEntities pages through the full entity set
func (d *Dossier) allEntities() ([]*model.Entity, error) {
	const pageSize = 500

	var entities []*model.Entity
	for offset := 0; ; offset += pageSize {
		page, err := d.Entities.SelectAllEntities(pageSize, offset)
		if err != nil {
			return nil, helper.NewError("select all entities", err)
		}
		entities = append(entities, page...)
		if len(page) < pageSize {
			return entities, nil
		}
	}
}
