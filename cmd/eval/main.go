// Command eval runs the batch evaluation over the JSONL conversation
// dataset: schema-filtered extraction (in-schema or out-of-schema) and the
// maintenance decisions for the equal/negate/different follow-up questions.
// Per-user diagnostics are appended to the output file as the run progresses,
// so a crashed run keeps its finished users.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/johanneskirmayr/CarMem/internal/config"
	"github.com/johanneskirmayr/CarMem/internal/dataset"
	"github.com/johanneskirmayr/CarMem/internal/domain"
	"github.com/johanneskirmayr/CarMem/internal/embedding"
	"github.com/johanneskirmayr/CarMem/internal/eval"
	"github.com/johanneskirmayr/CarMem/internal/llm"
	"github.com/johanneskirmayr/CarMem/internal/service"
	"github.com/johanneskirmayr/CarMem/internal/store"
	"github.com/johanneskirmayr/CarMem/internal/taxonomy"
)

// Experiment types.
const (
	experimentInSchema    = "in_schema"
	experimentOutOfSchema = "out_of_schema"
)

// Stages.
const (
	stageExtraction  = "extraction"
	stageMaintenance = "maintenance"
	stageBoth        = "both"
)

// Config is the YAML experiment configuration.
type Config struct {
	DatasetPath string `yaml:"dataset_path"`
	OutputPath  string `yaml:"output_path"`
	ScoresPath  string `yaml:"scores_path"`
	// Experiment selects the schema narrowing: in_schema removes the
	// ground-truth attribute from the examples, out_of_schema removes the
	// ground-truth subcategory branch.
	Experiment string `yaml:"experiment"`
	Stage      string `yaml:"stage"`
	// Perform lets maintenance decisions on the follow-up questions mutate
	// the store. The seeding insert after extraction always performs.
	Perform     bool `yaml:"perform"`
	MaxUsers    int  `yaml:"max_users"`
	SongIsGenre bool `yaml:"song_is_genre"`
	MergeOnPass bool `yaml:"merge_on_pass"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{
		Experiment:  experimentInSchema,
		Stage:       stageBoth,
		MaxUsers:    50,
		SongIsGenre: true,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DatasetPath == "" {
		return nil, fmt.Errorf("dataset_path is required")
	}
	switch cfg.Experiment {
	case experimentInSchema, experimentOutOfSchema:
	default:
		return nil, fmt.Errorf("unknown experiment %q (in_schema or out_of_schema)", cfg.Experiment)
	}
	switch cfg.Stage {
	case stageExtraction, stageMaintenance, stageBoth:
	default:
		return nil, fmt.Errorf("unknown stage %q (extraction, maintenance or both)", cfg.Stage)
	}
	return cfg, nil
}

// conversationReport is the per-conversation diagnostic appended to the
// output file.
type conversationReport struct {
	UserPreference string `json:"user_preference"`
	ValidAtTry     int    `json:"valid_at_try"`
	ExtractedCount int    `json:"extracted_count"`
	Error          string `json:"error,omitempty"`

	Maintenance   map[string]*service.DecisionOutcome `json:"maintenance,omitempty"`
	NegateSkipped bool                                `json:"negate_skipped,omitempty"`
}

type userReport struct {
	UserName      string                `json:"user_name"`
	Conversations []*conversationReport `json:"conversations"`
}

type runner struct {
	cfg         *Config
	logger      *zap.Logger
	extraction  *service.ExtractionService
	maintenance *service.MaintenanceService

	extractionScorer  *eval.ExtractionScorer
	maintenanceScorer *eval.MaintenanceScorer
}

func main() {
	configPath := flag.String("config", "eval.yaml", "path to the experiment config")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load env config", zap.Error(err))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("failed to load experiment config", zap.Error(err))
	}

	llmClient, err := llm.NewClient(config.LLMProvider(), config.LLMAPIKey(), config.LLMModel())
	if err != nil {
		logger.Fatal("LLM client initialization failed", zap.Error(err))
	}
	embeddingClient, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey(), config.EmbeddingModel())
	if err != nil {
		logger.Fatal("embedding client initialization failed", zap.Error(err))
	}

	ctx := context.Background()

	var preferenceStore domain.PreferenceStore
	if cfg.Stage != stageExtraction {
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required for the maintenance stage")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		preferenceStore = store.NewPreferenceStore(pool)
	}

	users, err := dataset.ReadUsers(cfg.DatasetPath)
	if err != nil {
		logger.Fatal("failed to read dataset", zap.Error(err))
	}
	if cfg.MaxUsers > 0 && len(users) > cfg.MaxUsers {
		users = users[:cfg.MaxUsers]
	}

	r := &runner{
		cfg:               cfg,
		logger:            logger,
		extraction:        service.NewExtractionService(llmClient, logger),
		extractionScorer:  eval.NewExtractionScorer(cfg.SongIsGenre),
		maintenanceScorer: eval.NewMaintenanceScorer(),
	}
	if preferenceStore != nil {
		r.maintenance = service.NewMaintenanceService(preferenceStore, llmClient, embeddingClient, logger, cfg.MergeOnPass)
	}

	for i := range users {
		report, err := r.evalUser(ctx, &users[i])
		if err != nil {
			// Batch continues past per-user failures.
			logger.Error("user evaluation failed", zap.String("user_uuid", users[i].UserUUID), zap.Error(err))
			continue
		}
		if cfg.OutputPath != "" {
			if err := dataset.AppendLine(cfg.OutputPath, report); err != nil {
				logger.Error("failed to write user report", zap.Error(err))
			}
		}
		logger.Info("user evaluated",
			zap.String("user", report.UserName),
			zap.Int("conversations", len(report.Conversations)))
	}

	r.writeScores()
}

func (r *runner) evalUser(ctx context.Context, record *dataset.UserRecord) (*userReport, error) {
	username, err := record.Username()
	if err != nil {
		return nil, err
	}
	report := &userReport{UserName: username}

	for i := range record.Data {
		conv := &record.Data[i]
		cr := r.evalConversation(ctx, username, conv)
		report.Conversations = append(report.Conversations, cr)
	}
	return report, nil
}

func (r *runner) evalConversation(ctx context.Context, username string, conv *dataset.Conversation) *conversationReport {
	cr := &conversationReport{UserPreference: conv.UserPreference}

	truth, err := dataset.ParsePreference(conv.UserPreference)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}

	schema, err := r.narrowSchema(truth)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}

	conversation := dataset.Stringify(conv.ExtractionConversation, username)
	result, err := r.extraction.Extract(ctx, username, conversation, schema)
	if err != nil {
		// Transport failures are logged per conversation; the batch goes on.
		cr.Error = err.Error()
		return cr
	}
	cr.ValidAtTry = result.ValidAtTry
	cr.ExtractedCount = len(result.Preferences)

	if err := r.extractionScorer.Add(truth, result.Preferences, result.ValidAtTry); err != nil {
		cr.Error = err.Error()
		return cr
	}

	if r.cfg.Stage == stageExtraction || r.maintenance == nil || conv.MaintenanceQuestions == nil {
		return cr
	}
	r.evalMaintenance(ctx, username, truth, conv.MaintenanceQuestions, schema, cr)
	return cr
}

func (r *runner) narrowSchema(truth dataset.GroundTruth) (*taxonomy.Schema, error) {
	base := taxonomy.Default()
	if r.cfg.Experiment == experimentOutOfSchema {
		return base.WithoutSubcategory(truth.MainCategory, truth.Subcategory)
	}
	return base.WithoutValue(truth.DetailCategory, truth.Attribute)
}

// evalMaintenance seeds the user's bucket with the ground-truth preference,
// then probes the decision engine with the three follow-up questions.
func (r *runner) evalMaintenance(ctx context.Context, username string, truth dataset.GroundTruth, questions *dataset.MaintenanceQuestions, schema *taxonomy.Schema, cr *conversationReport) {
	policy, err := taxonomy.CardinalityOf(truth.DetailCategory)
	if err != nil {
		cr.Error = err.Error()
		return
	}

	seed := &domain.Preference{
		UserName:       username,
		MainCategory:   truth.MainCategory,
		Subcategory:    truth.Subcategory,
		DetailCategory: truth.DetailCategory,
		Attribute:      truth.Attribute,
		Text:           questions.QuestionEqualPreference,
	}
	if _, err := r.maintenance.Process(ctx, seed, true); err != nil {
		cr.Error = err.Error()
		return
	}

	cr.Maintenance = map[string]*service.DecisionOutcome{}

	// Equal and different incoming preferences are known in advance; the
	// negated one has to be extracted, since a preference can be negated in
	// many ways.
	equal := *seed
	equal.PK = ""
	equal.Vector = nil
	r.runQuestion(ctx, eval.QuestionEqual, policy, &equal, cr)

	different := *seed
	different.PK = ""
	different.Vector = nil
	different.Attribute = questions.DifferentAttribute
	different.Text = questions.QuestionDifferentPreference
	r.runQuestion(ctx, eval.QuestionDifferent, policy, &different, cr)

	negateConv := fmt.Sprintf("user %s: %s", username, questions.QuestionNegatePreference)
	negateResult, err := r.extraction.Extract(ctx, username, negateConv, schema)
	if err != nil || len(negateResult.Preferences) != 1 {
		cr.NegateSkipped = true
		r.maintenanceScorer.SkipNegate()
		return
	}
	negate := negateResult.Preferences[0]
	r.runQuestion(ctx, eval.QuestionNegate, policy, &negate, cr)
}

func (r *runner) runQuestion(ctx context.Context, q eval.QuestionType, policy domain.Cardinality, incoming *domain.Preference, cr *conversationReport) {
	outcome, err := r.maintenance.Process(ctx, incoming, r.cfg.Perform)
	if err != nil {
		cr.Error = err.Error()
		return
	}
	cr.Maintenance[string(q)] = outcome
	if err := r.maintenanceScorer.Add(policy, q, outcome.Action, outcome.ExistingCount, outcome.ProtocolViolation); err != nil {
		cr.Error = err.Error()
	}
}

func (r *runner) writeScores() {
	scores := map[string]any{
		"extraction": r.extractionScorer.Scores(),
	}
	if r.maintenance != nil {
		scores["maintenance"] = r.maintenanceScorer.Scores()
	}

	data, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		r.logger.Error("failed to encode scores", zap.Error(err))
		return
	}
	if r.cfg.ScoresPath != "" {
		if err := os.WriteFile(r.cfg.ScoresPath, data, 0o644); err != nil {
			r.logger.Error("failed to write scores", zap.Error(err))
		}
	}
	fmt.Println(string(data))
}
