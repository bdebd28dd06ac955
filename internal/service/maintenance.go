package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johanneskirmayr/CarMem/internal/domain"
	"github.com/johanneskirmayr/CarMem/internal/taxonomy"
)

// DecisionOutcome reports one maintenance decision and what was done about it.
type DecisionOutcome struct {
	Action domain.ActionName `json:"action"`
	Label  int               `json:"label"`
	// TargetPK is the existing record the action referred to (pass/update),
	// or the newly written record's key (insert/append), when any.
	TargetPK string `json:"target_pk,omitempty"`
	// Performed is true when the store was mutated.
	Performed bool `json:"performed"`
	// ProtocolViolation is true when the classifier failed to produce a
	// usable tool call and the engine fell back to pass.
	ProtocolViolation bool `json:"protocol_violation"`
	ExistingCount     int  `json:"existing_count"`
}

// MaintenanceService decides, per incoming preference, whether to insert,
// pass, update or append against the user's stored preferences, and executes
// the decision. Decisions on the same bucket are serialized.
type MaintenanceService struct {
	store       domain.PreferenceStore
	llm         domain.LLMClient
	embedder    domain.EmbeddingClient
	logger      *zap.Logger
	mergeOnPass bool

	mu          sync.Mutex
	bucketLocks map[domain.BucketKey]*sync.Mutex
}

func NewMaintenanceService(store domain.PreferenceStore, llm domain.LLMClient, embedder domain.EmbeddingClient, logger *zap.Logger, mergeOnPass bool) *MaintenanceService {
	return &MaintenanceService{
		store:       store,
		llm:         llm,
		embedder:    embedder,
		logger:      logger,
		mergeOnPass: mergeOnPass,
		bucketLocks: map[domain.BucketKey]*sync.Mutex{},
	}
}

func (s *MaintenanceService) lockBucket(key domain.BucketKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.bucketLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.bucketLocks[key] = l
	}
	return l
}

// Process runs the maintenance decision for one incoming preference. With
// perform false the decision is only simulated: the classifier runs, but the
// store is never mutated. The returned outcome always carries the decided
// action and its numeric label.
func (s *MaintenanceService) Process(ctx context.Context, incoming *domain.Preference, perform bool) (*DecisionOutcome, error) {
	policy, err := taxonomy.CardinalityOf(incoming.DetailCategory)
	if err != nil {
		return nil, fmt.Errorf("resolve cardinality: %w", err)
	}

	bucket := incoming.Bucket()
	l := s.lockBucket(bucket)
	l.Lock()
	defer l.Unlock()

	existing, err := s.store.QueryBucket(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("query bucket: %w", err)
	}

	if len(existing) == 0 {
		if perform {
			if err := s.insert(ctx, incoming); err != nil {
				return nil, err
			}
		}
		return &DecisionOutcome{
			Action:    domain.ActionInsert,
			Label:     domain.ActionInsert.Label(),
			TargetPK:  incoming.PK,
			Performed: perform,
		}, nil
	}

	action, violation, err := s.classify(ctx, incoming, existing, policy)
	if err != nil {
		return nil, err
	}

	outcome := &DecisionOutcome{
		Action:            action.Name(),
		Label:             action.Name().Label(),
		ProtocolViolation: violation,
		ExistingCount:     len(existing),
	}

	switch a := action.(type) {
	case domain.AppendAction:
		if perform {
			if err := s.insert(ctx, incoming); err != nil {
				return nil, err
			}
			outcome.Performed = true
		}
		outcome.TargetPK = incoming.PK

	case domain.UpdateAction:
		matched := findByPK(existing, a.DeletePK)
		if matched == nil {
			// The classifier named a key outside the bucket snapshot;
			// nothing is deleted on a guess.
			s.logger.Warn("pk generated by llm does not match existing preferences key",
				zap.String("pk", a.DeletePK))
			outcome.Action = domain.ActionPass
			outcome.Label = domain.ActionPass.Label()
			return outcome, nil
		}
		outcome.TargetPK = matched.PK
		if perform {
			if err := s.store.Delete(ctx, matched.PK); err != nil {
				return nil, fmt.Errorf("delete for update: %w", err)
			}
			if err := s.insert(ctx, incoming); err != nil {
				return nil, err
			}
			outcome.Performed = true
		}

	case domain.PassAction:
		matched := findByPK(existing, a.EqualPK)
		if matched == nil {
			if a.EqualPK != "" {
				s.logger.Warn("pk generated by llm does not match existing preferences key",
					zap.String("pk", a.EqualPK))
			}
			return outcome, nil
		}
		outcome.TargetPK = matched.PK
		if perform && s.mergeOnPass {
			if err := s.mergePass(ctx, incoming, matched); err != nil {
				return nil, err
			}
			outcome.Performed = true
		}
	}

	return outcome, nil
}

// classify runs the maintenance classifier with one bounded retry after a
// response without a tool call. A response that still cannot be used falls
// back to pass with nothing performed.
func (s *MaintenanceService) classify(ctx context.Context, incoming *domain.Preference, existing []domain.Preference, policy domain.Cardinality) (domain.Action, bool, error) {
	req := domain.MaintenanceRequest{
		Incoming: domain.IncomingSummary{
			DetailCategory: incoming.DetailCategory,
			Text:           incoming.Text,
			Attribute:      incoming.Attribute,
		},
		Policy: policy,
	}
	for _, e := range existing {
		req.Existing = append(req.Existing, domain.ExistingSummary{
			PK:             e.PK,
			DetailCategory: e.DetailCategory,
			Text:           e.Text,
			Attribute:      e.Attribute,
		})
	}

	tc, err := s.llm.DecideMaintenance(ctx, req)
	if err != nil {
		s.logger.Warn("maintenance classifier failed, retrying", zap.Error(err))
		tc = nil
	}
	if tc == nil {
		retryReq := req
		retryReq.Retry = true
		tc, err = s.llm.DecideMaintenance(ctx, retryReq)
		if err != nil {
			return nil, false, fmt.Errorf("maintenance classifier retry: %w", err)
		}
	}
	if tc == nil {
		s.logger.Warn("maintenance classifier produced no tool call after retry, defaulting to pass",
			zap.String("detail_category", incoming.DetailCategory))
		return domain.PassAction{IncomingAttribute: incoming.Attribute}, true, nil
	}

	action, err := domain.DecodeAction(*tc, policy.LegalActions())
	if err != nil {
		s.logger.Warn("maintenance classifier produced unusable tool call, defaulting to pass",
			zap.String("tool", tc.Name), zap.Error(err))
		return domain.PassAction{IncomingAttribute: incoming.Attribute}, true, nil
	}
	return action, false, nil
}

// insert writes the incoming preference, assigning a key and embedding where
// missing.
func (s *MaintenanceService) insert(ctx context.Context, p *domain.Preference) error {
	if p.PK == "" {
		p.PK = uuid.NewString()
	}
	if len(p.Vector) == 0 {
		vector, err := s.embedder.Embed(ctx, p.Text)
		if err != nil {
			return fmt.Errorf("embed preference: %w", err)
		}
		p.Vector = vector
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return fmt.Errorf("insert preference: %w", err)
	}
	return nil
}

// mergePass folds the incoming preference into the matched record: the texts
// are concatenated, re-embedded, and the old record is replaced.
func (s *MaintenanceService) mergePass(ctx context.Context, incoming *domain.Preference, matched *domain.Preference) error {
	merged := *incoming
	merged.PK = ""
	merged.Vector = nil
	merged.Text = incoming.Text + "\n" + matched.Text

	vector, err := s.embedder.Embed(ctx, merged.Text)
	if err != nil {
		return fmt.Errorf("embed merged preference: %w", err)
	}
	merged.Vector = vector
	merged.PK = uuid.NewString()

	if err := s.store.Delete(ctx, matched.PK); err != nil {
		return fmt.Errorf("delete for merge: %w", err)
	}
	if err := s.store.Insert(ctx, &merged); err != nil {
		return fmt.Errorf("insert merged preference: %w", err)
	}
	return nil
}

func findByPK(prefs []domain.Preference, pk string) *domain.Preference {
	for i := range prefs {
		if prefs[i].PK == pk {
			return &prefs[i]
		}
	}
	return nil
}
