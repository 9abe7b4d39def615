// Package blueprint produces the deployment blueprint and fare quote for a
// project draft.
package blueprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/pkg/utils"
)

// Request carries the inputs of one analysis.
type Request struct {
	// SourceRef is the repository URL or the pasted source.
	SourceRef   string
	Stack       string
	Description string
}

// Generator always returns a complete, schema-valid blueprint.
type Generator interface {
	Generate(ctx context.Context, req Request) models.Blueprint
}

// Model is a text model that answers a prompt with a JSON document.
type Model interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Cache stores generated blueprints by input fingerprint.
type Cache interface {
	Get(ctx context.Context, key string) (models.Blueprint, bool, error)
	Set(ctx context.Context, key string, bp models.Blueprint) error
}

// Service generates blueprints with a model and falls back to a static
// blueprint on any failure.
type Service struct {
	model    Model
	cache    Cache
	timeout  time.Duration
	validate *validator.Validate
	log      *zap.Logger
}

var _ Generator = (*Service)(nil)

// Option customizes a Service.
type Option func(*Service)

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// NewService builds a generator. A nil model always yields the fallback.
func NewService(model Model, opts ...Option) *Service {
	s := &Service{
		model:    model,
		timeout:  20 * time.Second,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Generate(ctx context.Context, req Request) models.Blueprint {
	if s.model == nil {
		return Fallback(req.Stack)
	}

	key := s.cacheKey(req)
	if s.cache != nil {
		bp, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("blueprint cache read failed", zap.Error(err))
		} else if ok {
			return bp
		}
	}

	bp, err := s.analyze(ctx, req)
	if err != nil {
		s.log.Warn("blueprint generation failed, using fallback", zap.String("stack", req.Stack), zap.Error(err))
		return Fallback(req.Stack)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, bp); err != nil {
			s.log.Warn("blueprint cache write failed", zap.Error(err))
		}
	}
	return bp
}

func (s *Service) analyze(ctx context.Context, req Request) (models.Blueprint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.model.GenerateJSON(ctx, BuildPrompt(req))
	if err != nil {
		return models.Blueprint{}, fmt.Errorf("model %s: %w", s.model.Name(), err)
	}
	bp, err := Parse(raw)
	if err != nil {
		return models.Blueprint{}, err
	}

	if bp.PreFlight == nil {
		bp.PreFlight = []models.PreFlightCheck{}
	}
	for i := range bp.PreFlight {
		bp.PreFlight[i].ID = uuid.NewString()
	}
	if bp.InfrastructureNeeds == nil {
		bp.InfrastructureNeeds = []models.InfrastructureOption{}
	}

	if err := s.validate.Struct(bp); err != nil {
		return models.Blueprint{}, fmt.Errorf("blueprint failed validation: %w", err)
	}
	return bp, nil
}

func (s *Service) cacheKey(req Request) string {
	return utils.Fingerprint(s.model.Name(), req.SourceRef, req.Stack, req.Description)
}

var fencePattern = regexp.MustCompile("(?is)^```(?:json)?\\s*(.*?)\\s*```$")

// Parse decodes a model answer. Markdown code fences are stripped and, as a
// last resort, the outermost braces are decoded.
func Parse(raw string) (models.Blueprint, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return models.Blueprint{}, errors.New("empty model response")
	}
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var bp models.Blueprint
	err := json.Unmarshal([]byte(text), &bp)
	if err != nil {
		start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return models.Blueprint{}, fmt.Errorf("decode model response: %w", err)
		}
		bp = models.Blueprint{}
		if err := json.Unmarshal([]byte(text[start:end+1]), &bp); err != nil {
			return models.Blueprint{}, fmt.Errorf("decode model response: %w", err)
		}
	}
	if bp.Stack == "" {
		return models.Blueprint{}, errors.New("model response has no stack")
	}
	return bp, nil
}

// Fallback is the static blueprint used whenever generation fails.
func Fallback(stack string) models.Blueprint {
	if strings.TrimSpace(stack) == "" {
		stack = "Web App"
	}
	return models.Blueprint{
		Stack:                  stack,
		Checklist:              []string{"Syncing repository", "Environment configuration", "Domain connection"},
		SecurityPoints:         []string{"Credential security audit"},
		EstimatedCost:          "$20/mo",
		RecommendedExpertType:  "Generalist",
		EstimatedHours:         1,
		ShipmentTier:           models.TierBasic,
		TechnicalDistanceScore: 10,
		InfrastructureNeeds:    []models.InfrastructureOption{},
		PreFlight: []models.PreFlightCheck{
			{ID: "1", Category: "Environment", Status: "warning", Detail: "Missing production secret keys"},
		},
		Fare: models.FareBreakdown{
			BaseFee:                25,
			TechnicalDistanceRate:  1.5,
			DistanceUnits:          10,
			RoadConditionSurcharge: 10,
			ServiceFee:             5,
			Total:                  55,
		},
	}
}
