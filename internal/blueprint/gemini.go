package blueprint

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel answers prompts with the Gemini API constrained to the
// blueprint response schema.
type GeminiModel struct {
	client *genai.Client
	model  string
}

var _ Model = (*GeminiModel)(nil)

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (g *GeminiModel) Name() string { return g.model }

func (g *GeminiModel) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   blueprintSchema,
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func num() *genai.Schema { return &genai.Schema{Type: genai.TypeNumber} }

var blueprintSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"stack":                  str(),
		"checklist":              {Type: genai.TypeArray, Items: str()},
		"securityPoints":         {Type: genai.TypeArray, Items: str()},
		"estimatedCost":          str(),
		"recommendedExpertType":  str(),
		"estimatedHours":         {Type: genai.TypeInteger},
		"shipmentTier":           {Type: genai.TypeString, Enum: []string{"basic", "pro", "enterprise"}},
		"technicalDistanceScore": {Type: genai.TypeInteger},
		"preFlight": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"category": str(),
					"status":   str(),
					"detail":   str(),
				},
			},
		},
		"fare": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"baseFee":                 num(),
				"technicalDistanceRate":   num(),
				"distanceUnits":           num(),
				"roadConditionSurcharge":  num(),
				"whiteGloveSurcharge":     num(),
				"infrastructureSurcharge": num(),
				"serviceFee":              num(),
				"total":                   num(),
			},
			Required: []string{"baseFee", "technicalDistanceRate", "distanceUnits", "roadConditionSurcharge", "whiteGloveSurcharge", "infrastructureSurcharge", "serviceFee", "total"},
		},
	},
	Required: []string{"stack", "checklist", "securityPoints", "estimatedCost", "recommendedExpertType", "estimatedHours", "shipmentTier", "technicalDistanceScore", "preFlight", "fare"},
}
