package models

type ShipmentTier string

const (
	TierBasic      ShipmentTier = "basic"
	TierPro        ShipmentTier = "pro"
	TierEnterprise ShipmentTier = "enterprise"
)

// Valid reports whether t is a known tier.
func (t ShipmentTier) Valid() bool {
	switch t {
	case TierBasic, TierPro, TierEnterprise:
		return true
	}
	return false
}

// Blueprint is the structured analysis attached to a project. The validate
// tags double as the schema generated blueprints must satisfy.
type Blueprint struct {
	Stack                  string                 `json:"stack" validate:"required"`
	Checklist              []string               `json:"checklist" validate:"required"`
	SecurityPoints         []string               `json:"securityPoints" validate:"required"`
	EstimatedCost          string                 `json:"estimatedCost" validate:"required"`
	RecommendedExpertType  string                 `json:"recommendedExpertType" validate:"required"`
	EstimatedHours         float64                `json:"estimatedHours" validate:"gte=0"`
	TechnicalDistanceScore float64                `json:"technicalDistanceScore" validate:"gte=0,lte=100"`
	Fare                   FareBreakdown          `json:"fare"`
	InfrastructureNeeds    []InfrastructureOption `json:"infrastructureNeeds" validate:"dive"`
	ShipmentTier           ShipmentTier           `json:"shipmentTier" validate:"required,oneof=basic pro enterprise"`
	PreFlight              []PreFlightCheck       `json:"preFlight" validate:"dive"`
}

// FareBreakdown itemizes the quoted price of a shipment.
type FareBreakdown struct {
	BaseFee                 float64 `json:"baseFee" validate:"gte=0"`
	TechnicalDistanceRate   float64 `json:"technicalDistanceRate" validate:"gte=0"`
	DistanceUnits           float64 `json:"distanceUnits" validate:"gte=0"`
	RoadConditionSurcharge  float64 `json:"roadConditionSurcharge" validate:"gte=0"`
	WhiteGloveSurcharge     float64 `json:"whiteGloveSurcharge" validate:"gte=0"`
	InfrastructureSurcharge float64 `json:"infrastructureSurcharge" validate:"gte=0"`
	ServiceFee              float64 `json:"serviceFee" validate:"gte=0"`
	Total                   float64 `json:"total" validate:"gte=0"`
}

type InfrastructureOption struct {
	ID           string `json:"id"`
	Label        string `json:"label" validate:"required"`
	Description  string `json:"description"`
	CostEstimate string `json:"costEstimate"`
	IsIncluded   bool   `json:"isIncluded"`
}

type PreFlightCheck struct {
	ID       string `json:"id"`
	Category string `json:"category" validate:"required"`
	Status   string `json:"status" validate:"required"`
	Detail   string `json:"detail"`
}

// Clone returns a deep copy of the blueprint.
func (b Blueprint) Clone() Blueprint {
	out := b
	out.Checklist = cloneSlice(b.Checklist)
	out.SecurityPoints = cloneSlice(b.SecurityPoints)
	out.InfrastructureNeeds = cloneSlice(b.InfrastructureNeeds)
	out.PreFlight = cloneSlice(b.PreFlight)
	return out
}
