package types

type CreateProjectRequest struct {
	SourceType  string `json:"sourceType" validate:"omitempty,oneof=github paste upload ai-sync not-sure"`
	TechProfile string `json:"techProfile" validate:"required,oneof=non-tech-founder solo-dev technical-pm"`
	GitHubURL   string `json:"githubUrl" validate:"required_if=SourceType github"`
	PastedCode  string `json:"pastedCode" validate:"max=200000"`
	RepoName    string `json:"repoName" validate:"max=200"`
	RepoOwner   string `json:"repoOwner" validate:"max=200"`
	Description string `json:"description" validate:"max=4000"`
	Stack       string `json:"stack" validate:"max=100"`
	SourceApp   string `json:"sourceApp" validate:"max=100"`
}

type HireRequest struct {
	ExpertID string `json:"expertId" validate:"required"`
	Duration string `json:"duration" validate:"required,booking_duration"`
}

type QuoteRequest struct {
	ExpertID string `json:"expertId" validate:"required"`
	Duration string `json:"duration" validate:"required,booking_duration"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type MessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type SecretRequest struct {
	Key   string `json:"key" validate:"required,max=200"`
	Value string `json:"value" validate:"required"`
}

type PlanRequest struct {
	Tier string `json:"tier" validate:"required,oneof=basic pro enterprise"`
}
