package services

import (
	"strings"

	"github.com/navin3756/shipit/internal/blueprint"
	"github.com/navin3756/shipit/internal/models"
)

const (
	defaultRepoName    = "Untitled Shipment"
	defaultRepoOwner   = "Client"
	defaultDescription = "No description provided."
	defaultStack       = "nextjs"
)

// DraftInput is what the client submits from the onboarding wizard.
type DraftInput struct {
	SourceType  models.SourceType
	TechProfile models.TechProfile
	GitHubURL   string
	PastedCode  string
	RepoName    string
	RepoOwner   string
	Description string
	Stack       string
	SourceApp   string
}

// BlueprintRequest returns the analysis inputs for in.
func (in DraftInput) BlueprintRequest() blueprint.Request {
	stack := strings.TrimSpace(in.Stack)
	if stack == "" {
		stack = defaultStack
	}
	ref := in.PastedCode
	if in.sourceType() == models.SourceGitHub {
		ref = in.GitHubURL
	}
	return blueprint.Request{SourceRef: ref, Stack: stack, Description: in.Description}
}

func (in DraftInput) sourceType() models.SourceType {
	if in.SourceType == "" {
		return models.SourceNotSure
	}
	return in.SourceType
}

// NewProjectDraft turns a wizard submission and its blueprint into a project
// ready for CreateProject.
func NewProjectDraft(in DraftInput, bp models.Blueprint) models.Project {
	src := in.sourceType()
	p := models.Project{
		SourceType:        src,
		TechProfile:       in.TechProfile,
		RepoName:          orDefault(in.RepoName, defaultRepoName),
		RepoOwner:         orDefault(in.RepoOwner, defaultRepoOwner),
		Description:       orDefault(in.Description, defaultDescription),
		Status:            models.StatusBlueprintReady,
		Blueprint:         &bp,
		IsGitHubConnected: src == models.SourceGitHub,
		TotalBookingCost:  models.Float(bp.Fare.Total),
		SourceApp:         in.SourceApp,
		Messages:          []models.Message{},
		Vault:             []models.VaultItem{},
		Artifacts:         []models.Artifact{},
	}
	switch src {
	case models.SourceGitHub:
		p.GitHubURL = in.GitHubURL
	case models.SourcePaste, models.SourceUpload:
		p.PastedCode = in.PastedCode
	}
	return p
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
