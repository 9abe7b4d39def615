package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navin3756/shipit/internal/models"
)

func TestNewProjectDraftDefaults(t *testing.T) {
	bp := models.Blueprint{Fare: models.FareBreakdown{Total: 55}}
	p := NewProjectDraft(DraftInput{TechProfile: models.ProfileSoloDev, PastedCode: "ignored"}, bp)

	require.Equal(t, models.SourceNotSure, p.SourceType)
	require.Equal(t, "Untitled Shipment", p.RepoName)
	require.Equal(t, "Client", p.RepoOwner)
	require.Equal(t, "No description provided.", p.Description)
	require.Equal(t, models.StatusBlueprintReady, p.Status)
	require.False(t, p.IsGitHubConnected)
	require.Empty(t, p.PastedCode)
	require.NotNil(t, p.TotalBookingCost)
	require.Equal(t, 55.0, *p.TotalBookingCost)
	require.NotNil(t, p.Messages)
}

func TestNewProjectDraftSourceFields(t *testing.T) {
	gh := DraftInput{SourceType: models.SourceGitHub, GitHubURL: "https://github.com/acme/app", PastedCode: "x"}
	p := NewProjectDraft(gh, models.Blueprint{})
	require.True(t, p.IsGitHubConnected)
	require.Equal(t, "https://github.com/acme/app", p.GitHubURL)
	require.Empty(t, p.PastedCode)
	require.Equal(t, "https://github.com/acme/app", gh.BlueprintRequest().SourceRef)
	require.Equal(t, "nextjs", gh.BlueprintRequest().Stack)

	paste := DraftInput{SourceType: models.SourcePaste, PastedCode: "package main", Stack: "go"}
	p = NewProjectDraft(paste, models.Blueprint{})
	require.Equal(t, "package main", p.PastedCode)
	require.Empty(t, p.GitHubURL)
	require.Equal(t, "package main", paste.BlueprintRequest().SourceRef)
	require.Equal(t, "go", paste.BlueprintRequest().Stack)
}
