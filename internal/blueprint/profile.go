package blueprint

import "github.com/navin3756/shipit/internal/models"

const (
	managedInfrastructureSurcharge = 80
	whiteGloveSurcharge            = 45
)

// ApplyProfile returns bp adjusted for the client's technical profile.
// Non-technical founders get managed infrastructure and white-glove handling.
func ApplyProfile(bp models.Blueprint, profile models.TechProfile) models.Blueprint {
	out := bp.Clone()
	if profile != models.ProfileNonTechFounder {
		return out
	}

	out.Fare.InfrastructureSurcharge = managedInfrastructureSurcharge
	out.Fare.WhiteGloveSurcharge = whiteGloveSurcharge
	out.Fare.Total += managedInfrastructureSurcharge + whiteGloveSurcharge
	out.InfrastructureNeeds = []models.InfrastructureOption{
		{ID: "1", Label: "Pro Managed Hosting", Description: "Expert hosts your app on their production cluster. No AWS account needed.", CostEstimate: "$15/mo", IsIncluded: true},
		{ID: "2", Label: "Development IDE License", Description: "Technician uses their licensed VS Code/PyCharm. You save $200/yr.", CostEstimate: "$0", IsIncluded: true},
		{ID: "3", Label: "Domain & SSL Setup", Description: "One-click routing to your .com address.", CostEstimate: "$12/yr", IsIncluded: true},
	}
	out.Checklist = append([]string{"Provision Managed Container", "Generate Production SSL"}, out.Checklist...)
	return out
}
