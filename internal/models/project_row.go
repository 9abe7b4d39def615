package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ProjectRow is the snake_case shape of a Project in the remote table.
type ProjectRow struct {
	ID               string         `gorm:"column:id;type:text;primaryKey" json:"id"`
	CreatedAt        time.Time      `gorm:"column:created_at;type:timestamptz;not null;default:now();index" json:"created_at"`
	SourceType       string         `gorm:"column:source_type;type:text" json:"source_type"`
	TechProfile      string         `gorm:"column:tech_profile;type:text" json:"tech_profile"`
	GitHubURL        string         `gorm:"column:github_url;type:text" json:"github_url"`
	PastedCode       string         `gorm:"column:pasted_code;type:text" json:"pasted_code"`
	RepoName         string         `gorm:"column:repo_name;type:text" json:"repo_name"`
	RepoOwner        string         `gorm:"column:repo_owner;type:text" json:"repo_owner"`
	Description      string         `gorm:"column:description;type:text" json:"description"`
	Status           string         `gorm:"column:status;type:text;index" json:"status"`
	Blueprint        datatypes.JSON `gorm:"column:blueprint;type:jsonb" json:"blueprint"`
	ExpertID         string         `gorm:"column:expert_id;type:text;index" json:"expert_id"`
	Milestones       datatypes.JSON `gorm:"column:milestones;type:jsonb" json:"milestones"`
	Vault            datatypes.JSON `gorm:"column:vault;type:jsonb" json:"vault"`
	Artifacts        datatypes.JSON `gorm:"column:artifacts;type:jsonb" json:"artifacts"`
	Messages         datatypes.JSON `gorm:"column:messages;type:jsonb" json:"messages"`
	TotalBookingCost *float64       `gorm:"column:total_booking_cost;type:numeric" json:"total_booking_cost"`
	PlatformFee      *float64       `gorm:"column:platform_fee;type:numeric" json:"platform_fee"`
	TechnicianFee    *float64       `gorm:"column:technician_fee;type:numeric" json:"technician_fee"`
	SelectedDuration string         `gorm:"column:selected_duration;type:text" json:"selected_duration"`
	LiveSessionStart *time.Time     `gorm:"column:live_session_start;type:timestamptz" json:"live_session_start"`
	SourceApp        string         `gorm:"column:source_app;type:text" json:"source_app"`
}

// TableName pins the remote table name.
func (ProjectRow) TableName() string { return "projects" }

// ToRow converts a project into its remote row. Nil collections are stored
// as empty JSON arrays.
func ToRow(p Project) (ProjectRow, error) {
	row := ProjectRow{
		ID:               p.ID,
		CreatedAt:        p.CreatedAt,
		SourceType:       string(p.SourceType),
		TechProfile:      string(p.TechProfile),
		GitHubURL:        p.GitHubURL,
		PastedCode:       p.PastedCode,
		RepoName:         p.RepoName,
		RepoOwner:        p.RepoOwner,
		Description:      p.Description,
		Status:           string(p.Status),
		ExpertID:         p.ExpertID,
		TotalBookingCost: cloneFloat(p.TotalBookingCost),
		PlatformFee:      cloneFloat(p.PlatformFee),
		TechnicianFee:    cloneFloat(p.TechnicianFee),
		SelectedDuration: p.SelectedDuration,
		LiveSessionStart: p.LiveSessionStart,
		SourceApp:        p.SourceApp,
	}

	var err error
	if p.Blueprint != nil {
		if row.Blueprint, err = marshalJSON("blueprint", p.Blueprint); err != nil {
			return ProjectRow{}, err
		}
	} else {
		row.Blueprint = datatypes.JSON("null")
	}
	if row.Milestones, err = marshalJSON("milestones", orEmpty(p.Milestones)); err != nil {
		return ProjectRow{}, err
	}
	if row.Vault, err = marshalJSON("vault", orEmpty(p.Vault)); err != nil {
		return ProjectRow{}, err
	}
	if row.Artifacts, err = marshalJSON("artifacts", orEmpty(p.Artifacts)); err != nil {
		return ProjectRow{}, err
	}
	if row.Messages, err = marshalJSON("messages", orEmpty(p.Messages)); err != nil {
		return ProjectRow{}, err
	}
	return row, nil
}

// FromRow converts a remote row into a project. IsGitHubConnected is derived
// from the presence of a repository owner.
func FromRow(row ProjectRow) (Project, error) {
	p := Project{
		ID:                row.ID,
		CreatedAt:         row.CreatedAt,
		SourceType:        SourceType(row.SourceType),
		TechProfile:       TechProfile(row.TechProfile),
		GitHubURL:         row.GitHubURL,
		PastedCode:        row.PastedCode,
		RepoName:          row.RepoName,
		RepoOwner:         row.RepoOwner,
		Description:       row.Description,
		Status:            ProjectStatus(row.Status),
		ExpertID:          row.ExpertID,
		IsGitHubConnected: row.RepoOwner != "",
		TotalBookingCost:  cloneFloat(row.TotalBookingCost),
		PlatformFee:       cloneFloat(row.PlatformFee),
		TechnicianFee:     cloneFloat(row.TechnicianFee),
		SelectedDuration:  row.SelectedDuration,
		LiveSessionStart:  row.LiveSessionStart,
		SourceApp:         row.SourceApp,
	}

	if len(row.Blueprint) > 0 && string(row.Blueprint) != "null" {
		var bp Blueprint
		if err := json.Unmarshal(row.Blueprint, &bp); err != nil {
			return Project{}, fmt.Errorf("decode blueprint of %s: %w", row.ID, err)
		}
		p.Blueprint = &bp
	}
	if err := unmarshalList(row.Milestones, &p.Milestones); err != nil {
		return Project{}, fmt.Errorf("decode milestones of %s: %w", row.ID, err)
	}
	if err := unmarshalList(row.Vault, &p.Vault); err != nil {
		return Project{}, fmt.Errorf("decode vault of %s: %w", row.ID, err)
	}
	if err := unmarshalList(row.Artifacts, &p.Artifacts); err != nil {
		return Project{}, fmt.Errorf("decode artifacts of %s: %w", row.ID, err)
	}
	if err := unmarshalList(row.Messages, &p.Messages); err != nil {
		return Project{}, fmt.Errorf("decode messages of %s: %w", row.ID, err)
	}
	return p, nil
}

func marshalJSON(field string, v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", field, err)
	}
	return datatypes.JSON(b), nil
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func unmarshalList[T any](raw datatypes.JSON, dst *[]T) error {
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, dst); err != nil {
			return err
		}
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}
