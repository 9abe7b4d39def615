package models

import (
	"time"
)

// ProjectStatus is the lifecycle position of a shipment. Values are the
// strings persisted in the remote table and the local mirror.
type ProjectStatus string

const (
	StatusDraft          ProjectStatus = "Draft"
	StatusBlueprintReady ProjectStatus = "Blueprint Ready"
	StatusInstalling     ProjectStatus = "In Transit"
	StatusDeployed       ProjectStatus = "Arrived (Production)"
)

var statusRank = map[ProjectStatus]int{
	StatusDraft:          0,
	StatusBlueprintReady: 1,
	StatusInstalling:     2,
	StatusDeployed:       3,
}

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the position of s in the lifecycle, or -1 when unknown.
func (s ProjectStatus) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// CanMoveTo reports whether moving from s to next keeps status monotonic.
func (s ProjectStatus) CanMoveTo(next ProjectStatus) bool {
	return next.Valid() && next.Rank() >= s.Rank()
}

type SourceType string

const (
	SourceGitHub  SourceType = "github"
	SourcePaste   SourceType = "paste"
	SourceUpload  SourceType = "upload"
	SourceAISync  SourceType = "ai-sync"
	SourceNotSure SourceType = "not-sure"
)

type TechProfile string

const (
	ProfileNonTechFounder TechProfile = "non-tech-founder"
	ProfileSoloDev        TechProfile = "solo-dev"
	ProfileTechnicalPM    TechProfile = "technical-pm"
)

type Sender string

const (
	SenderUser   Sender = "user"
	SenderExpert Sender = "expert"
)

// Project is one shipment request and everything attached to it.
type Project struct {
	ID                string        `json:"id"`
	SourceType        SourceType    `json:"sourceType" validate:"required,oneof=github paste upload ai-sync not-sure"`
	TechProfile       TechProfile   `json:"techProfile" validate:"required,oneof=non-tech-founder solo-dev technical-pm"`
	GitHubURL         string        `json:"githubUrl,omitempty"`
	PastedCode        string        `json:"pastedCode,omitempty"`
	RepoName          string        `json:"repoName"`
	RepoOwner         string        `json:"repoOwner"`
	Description       string        `json:"description"`
	Status            ProjectStatus `json:"status"`
	Blueprint         *Blueprint    `json:"blueprint,omitempty"`
	ExpertID          string        `json:"expertId,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	IsGitHubConnected bool          `json:"isGitHubConnected"`
	TotalBookingCost  *float64      `json:"totalBookingCost,omitempty"`
	PlatformFee       *float64      `json:"platformFee,omitempty"`
	TechnicianFee     *float64      `json:"technicianFee,omitempty"`
	SelectedDuration  string        `json:"selectedDuration,omitempty"`
	LiveSessionStart  *time.Time    `json:"liveSessionStart,omitempty"`
	SourceApp         string        `json:"sourceApp,omitempty"`
	Messages          []Message     `json:"messages"`
	Vault             []VaultItem   `json:"vault"`
	Milestones        []Milestone   `json:"milestones"`
	Artifacts         []Artifact    `json:"artifacts"`
}

type Milestone struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	IsCompleted bool   `json:"isCompleted"`
	IsApproved  bool   `json:"isApproved"`
}

type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// VaultItem holds one credential. Value is always ciphertext.
type VaultItem struct {
	ID         string `json:"id"`
	Key        string `json:"key"`
	Value      string `json:"value"`
	IsRevealed bool   `json:"isRevealed"`
}

type Artifact struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	SourceApp string    `json:"sourceApp"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultMilestones returns the fixed milestone set stamped on every new project.
func DefaultMilestones() []Milestone {
	return []Milestone{
		{ID: "m1", Label: "Pick up code from source", IsCompleted: true},
		{ID: "m2", Label: "Database & Backend connection"},
		{ID: "m3", Label: "Routing to Production Domain"},
		{ID: "m4", Label: "Handover Live Credentials"},
	}
}

// AllMilestonesApproved reports whether every milestone is approved.
// A project without milestones is never considered approved.
func (p *Project) AllMilestonesApproved() bool {
	if len(p.Milestones) == 0 {
		return false
	}
	for _, m := range p.Milestones {
		if !m.IsApproved {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers never share collections with the store.
func (p Project) Clone() Project {
	out := p
	if p.Blueprint != nil {
		bp := p.Blueprint.Clone()
		out.Blueprint = &bp
	}
	out.TotalBookingCost = cloneFloat(p.TotalBookingCost)
	out.PlatformFee = cloneFloat(p.PlatformFee)
	out.TechnicianFee = cloneFloat(p.TechnicianFee)
	if p.LiveSessionStart != nil {
		t := *p.LiveSessionStart
		out.LiveSessionStart = &t
	}
	out.Messages = cloneSlice(p.Messages)
	out.Vault = cloneSlice(p.Vault)
	out.Milestones = cloneSlice(p.Milestones)
	out.Artifacts = cloneSlice(p.Artifacts)
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
