package models

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// PickupTechnicianID is the technician identity used by the expert portal.
const PickupTechnicianID = "technician_01"

// Expert is a technician that can be hired onto a project.
type Expert struct {
	ID                          string   `yaml:"id" json:"id"`
	Name                        string   `yaml:"name" json:"name"`
	Specialty                   []string `yaml:"specialty" json:"specialty"`
	Rating                      float64  `yaml:"rating" json:"rating"`
	CompletedJobs               int      `yaml:"completed_jobs" json:"completedJobs"`
	Avatar                      string   `yaml:"avatar" json:"avatar"`
	Bio                         string   `yaml:"bio" json:"bio"`
	HourlyRate                  float64  `yaml:"hourly_rate" json:"hourlyRate"`
	BaseFee                     float64  `yaml:"base_fee" json:"baseFee"`
	IsOnline                    bool     `yaml:"is_online" json:"isOnline"`
	ResponseTime                string   `yaml:"response_time" json:"responseTime"`
	Location                    string   `yaml:"location" json:"location"`
	FreeConsultationAvailable   bool     `yaml:"free_consultation_available" json:"freeConsultationAvailable"`
	ProvidesInfrastructure      bool     `yaml:"provides_infrastructure" json:"providesInfrastructure"`
	InfrastructureCertification []string `yaml:"infrastructure_certification" json:"infrastructureCertification"`
	ExpertTier                  string   `yaml:"expert_tier" json:"expertTier"`
}

//go:embed experts.yaml
var expertsYAML []byte

// ExpertCatalog is the static, read-only list of hireable experts.
type ExpertCatalog struct {
	experts []Expert
	byID    map[string]Expert
}

// LoadExperts parses the embedded catalog.
func LoadExperts() (*ExpertCatalog, error) {
	return ParseExperts(expertsYAML)
}

// ParseExperts parses a catalog document.
func ParseExperts(doc []byte) (*ExpertCatalog, error) {
	var file struct {
		Experts []Expert `yaml:"experts"`
	}
	if err := yaml.Unmarshal(doc, &file); err != nil {
		return nil, fmt.Errorf("parse expert catalog: %w", err)
	}
	c := &ExpertCatalog{byID: make(map[string]Expert, len(file.Experts))}
	for _, e := range file.Experts {
		if e.ID == "" {
			return nil, fmt.Errorf("expert %q has no id", e.Name)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate expert id %q", e.ID)
		}
		c.byID[e.ID] = e
		c.experts = append(c.experts, e)
	}
	return c, nil
}

// Get returns the expert with the given id.
func (c *ExpertCatalog) Get(id string) (Expert, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Search returns experts whose name or specialty contains filter
// (case-insensitive). An empty filter returns the whole catalog.
func (c *ExpertCatalog) Search(filter string) []Expert {
	filter = strings.ToLower(strings.TrimSpace(filter))
	out := make([]Expert, 0, len(c.experts))
	for _, e := range c.experts {
		if filter == "" || matchesExpert(e, filter) {
			out = append(out, e)
		}
	}
	return out
}

func matchesExpert(e Expert, filter string) bool {
	if strings.Contains(strings.ToLower(e.Name), filter) {
		return true
	}
	for _, s := range e.Specialty {
		if strings.Contains(strings.ToLower(s), filter) {
			return true
		}
	}
	return false
}
