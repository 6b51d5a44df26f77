package emitter

// GlossaryTermRequest describes a glossary term upsert. Source defaults to
// INTERNAL.
type GlossaryTermRequest struct {
	Name       string `json:"name" yaml:"name"`
	Definition string `json:"definition,omitempty" yaml:"definition"`
	Source     string `json:"source,omitempty" yaml:"source"`
	ChangeType string `json:"changeType,omitempty" yaml:"changeType"`
}

// UserRequest describes a corp user upsert. An empty DisplayName falls back to
// Name and a nil Active means active.
type UserRequest struct {
	Name        string `json:"name" yaml:"name"`
	Email       string `json:"email,omitempty" yaml:"email"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName"`
	Active      *bool  `json:"active,omitempty" yaml:"active"`
	ChangeType  string `json:"changeType,omitempty" yaml:"changeType"`
}

type TagRequest struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	ChangeType  string `json:"changeType,omitempty" yaml:"changeType"`
}

// DatasetRequest describes a dataset update. Empty Platform and Env fall back
// to the emitter configuration. Every optional group left empty is skipped.
type DatasetRequest struct {
	Name             string            `json:"name" yaml:"name"`
	Platform         string            `json:"platform,omitempty" yaml:"platform"`
	Env              string            `json:"env,omitempty" yaml:"env"`
	Description      *string           `json:"description,omitempty" yaml:"description"`
	URL              *string           `json:"url,omitempty" yaml:"url"`
	Tags             []string          `json:"tags,omitempty" yaml:"tags"`
	ChangeType       string            `json:"changeType,omitempty" yaml:"changeType"`
	Owners           []string          `json:"owners,omitempty" yaml:"owners"`
	CustomProperties map[string]string `json:"customProperties,omitempty" yaml:"customProperties"`
	GlossaryTerms    []string          `json:"glossaryTerms,omitempty" yaml:"glossaryTerms"`
	UpstreamDatasets []string          `json:"upstreamDatasets,omitempty" yaml:"upstreamDatasets"`
	Links            Links             `json:"links,omitempty" yaml:"links"`
}

// DashboardRequest describes a dashboard update. Each dashboard is published
// together with a single chart of the same name.
type DashboardRequest struct {
	Name          string   `json:"name" yaml:"name"`
	Inputs        []string `json:"inputs,omitempty" yaml:"inputs"`
	Title         string   `json:"title,omitempty" yaml:"title"`
	Description   *string  `json:"description,omitempty" yaml:"description"`
	ChangeType    string   `json:"changeType,omitempty" yaml:"changeType"`
	Platform      string   `json:"platform,omitempty" yaml:"platform"`
	Tags          []string `json:"tags,omitempty" yaml:"tags"`
	Owners        []string `json:"owners,omitempty" yaml:"owners"`
	GlossaryTerms []string `json:"glossaryTerms,omitempty" yaml:"glossaryTerms"`
	Links         Links    `json:"links,omitempty" yaml:"links"`
	URL           *string  `json:"url,omitempty" yaml:"url"`
}
