package domain

// Aspect is a typed payload for one facet of an entity.
type Aspect interface {
	AspectName() string
}

const (
	AspectGlossaryTermInfo    = "glossaryTermInfo"
	AspectCorpUserInfo        = "corpUserInfo"
	AspectTagProperties       = "tagProperties"
	AspectDatasetProperties   = "datasetProperties"
	AspectGlobalTags          = "globalTags"
	AspectOwnership           = "ownership"
	AspectGlossaryTerms       = "glossaryTerms"
	AspectUpstreamLineage     = "upstreamLineage"
	AspectInstitutionalMemory = "institutionalMemory"
	AspectChartInfo           = "chartInfo"
	AspectDashboardInfo       = "dashboardInfo"
)

// AuditStamp records who made a change and when.
type AuditStamp struct {
	Time  int64  `json:"time"`
	Actor string `json:"actor"`
}

// NewAuditStamp returns the stamp attached to audited aspects. The time is
// always the epoch.
// TODO: stamp with the send time once the catalog owners confirm the zero
// time was never intended.
func NewAuditStamp(actor string) AuditStamp {
	return AuditStamp{Time: 0, Actor: actor}
}

// ChangeAuditStamps groups the stamps of a chart or dashboard.
type ChangeAuditStamps struct {
	Created AuditStamp `json:"created"`
}

type GlossaryTermInfo struct {
	Definition string `json:"definition"`
	TermSource string `json:"termSource"`
}

func (GlossaryTermInfo) AspectName() string { return AspectGlossaryTermInfo }

type CorpUserInfo struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Active      bool   `json:"active"`
}

func (CorpUserInfo) AspectName() string { return AspectCorpUserInfo }

type TagProperties struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (TagProperties) AspectName() string { return AspectTagProperties }

// DatasetProperties is written twice by a dataset update: once with the
// description and url, once with only custom properties.
type DatasetProperties struct {
	Description      *string           `json:"description,omitempty"`
	ExternalURL      *string           `json:"externalUrl,omitempty"`
	CustomProperties map[string]string `json:"customProperties,omitempty"`
}

func (DatasetProperties) AspectName() string { return AspectDatasetProperties }

type TagAssociation struct {
	Tag string `json:"tag"`
}

type GlobalTags struct {
	Tags []TagAssociation `json:"tags"`
}

func (GlobalTags) AspectName() string { return AspectGlobalTags }

// OwnershipType classifies an owner.
type OwnershipType string

const OwnershipTypeDataOwner OwnershipType = "DATAOWNER"

type Owner struct {
	Owner string        `json:"owner"`
	Type  OwnershipType `json:"type"`
}

type Ownership struct {
	Owners []Owner `json:"owners"`
}

func (Ownership) AspectName() string { return AspectOwnership }

type GlossaryTermAssociation struct {
	URN string `json:"urn"`
}

type GlossaryTerms struct {
	Terms      []GlossaryTermAssociation `json:"terms"`
	AuditStamp AuditStamp                `json:"auditStamp"`
}

func (GlossaryTerms) AspectName() string { return AspectGlossaryTerms }

// DatasetLineageType describes how an upstream feeds a dataset.
type DatasetLineageType string

const DatasetLineageTransformed DatasetLineageType = "TRANSFORMED"

type Upstream struct {
	Dataset string             `json:"dataset"`
	Type    DatasetLineageType `json:"type"`
}

type UpstreamLineage struct {
	Upstreams []Upstream `json:"upstreams"`
}

func (UpstreamLineage) AspectName() string { return AspectUpstreamLineage }

type InstitutionalMemoryMetadata struct {
	URL         string     `json:"url"`
	Description string     `json:"description"`
	CreateStamp AuditStamp `json:"createStamp"`
}

type InstitutionalMemory struct {
	Elements []InstitutionalMemoryMetadata `json:"elements"`
}

func (InstitutionalMemory) AspectName() string { return AspectInstitutionalMemory }

type ChartInfo struct {
	Title        string            `json:"title"`
	Description  *string           `json:"description,omitempty"`
	ExternalURL  *string           `json:"externalUrl,omitempty"`
	LastModified ChangeAuditStamps `json:"lastModified"`
	Inputs       []string          `json:"inputs"`
}

func (ChartInfo) AspectName() string { return AspectChartInfo }

type DashboardInfo struct {
	Title        string            `json:"title"`
	Description  *string           `json:"description,omitempty"`
	ExternalURL  *string           `json:"externalUrl,omitempty"`
	Charts       []string          `json:"charts"`
	LastModified ChangeAuditStamps `json:"lastModified"`
}

func (DashboardInfo) AspectName() string { return AspectDashboardInfo }
