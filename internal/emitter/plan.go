package emitter

import (
	"github.com/rpattn/metaemit/internal/domain"
)

// optionalGroup is one row of the optional aspect table. Rows are evaluated in
// slice order and only present rows produce a proposal.
type optionalGroup struct {
	present bool
	build   func() domain.Aspect
}

func (e *Emitter) PlanGlossaryTerm(req GlossaryTermRequest) []domain.ChangeProposal {
	source := req.Source
	if source == "" {
		source = defaultTermSource
	}
	return []domain.ChangeProposal{
		domain.NewChangeProposal(
			domain.EntityTypeGlossaryTerm,
			domain.ResolveChangeType(req.ChangeType),
			domain.MakeGlossaryTermURN(req.Name),
			domain.GlossaryTermInfo{Definition: req.Definition, TermSource: source},
		),
	}
}

func (e *Emitter) PlanUser(req UserRequest) []domain.ChangeProposal {
	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return []domain.ChangeProposal{
		domain.NewChangeProposal(
			domain.EntityTypeCorpUser,
			domain.ResolveChangeType(req.ChangeType),
			domain.MakeUserURN(req.Name),
			domain.CorpUserInfo{DisplayName: displayName, Email: req.Email, Active: active},
		),
	}
}

func (e *Emitter) PlanTag(req TagRequest) []domain.ChangeProposal {
	return []domain.ChangeProposal{
		domain.NewChangeProposal(
			domain.EntityTypeTag,
			domain.ResolveChangeType(req.ChangeType),
			domain.MakeTagURN(req.Name),
			domain.TagProperties{Name: req.Name, Description: req.Description},
		),
	}
}

// PlanDataset returns the proposals UpsertDataset sends, in send order.
func (e *Emitter) PlanDataset(req DatasetRequest) []domain.ChangeProposal {
	platform := req.Platform
	if platform == "" {
		platform = e.config.DatasetPlatform
	}
	env := req.Env
	if env == "" {
		env = e.config.Env
	}
	changeType := domain.ResolveChangeType(req.ChangeType)
	urn := domain.MakeDatasetURN(platform, req.Name, env)

	proposals := []domain.ChangeProposal{
		domain.NewChangeProposal(domain.EntityTypeDataset, changeType, urn, domain.DatasetProperties{
			Description: req.Description,
			ExternalURL: req.URL,
		}),
	}

	groups := []optionalGroup{
		{len(req.Tags) > 0, func() domain.Aspect { return globalTags(req.Tags) }},
		{len(req.Owners) > 0, func() domain.Aspect { return ownership(req.Owners) }},
		{len(req.CustomProperties) > 0, func() domain.Aspect {
			return domain.DatasetProperties{CustomProperties: copyProperties(req.CustomProperties)}
		}},
		{len(req.GlossaryTerms) > 0, func() domain.Aspect { return e.glossaryTerms(req.GlossaryTerms) }},
		{len(req.UpstreamDatasets) > 0, func() domain.Aspect { return upstreamLineage(platform, env, req.UpstreamDatasets) }},
		{len(req.Links) > 0, func() domain.Aspect { return e.institutionalMemory(req.Links) }},
	}
	return appendGroups(proposals, domain.EntityTypeDataset, changeType, urn, groups)
}

// PlanDashboard returns the proposals UpsertDashboard sends, in send order.
func (e *Emitter) PlanDashboard(req DashboardRequest) []domain.ChangeProposal {
	platform := req.Platform
	if platform == "" {
		platform = e.config.DashboardPlatform
	}
	title := req.Title
	if title == "" {
		title = req.Name
	}
	changeType := domain.ResolveChangeType(req.ChangeType)
	chartURN := domain.MakeChartURN(platform, req.Name)
	dashboardURN := domain.MakeDashboardURN(platform, req.Name)
	lastModified := domain.ChangeAuditStamps{Created: domain.NewAuditStamp(e.config.Actor)}

	inputs := make([]string, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		inputs = append(inputs, domain.MakeDatasetURN(e.config.DatasetPlatform, input, e.config.Env))
	}

	proposals := []domain.ChangeProposal{
		domain.NewChangeProposal(domain.EntityTypeChart, changeType, chartURN, domain.ChartInfo{
			Title:        title,
			Description:  req.Description,
			ExternalURL:  req.URL,
			LastModified: lastModified,
			Inputs:       inputs,
		}),
		domain.NewChangeProposal(domain.EntityTypeDashboard, changeType, dashboardURN, domain.DashboardInfo{
			Title:        title,
			Description:  req.Description,
			ExternalURL:  req.URL,
			Charts:       []string{chartURN},
			LastModified: lastModified,
		}),
	}

	groups := []optionalGroup{
		{len(req.Tags) > 0, func() domain.Aspect { return globalTags(req.Tags) }},
		{len(req.Owners) > 0, func() domain.Aspect { return ownership(req.Owners) }},
		{len(req.GlossaryTerms) > 0, func() domain.Aspect { return e.glossaryTerms(req.GlossaryTerms) }},
		{len(req.Links) > 0, func() domain.Aspect { return e.institutionalMemory(req.Links) }},
	}
	return appendGroups(proposals, domain.EntityTypeDashboard, changeType, dashboardURN, groups)
}

func appendGroups(proposals []domain.ChangeProposal, entityType domain.EntityType, changeType domain.ChangeType, urn string, groups []optionalGroup) []domain.ChangeProposal {
	for _, group := range groups {
		if !group.present {
			continue
		}
		proposals = append(proposals, domain.NewChangeProposal(entityType, changeType, urn, group.build()))
	}
	return proposals
}

func globalTags(tags []string) domain.GlobalTags {
	associations := make([]domain.TagAssociation, 0, len(tags))
	for _, tag := range tags {
		associations = append(associations, domain.TagAssociation{Tag: domain.MakeTagURN(tag)})
	}
	return domain.GlobalTags{Tags: associations}
}

func ownership(owners []string) domain.Ownership {
	out := make([]domain.Owner, 0, len(owners))
	for _, owner := range owners {
		out = append(out, domain.Owner{Owner: domain.MakeUserURN(owner), Type: domain.OwnershipTypeDataOwner})
	}
	return domain.Ownership{Owners: out}
}

func upstreamLineage(platform, env string, upstreams []string) domain.UpstreamLineage {
	out := make([]domain.Upstream, 0, len(upstreams))
	for _, name := range upstreams {
		out = append(out, domain.Upstream{
			Dataset: domain.MakeDatasetURN(platform, name, env),
			Type:    domain.DatasetLineageTransformed,
		})
	}
	return domain.UpstreamLineage{Upstreams: out}
}

func (e *Emitter) glossaryTerms(terms []string) domain.GlossaryTerms {
	out := make([]domain.GlossaryTermAssociation, 0, len(terms))
	for _, term := range terms {
		out = append(out, domain.GlossaryTermAssociation{URN: domain.MakeGlossaryTermURN(term)})
	}
	return domain.GlossaryTerms{Terms: out, AuditStamp: domain.NewAuditStamp(e.config.Actor)}
}

func (e *Emitter) institutionalMemory(links Links) domain.InstitutionalMemory {
	elements := make([]domain.InstitutionalMemoryMetadata, 0, len(links))
	for _, link := range links {
		elements = append(elements, domain.InstitutionalMemoryMetadata{
			URL:         link.URL,
			Description: link.Description,
			CreateStamp: domain.NewAuditStamp(e.config.Actor),
		})
	}
	return domain.InstitutionalMemory{Elements: elements}
}

func copyProperties(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
