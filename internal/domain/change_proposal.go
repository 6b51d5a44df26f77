package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ChangeType is the write semantics requested for a change proposal.
type ChangeType string

const (
	ChangeTypeUpsert ChangeType = "UPSERT"
	ChangeTypeUpdate ChangeType = "UPDATE"
	ChangeTypeCreate ChangeType = "CREATE"
	ChangeTypeDelete ChangeType = "DELETE"
)

// ResolveChangeType maps a lowercase token to a ChangeType. Anything that is
// not one of the four known tokens resolves to UPSERT.
func ResolveChangeType(token string) ChangeType {
	switch token {
	case "upsert":
		return ChangeTypeUpsert
	case "update":
		return ChangeTypeUpdate
	case "create":
		return ChangeTypeCreate
	case "delete":
		return ChangeTypeDelete
	default:
		return ChangeTypeUpsert
	}
}

// EntityType names the catalog entity a proposal targets.
type EntityType string

const (
	EntityTypeGlossaryTerm EntityType = "glossaryTerm"
	EntityTypeCorpUser     EntityType = "corpuser"
	EntityTypeTag          EntityType = "tag"
	EntityTypeDataset      EntityType = "dataset"
	EntityTypeChart        EntityType = "chart"
	EntityTypeDashboard    EntityType = "dashboard"
)

// ErrInvalidProposal is returned by Validate for proposals that cannot be sent.
var ErrInvalidProposal = errors.New("invalid change proposal")

// ChangeProposal is one unit of change sent to the catalog. It is built, sent
// once and discarded.
type ChangeProposal struct {
	EntityType EntityType `json:"entityType"`
	ChangeType ChangeType `json:"changeType"`
	EntityURN  string     `json:"entityUrn"`
	AspectName string     `json:"aspectName"`
	Aspect     Aspect     `json:"aspect"`
}

// NewChangeProposal builds a proposal whose AspectName is taken from the aspect
// itself.
func NewChangeProposal(entityType EntityType, changeType ChangeType, entityURN string, aspect Aspect) ChangeProposal {
	proposal := ChangeProposal{
		EntityType: entityType,
		ChangeType: changeType,
		EntityURN:  entityURN,
		Aspect:     aspect,
	}
	if aspect != nil {
		proposal.AspectName = aspect.AspectName()
	}
	return proposal
}

// Validate checks the proposal shape before it goes on the wire.
func (p ChangeProposal) Validate() error {
	if strings.TrimSpace(p.EntityURN) == "" {
		return fmt.Errorf("%w: entity urn is required", ErrInvalidProposal)
	}
	if p.EntityType == "" {
		return fmt.Errorf("%w: entity type is required for %s", ErrInvalidProposal, p.EntityURN)
	}
	if p.Aspect == nil {
		return fmt.Errorf("%w: aspect is required for %s", ErrInvalidProposal, p.EntityURN)
	}
	if p.AspectName != p.Aspect.AspectName() {
		return fmt.Errorf("%w: aspect name %q does not match payload %q", ErrInvalidProposal, p.AspectName, p.Aspect.AspectName())
	}
	return nil
}
