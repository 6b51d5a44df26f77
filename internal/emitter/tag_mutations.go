package emitter

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpattn/metaemit/internal/domain"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"go.uber.org/zap"
)

const (
	graphQLPath = "/api/graphql"
	actorHeader = "X-DataHub-Actor"
)

var (
	addTagMutation = mustParseMutation("addTag", `mutation addTag($input: TagAssociationInput!) {
  addTag(input: $input)
}`)
	removeTagMutation = mustParseMutation("removeTag", `mutation removeTag($input: TagAssociationInput!) {
  removeTag(input: $input)
}`)
)

// GraphQLRequest is the body posted to the catalog GraphQL endpoint.
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// TagAssociationInput is the mutation input for tag association calls.
type TagAssociationInput struct {
	TagURN      string `json:"tagUrn"`
	ResourceURN string `json:"resourceUrn"`
}

type mutation struct {
	name  string
	query string
}

func mustParseMutation(name, query string) mutation {
	if err := checkMutation(name, query); err != nil {
		panic(err)
	}
	return mutation{name: name, query: query}
}

// checkMutation makes sure the document is a single named mutation taking an
// $input variable and selecting the field of the same name.
func checkMutation(name, query string) error {
	doc, perr := parser.ParseQuery(&ast.Source{Name: name, Input: query})
	if perr != nil {
		return fmt.Errorf("parse %s mutation: %v", name, perr)
	}
	if len(doc.Operations) != 1 {
		return fmt.Errorf("%s: expected one operation, got %d", name, len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Operation != ast.Mutation || op.Name != name {
		return fmt.Errorf("%s: expected mutation named %s, got %s %s", name, name, op.Operation, op.Name)
	}
	hasInput := false
	for _, def := range op.VariableDefinitions {
		if def.Variable == "input" {
			hasInput = true
		}
	}
	if !hasInput {
		return fmt.Errorf("%s: missing $input variable", name)
	}
	if len(op.SelectionSet) != 1 {
		return fmt.Errorf("%s: expected one selected field", name)
	}
	field, ok := op.SelectionSet[0].(*ast.Field)
	if !ok || field.Name != name {
		return fmt.Errorf("%s: expected selection of field %s", name, name)
	}
	return nil
}

// AddDatasetTag attaches a tag to a dataset on the configured platform and
// environment. The mutation response is not inspected.
func (e *Emitter) AddDatasetTag(ctx context.Context, name, tag string) error {
	return e.mutateDatasetTag(ctx, addTagMutation, name, tag)
}

// RemoveDatasetTag detaches a tag from a dataset on the configured platform
// and environment. The mutation response is not inspected.
func (e *Emitter) RemoveDatasetTag(ctx context.Context, name, tag string) error {
	return e.mutateDatasetTag(ctx, removeTagMutation, name, tag)
}

// DatasetResourceURN is the urn tag mutations target for a dataset name.
func (e *Emitter) DatasetResourceURN(name string) string {
	return domain.MakeDatasetURN(e.config.DatasetPlatform, name, e.config.Env)
}

func (e *Emitter) mutateDatasetTag(ctx context.Context, m mutation, name, tag string) error {
	endpoint := strings.TrimSuffix(e.config.GMSServer, "/") + graphQLPath
	body := GraphQLRequest{
		Query: m.query,
		Variables: map[string]any{
			"input": TagAssociationInput{
				TagURN:      domain.MakeTagURN(tag),
				ResourceURN: e.DatasetResourceURN(name),
			},
		},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + e.config.Token,
		actorHeader:     e.config.Actor,
	}

	e.log.Debug("posting tag mutation",
		zap.String("mutation", m.name),
		zap.String("dataset", name),
		zap.String("tag", tag),
	)
	if _, err := e.poster.Post(ctx, endpoint, body, headers); err != nil {
		e.log.Error("tag mutation failed",
			zap.String("mutation", m.name),
			zap.String("dataset", name),
			zap.String("tag", tag),
			zap.Error(err),
		)
		return err
	}
	return nil
}
