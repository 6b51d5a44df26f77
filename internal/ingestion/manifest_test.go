package ingestion

import (
	"errors"
	"testing"

	"github.com/rpattn/metaemit/internal/emitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseManifestYAML(t *testing.T) {
	doc := `
glossaryTerms:
  - name: Revenue
    definition: Money in
tags:
  - name: pii
users:
  - name: alice
    email: alice@example.com
    active: false
datasets:
  - name: sales.orders
    description: All orders
    tags: [pii]
    customProperties:
      team: sales
    links:
      Runbook: https://wiki/runbook
      Dashboard: https://dash
dashboards:
  - name: kpis
    inputs: [sales.orders]
`
	manifest, err := ParseManifest("catalog.yaml", []byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 5, manifest.Len())
	require.Len(t, manifest.Users, 1)
	require.NotNil(t, manifest.Users[0].Active)
	assert.False(t, *manifest.Users[0].Active)

	ds := manifest.Datasets[0]
	assert.Equal(t, "All orders", *ds.Description)
	assert.Nil(t, ds.URL)
	assert.Equal(t, map[string]string{"team": "sales"}, ds.CustomProperties)
	assert.Equal(t, emitter.Links{
		{Description: "Runbook", URL: "https://wiki/runbook"},
		{Description: "Dashboard", URL: "https://dash"},
	}, ds.Links)
	assert.Equal(t, []string{"sales.orders"}, manifest.Dashboards[0].Inputs)
}

func TestParseManifestJSON(t *testing.T) {
	doc := `{"datasets":[{"name":"ds1","upstreamDatasets":["raw"]}]}`
	manifest, err := ParseManifest("batch.json", []byte(doc))
	require.NoError(t, err)
	require.Len(t, manifest.Datasets, 1)
	assert.Equal(t, []string{"raw"}, manifest.Datasets[0].UpstreamDatasets)
}

func TestParseManifestJSONEscapesAndLinkOrder(t *testing.T) {
	doc := `{"datasets":[{"name":"ds1","url":"https:\/\/wiki\/x","links":{"Zeta":"https:\/\/z","Alpha":"https://a"}}]}`
	manifest, err := ParseManifest("batch.json", []byte(doc))
	require.NoError(t, err)
	require.Len(t, manifest.Datasets, 1)

	ds := manifest.Datasets[0]
	require.NotNil(t, ds.URL)
	assert.Equal(t, "https://wiki/x", *ds.URL)
	assert.Equal(t, emitter.Links{
		{Description: "Zeta", URL: "https://z"},
		{Description: "Alpha", URL: "https://a"},
	}, ds.Links)
}

func TestParseManifestRejectsUnknownFields(t *testing.T) {
	_, err := ParseManifest("catalog.yml", []byte("datasets:\n  - name: a\n    colour: red\n"))
	assert.Error(t, err)

	_, err = ParseManifest("catalog.json", []byte(`{"datasets":[{"name":"a","colour":"red"}]}`))
	assert.Error(t, err)

	_, err = ParseManifest("catalog.json", []byte(`{"datasets":[{"name":"a"}],"widgets":[]}`))
	assert.Error(t, err)
}

func TestParseManifestJSONEmpty(t *testing.T) {
	_, err := ParseManifest("batch.json", []byte("  \n"))
	assert.True(t, errors.Is(err, ErrEmptyManifest))

	_, err = ParseManifest("batch.json", []byte(`{}`))
	assert.True(t, errors.Is(err, ErrEmptyManifest))

	_, err = ParseManifest("batch.json", []byte(`{"datasets":`))
	assert.Error(t, err)
}

func TestParseManifestEmpty(t *testing.T) {
	_, err := ParseManifest("catalog.yaml", []byte("# nothing\n"))
	assert.True(t, errors.Is(err, ErrEmptyManifest))

	_, err = ParseManifest("catalog.yaml", []byte("datasets: []\n"))
	assert.True(t, errors.Is(err, ErrEmptyManifest))

	_, err = ParseManifest("catalog.yaml", nil)
	assert.Error(t, err)
}

func TestParseManifestUnsupportedFormat(t *testing.T) {
	_, err := ParseManifest("catalog.txt", []byte("x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestParseManifestCSV(t *testing.T) {
	data := "\xEF\xBB\xBFName,Platform,Description,Tags,Owners,Upstream Datasets,Links,prop.Cost Center\n" +
		"sales.orders,hive,All orders,\"pii;finance\",\"alice, bob\",raw.orders,Runbook=https://wiki/rb?a=1; Docs=https://docs,42\n" +
		",,,,,,,\n" +
		"sales.refunds,,,,,,,\n"

	manifest, err := ParseManifest("datasets.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, manifest.Datasets, 2)

	first := manifest.Datasets[0]
	assert.Equal(t, "sales.orders", first.Name)
	assert.Equal(t, "hive", first.Platform)
	assert.Equal(t, "All orders", *first.Description)
	assert.Equal(t, []string{"pii", "finance"}, first.Tags)
	assert.Equal(t, []string{"alice", "bob"}, first.Owners)
	assert.Equal(t, []string{"raw.orders"}, first.UpstreamDatasets)
	assert.Equal(t, emitter.Links{
		{Description: "Runbook", URL: "https://wiki/rb?a=1"},
		{Description: "Docs", URL: "https://docs"},
	}, first.Links)
	assert.Equal(t, map[string]string{"Cost Center": "42"}, first.CustomProperties)

	second := manifest.Datasets[1]
	assert.Equal(t, "sales.refunds", second.Name)
	assert.Nil(t, second.Description)
	assert.Nil(t, second.Tags)
	assert.Nil(t, second.CustomProperties)
	assert.Nil(t, second.Links)
}

func TestParseManifestCSVRequiresName(t *testing.T) {
	_, err := ParseManifest("datasets.csv", []byte("name,platform\n,hive\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func buildWorkbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseManifestXLSX(t *testing.T) {
	payload := buildWorkbook(t, map[string][][]any{
		"Datasets": {
			{"name", "description", "glossary_terms"},
			{"ds1", "first", "Revenue"},
		},
		"Dashboards": {
			{"name", "title", "inputs", "platform"},
			{"kpis", "KPIs", "ds1;ds2", "looker"},
		},
		"Users": {
			{"name", "email", "display name", "active"},
			{"alice", "alice@example.com", "Alice", "TRUE"},
		},
		"Glossary Terms": {
			{"name", "definition"},
			{"Revenue", "Money in"},
		},
		"Notes": {
			{"anything"},
			{"ignored"},
		},
	})

	manifest, err := ParseManifest("catalog.xlsx", payload)
	require.NoError(t, err)

	require.Len(t, manifest.Datasets, 1)
	assert.Equal(t, []string{"Revenue"}, manifest.Datasets[0].GlossaryTerms)

	require.Len(t, manifest.Dashboards, 1)
	assert.Equal(t, "KPIs", manifest.Dashboards[0].Title)
	assert.Equal(t, []string{"ds1", "ds2"}, manifest.Dashboards[0].Inputs)
	assert.Equal(t, "looker", manifest.Dashboards[0].Platform)

	require.Len(t, manifest.Users, 1)
	assert.Equal(t, "Alice", manifest.Users[0].DisplayName)
	require.NotNil(t, manifest.Users[0].Active)
	assert.True(t, *manifest.Users[0].Active)

	require.Len(t, manifest.GlossaryTerms, 1)
	assert.Equal(t, "Money in", manifest.GlossaryTerms[0].Definition)
	assert.Empty(t, manifest.Tags)
}

func TestParseManifestXLSXFallsBackToFirstSheet(t *testing.T) {
	payload := buildWorkbook(t, map[string][][]any{
		"Inventory": {
			{"name", "env"},
			{"ds1", "PROD"},
		},
	})

	manifest, err := ParseManifest("catalog.xlsx", payload)
	require.NoError(t, err)
	require.Len(t, manifest.Datasets, 1)
	assert.Equal(t, "PROD", manifest.Datasets[0].Env)
}

func TestParseManifestXLSXInvalidActive(t *testing.T) {
	payload := buildWorkbook(t, map[string][][]any{
		"users": {
			{"name", "active"},
			{"alice", "sometimes"},
		},
	})

	_, err := ParseManifest("catalog.xlsx", payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid active value")
}
