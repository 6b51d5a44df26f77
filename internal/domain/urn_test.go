package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURNBuilders(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"user", MakeUserURN("alice"), "urn:li:corpuser:alice"},
		{"user already urn", MakeUserURN("urn:li:corpuser:bob"), "urn:li:corpuser:bob"},
		{"tag", MakeTagURN("pii"), "urn:li:tag:pii"},
		{"tag already urn", MakeTagURN("urn:li:tag:finance"), "urn:li:tag:finance"},
		{"glossary term", MakeGlossaryTermURN("Revenue"), "urn:li:glossaryTerm:Revenue"},
		{"platform", MakeDataPlatformURN("bigquery"), "urn:li:dataPlatform:bigquery"},
		{"platform already urn", MakeDataPlatformURN("urn:li:dataPlatform:hive"), "urn:li:dataPlatform:hive"},
		{"dataset", MakeDatasetURN("bigquery", "proj.sales.orders", "PROD"), "urn:li:dataset:(urn:li:dataPlatform:bigquery,proj.sales.orders,PROD)"},
		{"chart", MakeChartURN("datastudio", "kpis"), "urn:li:chart:(datastudio,kpis)"},
		{"dashboard", MakeDashboardURN("datastudio", "kpis"), "urn:li:dashboard:(datastudio,kpis)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got)
		})
	}
}

func TestMakeDatasetURNIsDeterministic(t *testing.T) {
	assert.Equal(t, MakeDatasetURN("hive", "db.t", "DEV"), MakeDatasetURN("hive", "db.t", "DEV"))
}
