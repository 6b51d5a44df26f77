package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rpattn/metaemit/internal/emitter"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// manifestJSON rejects unknown fields, matching the strict YAML decoder.
var manifestJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

var (
	// ErrUnsupportedFormat is returned when a manifest file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyManifest is returned when a manifest declares nothing.
	ErrEmptyManifest = errors.New("manifest is empty")
)

const (
	sheetDatasets      = "datasets"
	sheetDashboards    = "dashboards"
	sheetUsers         = "users"
	sheetTags          = "tags"
	sheetGlossaryTerms = "glossary_terms"
)

// Manifest is a batch of entity updates.
type Manifest struct {
	GlossaryTerms []emitter.GlossaryTermRequest `json:"glossaryTerms,omitempty" yaml:"glossaryTerms"`
	Tags          []emitter.TagRequest          `json:"tags,omitempty" yaml:"tags"`
	Users         []emitter.UserRequest         `json:"users,omitempty" yaml:"users"`
	Datasets      []emitter.DatasetRequest      `json:"datasets,omitempty" yaml:"datasets"`
	Dashboards    []emitter.DashboardRequest    `json:"dashboards,omitempty" yaml:"dashboards"`
}

// Len returns the number of entity updates in the manifest.
func (m Manifest) Len() int {
	return len(m.GlossaryTerms) + len(m.Tags) + len(m.Users) + len(m.Datasets) + len(m.Dashboards)
}

// ParseManifest decodes a manifest from a YAML or JSON document, a CSV of
// datasets or an XLSX workbook with one sheet per entity kind.
func ParseManifest(fileName string, payload []byte) (Manifest, error) {
	if len(payload) == 0 {
		return Manifest{}, errors.New("file is empty")
	}

	var (
		manifest Manifest
		err      error
	)
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".yaml", ".yml":
		manifest, err = parseDocument(payload)
	case ".json":
		manifest, err = parseJSONDocument(payload)
	case ".csv":
		var table tableData
		table, err = parseCSV(payload)
		if err == nil {
			err = addTable(&manifest, table)
		}
	case ".xlsx":
		manifest, err = parseWorkbook(payload)
	default:
		return Manifest{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Manifest{}, err
	}
	if manifest.Len() == 0 {
		return Manifest{}, ErrEmptyManifest
	}
	return manifest, nil
}

func parseDocument(payload []byte) (Manifest, error) {
	var manifest Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		if errors.Is(err, io.EOF) {
			return Manifest{}, ErrEmptyManifest
		}
		return Manifest{}, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return manifest, nil
}

func parseJSONDocument(payload []byte) (Manifest, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return Manifest{}, ErrEmptyManifest
	}
	var manifest Manifest
	if err := manifestJSON.Unmarshal(payload, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return manifest, nil
}

func parseWorkbook(payload []byte) (Manifest, error) {
	tables, err := parseExcel(payload)
	if err != nil {
		return Manifest{}, err
	}

	var manifest Manifest
	matched := false
	for _, table := range tables {
		if !isKnownSheet(table.name) {
			continue
		}
		matched = true
		if err := addTable(&manifest, table); err != nil {
			return Manifest{}, err
		}
	}
	if !matched && len(tables) > 0 {
		first := tables[0]
		first.name = sheetDatasets
		if err := addTable(&manifest, first); err != nil {
			return Manifest{}, err
		}
	}
	return manifest, nil
}

func isKnownSheet(name string) bool {
	switch name {
	case sheetDatasets, sheetDashboards, sheetUsers, sheetTags, sheetGlossaryTerms:
		return true
	}
	return false
}

func addTable(manifest *Manifest, table tableData) error {
	for _, row := range table.rows {
		if row.get("name") == "" {
			return fmt.Errorf("%s row %d: name is required", table.name, row.number)
		}
		switch table.name {
		case sheetDatasets:
			manifest.Datasets = append(manifest.Datasets, datasetFromRow(row))
		case sheetDashboards:
			manifest.Dashboards = append(manifest.Dashboards, dashboardFromRow(row))
		case sheetUsers:
			user, err := userFromRow(row)
			if err != nil {
				return fmt.Errorf("%s row %d: %w", table.name, row.number, err)
			}
			manifest.Users = append(manifest.Users, user)
		case sheetTags:
			manifest.Tags = append(manifest.Tags, emitter.TagRequest{
				Name:        row.get("name"),
				Description: row.get("description"),
				ChangeType:  row.get("change_type"),
			})
		case sheetGlossaryTerms:
			manifest.GlossaryTerms = append(manifest.GlossaryTerms, emitter.GlossaryTermRequest{
				Name:       row.get("name"),
				Definition: row.get("definition"),
				Source:     row.get("source"),
				ChangeType: row.get("change_type"),
			})
		default:
			return fmt.Errorf("unknown table %s", table.name)
		}
	}
	return nil
}

func datasetFromRow(row tableRow) emitter.DatasetRequest {
	req := emitter.DatasetRequest{
		Name:             row.get("name"),
		Platform:         row.get("platform"),
		Env:              row.get("env"),
		Description:      optionalString(row.values["description"]),
		URL:              optionalString(row.values["url"]),
		Tags:             splitList(row.values["tags"]),
		ChangeType:       row.get("change_type"),
		Owners:           splitList(row.values["owners"]),
		GlossaryTerms:    splitList(row.values["glossary_terms"]),
		UpstreamDatasets: splitList(row.values["upstream_datasets"]),
		Links:            parseLinks(row.values["links"]),
	}
	if len(row.props) > 0 {
		req.CustomProperties = row.props
	}
	return req
}

func dashboardFromRow(row tableRow) emitter.DashboardRequest {
	return emitter.DashboardRequest{
		Name:          row.get("name"),
		Inputs:        splitList(row.values["inputs"]),
		Title:         row.get("title"),
		Description:   optionalString(row.values["description"]),
		ChangeType:    row.get("change_type"),
		Platform:      row.get("platform"),
		Tags:          splitList(row.values["tags"]),
		Owners:        splitList(row.values["owners"]),
		GlossaryTerms: splitList(row.values["glossary_terms"]),
		Links:         parseLinks(row.values["links"]),
		URL:           optionalString(row.values["url"]),
	}
}

func userFromRow(row tableRow) (emitter.UserRequest, error) {
	req := emitter.UserRequest{
		Name:        row.get("name"),
		Email:       row.get("email"),
		DisplayName: row.get("display_name"),
		ChangeType:  row.get("change_type"),
	}
	if raw := row.get("active"); raw != "" {
		active, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return req, fmt.Errorf("invalid active value %q", raw)
		}
		req.Active = &active
	}
	return req, nil
}

// parseLinks reads "description=url" pairs separated by semicolons.
func parseLinks(cell string) emitter.Links {
	var links emitter.Links
	for _, pair := range strings.Split(cell, ";") {
		description, url, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		description = strings.TrimSpace(description)
		url = strings.TrimSpace(url)
		if description == "" || url == "" {
			continue
		}
		links = append(links, emitter.Link{Description: description, URL: url})
	}
	return links
}
