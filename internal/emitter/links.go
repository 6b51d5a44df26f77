package emitter

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Link is one institutional memory entry: a description and the url it
// points to.
type Link struct {
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url" yaml:"url"`
}

// Links keeps document order. It decodes from either a list of
// {description, url} objects or a description→url mapping.
type Links []Link

func (l *Links) UnmarshalJSON(data []byte) error {
	iter := json.BorrowIterator(data)
	defer json.ReturnIterator(iter)

	var out Links
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.Skip()
	case jsoniter.ObjectValue:
		out = Links{}
		iter.ReadMapCB(func(it *jsoniter.Iterator, description string) bool {
			out = append(out, Link{Description: description, URL: it.ReadString()})
			return true
		})
	case jsoniter.ArrayValue:
		var list []Link
		iter.ReadVal(&list)
		out = list
	default:
		return fmt.Errorf("links must be an object or an array")
	}
	if iter.Error != nil {
		return fmt.Errorf("decode links: %w", iter.Error)
	}
	*l = out
	return nil
}

func (l *Links) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(Links, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			out = append(out, Link{Description: node.Content[i].Value, URL: node.Content[i+1].Value})
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		var list []Link
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("decode links: %w", err)
		}
		*l = list
		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}
		return fmt.Errorf("links must be a mapping or a sequence, line %d", node.Line)
	default:
		return fmt.Errorf("links must be a mapping or a sequence, line %d", node.Line)
	}
}
