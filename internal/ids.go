package internal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ID is an opaque catalog identifier. Catalog files may write it as a string
// or a number; either way it is kept as the literal text.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("catalog id must be a string or a number, got %s", b)
	}
	*id = ID(n.String())
	return nil
}

func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: catalog id must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		return nil
	}
	*id = ID(node.Value)
	return nil
}

func idStrings(ids []ID) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

type smlEntryFile struct {
	ID    ID      `json:"id" yaml:"id"`
	Value float64 `json:"value" yaml:"value"`
}

func (e *SMLEntry) UnmarshalJSON(b []byte) error {
	var raw smlEntryFile
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = SMLEntry{SubstanceID: string(raw.ID), Value: raw.Value}
	return nil
}

func (e *SMLEntry) UnmarshalYAML(node *yaml.Node) error {
	var raw smlEntryFile
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*e = SMLEntry{SubstanceID: string(raw.ID), Value: raw.Value}
	return nil
}

type manifestFile struct {
	Supplier  string     `json:"supplier" yaml:"supplier"`
	SML       []SMLEntry `json:"sml" yaml:"sml"`
	DualUse   []ID       `json:"dual_use" yaml:"dual_use"`
	UpdatedAt string     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func (raw manifestFile) manifest() SupplierManifest {
	return SupplierManifest{
		Supplier:  raw.Supplier,
		SML:       raw.SML,
		DualUse:   idStrings(raw.DualUse),
		UpdatedAt: raw.UpdatedAt,
	}
}

func (m *SupplierManifest) UnmarshalJSON(b []byte) error {
	var raw manifestFile
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = raw.manifest()
	return nil
}

func (m *SupplierManifest) UnmarshalYAML(node *yaml.Node) error {
	var raw manifestFile
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*m = raw.manifest()
	return nil
}
