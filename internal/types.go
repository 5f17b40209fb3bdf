package internal

type SubstanceRecord struct {
	CAS    string `json:"cas" yaml:"cas"`
	NameEN string `json:"name_en" yaml:"name_en"`
	NamePL string `json:"name_pl" yaml:"name_pl"`
	RefNo  string `json:"ref_no" yaml:"ref_no"`
}

type DualUseRecord struct {
	CAS     string `json:"cas" yaml:"cas"`
	NameEN  string `json:"name_en" yaml:"name_en"`
	NamePL  string `json:"name_pl" yaml:"name_pl"`
	ESymbol string `json:"e_symbol" yaml:"e_symbol"`
}

type SMLEntry struct {
	SubstanceID string  `json:"id" yaml:"id"`
	Value       float64 `json:"value" yaml:"value"`
}

// SupplierManifest is one supplier's declared substance content for a material.
type SupplierManifest struct {
	Supplier  string     `json:"supplier" yaml:"supplier"`
	SML       []SMLEntry `json:"sml" yaml:"sml"`
	DualUse   []string   `json:"dual_use" yaml:"dual_use"`
	UpdatedAt string     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

type SubstanceRow struct {
	SubstanceID string  `json:"id"`
	Ref         string  `json:"ref"`
	CAS         string  `json:"cas"`
	Name        string  `json:"name"`
	SMLLimit    string  `json:"sml_limit"`
	SMLValue    float64 `json:"sml_value"`
}

type Diagnostics struct {
	UnresolvedMaterials    []string `json:"unresolved_materials"`
	UnresolvedSubstanceIDs []string `json:"unresolved_substance_ids"`
	UnresolvedDualUseIDs   []string `json:"unresolved_dual_use_ids"`
	UnmatchedSegments      []string `json:"unmatched_segments"`
}

func (d Diagnostics) Empty() bool {
	return len(d.UnresolvedMaterials) == 0 &&
		len(d.UnresolvedSubstanceIDs) == 0 &&
		len(d.UnresolvedDualUseIDs) == 0 &&
		len(d.UnmatchedSegments) == 0
}

// AggregatedPayload is the request-scoped result of aggregating one laminate structure.
type AggregatedPayload struct {
	Substances  []SubstanceRow `json:"substances"`
	DualUse     []string       `json:"dual_use"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

type Order struct {
	Number             string    `json:"order_number"`
	ArticleIndex       string    `json:"article_index"`
	ClientArticleIndex string    `json:"client_article_index"`
	Description        string    `json:"article_description"`
	Structure          string    `json:"product_structure"`
	Thickness          [3]string `json:"thickness"`
	ClientNumber       string    `json:"client_number"`
	BatchNumber        string    `json:"batch_number"`
}

type Client struct {
	Number  string `json:"client_number"`
	Name    string `json:"client_name"`
	Address string `json:"client_address"`
}

type GenerationRow struct {
	ID             string
	Type           string
	Language       string
	Structure      string
	Product        string
	SubstanceCount int
	DualUseCount   int
	Warnings       int
	CreatedAt      string
}
