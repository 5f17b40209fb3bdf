package declaration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Serafin06/DeclarationGenerator/internal"
	"github.com/Serafin06/DeclarationGenerator/internal/config"
	"github.com/Serafin06/DeclarationGenerator/internal/util"
)

var (
	ErrUnknownLanguage = errors.New("unknown declaration language")
	ErrUnknownType     = errors.New("unknown declaration type")
)

type Language string

const (
	LangPL Language = "pl"
	LangEN Language = "en"
)

type Type string

const (
	TypeTech   Type = "tech"
	TypeClient Type = "client"
)

const dateLayout = "02.01.2006"

func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pl":
		return LangPL, nil
	case "en":
		return LangEN, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
}

// ParseType accepts "bok" as the customer-service name of the client declaration.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tech":
		return TypeTech, nil
	case "client", "bok":
		return TypeClient, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// ProductName builds the product line printed in section 1 of the declaration.
func ProductName(lang Language, structure string) string {
	prefix := "Folia wielowarstwowa laminat"
	if lang == LangEN {
		prefix = "Multilayer foil laminate"
	}
	structure = strings.TrimSpace(structure)
	if structure == "" {
		return prefix
	}
	return prefix + " " + structure
}

func DefaultExpiry(lang Language) string {
	if lang == LangEN {
		return "12 months from the production date"
	}
	return "12 miesięcy od daty produkcji"
}

type Product struct {
	Name      string `json:"name"`
	Structure string `json:"structure"`
}

type Producer struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	Phone        string `json:"phone"`
	Fax          string `json:"fax"`
	PlantName    string `json:"plant_name"`
	PlantAddress string `json:"plant_address"`
}

func ProducerFromConfig(c config.ProducerConfig) Producer {
	return Producer{
		Name:         c.Name,
		AddressLine1: c.AddressLine1,
		AddressLine2: c.AddressLine2,
		Phone:        c.Phone,
		Fax:          c.Fax,
		PlantName:    c.PlantName,
		PlantAddress: c.PlantAddress,
	}
}

type ClientData struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Invoice string `json:"invoice"`
}

// Visibility selects which batch fields are printed. Hidden fields keep their
// values and render as empty cells.
type Visibility struct {
	Name           bool `json:"name"`
	Batch          bool `json:"batch"`
	Quantity       bool `json:"quantity"`
	ProductionDate bool `json:"production_date"`
	Thickness      bool `json:"thickness"`
}

func ShowAll() Visibility {
	return Visibility{Name: true, Batch: true, Quantity: true, ProductionDate: true, Thickness: true}
}

type Batch struct {
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	ProductionDate *time.Time `json:"production_date,omitempty"`
	Quantity       string     `json:"quantity"`
	BatchNumber    string     `json:"batch_number"`
	ExpiryDate     string     `json:"expiry_date"`
	Thickness      [3]string  `json:"thickness"`
	Show           Visibility `json:"show"`
}

type Declaration struct {
	ID             string
	Language       Language
	Type           Type
	GenerationDate time.Time
	Product        Product
	Producer       Producer
	Client         *ClientData
	Batches        []Batch
	Substances     []internal.SubstanceRow
	DualUse        []string
	Diagnostics    internal.Diagnostics
	Texts          map[string]any
}

type BatchView struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	ProductionDate string `json:"production_date"`
	Quantity       string `json:"quantity"`
	BatchNumber    string `json:"batch_number"`
	ExpiryDate     string `json:"expiry_date"`
	Thickness      string `json:"thickness"`
}

// View is the flat form of a declaration consumed by the templates.
type View struct {
	ID             string                  `json:"id"`
	Language       string                  `json:"language"`
	Type           string                  `json:"type"`
	GenerationDate string                  `json:"generation_date"`
	Product        Product                 `json:"product"`
	Producer       Producer                `json:"producer"`
	Client         *ClientData             `json:"client"`
	Batches        []BatchView             `json:"batches"`
	Substances     []internal.SubstanceRow `json:"substances_table"`
	DualUse        []string                `json:"dual_use_list"`
	Texts          map[string]any          `json:"texts"`
	Diagnostics    internal.Diagnostics    `json:"diagnostics"`
}

// TemplateData maps the declaration onto the template view. The client block
// and batches exist only on client declarations.
func (d *Declaration) TemplateData() View {
	v := View{
		ID:             d.ID,
		Language:       string(d.Language),
		Type:           string(d.Type),
		GenerationDate: d.GenerationDate.Format(dateLayout),
		Product:        d.Product,
		Producer:       d.Producer,
		Batches:        []BatchView{},
		Substances:     d.Substances,
		DualUse:        d.DualUse,
		Texts:          d.Texts,
		Diagnostics:    d.Diagnostics,
	}
	if v.Substances == nil {
		v.Substances = []internal.SubstanceRow{}
	}
	if v.DualUse == nil {
		v.DualUse = []string{}
	}
	if v.Texts == nil {
		v.Texts = map[string]any{}
	}

	if d.Type != TypeClient {
		return v
	}

	client := ClientData{}
	if d.Client != nil {
		client = *d.Client
	}
	v.Client = &client

	for _, b := range d.Batches {
		bv := BatchView{Code: b.Code, ExpiryDate: b.ExpiryDate}
		if b.Show.Name {
			bv.Name = b.Name
		}
		if b.Show.Batch {
			bv.BatchNumber = b.BatchNumber
		}
		if b.Show.Quantity {
			bv.Quantity = b.Quantity
		}
		if b.Show.ProductionDate && b.ProductionDate != nil {
			bv.ProductionDate = b.ProductionDate.Format(dateLayout)
		}
		if b.Show.Thickness {
			bv.Thickness = util.FormatThickness(b.Thickness[:])
		}
		v.Batches = append(v.Batches, bv)
	}
	return v
}

// Warnings renders the diagnostics as short human-readable lines.
func (d *Declaration) Warnings() []string {
	var out []string
	for _, s := range d.Diagnostics.UnmatchedSegments {
		out = append(out, fmt.Sprintf("structure segment %q not found in catalog, manual review required", s))
	}
	for _, m := range d.Diagnostics.UnresolvedMaterials {
		out = append(out, fmt.Sprintf("no supplier data for material %q", m))
	}
	for _, id := range d.Diagnostics.UnresolvedSubstanceIDs {
		out = append(out, fmt.Sprintf("substance %s missing from registry", id))
	}
	for _, id := range d.Diagnostics.UnresolvedDualUseIDs {
		out = append(out, fmt.Sprintf("dual-use substance %s missing from registry", id))
	}
	return out
}
