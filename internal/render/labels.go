package render

import "github.com/Serafin06/DeclarationGenerator/internal/declaration"

type Labels struct {
	Title          string
	TitleClient    string
	Issued         string
	Product        string
	Structure      string
	Producer       string
	Plant          string
	Phone          string
	Fax            string
	Client         string
	ClientCode     string
	Invoice        string
	Batches        string
	Code           string
	Name           string
	ProductionDate string
	Quantity       string
	BatchNumber    string
	Expiry         string
	Thickness      string
	Regulations    string
	Substances     string
	RefNo          string
	CAS            string
	Substance      string
	SML            string
	NoSubstances   string
	DualUse        string
	NoDualUse      string
	Statements     string
	Signature      string
}

var labels = map[declaration.Language]Labels{
	declaration.LangPL: {
		Title:          "Deklaracja zgodności",
		TitleClient:    "Deklaracja zgodności dla klienta",
		Issued:         "Data wystawienia",
		Product:        "1. Identyfikacja produktu",
		Structure:      "Struktura",
		Producer:       "2. Producent",
		Plant:          "Miejsce produkcji",
		Phone:          "tel.",
		Fax:            "fax",
		Client:         "Odbiorca",
		ClientCode:     "Kod klienta",
		Invoice:        "Faktura",
		Batches:        "Partie produktu",
		Code:           "Kod",
		Name:           "Nazwa",
		ProductionDate: "Data produkcji",
		Quantity:       "Ilość",
		BatchNumber:    "Nr partii",
		Expiry:         "Termin przydatności",
		Thickness:      "Grubość",
		Regulations:    "3. Przepisy",
		Substances:     "6. Substancje z limitem migracji specyficznej (SML)",
		RefNo:          "Nr ref.",
		CAS:            "Nr CAS",
		Substance:      "Nazwa substancji",
		SML:            "Limit SML [mg/kg]",
		NoSubstances:   "Brak substancji objętych limitami SML.",
		DualUse:        "8. Substancje podwójnego zastosowania",
		NoDualUse:      "Brak substancji podwójnego zastosowania.",
		Statements:     "Oświadczenia",
		Signature:      "Podpis",
	},
	declaration.LangEN: {
		Title:          "Declaration of compliance",
		TitleClient:    "Declaration of compliance for the customer",
		Issued:         "Date of issue",
		Product:        "1. Product identification",
		Structure:      "Structure",
		Producer:       "2. Manufacturer",
		Plant:          "Production plant",
		Phone:          "phone",
		Fax:            "fax",
		Client:         "Customer",
		ClientCode:     "Customer code",
		Invoice:        "Invoice",
		Batches:        "Product batches",
		Code:           "Code",
		Name:           "Name",
		ProductionDate: "Production date",
		Quantity:       "Quantity",
		BatchNumber:    "Batch no.",
		Expiry:         "Best before",
		Thickness:      "Thickness",
		Regulations:    "3. Regulations",
		Substances:     "6. Substances subject to specific migration limits (SML)",
		RefNo:          "Ref. no.",
		CAS:            "CAS no.",
		Substance:      "Substance name",
		SML:            "SML [mg/kg]",
		NoSubstances:   "No substances subject to SML restrictions.",
		DualUse:        "8. Dual-use substances",
		NoDualUse:      "No dual-use substances.",
		Statements:     "Statements",
		Signature:      "Signature",
	},
}
