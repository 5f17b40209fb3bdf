package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Serafin06/DeclarationGenerator/internal"
	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
	"github.com/Serafin06/DeclarationGenerator/internal/config"
	"github.com/Serafin06/DeclarationGenerator/internal/declaration"
	"github.com/Serafin06/DeclarationGenerator/internal/orders"
	"github.com/Serafin06/DeclarationGenerator/internal/util"
)

var (
	ErrLayerCount       = errors.New("unsupported number of laminate layers")
	ErrEmptyProductName = errors.New("product name is empty")
	ErrNoBatches        = errors.New("client declaration needs at least one batch")
	ErrMissingClient    = errors.New("client name is required")
	ErrInvalidDate      = errors.New("invalid date")
)

type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Data, error)
}

type HTMLRenderer interface {
	RenderHTML(d *declaration.Declaration) ([]byte, error)
}

type GenerationLog interface {
	InsertGeneration(ctx context.Context, g internal.GenerationRow) error
}

// DeclarationService assembles declarations from the catalog and the order database.
type DeclarationService struct {
	catalog  CatalogLoader
	orders   orders.Source
	renderer HTMLRenderer
	log      GenerationLog
	cfg      config.Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewDeclarationService wires the service. ordersSrc and genLog may be nil.
func NewDeclarationService(cat CatalogLoader, ordersSrc orders.Source, renderer HTMLRenderer, genLog GenerationLog, cfg config.Config, logger *zap.Logger) *DeclarationService {
	if ordersSrc == nil {
		ordersSrc = orders.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeclarationService{
		catalog:  cat,
		orders:   ordersSrc,
		renderer: renderer,
		log:      genLog,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

type TechRequest struct {
	Language    string   `json:"language"`
	Materials   []string `json:"materials"`
	ProductName string   `json:"product_name"`
}

type BatchInput struct {
	Code           string                  `json:"code"`
	Name           string                  `json:"name"`
	ProductionDate string                  `json:"production_date"`
	Quantity       string                  `json:"quantity"`
	BatchNumber    string                  `json:"batch_number"`
	ExpiryDate     string                  `json:"expiry_date"`
	Thickness      [3]string               `json:"thickness"`
	Show           *ShowInput              `json:"show,omitempty"`
}

// ShowInput toggles individual batch fields. A nil flag leaves the field shown.
type ShowInput struct {
	Name           *bool `json:"name,omitempty"`
	Batch          *bool `json:"batch,omitempty"`
	Quantity       *bool `json:"quantity,omitempty"`
	ProductionDate *bool `json:"production_date,omitempty"`
	Thickness      *bool `json:"thickness,omitempty"`
}

// Apply overlays the flags that were set onto v.
func (in *ShowInput) Apply(v declaration.Visibility) declaration.Visibility {
	if in == nil {
		return v
	}
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&v.Name, in.Name)
	set(&v.Batch, in.Batch)
	set(&v.Quantity, in.Quantity)
	set(&v.ProductionDate, in.ProductionDate)
	set(&v.Thickness, in.Thickness)
	return v
}

type ClientRequest struct {
	Language     string                  `json:"language"`
	Client       *declaration.ClientData `json:"client,omitempty"`
	Batches      []BatchInput            `json:"batches"`
	Structure    string                  `json:"structure"`
	OrderNumbers []string                `json:"order_numbers"`
	ProductName  string                  `json:"product_name"`
}

// OrderPrefill is what an order number resolves to before a client declaration is built.
type OrderPrefill struct {
	Order       *internal.Order         `json:"order"`
	Client      *internal.Client        `json:"client,omitempty"`
	Structure   StructureMatch          `json:"structure"`
	Suggestions map[string][]Suggestion `json:"suggestions,omitempty"`
}

type MaterialInfo struct {
	Name      string `json:"name"`
	Suppliers int    `json:"suppliers"`
}

func (s *DeclarationService) Materials(ctx context.Context) ([]MaterialInfo, error) {
	data, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := catalog.BuildIndex(data)
	out := make([]MaterialInfo, 0, len(idx.Names))
	for _, name := range idx.Names {
		out = append(out, MaterialInfo{Name: name, Suppliers: idx.SupplierCount[name]})
	}
	return out, nil
}

// ParseStructure resolves a structure string and proposes catalog names for unmatched segments.
func (s *DeclarationService) ParseStructure(ctx context.Context, structure string) (StructureMatch, map[string][]Suggestion, error) {
	data, err := s.catalog.Load(ctx)
	if err != nil {
		return StructureMatch{}, nil, err
	}
	m := NewMatcher(data.MaterialNames())
	res := m.ParseStructure(structure)
	return res, suggestionsFor(m, res.Unmatched), nil
}

func (s *DeclarationService) Aggregate(ctx context.Context, names []string) (internal.AggregatedPayload, error) {
	data, err := s.catalog.Load(ctx)
	if err != nil {
		return internal.AggregatedPayload{}, err
	}
	payload := NewAggregator(data).Aggregate(names)
	s.warn("aggregation", payload.Diagnostics)
	return payload, nil
}

// BuildTech assembles a technological declaration for MIN_LAYERS..MAX_LAYERS materials.
func (s *DeclarationService) BuildTech(ctx context.Context, req TechRequest) (*declaration.Declaration, error) {
	lang, err := parseLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(req.Materials))
	for _, m := range req.Materials {
		if m = strings.TrimSpace(m); m != "" {
			names = append(names, m)
		}
	}
	if len(names) < s.cfg.MinLayers || len(names) > s.cfg.MaxLayers {
		return nil, fmt.Errorf("%w: got %d, want %d to %d", ErrLayerCount, len(names), s.cfg.MinLayers, s.cfg.MaxLayers)
	}

	data, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	m := NewMatcher(data.MaterialNames())
	resolved := make([]string, 0, len(names))
	var unmatched []string
	for _, n := range names {
		if name, ok := m.FindBestMatch(n); ok {
			resolved = append(resolved, name)
			continue
		}
		resolved = append(resolved, n)
		unmatched = append(unmatched, n)
	}
	structure := strings.Join(resolved, "/")

	payload := NewAggregator(data).Aggregate(resolved)
	payload.Diagnostics.UnmatchedSegments = append(payload.Diagnostics.UnmatchedSegments, unmatched...)

	d := s.newDeclaration(lang, declaration.TypeTech, data, payload)
	d.Product = declaration.Product{
		Name:      firstNonEmpty(req.ProductName, declaration.ProductName(lang, structure)),
		Structure: structure,
	}
	s.warn("tech declaration", d.Diagnostics)
	return d, nil
}

// BuildClient assembles a client declaration. Order numbers pre-fill batches,
// the client block and the structure; explicit request fields win. A structure
// with unknown segments still produces a declaration whose diagnostics list them.
func (s *DeclarationService) BuildClient(ctx context.Context, req ClientRequest) (*declaration.Declaration, error) {
	lang, err := parseLanguage(req.Language)
	if err != nil {
		return nil, err
	}

	batches := make([]declaration.Batch, 0, len(req.Batches)+len(req.OrderNumbers))
	structure := strings.TrimSpace(req.Structure)
	client := req.Client

	for i, number := range req.OrderNumbers {
		number = strings.TrimSpace(number)
		if number == "" {
			continue
		}
		order, err := s.orders.GetOrder(ctx, number)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batchFromOrder(lang, order))
		if structure == "" {
			structure = order.Structure
		}
		if i == 0 && client == nil && order.ClientNumber != "" {
			client = s.lookupClient(ctx, order.ClientNumber)
		}
	}

	for _, in := range req.Batches {
		b, err := batchFromInput(lang, in)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}

	if len(batches) == 0 {
		return nil, ErrNoBatches
	}
	if client == nil || strings.TrimSpace(client.Name) == "" {
		return nil, ErrMissingClient
	}

	data, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	parsed := NewMatcher(data.MaterialNames()).ParseStructure(structure)
	payload := NewAggregator(data).Aggregate(parsed.Materials)
	payload.Diagnostics.UnmatchedSegments = append(payload.Diagnostics.UnmatchedSegments, parsed.Unmatched...)
	if structure != "" {
		structure = strings.Join(parsed.Materials, "/")
	}

	d := s.newDeclaration(lang, declaration.TypeClient, data, payload)
	d.Client = client
	d.Batches = batches
	d.Product = declaration.Product{
		Name:      firstNonEmpty(req.ProductName, declaration.ProductName(lang, structure)),
		Structure: structure,
	}
	if !parsed.AllFound {
		s.logger.Warn("structure needs manual review",
			zap.String("structure", structure),
			zap.Strings("unmatched", parsed.Unmatched),
		)
	}
	s.warn("client declaration", d.Diagnostics)
	return d, nil
}

func (s *DeclarationService) LookupOrder(ctx context.Context, number string) (*OrderPrefill, error) {
	order, err := s.orders.GetOrder(ctx, number)
	if err != nil {
		return nil, err
	}
	out := &OrderPrefill{Order: order}
	if order.ClientNumber != "" {
		c, err := s.orders.GetClient(ctx, order.ClientNumber)
		switch {
		case err == nil:
			out.Client = c
		case errors.Is(err, orders.ErrNotFound):
		default:
			return nil, err
		}
	}

	data, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	m := NewMatcher(data.MaterialNames())
	out.Structure = m.ParseStructure(order.Structure)
	out.Suggestions = suggestionsFor(m, out.Structure.Unmatched)
	return out, nil
}

// Render produces the HTML document and records the generation when a log is attached.
func (s *DeclarationService) Render(ctx context.Context, d *declaration.Declaration) ([]byte, error) {
	if strings.TrimSpace(d.Product.Name) == "" {
		return nil, ErrEmptyProductName
	}
	html, err := s.renderer.RenderHTML(d)
	if err != nil {
		return nil, err
	}
	if s.log != nil {
		row := internal.GenerationRow{
			ID:             d.ID,
			Type:           string(d.Type),
			Language:       string(d.Language),
			Structure:      d.Product.Structure,
			Product:        d.Product.Name,
			SubstanceCount: len(d.Substances),
			DualUseCount:   len(d.DualUse),
			Warnings:       len(d.Warnings()),
			CreatedAt:      s.now().UTC().Format(time.RFC3339),
		}
		if err := s.log.InsertGeneration(ctx, row); err != nil {
			s.logger.Error("recording generation failed", zap.String("id", d.ID), zap.Error(err))
		}
	}
	return html, nil
}

func (s *DeclarationService) newDeclaration(lang declaration.Language, typ declaration.Type, data *catalog.Data, payload internal.AggregatedPayload) *declaration.Declaration {
	return &declaration.Declaration{
		ID:             uuid.NewString(),
		Language:       lang,
		Type:           typ,
		GenerationDate: s.now(),
		Producer:       declaration.ProducerFromConfig(s.cfg.Producer),
		Substances:     payload.Substances,
		DualUse:        payload.DualUse,
		Diagnostics:    payload.Diagnostics,
		Texts:          data.TextsFor(string(lang)),
	}
}

func (s *DeclarationService) lookupClient(ctx context.Context, number string) *declaration.ClientData {
	c, err := s.orders.GetClient(ctx, number)
	if err != nil {
		s.logger.Warn("client lookup failed", zap.String("client", number), zap.Error(err))
		return &declaration.ClientData{Code: number}
	}
	return &declaration.ClientData{Code: c.Number, Name: c.Name, Address: c.Address}
}

func (s *DeclarationService) warn(what string, d internal.Diagnostics) {
	if d.Empty() {
		return
	}
	s.logger.Warn(what+" has unresolved data",
		zap.Strings("unresolved_materials", d.UnresolvedMaterials),
		zap.Strings("unresolved_substance_ids", d.UnresolvedSubstanceIDs),
		zap.Strings("unresolved_dual_use_ids", d.UnresolvedDualUseIDs),
		zap.Strings("unmatched_segments", d.UnmatchedSegments),
	)
}

func batchFromOrder(lang declaration.Language, o *internal.Order) declaration.Batch {
	return declaration.Batch{
		Code:        firstNonEmpty(o.ArticleIndex, o.ClientArticleIndex),
		Name:        o.Description,
		BatchNumber: o.BatchNumber,
		ExpiryDate:  declaration.DefaultExpiry(lang),
		Thickness:   o.Thickness,
		Show:        declaration.ShowAll(),
	}
}

func batchFromInput(lang declaration.Language, in BatchInput) (declaration.Batch, error) {
	b := declaration.Batch{
		Code:        strings.TrimSpace(in.Code),
		Name:        strings.TrimSpace(in.Name),
		Quantity:    util.FormatQty(in.Quantity, lang == declaration.LangPL),
		BatchNumber: strings.TrimSpace(in.BatchNumber),
		ExpiryDate:  firstNonEmpty(strings.TrimSpace(in.ExpiryDate), declaration.DefaultExpiry(lang)),
		Thickness:   in.Thickness,
		Show:        in.Show.Apply(declaration.ShowAll()),
	}
	if strings.TrimSpace(in.ProductionDate) != "" {
		t, err := ParseDate(in.ProductionDate)
		if err != nil {
			return declaration.Batch{}, err
		}
		b.ProductionDate = &t
	}
	return b, nil
}

// ParseDate accepts ISO dates and the dd.mm.yyyy form printed on declarations.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "02.01.2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func parseLanguage(s string) (declaration.Language, error) {
	if strings.TrimSpace(s) == "" {
		return declaration.LangPL, nil
	}
	return declaration.ParseLanguage(s)
}

func suggestionsFor(m *Matcher, unmatched []string) map[string][]Suggestion {
	if len(unmatched) == 0 {
		return nil
	}
	out := map[string][]Suggestion{}
	for _, u := range unmatched {
		if sug := m.Suggest(u, 3); len(sug) > 0 {
			out[u] = sug
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
