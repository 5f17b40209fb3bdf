package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Serafin06/DeclarationGenerator/internal"
	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
	"github.com/Serafin06/DeclarationGenerator/internal/config"
	"github.com/Serafin06/DeclarationGenerator/internal/declaration"
	"github.com/Serafin06/DeclarationGenerator/internal/orders"
	"github.com/Serafin06/DeclarationGenerator/internal/render"
	"github.com/Serafin06/DeclarationGenerator/internal/storage"
)

type fakeOrders struct {
	orders  map[string]internal.Order
	clients map[string]internal.Client
}

func (f *fakeOrders) GetOrder(ctx context.Context, number string) (*internal.Order, error) {
	o, ok := f.orders[number]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrders) GetClient(ctx context.Context, number string) (*internal.Client, error) {
	c, ok := f.clients[number]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &c, nil
}

func (f *fakeOrders) Ping(ctx context.Context) error { return nil }

func testOrders() *fakeOrders {
	return &fakeOrders{
		orders: map[string]internal.Order{
			"ZO/1": {Number: "ZO/1", ArticleIndex: "LAM-1", Description: "Wieczko", Structure: "pet / pe", ClientNumber: "K1", Thickness: [3]string{"12", "50", ""}, BatchNumber: "ZO/1"},
			"ZO/2": {Number: "ZO/2", ArticleIndex: "LAM-2", Description: "Tacka", Structure: "PET/PAPIER", ClientNumber: "K9", BatchNumber: "ZO/2"},
		},
		clients: map[string]internal.Client{
			"K1": {Number: "K1", Name: "Mleczarnia", Address: "Białystok"},
		},
	}
}

func testConfig() config.Config {
	return config.Config{
		MinLayers: 2,
		MaxLayers: 3,
		Producer:  config.ProducerConfig{Name: "MARPOL Sp. z o.o."},
	}
}

func newTestService(t *testing.T, src orders.Source, genLog GenerationLog) *DeclarationService {
	t.Helper()
	repo := catalog.NewRepository(catalog.SourceFunc(func(ctx context.Context) (*catalog.Data, error) {
		d := testCatalog()
		d.Texts["pl"] = map[string]any{"final_note": "Ważne do odwołania."}
		return d, nil
	}), nil)
	r, err := render.New("")
	require.NoError(t, err)
	svc := NewDeclarationService(repo, src, r, genLog, testConfig(), nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestBuildTech(t *testing.T) {
	svc := newTestService(t, nil, nil)

	d, err := svc.BuildTech(context.Background(), TechRequest{Materials: []string{"pet", "PE"}})
	require.NoError(t, err)

	assert.Equal(t, declaration.LangPL, d.Language)
	assert.Equal(t, declaration.TypeTech, d.Type)
	assert.Equal(t, "PET/PE", d.Product.Structure)
	assert.Equal(t, "Folia wielowarstwowa laminat PET/PE", d.Product.Name)
	assert.Equal(t, "MARPOL Sp. z o.o.", d.Producer.Name)
	assert.Equal(t, "Ważne do odwołania.", d.Texts["final_note"])
	assert.Equal(t, []string{"1", "2", "10"}, substanceIDs(internal.AggregatedPayload{Substances: d.Substances}))
	assert.True(t, d.Diagnostics.Empty())
	assert.NotEmpty(t, d.ID)
}

func TestBuildTechLayerCount(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.BuildTech(ctx, TechRequest{Materials: []string{"PET"}})
	assert.ErrorIs(t, err, ErrLayerCount)

	_, err = svc.BuildTech(ctx, TechRequest{Materials: []string{"PET", "PE", "PE-EVOH", "ALU"}})
	assert.ErrorIs(t, err, ErrLayerCount)

	_, err = svc.BuildTech(ctx, TechRequest{Materials: []string{"PET", " ", "PE"}})
	assert.NoError(t, err)
}

func TestBuildTechUnknownMaterial(t *testing.T) {
	svc := newTestService(t, nil, nil)

	d, err := svc.BuildTech(context.Background(), TechRequest{Language: "en", Materials: []string{"PET", "Nylon"}})
	require.NoError(t, err)
	assert.Equal(t, "PET/Nylon", d.Product.Structure)
	assert.Equal(t, "Multilayer foil laminate PET/Nylon", d.Product.Name)
	assert.Equal(t, []string{"Nylon"}, d.Diagnostics.UnmatchedSegments)
	assert.Equal(t, []string{"Nylon"}, d.Diagnostics.UnresolvedMaterials)
	assert.Nil(t, d.Texts)
}

func TestBuildTechBadLanguage(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.BuildTech(context.Background(), TechRequest{Language: "de", Materials: []string{"PET", "PE"}})
	assert.ErrorIs(t, err, declaration.ErrUnknownLanguage)
}

func TestBuildClientFromOrders(t *testing.T) {
	svc := newTestService(t, testOrders(), nil)

	d, err := svc.BuildClient(context.Background(), ClientRequest{OrderNumbers: []string{"ZO/1"}})
	require.NoError(t, err)

	require.NotNil(t, d.Client)
	assert.Equal(t, "Mleczarnia", d.Client.Name)
	assert.Equal(t, "PET/PE", d.Product.Structure)
	require.Len(t, d.Batches, 1)
	assert.Equal(t, "LAM-1", d.Batches[0].Code)
	assert.Equal(t, "ZO/1", d.Batches[0].BatchNumber)
	assert.Equal(t, "12 miesięcy od daty produkcji", d.Batches[0].ExpiryDate)
	assert.Equal(t, declaration.ShowAll(), d.Batches[0].Show)
	assert.True(t, d.Diagnostics.Empty())
}

func TestBuildClientUnmatchedStructure(t *testing.T) {
	svc := newTestService(t, testOrders(), nil)

	d, err := svc.BuildClient(context.Background(), ClientRequest{
		Client:       &declaration.ClientData{Name: "Piekarnia"},
		OrderNumbers: []string{"ZO/2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PET/PAPIER", d.Product.Structure)
	assert.Equal(t, []string{"PAPIER"}, d.Diagnostics.UnmatchedSegments)
	assert.NotEmpty(t, d.Substances)
}

func TestBuildClientManualBatches(t *testing.T) {
	svc := newTestService(t, nil, nil)
	f := false
	hidden := &ShowInput{Name: &f, Quantity: &f, ProductionDate: &f, Thickness: &f}

	d, err := svc.BuildClient(context.Background(), ClientRequest{
		Language:  "en",
		Client:    &declaration.ClientData{Code: "K5", Name: "Dairy Ltd"},
		Structure: "PET/PE-EVOH",
		Batches: []BatchInput{
			{Code: "X1", Name: "Lid", ProductionDate: "2024-05-20", Quantity: "10 kg", BatchNumber: "B1", Show: hidden},
			{Code: "X2", ProductionDate: "21.05.2024"},
		},
	})
	require.NoError(t, err)
	require.Len(t, d.Batches, 2)
	assert.Equal(t, declaration.Visibility{Batch: true}, d.Batches[0].Show)
	assert.Equal(t, "12 months from the production date", d.Batches[1].ExpiryDate)
	assert.Equal(t, time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC), *d.Batches[1].ProductionDate)
	assert.Equal(t, "Multilayer foil laminate PET/PE-EVOH", d.Product.Name)
}

func TestBatchPartialShowFlags(t *testing.T) {
	var in BatchInput
	require.NoError(t, json.Unmarshal([]byte(`{"code":"X","name":"Lid","quantity":"5 kg","batch_number":"B7","production_date":"2024-05-20","show":{"quantity":false}}`), &in))

	b, err := batchFromInput(declaration.LangEN, in)
	require.NoError(t, err)

	want := declaration.ShowAll()
	want.Quantity = false
	assert.Equal(t, want, b.Show)

	b, err = batchFromInput(declaration.LangEN, BatchInput{Code: "Y"})
	require.NoError(t, err)
	assert.Equal(t, declaration.ShowAll(), b.Show)
}

func TestBuildClientValidation(t *testing.T) {
	svc := newTestService(t, testOrders(), nil)
	ctx := context.Background()

	_, err := svc.BuildClient(ctx, ClientRequest{Client: &declaration.ClientData{Name: "A"}, Structure: "PET/PE"})
	assert.ErrorIs(t, err, ErrNoBatches)

	_, err = svc.BuildClient(ctx, ClientRequest{Batches: []BatchInput{{Code: "X"}}, Structure: "PET/PE"})
	assert.ErrorIs(t, err, ErrMissingClient)

	_, err = svc.BuildClient(ctx, ClientRequest{OrderNumbers: []string{"ZO/404"}})
	assert.ErrorIs(t, err, orders.ErrNotFound)

	_, err = svc.BuildClient(ctx, ClientRequest{Client: &declaration.ClientData{Name: "A"}, Batches: []BatchInput{{ProductionDate: "yesterday"}}})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestBuildClientOrdersDisabled(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.BuildClient(context.Background(), ClientRequest{OrderNumbers: []string{"ZO/1"}})
	assert.ErrorIs(t, err, orders.ErrDisabled)
}

func TestLookupOrder(t *testing.T) {
	svc := newTestService(t, testOrders(), nil)

	p, err := svc.LookupOrder(context.Background(), "ZO/2")
	require.NoError(t, err)
	assert.Nil(t, p.Client)
	assert.Equal(t, []string{"PET", "PAPIER"}, p.Structure.Materials)
	assert.False(t, p.Structure.AllFound)

	p, err = svc.LookupOrder(context.Background(), "ZO/1")
	require.NoError(t, err)
	require.NotNil(t, p.Client)
	assert.True(t, p.Structure.AllFound)
}

func TestParseStructureSuggestions(t *testing.T) {
	svc := newTestService(t, nil, nil)

	res, sug, err := svc.ParseStructure(context.Background(), "PET/PE-EVO")
	require.NoError(t, err)
	assert.False(t, res.AllFound)
	require.Contains(t, sug, "PE-EVO")
	assert.Equal(t, "PE-EVOH", sug["PE-EVO"][0].Name)
}

func TestMaterials(t *testing.T) {
	svc := newTestService(t, nil, nil)
	list, err := svc.Materials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []MaterialInfo{{"ALU", 0}, {"PE", 1}, {"PE-EVOH", 1}, {"PET", 2}}, list)
}

func TestCatalogUnavailable(t *testing.T) {
	repo := catalog.NewRepository(catalog.SourceFunc(func(ctx context.Context) (*catalog.Data, error) {
		return nil, errors.New("share offline")
	}), nil)
	svc := NewDeclarationService(repo, nil, nil, nil, testConfig(), nil)

	_, err := svc.BuildTech(context.Background(), TechRequest{Materials: []string{"PET", "PE"}})
	assert.ErrorIs(t, err, catalog.ErrDataUnavailable)
}

func TestRenderRecordsGeneration(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "declgen.db"))
	require.NoError(t, err)
	defer db.Close()

	svc := newTestService(t, testOrders(), db)
	ctx := context.Background()

	d, err := svc.BuildClient(ctx, ClientRequest{OrderNumbers: []string{"ZO/1"}})
	require.NoError(t, err)

	html, err := svc.Render(ctx, d)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Mleczarnia")

	out := filepath.Join(t.TempDir(), "declaration.xlsx")
	require.NoError(t, ExportPayloadToXLSX(d, out))

	rows, err := db.ListGenerations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, d.ID, rows[0].ID)
	assert.Equal(t, "client", rows[0].Type)
	assert.Equal(t, "PET/PE", rows[0].Structure)
	assert.Equal(t, len(d.Substances), rows[0].SubstanceCount)
	assert.Equal(t, "2024-06-01T09:00:00Z", rows[0].CreatedAt)
}

func TestRenderRejectsEmptyProductName(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.Render(context.Background(), &declaration.Declaration{Type: declaration.TypeTech, Language: declaration.LangPL})
	assert.ErrorIs(t, err, ErrEmptyProductName)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	d, err = ParseDate("01.03.2024")
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Month())

	_, err = ParseDate("2024/03/01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
