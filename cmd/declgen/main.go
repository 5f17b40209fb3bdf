package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Serafin06/DeclarationGenerator/internal/app"
	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
	"github.com/Serafin06/DeclarationGenerator/internal/config"
	"github.com/Serafin06/DeclarationGenerator/internal/declaration"
	"github.com/Serafin06/DeclarationGenerator/internal/logging"
	"github.com/Serafin06/DeclarationGenerator/internal/pipeline"
	"github.com/Serafin06/DeclarationGenerator/internal/render"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, "console")
	must(err)
	defer func() { _ = log.Sync() }()

	a, err := app.New(cfg, log)
	must(err)
	defer a.Close()

	ctx := context.Background()
	svc := a.Service

	cmd := os.Args[1]
	switch cmd {
	case "catalog:list":
		list, err := svc.Materials(ctx)
		must(err)
		for _, m := range list {
			fmt.Printf("%-30s suppliers=%d\n", m.Name, m.Suppliers)
		}
		fmt.Printf("%d materials (source=%s)\n", len(list), cfg.CatalogSource)
	case "catalog:import":
		res, err := catalog.NewSyncService(a.Files, a.DB).Import(ctx)
		must(err)
		fmt.Printf("catalog import complete materials=%d manifests=%d substances=%d dual_use=%d\n",
			res.Materials, res.Manifests, res.Substances, res.DualUse)
	case "structure:parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		structure := fs.String("structure", "", "laminate structure, e.g. PET/PE")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*structure) == "" {
			must(fmt.Errorf("--structure is required"))
		}
		res, sug, err := svc.ParseStructure(ctx, *structure)
		must(err)
		fmt.Printf("materials=%s all_found=%t\n", strings.Join(res.Materials, "/"), res.AllFound)
		for _, u := range res.Unmatched {
			names := make([]string, 0, len(sug[u]))
			for _, s := range sug[u] {
				names = append(names, fmt.Sprintf("%s (%.2f)", s.Name, s.Score))
			}
			fmt.Printf("  unmatched %q suggestions: %s\n", u, strings.Join(names, ", "))
		}
	case "aggregate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		materials := fs.String("materials", "", "comma separated material names")
		asJSON := fs.Bool("json", false, "print the payload as JSON")
		_ = fs.Parse(os.Args[2:])
		names := splitList(*materials)
		if len(names) == 0 {
			must(fmt.Errorf("--materials is required"))
		}
		payload, err := svc.Aggregate(ctx, names)
		must(err)
		if *asJSON {
			printJSON(payload)
			return
		}
		for _, s := range payload.Substances {
			fmt.Printf("%-6s %-8s %-12s %-40s %s\n", s.SubstanceID, s.Ref, s.CAS, s.Name, s.SMLLimit)
		}
		for _, d := range payload.DualUse {
			fmt.Printf("dual-use: %s\n", d)
		}
		printDiagnostics(payload.Diagnostics.UnresolvedMaterials, payload.Diagnostics.UnresolvedSubstanceIDs, payload.Diagnostics.UnresolvedDualUseIDs)
	case "tech":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		materials := fs.String("materials", "", "comma separated material names (2-3 layers)")
		lang := fs.String("lang", "pl", "pl|en")
		product := fs.String("product", "", "product name (default derived from structure)")
		out := fs.String("out", "", "output html path")
		xlsx := fs.String("xlsx", "", "optional xlsx export path")
		_ = fs.Parse(os.Args[2:])
		d, err := svc.BuildTech(ctx, pipeline.TechRequest{Language: *lang, Materials: splitList(*materials), ProductName: *product})
		must(err)
		writeDeclaration(ctx, svc, cfg, d, *out, *xlsx)
	case "client":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		orderNumbers := fs.String("orders", "", "comma separated order numbers")
		structure := fs.String("structure", "", "laminate structure (overrides the order's)")
		lang := fs.String("lang", "pl", "pl|en")
		product := fs.String("product", "", "product name")
		clientCode := fs.String("client-code", "", "client code")
		clientName := fs.String("client-name", "", "client name")
		clientAddress := fs.String("client-address", "", "client address")
		invoice := fs.String("invoice", "", "invoice number")
		batchCode := fs.String("batch-code", "", "article code of a manual batch")
		batchName := fs.String("batch-name", "", "article name of a manual batch")
		batchNumber := fs.String("batch-number", "", "batch number of a manual batch")
		quantity := fs.String("quantity", "", "quantity of a manual batch")
		productionDate := fs.String("production-date", "", "production date (2006-01-02 or 02.01.2006)")
		out := fs.String("out", "", "output html path")
		xlsx := fs.String("xlsx", "", "optional xlsx export path")
		_ = fs.Parse(os.Args[2:])

		req := pipeline.ClientRequest{
			Language:     *lang,
			Structure:    *structure,
			OrderNumbers: splitList(*orderNumbers),
			ProductName:  *product,
		}
		if *clientName != "" || *clientCode != "" {
			req.Client = &declaration.ClientData{Code: *clientCode, Name: *clientName, Address: *clientAddress, Invoice: *invoice}
		}
		if *batchCode != "" || *batchName != "" || *batchNumber != "" {
			req.Batches = append(req.Batches, pipeline.BatchInput{
				Code:           *batchCode,
				Name:           *batchName,
				BatchNumber:    *batchNumber,
				Quantity:       *quantity,
				ProductionDate: *productionDate,
			})
		}
		d, err := svc.BuildClient(ctx, req)
		must(err)
		writeDeclaration(ctx, svc, cfg, d, *out, *xlsx)
	case "order:lookup":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		number := fs.String("number", "", "order number")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*number) == "" {
			must(fmt.Errorf("--number is required"))
		}
		prefill, err := svc.LookupOrder(ctx, *number)
		must(err)
		printJSON(prefill)
	case "registry:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		data, err := a.Catalog.Load(ctx)
		must(err)
		must(pipeline.ExportRegistryToXLSX(data, *out))
		fmt.Printf("exported %d substances and %d dual-use entries to %s\n", len(data.Substances), len(data.DualUse), *out)
	case "registry:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		in := fs.String("in", "", "input xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*in) == "" {
			must(fmt.Errorf("--in is required"))
		}
		subs, dual, err := pipeline.ImportRegistryXLSX(*in)
		must(err)
		must(a.Files.SaveSubstances(subs))
		must(a.Files.SaveDualUse(dual))
		fmt.Printf("imported %d substances and %d dual-use entries into %s\n", len(subs), len(dual), cfg.DataDir)
		if cfg.CatalogSource == "sqlite" {
			fmt.Println("run catalog:import to copy the registries into the database")
		}
	case "texts:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		lang := fs.String("lang", "pl", "pl|en")
		in := fs.String("in", "", "yaml or json file with the declaration texts")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*in) == "" {
			must(fmt.Errorf("--in is required"))
		}
		raw, err := os.ReadFile(*in)
		must(err)
		texts := map[string]any{}
		must(yaml.Unmarshal(raw, &texts))
		must(a.Files.SaveTexts(*lang, texts))
		fmt.Printf("saved %d text entries for %s into %s\n", len(texts), *lang, cfg.DataDir)
	case "generations":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max rows")
		_ = fs.Parse(os.Args[2:])
		rows, err := a.DB.ListGenerations(ctx, *limit)
		must(err)
		for _, g := range rows {
			fmt.Printf("%s %s %-6s %-2s %-30s substances=%d dual_use=%d warnings=%d\n",
				g.CreatedAt, g.ID, g.Type, g.Language, g.Structure, g.SubstanceCount, g.DualUseCount, g.Warnings)
		}
	case "preview":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		in := fs.String("in", "", "rendered declaration html")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*in) == "" {
			must(fmt.Errorf("--in is required"))
		}
		html, err := os.ReadFile(*in)
		must(err)
		outline, err := render.ParseOutline(html)
		must(err)
		printJSON(outline)
	default:
		usage()
		os.Exit(1)
	}
}

func writeDeclaration(ctx context.Context, svc *pipeline.DeclarationService, cfg config.Config, d *declaration.Declaration, out, xlsx string) {
	html, err := svc.Render(ctx, d)
	must(err)
	if strings.TrimSpace(out) == "" {
		out = filepath.Join(cfg.OutputDir, fmt.Sprintf("deklaracja_%s_%s_%s.html", d.Type, d.Language, d.GenerationDate.Format("20060102_150405")))
	}
	must(os.MkdirAll(filepath.Dir(out), 0o755))
	must(os.WriteFile(out, html, 0o644))
	fmt.Printf("declaration %s written to %s\n", d.ID, out)

	if strings.TrimSpace(xlsx) != "" {
		must(pipeline.ExportPayloadToXLSX(d, xlsx))
		fmt.Printf("payload exported to %s\n", xlsx)
	}
	for _, w := range d.Warnings() {
		fmt.Printf("warning: %s\n", w)
	}
}

func printDiagnostics(materials, substances, dualUse []string) {
	if len(materials) > 0 {
		fmt.Printf("unresolved materials: %s\n", strings.Join(materials, ", "))
	}
	if len(substances) > 0 {
		fmt.Printf("unresolved substance ids: %s\n", strings.Join(substances, ", "))
	}
	if len(dualUse) > 0 {
		fmt.Printf("unresolved dual-use ids: %s\n", strings.Join(dualUse, ", "))
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	must(err)
	fmt.Println(string(b))
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func usage() {
	fmt.Println("usage: declgen <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:list")
	fmt.Println("  catalog:import")
	fmt.Println("  structure:parse --structure=PET/PE")
	fmt.Println("  aggregate --materials=PET,PE [--json]")
	fmt.Println("  tech --materials=PET,PE --lang=pl|en [--product=...] [--out=...html] [--xlsx=...xlsx]")
	fmt.Println("  client --orders=ZO/1,ZO/2 | --structure=PET/PE --client-name=... [--batch-code=...] --lang=pl|en [--out=...] [--xlsx=...]")
	fmt.Println("  order:lookup --number=...")
	fmt.Println("  registry:export --out=./out/registry.xlsx")
	fmt.Println("  registry:import --in=./registry.xlsx")
	fmt.Println("  texts:import --lang=pl|en --in=./texts_pl.yaml")
	fmt.Println("  generations [--limit=20]")
	fmt.Println("  preview --in=./out/declaration.html")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
