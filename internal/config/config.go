package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DataDir      string `envconfig:"DATA_DIR" default:"./data"`
	TemplatesDir string `envconfig:"TEMPLATES_DIR"`
	OutputDir    string `envconfig:"OUTPUT_DIR" default:"./out"`
	DBPath       string `envconfig:"DB_PATH" default:"./data/declgen.db"`

	CatalogSource     string `envconfig:"CATALOG_SOURCE" default:"file"`
	CatalogWatch      bool   `envconfig:"CATALOG_WATCH" default:"true"`
	CatalogReloadCron string `envconfig:"CATALOG_RELOAD_CRON" default:"*/10 * * * *"`

	Orders  OrdersConfig
	Clients ClientsConfig

	Producer ProducerConfig

	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	MinLayers int `envconfig:"MIN_LAYERS" default:"2"`
	MaxLayers int `envconfig:"MAX_LAYERS" default:"3"`
}

// OrdersConfig points at the production order table. An empty DSN disables order lookups.
type OrdersConfig struct {
	Driver          string `envconfig:"ORDERS_DRIVER" default:"pgx"`
	DSN             string `envconfig:"ORDERS_DSN"`
	TimeoutMs       int    `envconfig:"ORDERS_TIMEOUT_MS" default:"5000"`
	Table           string `envconfig:"ORDERS_TABLE" default:"ZO"`
	ColNumber       string `envconfig:"ORDERS_COL_NUMBER" default:"NUMER"`
	ColArticleIndex string `envconfig:"ORDERS_COL_ARTICLE_INDEX" default:"NAZWA_INDEKS1"`
	ColClientArt    string `envconfig:"ORDERS_COL_CLIENT_ARTICLE" default:"ART"`
	ColDescription  string `envconfig:"ORDERS_COL_DESCRIPTION" default:"OPIS1"`
	ColStructure    string `envconfig:"ORDERS_COL_STRUCTURE" default:"RECEPTURA_1"`
	ColClient       string `envconfig:"ORDERS_COL_CLIENT" default:"KONTRAHENT"`
	ColThickness1   string `envconfig:"ORDERS_COL_THICKNESS1" default:"GRUBOSC1"`
	ColThickness2   string `envconfig:"ORDERS_COL_THICKNESS2" default:"GRUBOSC2"`
	ColThickness3   string `envconfig:"ORDERS_COL_THICKNESS3" default:"GRUBOSC3"`
}

type ClientsConfig struct {
	Table      string `envconfig:"CLIENTS_TABLE" default:"KONTRAHENCI"`
	ColNumber  string `envconfig:"CLIENTS_COL_NUMBER" default:"NUMER_KONTRAHENTA"`
	ColName    string `envconfig:"CLIENTS_COL_NAME" default:"NAZWA"`
	ColAddress string `envconfig:"CLIENTS_COL_ADDRESS" default:"ADRES"`
}

type ProducerConfig struct {
	Name         string `envconfig:"PRODUCER_NAME" default:"MARPOL Sp. z o.o."`
	AddressLine1 string `envconfig:"PRODUCER_ADDRESS_LINE1" default:"Ignatki 40/1"`
	AddressLine2 string `envconfig:"PRODUCER_ADDRESS_LINE2" default:"16-001 Kleosin"`
	Phone        string `envconfig:"PRODUCER_PHONE" default:"0048 85 7474397"`
	Fax          string `envconfig:"PRODUCER_FAX" default:"0048 85 6631150"`
	PlantName    string `envconfig:"PRODUCER_PLANT_NAME" default:"Zakład Produkcyjny Marpol Sp. z o.o. w Tychach"`
	PlantAddress string `envconfig:"PRODUCER_PLANT_ADDRESS" default:"43-100 Tychy, ul. Składowa 2"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if cfg.MinLayers < 1 || cfg.MaxLayers < cfg.MinLayers {
		return Config{}, fmt.Errorf("invalid layer bounds: MIN_LAYERS=%d MAX_LAYERS=%d", cfg.MinLayers, cfg.MaxLayers)
	}
	switch cfg.CatalogSource {
	case "file", "sqlite":
	default:
		return Config{}, fmt.Errorf("invalid CATALOG_SOURCE %q: want file or sqlite", cfg.CatalogSource)
	}
	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// OrdersEnabled reports whether an order database is configured.
func (c Config) OrdersEnabled() bool {
	return strings.TrimSpace(c.Orders.DSN) != ""
}
