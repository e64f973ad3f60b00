package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Label.DefaultSymbology != "EAN13" {
		t.Fatalf("expected EAN13 default symbology, got %q", cfg.Label.DefaultSymbology)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadConfigEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server":{"port":9000,"host":"0.0.0.0","mode":"release"},"label":{"default_symbology":"CODE39","qr_size":128,"module_width_px":3,"barcode_height_px":80,"quiet_zone_modules":10}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("expected env port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Label.DefaultSymbology != "CODE39" {
		t.Fatalf("expected CODE39 from file, got %q", cfg.Label.DefaultSymbology)
	}
	if cfg.Label.ModuleWidthPx != 3 {
		t.Fatalf("expected module width 3, got %d", cfg.Label.ModuleWidthPx)
	}
}

func TestValidateRejectsUnknownSymbology(t *testing.T) {
	cfg := getDefaultConfig()
	cfg.Label.DefaultSymbology = "PDF417"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "symbology") {
		t.Fatalf("expected symbology error, got %v", err)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := getDefaultConfig()
	cfg.Database.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected driver error")
	}
}

func TestDSN(t *testing.T) {
	cfg := getDefaultConfig()
	dsn := cfg.Database.DSN()
	if !strings.HasPrefix(dsn, "root:@tcp(localhost:3306)/labels?") {
		t.Fatalf("unexpected mysql dsn %q", dsn)
	}

	cfg.Database.Driver = "sqlite"
	cfg.Database.Database = "labels.db"
	if got := cfg.Database.DSN(); got != "labels.db" {
		t.Fatalf("expected sqlite path, got %q", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.json")
	cfg := getDefaultConfig()
	cfg.Label.CurrencySymbol = "$"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Label.CurrencySymbol != "$" {
		t.Fatalf("expected $ currency, got %q", loaded.Label.CurrencySymbol)
	}
}
