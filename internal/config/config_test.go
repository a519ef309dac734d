package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 19132 {
		t.Errorf("Port = %d, want 19132", cfg.Server.Port)
	}
	if cfg.Server.ViewDistanceCap != 8 {
		t.Errorf("ViewDistanceCap = %d, want 8", cfg.Server.ViewDistanceCap)
	}
}

func TestLoad_ClampsViewDistanceCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  view_distance_cap: 64\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ViewDistanceCap != 8 {
		t.Errorf("ViewDistanceCap = %d, want clamped to 8", cfg.Server.ViewDistanceCap)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "db", SSLMode: "disable",
		MaxConns: 10,
	}
	dsn := d.DSN()
	want := "postgres://u:p@localhost:5432/db?sslmode=disable&pool_max_conns=10"
	if dsn != want {
		t.Errorf("DSN() = %q, want %q", dsn, want)
	}
}
