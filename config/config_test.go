package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 9090
  max_file_size: 1048576
log:
  level: "debug"
  format: "json"
store:
  path: "/tmp/contracts-test.db"
storage:
  backend: "minio"
  minio:
    endpoint: "localhost:9000"
    access_key: "minioadmin"
    secret_key: "minioadmin"
    bucket: "test-bucket"
    use_ssl: false
ocr:
  api_key: "test-ocr-key"
  language: "ger"
gemini:
  api_key: "test-gemini-key"
  model: "gemini-1.5-pro"
pipeline:
  max_concurrent: 8
`
	cfg, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxFileSize != 1048576 {
		t.Errorf("Expected max_file_size 1048576, got %d", cfg.Server.MaxFileSize)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format json, got %s", cfg.Log.Format)
	}
	if cfg.Store.Path != "/tmp/contracts-test.db" {
		t.Errorf("Expected store path /tmp/contracts-test.db, got %s", cfg.Store.Path)
	}
	if cfg.Storage.Backend != "minio" {
		t.Errorf("Expected storage backend minio, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Minio.Endpoint != "localhost:9000" {
		t.Errorf("Expected endpoint localhost:9000, got %s", cfg.Storage.Minio.Endpoint)
	}
	if cfg.OCR.Language != "ger" {
		t.Errorf("Expected OCR language ger, got %s", cfg.OCR.Language)
	}
	if cfg.Gemini.Model != "gemini-1.5-pro" {
		t.Errorf("Expected gemini model gemini-1.5-pro, got %s", cfg.Gemini.Model)
	}
	if cfg.Pipeline.MaxConcurrent != 8 {
		t.Errorf("Expected max_concurrent 8, got %d", cfg.Pipeline.MaxConcurrent)
	}
}

func TestLoadDefaults(t *testing.T) {
	configContent := `
ocr:
  api_key: "key"
gemini:
  api_key: "key"
`
	cfg, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxFileSize != 50*1024*1024 {
		t.Errorf("Expected default max_file_size 50MB, got %d", cfg.Server.MaxFileSize)
	}
	if cfg.Store.Path != "contracts.db" {
		t.Errorf("Expected default store path contracts.db, got %s", cfg.Store.Path)
	}
	if cfg.Storage.Backend != "disk" {
		t.Errorf("Expected default storage backend disk, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.UploadDir != "./uploads" {
		t.Errorf("Expected default upload dir ./uploads, got %s", cfg.Storage.UploadDir)
	}
	if cfg.OCR.APIURL != "https://api.ocr.space/parse/image" {
		t.Errorf("Expected default OCR API URL, got %s", cfg.OCR.APIURL)
	}
	if cfg.OCR.Language != "eng" {
		t.Errorf("Expected default OCR language eng, got %s", cfg.OCR.Language)
	}
	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Errorf("Expected default gemini model gemini-1.5-flash, got %s", cfg.Gemini.Model)
	}
	if cfg.Pipeline.MaxConcurrent != 4 {
		t.Errorf("Expected default max_concurrent 4, got %d", cfg.Pipeline.MaxConcurrent)
	}
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "invalid: yaml: content:"))
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
