package config

import (
	"io"
	"strings"
	"testing"
	"time"

	"cabins/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default(testLogger())

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should be valid, got: %v", err)
	}
	if cfg.MinNights != 5 {
		t.Errorf("expected MinNights 5, got %d", cfg.MinNights)
	}
	if cfg.UsesMongo() {
		t.Errorf("Default() should use the memory store")
	}
}

func TestValidate_EnumeratesEveryProblem(t *testing.T) {
	cfg := Default(testLogger())
	cfg.StoreDriver = "postgres"
	cfg.MinNights = 0
	cfg.OperationTimeout = 0
	cfg.ReconcileInterval = -time.Second

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, want := range []string{"StoreDriver", "MinNights", "OperationTimeout", "ReconcileInterval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got: %s", want, err.Error())
		}
	}
}

func TestValidate_MongoURIOnlyCheckedForMongoDriver(t *testing.T) {
	cfg := Default(testLogger())
	cfg.MongoURI = "not-a-uri"

	if err := cfg.Validate(); err != nil {
		t.Errorf("memory driver should ignore MongoURI, got: %v", err)
	}

	cfg.StoreDriver = StoreDriverMongo
	if err := cfg.Validate(); err == nil {
		t.Errorf("mongo driver should reject invalid MongoURI")
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017/cabins")
	if strings.Contains(got, "secret") {
		t.Errorf("credentials leaked: %s", got)
	}
	if got != "mongodb://***:***@db:27017/cabins" {
		t.Errorf("unexpected redaction: %s", got)
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv(EnvStoreDriver, StoreDriverMemory)
	t.Setenv(EnvMinNights, "3")
	t.Setenv(EnvOperationTimeout, "2s")
	t.Setenv(EnvLogLevel, "error")

	cfg := Load("test")

	if cfg.MinNights != 3 {
		t.Errorf("expected MinNights 3, got %d", cfg.MinNights)
	}
	if cfg.OperationTimeout != 2*time.Second {
		t.Errorf("expected OperationTimeout 2s, got %s", cfg.OperationTimeout)
	}
}

func TestNormalizePaginationLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 10},
		{-5, 10},
		{50, 50},
		{1000, DefaultPaginationLimit},
	}
	for _, tt := range tests {
		if got := NormalizePaginationLimit(tt.in); got != tt.want {
			t.Errorf("NormalizePaginationLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
