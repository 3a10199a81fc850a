package config

import (
	"os"
	"testing"
)

func unsetBuildEnv() {
	_ = os.Unsetenv("SESSIOND_BUILD_TARGET")
	_ = os.Unsetenv("SESSIOND_DB_DRIVER")
	_ = os.Unsetenv("SESSIOND_SQLITE_PATH")
	_ = os.Unsetenv("SESSIOND_POSTGRES_DSN")
}

func TestResolveDefaultsLocal(t *testing.T) {
	unsetBuildEnv()
	defer unsetBuildEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("unexpected driver for local: %s", cfg.DBDriver)
	}
	if cfg.SQLitePath == "" {
		t.Fatalf("expected derived sqlite path")
	}
}

func TestResolveDefaultsCloud(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("SESSIOND_BUILD_TARGET", "cloud")
	_ = os.Setenv("SESSIOND_POSTGRES_DSN", "postgres://localhost/sessiond")
	defer unsetBuildEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("unexpected driver for cloud: %s", cfg.DBDriver)
	}
}

func TestResolveDefaultsCloudRequiresDSN(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("SESSIOND_BUILD_TARGET", "cloud")
	defer unsetBuildEnv()

	if _, err := New(); err == nil {
		t.Fatalf("expected error for cloud target without DSN")
	}
}

func TestResolveDefaultsDriverOverride(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("SESSIOND_BUILD_TARGET", "cloud")
	_ = os.Setenv("SESSIOND_DB_DRIVER", "sqlite")
	defer unsetBuildEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("override failed, got %s", cfg.DBDriver)
	}
}

func TestResolveDefaultsBadTarget(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("SESSIOND_BUILD_TARGET", "mainframe")
	defer unsetBuildEnv()

	if _, err := New(); err == nil {
		t.Fatalf("expected error for unsupported build target")
	}
}
