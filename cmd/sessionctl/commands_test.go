package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/karsaku/session-gate/internal/domain"
	"github.com/karsaku/session-gate/internal/securestore"
)

func runCLI(t *testing.T, args ...string) statusOutput {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("sessionctl %v: %v", args, err)
	}
	var status statusOutput
	if err := json.Unmarshal(out.Bytes(), &status); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	return status
}

func TestStatusAndLogout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.db")
	t.Setenv("SECRET_STORE_BACKEND", "sqlite")
	t.Setenv("SECRET_STORE_SQLITE_PATH", path)
	t.Setenv("SESSION_SPLASH_MIN_MS", "0")

	store, err := securestore.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	ctx := context.Background()
	for k, v := range map[string]string{
		domain.KeyAccessToken:        "tok",
		domain.KeyRole:               "professional",
		domain.KeyQuestionsCompleted: "false",
	} {
		if err := store.Set(ctx, k, v); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_ = store.Close()

	status := runCLI(t, "status")
	if status.ScreenGroup != domain.ScreenGroupSignedInProfessional || status.EntryScreen != "ProfessionalDashboard" {
		t.Fatalf("unexpected status %+v", status)
	}

	status = runCLI(t, "logout")
	if status.ScreenGroup != domain.ScreenGroupSignedOut {
		t.Fatalf("unexpected logout status %+v", status)
	}

	status = runCLI(t, "status")
	if status.State.IsSignedIn {
		t.Fatalf("session survived logout: %+v", status)
	}
}
