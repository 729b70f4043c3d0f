package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchWireTexts(t *testing.T) {
	c := Default()
	cases := map[string]string{
		"login.prompt":              "Please log in or register.",
		"login.success":             "Successfully logged in.",
		"login.unknown":             "Name unknown.",
		"login.bad_password":        "Incorrect password.",
		"register.taken":            "Username already exists.",
		"register.invalid_password": "Passwords may not contain tabs or line breaks.",
		"request.sent":              "Request sent.",
		"game.opponent_resigned":    "Your opponent has resigned.",
		"game.illegal_move":         "Illegal move.",
	}
	for key, want := range cases {
		if got := c.Text(key, nil); got != want {
			t.Fatalf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestRenderWithData(t *testing.T) {
	c := Default()
	got, err := c.Render("cancel.too_early", map[string]any{"Seconds": 30})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "You must wait at least 30 seconds before cancelling a request." {
		t.Fatalf("got %q", got)
	}
	if _, err := c.Render("cancel.too_early", map[string]any{}); err == nil {
		t.Fatalf("missing data keys must error")
	}
	if got := c.Text("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("Text fallback = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("login:\n  prompt: \"Hello, log in.\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("login.prompt", nil); got != "Hello, log in." {
		t.Fatalf("override ignored: %q", got)
	}
	if got := c.Text("login.success", nil); got != "Successfully logged in." {
		t.Fatalf("defaults lost: %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("login:\n  prompt: dup\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("duplicate override keys must be rejected")
	}
}
