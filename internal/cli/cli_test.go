package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	if root.Use != "platekit" {
		t.Errorf("Use = %q", root.Use)
	}

	want := []string{"plate", "scene", "batch", "remove", "cache", "serve", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestCacheDir(t *testing.T) {
	oldXdg := os.Getenv("XDG_CACHE_HOME")
	os.Unsetenv("XDG_CACHE_HOME")
	defer func() {
		if oldXdg != "" {
			os.Setenv("XDG_CACHE_HOME", oldXdg)
		}
	}()

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := "/tmp/custom-cache"
	oldXdg := os.Getenv("XDG_CACHE_HOME")
	os.Setenv("XDG_CACHE_HOME", customCache)
	defer func() {
		if oldXdg != "" {
			os.Setenv("XDG_CACHE_HOME", oldXdg)
		} else {
			os.Unsetenv("XDG_CACHE_HOME")
		}
	}()

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestSceneOptionsMapping(t *testing.T) {
	c := New(io.Discard, LogInfo)
	opts := &sceneOpts{
		region:     "dubai",
		code:       "A",
		number:     "12345",
		class:      "private",
		plateTop:   "70%",
		plateLeft:  "50%",
		plateWidth: "18%",
		phone:      "0501234567",
		phoneTop:   "90%",
		phoneLeft:  "30%",
		price:      550000,
		textScale:  1,
	}

	popts := c.sceneOptions("bg.png", opts, true)

	if popts.Plate.Region != "dubai" || popts.Plate.Number != "12345" {
		t.Errorf("plate spec = %+v", popts.Plate)
	}
	if popts.Background != "bg.png" {
		t.Errorf("background = %q", popts.Background)
	}
	if popts.Placement.Top != "70%" || popts.Placement.Width != "18%" {
		t.Errorf("placement = %+v", popts.Placement)
	}
	if popts.Price == nil || *popts.Price != 550000 {
		t.Errorf("price = %v", popts.Price)
	}
	if popts.PhoneStyling == nil || popts.PhoneStyling.Left != "30%" {
		t.Errorf("phone styling = %+v", popts.PhoneStyling)
	}
	if popts.PriceStyling != nil {
		t.Errorf("price styling should be nil without flags, got %+v", popts.PriceStyling)
	}
	if popts.CornerPlacement != nil {
		t.Errorf("corner placement should be nil, got %+v", popts.CornerPlacement)
	}

	// Without --price the contact-seller fallback applies.
	popts = c.sceneOptions("bg.png", opts, false)
	if popts.Price != nil {
		t.Errorf("price should be nil when the flag is unset, got %v", popts.Price)
	}
}

func TestLoadBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.toml")
	content := `
[defaults]
font = "Impact"
target_width = 768

[[listings]]
id = "lst-1"
background = "cars/a.png"
price = 550000
phone = "0501234567"

[listings.plate]
region = "dubai"
code = "A"
number = "12345"

[listings.placement]
top = "70%"
left = "50%"
width = "18%"

[[listings]]
background = "cars/b.png"

[listings.plate]
region = "sharjah"
number = "9"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	bf, err := loadBatchFile(path)
	if err != nil {
		t.Fatalf("loadBatchFile: %v", err)
	}
	if bf.Defaults.Font != "Impact" || bf.Defaults.TargetWidth != 768 {
		t.Errorf("defaults = %+v", bf.Defaults)
	}
	if len(bf.Listings) != 2 {
		t.Fatalf("listings = %d", len(bf.Listings))
	}

	first := bf.Listings[0]
	if first.ID != "lst-1" || first.Plate.Region != "dubai" || first.Placement.Top != "70%" {
		t.Errorf("first listing = %+v", first)
	}
	if first.Price == nil || *first.Price != 550000 {
		t.Errorf("first price = %v", first.Price)
	}

	// Missing IDs are assigned positionally.
	if bf.Listings[1].ID != "listing-2" {
		t.Errorf("second listing ID = %q", bf.Listings[1].ID)
	}
}

func TestLoadBatchFileErrors(t *testing.T) {
	if _, err := loadBatchFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should error")
	}

	empty := filepath.Join(t.TempDir(), "empty.toml")
	if err := os.WriteFile(empty, []byte("[defaults]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadBatchFile(empty); err == nil {
		t.Error("file without listings should error")
	}
}

func TestBatchModelProgress(t *testing.T) {
	m := newBatchModel(2)

	next, _ := m.Update(batchResultMsg{result: batchResult{id: "a", dest: "a.jpg"}})
	m = next.(batchModel)
	if len(m.results) != 1 || m.failed != 0 {
		t.Errorf("after success: results=%d failed=%d", len(m.results), m.failed)
	}

	next, _ = m.Update(batchResultMsg{result: batchResult{id: "b", err: io.EOF}})
	m = next.(batchModel)
	if m.failed != 1 {
		t.Errorf("failed = %d", m.failed)
	}

	view := m.View()
	if !strings.Contains(view, "2/2") {
		t.Errorf("view missing progress count: %q", view)
	}
	if !strings.Contains(view, "1 failed") {
		t.Errorf("view missing failure count: %q", view)
	}
}
