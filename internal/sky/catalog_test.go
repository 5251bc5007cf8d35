package sky

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCatalogLookup(t *testing.T) {
	cat, err := NewCatalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Len() == 0 {
		t.Fatal("embedded catalog is empty")
	}

	for _, name := range []string{"M31", "m 31", " Andromeda Galaxy ", "NGC-224", "andromedagalaxy"} {
		obj, ok := cat.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) found nothing", name)
			continue
		}
		if obj.Name != "Andromeda Galaxy" {
			t.Errorf("Lookup(%q) = %q", name, obj.Name)
		}
	}

	if _, ok := cat.Lookup("Planet X"); ok {
		t.Error("unexpected match for unknown name")
	}
}

func TestLoadCatalogOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	doc := `objects:
  - {name: Andromeda Galaxy, aliases: [M31], kind: galaxy, ra: 11, dec: 42}
  - {name: Test Target, aliases: [TT1], kind: star, ra: 1.5, dec: -2.5}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	base, _ := NewCatalog()
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Len() != base.Len()+1 {
		t.Errorf("Len = %d, want %d", cat.Len(), base.Len()+1)
	}
	if obj, _ := cat.Lookup("M31"); obj.RA != 11 || obj.Dec != 42 {
		t.Errorf("overlay did not replace M31: %+v", obj)
	}
	if obj, ok := cat.Lookup("tt1"); !ok || obj.Dec != -2.5 {
		t.Errorf("overlay entry missing: %+v", obj)
	}
}

func TestParseCatalogRejectsBadEntries(t *testing.T) {
	bad := []string{
		"objects:\n  - {ra: 1, dec: 1}\n",
		"objects:\n  - {name: X, ra: 1, dec: 100}\n",
		"objects: [",
	}
	for _, doc := range bad {
		if _, err := ParseCatalog([]byte(doc)); err == nil {
			t.Errorf("ParseCatalog(%q) should fail", doc)
		}
	}
}
