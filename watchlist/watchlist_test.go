package watchlist

import (
	"os"
	"path/filepath"
	"testing"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadSemicolonList(t *testing.T) {
	path := writeList(t, "nome;colecao;numero\nCharizard ex;OBF;125\nPikachu ex;SVP;57\n")

	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Name != "Charizard ex" || items[0].Collection != "OBF" || items[0].Number != "125" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Name != "Pikachu ex" {
		t.Errorf("items[1] = %+v", items[1])
	}
}

func TestLoadCommaList(t *testing.T) {
	path := writeList(t, "nome,colecao,numero\nCharizard ex,OBF,125\n")

	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 1 || items[0].Collection != "OBF" {
		t.Fatalf("items = %+v, want one OBF card", items)
	}
}

func TestLoadSkipsIncompleteRows(t *testing.T) {
	path := writeList(t, "nome;colecao;numero\nCharizard ex;OBF;125\n;OBF;126\nMew ex;;151\n")

	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want only the complete row", len(items))
	}
}

func TestLoadHeaderCaseAndSpacing(t *testing.T) {
	path := writeList(t, "Nome; Colecao; Numero\nCharizard ex; OBF; 125\n")

	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 1 || items[0].Number != "125" {
		t.Fatalf("items = %+v", items)
	}
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeList(t, "nome;colecao\nCharizard ex;OBF\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a list without the numero column")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
