package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smartdent/smartdent/pkg/money"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	groups := c.PlanGroups()
	if len(groups) != 2 {
		t.Fatalf("expected 2 plan groups, got %d", len(groups))
	}
	if groups[0].Name != "Individuais" || len(groups[0].Plans) != 6 {
		t.Errorf("unexpected individual plans: %+v", groups[0])
	}
	if groups[1].Name != "Empresariais" || len(groups[1].Plans) != 12 {
		t.Errorf("unexpected company plans: %+v", groups[1])
	}

	cats := c.ProcedureCategories()
	if len(cats) != 12 {
		t.Fatalf("expected 12 procedure categories, got %d", len(cats))
	}
	total := 0
	for _, cat := range cats {
		total += len(cat.Procedures)
	}
	if total != 45 {
		t.Errorf("expected 45 procedure types, got %d", total)
	}
}

func TestPrice(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	tests := []struct {
		name string
		want money.Cents
		ok   bool
	}{
		{"Consulta odontológica geral", 15000, true},
		{"Extração de dente do siso", 45000, true},
		{"Canal em dentes posteriores", 75000, true},
		{"Instalação de aparelho fixo metálico", 180000, true},
		{"Documentação ortodôntica completa (Exames)", 40000, true},
		{"consulta odontológica geral", 0, false},
		{"Implante", 0, false},
	}
	for _, tt := range tests {
		got, ok := c.Price(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Price(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsPlanAllowed(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	for _, p := range []string{"Dental Júnior", "Bem-Estar Orto White", "Ômega", "Maximum White"} {
		if !c.IsPlanAllowed(p) {
			t.Errorf("expected %q to be allowed", p)
		}
	}
	for _, p := range []string{"", "Gold", "ômega", "Bem Estar"} {
		if c.IsPlanAllowed(p) {
			t.Errorf("expected %q to be rejected", p)
		}
	}
}

func TestPlanGroups_ReturnsCopy(t *testing.T) {
	c, _ := Default()
	groups := c.PlanGroups()
	groups[0].Plans[0] = "mutated"
	if c.PlanGroups()[0].Plans[0] == "mutated" {
		t.Error("catalog was mutated through returned slice")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `
plan_groups:
  - name: Individuais
    plans: [Básico]
procedure_categories:
  - name: Prevenção
    procedures:
      - {name: Limpeza, cost: 99.9}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cost, ok := c.Price("Limpeza"); !ok || cost != 9990 {
		t.Errorf("unexpected price %d %v", cost, ok)
	}
	if !c.IsPlanAllowed("Básico") {
		t.Error("expected plan from file")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"invalid yaml": "plan_groups: [",
		"no plans":     "procedure_categories:\n  - name: A\n    procedures: [{name: X, cost: 1}]\n",
		"no prices":    "plan_groups:\n  - name: A\n    plans: [P]\n",
		"duplicate": "plan_groups:\n  - name: A\n    plans: [P]\n" +
			"procedure_categories:\n  - name: A\n    procedures: [{name: X, cost: 1}, {name: X, cost: 2}]\n",
	}
	for name, data := range tests {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
