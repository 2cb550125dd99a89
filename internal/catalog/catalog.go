// Package catalog holds the clinic's dental plan allow-list and procedure
// price table. Both are read once at start and never change afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/smartdent/smartdent/pkg/money"
)

//go:embed catalog.yaml
var defaultData []byte

// PlanGroup is a named set of plans, e.g. "Individuais".
type PlanGroup struct {
	Name  string   `yaml:"name" json:"name"`
	Plans []string `yaml:"plans" json:"plans"`
}

type ProcedureType struct {
	Name string      `json:"name"`
	Cost money.Cents `json:"cost"`
}

type ProcedureCategory struct {
	Name       string          `json:"name"`
	Procedures []ProcedureType `json:"procedures"`
}

type fileFormat struct {
	PlanGroups []PlanGroup `yaml:"plan_groups"`
	Categories []struct {
		Name       string `yaml:"name"`
		Procedures []struct {
			Name string  `yaml:"name"`
			Cost float64 `yaml:"cost"`
		} `yaml:"procedures"`
	} `yaml:"procedure_categories"`
}

type Catalog struct {
	groups     []PlanGroup
	categories []ProcedureCategory
	plans      map[string]struct{}
	prices     map[string]money.Cents
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultData)
}

// Load reads a YAML catalog from path, or the compiled-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		groups: f.PlanGroups,
		plans:  make(map[string]struct{}),
		prices: make(map[string]money.Cents),
	}
	for _, g := range f.PlanGroups {
		for _, p := range g.Plans {
			c.plans[p] = struct{}{}
		}
	}
	for _, cat := range f.Categories {
		out := ProcedureCategory{Name: cat.Name}
		for _, p := range cat.Procedures {
			if _, dup := c.prices[p.Name]; dup {
				return nil, fmt.Errorf("procedure type %q listed twice", p.Name)
			}
			if p.Cost < 0 {
				return nil, fmt.Errorf("procedure type %q has negative cost", p.Name)
			}
			cost := money.FromFloat(p.Cost)
			c.prices[p.Name] = cost
			out.Procedures = append(out.Procedures, ProcedureType{Name: p.Name, Cost: cost})
		}
		c.categories = append(c.categories, out)
	}

	if len(c.plans) == 0 {
		return nil, fmt.Errorf("catalog has no plans")
	}
	if len(c.prices) == 0 {
		return nil, fmt.Errorf("catalog has no procedure types")
	}
	return c, nil
}

// IsPlanAllowed matches the plan name exactly.
func (c *Catalog) IsPlanAllowed(plan string) bool {
	_, ok := c.plans[plan]
	return ok
}

// Price returns the cost of a procedure type, matched exactly.
func (c *Catalog) Price(procedureType string) (money.Cents, bool) {
	cost, ok := c.prices[procedureType]
	return cost, ok
}

func (c *Catalog) PlanGroups() []PlanGroup {
	out := make([]PlanGroup, len(c.groups))
	for i, g := range c.groups {
		out[i] = PlanGroup{Name: g.Name, Plans: append([]string(nil), g.Plans...)}
	}
	return out
}

func (c *Catalog) ProcedureCategories() []ProcedureCategory {
	out := make([]ProcedureCategory, len(c.categories))
	for i, cat := range c.categories {
		out[i] = ProcedureCategory{Name: cat.Name, Procedures: append([]ProcedureType(nil), cat.Procedures...)}
	}
	return out
}
