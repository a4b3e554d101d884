package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
)

// Catalog is read-only pricing reference data. It is built once at start-up
// and shared by every evaluation; nothing mutates it afterwards.
type Catalog struct {
	vendors map[string]tco.VendorProfile
	pricing tco.StackPricing
	source  string
}

// Builtin wraps the compiled-in vendor table and default price sheet.
func Builtin() *Catalog {
	c, err := build("builtin", nil, nil)
	if err != nil {
		// The compiled-in table is validated by tests.
		panic(err)
	}
	return c
}

// build layers overrides on top of the built-in vendors.
func build(source string, vendors []tco.VendorProfile, pricing *tco.StackPricing) (*Catalog, error) {
	c := &Catalog{
		vendors: map[string]tco.VendorProfile{},
		pricing: tco.DefaultPricing(),
		source:  source,
	}
	for _, v := range tco.BuiltinVendors() {
		c.vendors[tco.VendorKey(v.Name)] = v
	}
	seen := map[string]bool{}
	for _, v := range vendors {
		key := tco.VendorKey(v.Name)
		if key == "" {
			return nil, errors.New("vendor with empty name")
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate vendor %q", v.Name)
		}
		seen[key] = true
		v.Name = strings.TrimSpace(v.Name)
		if err := tco.ValidatePricing(tco.PricingFromVendor(v)); err != nil {
			return nil, fmt.Errorf("vendor %q: %w", v.Name, err)
		}
		c.vendors[key] = v
	}
	if pricing != nil {
		p := *pricing
		if p.Variant == "" {
			p.Variant = tco.VariantSimplified
		}
		if err := tco.ValidatePricing(p); err != nil {
			return nil, fmt.Errorf("default pricing: %w", err)
		}
		c.pricing = p
	}
	return c, nil
}

func (c *Catalog) Vendor(name string) (tco.VendorProfile, bool) {
	v, ok := c.vendors[tco.VendorKey(name)]
	return v, ok
}

// Vendors returns every profile sorted by name.
func (c *Catalog) Vendors() []tco.VendorProfile {
	out := make([]tco.VendorProfile, 0, len(c.vendors))
	for _, v := range c.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Catalog) DefaultPricing() tco.StackPricing {
	return c.pricing
}

// Source describes where the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

type fileCatalog struct {
	Vendors        []tco.VendorProfile `yaml:"vendors"`
	DefaultPricing *tco.StackPricing   `yaml:"default_pricing"`
}

// LoadYAML reads vendor profiles and an optional default price sheet. Listed
// vendors replace built-in entries of the same name; unknown keys are errors.
func LoadYAML(path string) (*Catalog, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var fc fileCatalog
	if err := yaml.UnmarshalStrict(blob, &fc); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return build("yaml:"+path, fc.Vendors, fc.DefaultPricing)
}

// Load picks the catalog source. The database wins over the YAML file; with
// neither, the built-in catalog is returned.
func Load(yamlPath, dbPath string) (*Catalog, error) {
	switch {
	case strings.TrimSpace(dbPath) != "":
		return LoadSQLite(dbPath)
	case strings.TrimSpace(yamlPath) != "":
		return LoadYAML(yamlPath)
	default:
		return Builtin(), nil
	}
}
