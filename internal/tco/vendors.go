package tco

import (
	"sort"
	"strings"
)

// Illustrative list prices. None of these are real vendor quotes.
var builtinVendors = map[string]VendorProfile{
	"cisco": {
		Name:                "Cisco",
		WiFiAPCost:          1200,
		P5GCellCost:         5500,
		CoreCost:            90000,
		WiFiMaintenanceRate: 0.18,
		P5GMaintenanceRate:  0.15,
	},
	"nokia": {
		Name:                "Nokia",
		WiFiAPCost:          1100,
		P5GCellCost:         5000,
		CoreCost:            80000,
		WiFiMaintenanceRate: 0.17,
		P5GMaintenanceRate:  0.14,
	},
	"ericsson": {
		Name:                "Ericsson",
		WiFiAPCost:          1150,
		P5GCellCost:         5200,
		CoreCost:            85000,
		WiFiMaintenanceRate: 0.18,
		P5GMaintenanceRate:  0.13,
	},
}

var defaultPricing = StackPricing{
	Variant:             VariantSimplified,
	APCost:              1200,
	CellCost:            5000,
	CoreCost:            80000,
	WiFiMaintenanceRate: 0.18,
	P5GMaintenanceRate:  0.15,
}

// VendorLookup resolves a vendor name to its profile.
type VendorLookup interface {
	Vendor(name string) (VendorProfile, bool)
}

// PricingDefaulter is implemented by lookups that also carry their own
// default price sheet.
type PricingDefaulter interface {
	DefaultPricing() StackPricing
}

type builtinLookup struct{}

func (builtinLookup) Vendor(name string) (VendorProfile, bool) {
	v, ok := builtinVendors[VendorKey(name)]
	return v, ok
}

func (builtinLookup) DefaultPricing() StackPricing { return defaultPricing }

// BuiltinVendorLookup serves the compiled-in vendor table.
var BuiltinVendorLookup VendorLookup = builtinLookup{}

// BuiltinVendors returns a copy of the compiled-in vendor table sorted by name.
func BuiltinVendors() []VendorProfile {
	out := make([]VendorProfile, 0, len(builtinVendors))
	for _, v := range builtinVendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultPricing is the baseline simplified price sheet used when neither a
// vendor nor custom stack pricing is supplied.
func DefaultPricing() StackPricing {
	return defaultPricing
}

// VendorKey is the case-insensitive lookup key for a vendor name.
func VendorKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
