package feedback

import (
	"fmt"
	"sort"
)

// Variant declares which optional parts of the form are collected.
type Variant struct {
	Name               string
	CollectDescription bool
	CollectSecondRound bool
	OfferAIEdit        bool
}

const (
	VariantClassic    = "classic"
	VariantDetailed   = "detailed"
	VariantAIAssisted = "ai-assisted"
)

var variantPresets = map[string]Variant{
	VariantClassic: {
		Name: VariantClassic,
	},
	VariantDetailed: {
		Name:               VariantDetailed,
		CollectDescription: true,
		CollectSecondRound: true,
	},
	VariantAIAssisted: {
		Name:               VariantAIAssisted,
		CollectDescription: true,
		OfferAIEdit:        true,
	},
}

// VariantByName returns a preset. An empty name selects the classic form.
func VariantByName(name string) (Variant, error) {
	if name == "" {
		name = VariantClassic
	}
	v, ok := variantPresets[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown form variant %q (known: %v)", name, VariantNames())
	}
	return v, nil
}

// VariantNames returns the preset names in sorted order.
func VariantNames() []string {
	names := make([]string, 0, len(variantPresets))
	for name := range variantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
