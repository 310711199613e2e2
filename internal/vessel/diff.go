package vessel

import (
	"time"

	"github.com/sailscout/sailscout/internal/units"
)

// The schema is closed, so field comparison is a fixed descriptor table
// rather than runtime introspection; adding a Record field without a
// descriptor is caught by TestDiffCoversEverySchemaField.

type stringField struct {
	name string
	get  func(*Record) string
}

type pairField struct {
	name string
	get  func(*Record) *units.Pair
	set  func(*Record, *units.Pair)
}

type floatField struct {
	name string
	get  func(*Record) *float64
}

type intField struct {
	name string
	get  func(*Record) *int
}

type dateField struct {
	name string
	get  func(*Record) *time.Time
}

var stringFields = []stringField{
	{"url", func(r *Record) string { return r.URL }},
	{"model", func(r *Record) string { return r.Model }},
	{"hull_type", func(r *Record) string { return r.HullType }},
	{"rigging_type", func(r *Record) string { return r.RiggingType }},
	{"construction", func(r *Record) string { return r.Construction }},
	{"ballast_type", func(r *Record) string { return r.BallastType }},
	{"designer", func(r *Record) string { return r.Designer }},
	{"builders", func(r *Record) string { return r.Builders }},
	{"association", func(r *Record) string { return r.Association }},
	{"products", func(r *Record) string { return r.Products }},
}

var pairFields = []pairField{
	{"loa", func(r *Record) *units.Pair { return r.LOA }, func(r *Record, p *units.Pair) { r.LOA = p }},
	{"lwl", func(r *Record) *units.Pair { return r.LWL }, func(r *Record, p *units.Pair) { r.LWL = p }},
	{"sail_area", func(r *Record) *units.Pair { return r.SailArea }, func(r *Record, p *units.Pair) { r.SailArea = p }},
	{"beam", func(r *Record) *units.Pair { return r.Beam }, func(r *Record, p *units.Pair) { r.Beam = p }},
	{"displacement", func(r *Record) *units.Pair { return r.Displacement }, func(r *Record, p *units.Pair) { r.Displacement = p }},
	{"ballast", func(r *Record) *units.Pair { return r.Ballast }, func(r *Record, p *units.Pair) { r.Ballast = p }},
	{"max_draft", func(r *Record) *units.Pair { return r.MaxDraft }, func(r *Record, p *units.Pair) { r.MaxDraft = p }},
	{"i", func(r *Record) *units.Pair { return r.I }, func(r *Record, p *units.Pair) { r.I = p }},
	{"j", func(r *Record) *units.Pair { return r.J }, func(r *Record, p *units.Pair) { r.J = p }},
	{"p", func(r *Record) *units.Pair { return r.P }, func(r *Record, p *units.Pair) { r.P = p }},
	{"e", func(r *Record) *units.Pair { return r.E }, func(r *Record, p *units.Pair) { r.E = p }},
	{"spl_tps", func(r *Record) *units.Pair { return r.SPLTPS }, func(r *Record, p *units.Pair) { r.SPLTPS = p }},
	{"isp", func(r *Record) *units.Pair { return r.ISP }, func(r *Record, p *units.Pair) { r.ISP = p }},
	{"sail_area_fore", func(r *Record) *units.Pair { return r.SailAreaFore }, func(r *Record, p *units.Pair) { r.SailAreaFore = p }},
	{"sail_area_main", func(r *Record) *units.Pair { return r.SailAreaMain }, func(r *Record, p *units.Pair) { r.SailAreaMain = p }},
	{"sail_area_total", func(r *Record) *units.Pair { return r.SailAreaTotal }, func(r *Record, p *units.Pair) { r.SailAreaTotal = p }},
	{"forestay_length", func(r *Record) *units.Pair { return r.ForestayLength }, func(r *Record, p *units.Pair) { r.ForestayLength = p }},
}

var floatFields = []floatField{
	{"sail_area_displacement", func(r *Record) *float64 { return r.SailAreaDisplacement }},
	{"ballast_displacement", func(r *Record) *float64 { return r.BallastDisplacement }},
	{"displacement_length", func(r *Record) *float64 { return r.DisplacementLength }},
	{"capsize_ratio", func(r *Record) *float64 { return r.CapsizeRatio }},
	{"s_number", func(r *Record) *float64 { return r.SNumber }},
	{"hull_speed", func(r *Record) *float64 { return r.HullSpeed }},
	{"pound_inch_immersion", func(r *Record) *float64 { return r.PoundInchImmersion }},
	{"sail_area_displacement_calc", func(r *Record) *float64 { return r.SailAreaDisplacementCalc }},
}

var intFields = []intField{
	{"built_number", func(r *Record) *int { return r.BuiltNumber }},
	{"comfort_ratio", func(r *Record) *int { return r.ComfortRatio }},
}

var dateFields = []dateField{
	{"first_built", func(r *Record) *time.Time { return r.FirstBuilt }},
}

// FieldCount is the number of schema fields covered by the diff.
func FieldCount() int {
	return len(stringFields) + len(pairFields) + len(floatFields) + len(intFields) + len(dateFields)
}

// Diff compares a freshly normalized record against the stored one and
// returns the field-level changes: set holds fields to write (new or
// changed), unset names fields present in stored but absent from next.
// Both empty means the stored record is already up to date.
func Diff(stored, next *Record) (set map[string]any, unset []string) {
	set = make(map[string]any)

	for _, f := range stringFields {
		oldV, newV := f.get(stored), f.get(next)
		switch {
		case newV == "" && oldV != "":
			unset = append(unset, f.name)
		case newV != "" && newV != oldV:
			set[f.name] = newV
		}
	}
	for _, f := range pairFields {
		oldV, newV := f.get(stored), f.get(next)
		switch {
		case newV.Empty() && !oldV.Empty():
			unset = append(unset, f.name)
		case !newV.Empty() && !pairsEqual(oldV, newV):
			set[f.name] = newV
		}
	}
	for _, f := range floatFields {
		oldV, newV := f.get(stored), f.get(next)
		switch {
		case newV == nil && oldV != nil:
			unset = append(unset, f.name)
		case newV != nil && !floatsEqual(oldV, newV):
			set[f.name] = *newV
		}
	}
	for _, f := range intFields {
		oldV, newV := f.get(stored), f.get(next)
		switch {
		case newV == nil && oldV != nil:
			unset = append(unset, f.name)
		case newV != nil && (oldV == nil || *oldV != *newV):
			set[f.name] = *newV
		}
	}
	for _, f := range dateFields {
		oldV, newV := f.get(stored), f.get(next)
		switch {
		case newV == nil && oldV != nil:
			unset = append(unset, f.name)
		case newV != nil && (oldV == nil || !oldV.Equal(*newV)):
			set[f.name] = *newV
		}
	}
	return set, unset
}

func pairsEqual(a, b *units.Pair) bool {
	if a.Empty() || b.Empty() {
		return a.Empty() && b.Empty()
	}
	return floatsEqual(a.Primary, b.Primary) && floatsEqual(a.Secondary, b.Secondary)
}

func floatsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
