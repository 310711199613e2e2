// Package normalize maps raw label/value extractions into the typed record
// schemas. It is pure: no I/O, and a parse failure on one field never
// affects its siblings.
package normalize

import (
	"github.com/sailscout/sailscout/internal/extract"
	"github.com/sailscout/sailscout/internal/units"
	"github.com/sailscout/sailscout/internal/vessel"
)

// Vessel builds a pruned vessel.Record from a sailboatdata-style detail
// page. Labels are matched exactly as they appear in the spec table (with
// the trailing colon already stripped by the extractor). Fields the page
// does not carry, or whose values do not parse, are absent in the result.
func Vessel(raw *extract.RawPage) *vessel.Record {
	f := raw.Fields
	rec := &vessel.Record{
		URL:          raw.URL,
		Model:        raw.Title,
		HullType:     f["Hull Type"],
		RiggingType:  f["Rigging Type"],
		Construction: f["Construction"],
		BallastType:  f["Ballast Type"],
		Designer:     f["Designer"],
		Builders:     f["Builders"],
		Association:  f["Associations"],
		Products:     f["Products"],

		FirstBuilt:  units.ParseDate(f["First Built"]),
		BuiltNumber: units.ParseInt(f["# Built"]),

		LOA:            units.ParsePair(f["LOA"]),
		LWL:            units.ParsePair(f["LWL"]),
		SailArea:       units.ParsePair(f["S.A. (reported)"]),
		Beam:           units.ParsePair(f["Beam"]),
		Displacement:   units.ParsePair(f["Displacement"]),
		Ballast:        units.ParsePair(f["Ballast"]),
		MaxDraft:       units.ParsePair(f["Max Draft"]),
		I:              units.ParsePair(f["I"]),
		J:              units.ParsePair(f["J"]),
		P:              units.ParsePair(f["P"]),
		E:              units.ParsePair(f["E"]),
		SPLTPS:         units.ParsePair(f["SPL/TPS"]),
		ISP:            units.ParsePair(f["ISP"]),
		SailAreaFore:   units.ParsePair(f["S.A. Fore"]),
		SailAreaMain:   units.ParsePair(f["S.A. Main"]),
		SailAreaTotal:  units.ParsePair(f["S.A. Total (100% Fore + Main Triangles)"]),
		ForestayLength: units.ParsePair(f["Est. Forestay Length"]),

		SailAreaDisplacement:     units.ParseFloat(f["S.A. / Displ."]),
		BallastDisplacement:      units.ParseFloat(f["Bal. / Displ."]),
		DisplacementLength:       units.ParseFloat(f["Disp / Len"]),
		ComfortRatio:             units.ParseInt(f["Comfort Ratio"]),
		CapsizeRatio:             units.ParseFloat(f["Capsize Screening Formula"]),
		SNumber:                  units.ParseFloat(f["S#"]),
		HullSpeed:                units.ParseAt(f["Hull Speed"], 0),
		PoundInchImmersion:       units.ParseAt(f["Pounds/Inch Immersion"], 0),
		SailAreaDisplacementCalc: units.ParseAt(f["S.A./Displ. (calc.)"], 0),
	}
	rec.Prune()
	return rec
}
