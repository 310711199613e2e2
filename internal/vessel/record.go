// Package vessel defines the persisted record schema for sailing vessels
// and the typed field-diff used by the upsert path.
package vessel

import (
	"strings"
	"time"

	"github.com/sailscout/sailscout/internal/units"
)

// Record is the persisted entity for one vessel model. Identity is the
// model name, matched case-insensitively by the store. Every field is
// optional: pruning removes absent fields before persistence so the stored
// document only carries what the source page actually provided.
type Record struct {
	URL          string `json:"url,omitempty"`
	Model        string `json:"model,omitempty"`
	HullType     string `json:"hull_type,omitempty"`
	RiggingType  string `json:"rigging_type,omitempty"`
	Construction string `json:"construction,omitempty"`
	BallastType  string `json:"ballast_type,omitempty"`
	Designer     string `json:"designer,omitempty"`
	Builders     string `json:"builders,omitempty"`
	Association  string `json:"association,omitempty"`
	Products     string `json:"products,omitempty"`

	FirstBuilt  *time.Time `json:"first_built,omitempty"`
	BuiltNumber *int       `json:"built_number,omitempty"`

	LOA            *units.Pair `json:"loa,omitempty"`
	LWL            *units.Pair `json:"lwl,omitempty"`
	SailArea       *units.Pair `json:"sail_area,omitempty"`
	Beam           *units.Pair `json:"beam,omitempty"`
	Displacement   *units.Pair `json:"displacement,omitempty"`
	Ballast        *units.Pair `json:"ballast,omitempty"`
	MaxDraft       *units.Pair `json:"max_draft,omitempty"`
	I              *units.Pair `json:"i,omitempty"`
	J              *units.Pair `json:"j,omitempty"`
	P              *units.Pair `json:"p,omitempty"`
	E              *units.Pair `json:"e,omitempty"`
	SPLTPS         *units.Pair `json:"spl_tps,omitempty"`
	ISP            *units.Pair `json:"isp,omitempty"`
	SailAreaFore   *units.Pair `json:"sail_area_fore,omitempty"`
	SailAreaMain   *units.Pair `json:"sail_area_main,omitempty"`
	SailAreaTotal  *units.Pair `json:"sail_area_total,omitempty"`
	ForestayLength *units.Pair `json:"forestay_length,omitempty"`

	SailAreaDisplacement     *float64 `json:"sail_area_displacement,omitempty"`
	BallastDisplacement      *float64 `json:"ballast_displacement,omitempty"`
	DisplacementLength       *float64 `json:"displacement_length,omitempty"`
	ComfortRatio             *int     `json:"comfort_ratio,omitempty"`
	CapsizeRatio             *float64 `json:"capsize_ratio,omitempty"`
	SNumber                  *float64 `json:"s_number,omitempty"`
	HullSpeed                *float64 `json:"hull_speed,omitempty"`
	PoundInchImmersion       *float64 `json:"pound_inch_immersion,omitempty"`
	SailAreaDisplacementCalc *float64 `json:"sail_area_displacement_calc,omitempty"`
}

// Key returns the normalized identity key for the record: the model name
// trimmed and lowercased. Used to serialize concurrent upserts per model.
func (r *Record) Key() string {
	return strings.ToLower(strings.TrimSpace(r.Model))
}

// Prune removes measurement pairs with no populated sub-value so the
// persisted shape only contains fields genuinely present on the source
// page. Pruning an already-pruned record is a no-op.
func (r *Record) Prune() {
	for _, f := range pairFields {
		if f.get(r).Empty() {
			f.set(r, nil)
		}
	}
}
