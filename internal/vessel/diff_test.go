package vessel

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sailscout/sailscout/internal/units"
)

func TestDiffSetUnsetAndUntouched(t *testing.T) {
	t.Parallel()

	stored := &Record{
		Model:    "Catalina 30",
		HullType: "Monohull",
		Designer: "Frank Butler",
	}
	next := &Record{
		Model:    "Catalina 30",
		HullType: "Monohull",
		Builders: "Catalina Yachts",
	}

	set, unset := Diff(stored, next)
	require.Equal(t, map[string]any{"builders": "Catalina Yachts"}, set)
	require.Equal(t, []string{"designer"}, unset)
}

func TestDiffIdenticalRecordsIsEmpty(t *testing.T) {
	t.Parallel()

	rec := &Record{
		Model:      "Swan 44",
		LOA:        &units.Pair{Primary: units.Float(44.0), Secondary: units.Float(13.41)},
		HullSpeed:  units.Float(7.9),
		BuiltNumber: units.Int(76),
	}
	other := *rec

	set, unset := Diff(rec, &other)
	require.Empty(t, set)
	require.Empty(t, unset)
}

func TestDiffPairChangeAndRemoval(t *testing.T) {
	t.Parallel()

	stored := &Record{
		Model: "Contessa 32",
		LOA:   &units.Pair{Primary: units.Float(32.0), Secondary: units.Float(9.75)},
		Beam:  &units.Pair{Primary: units.Float(9.5)},
	}
	next := &Record{
		Model: "Contessa 32",
		LOA:   &units.Pair{Primary: units.Float(32.0), Secondary: units.Float(9.76)},
	}

	set, unset := Diff(stored, next)
	require.Equal(t, []string{"beam"}, unset)
	require.Len(t, set, 1)
	require.Equal(t, next.LOA, set["loa"])
}

func TestDiffDateFields(t *testing.T) {
	t.Parallel()

	y1971 := time.Date(1971, 1, 1, 0, 0, 0, 0, time.UTC)
	y1972 := time.Date(1972, 1, 1, 0, 0, 0, 0, time.UTC)

	set, unset := Diff(&Record{FirstBuilt: &y1971}, &Record{FirstBuilt: &y1972})
	require.Empty(t, unset)
	require.Equal(t, y1972, set["first_built"])
}

func TestPruneRemovesEmptyPairs(t *testing.T) {
	t.Parallel()

	rec := &Record{
		Model: "Hunter 27",
		LOA:   &units.Pair{Primary: units.Float(27.0)},
		LWL:   &units.Pair{},
	}
	rec.Prune()
	require.NotNil(t, rec.LOA)
	require.Nil(t, rec.LWL)

	// pruning twice is a no-op
	before := *rec
	rec.Prune()
	require.Equal(t, before, *rec)
}

// Every exported Record field must be covered by a diff descriptor, so
// schema drift shows up here instead of as silently undiffed fields.
func TestDiffCoversEverySchemaField(t *testing.T) {
	t.Parallel()

	typ := reflect.TypeOf(Record{})
	require.Equal(t, typ.NumField(), FieldCount())
}
