package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleStruct(t *testing.T) {
	src := `
package sensors;

// A single temperature reading.
struct Temperature
{
    int64_t utime;
    double degCelsius;
}
`
	f, err := Parse(src)
	require.NoError(t, err)
	require.Equal(t, []string{"sensors"}, f.Namespace)
	require.Len(t, f.Records, 1)

	rec := f.Records[0]
	require.Equal(t, "Temperature", rec.Name)
	require.Equal(t, "A single temperature reading.", rec.Comment)
	require.Len(t, rec.Fields, 2)
	require.Equal(t, "utime", rec.Fields[0].Name)
	require.Equal(t, Int64, rec.Fields[0].Type.Primitive)
	require.Equal(t, "degCelsius", rec.Fields[1].Name)
	require.Equal(t, Double, rec.Fields[1].Type.Primitive)
}

func TestParseVariableAndFixedDimensions(t *testing.T) {
	src := `
struct Point2dList
{
    int32_t npoints;
    double points[npoints][2];
}
`
	f, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, f.Records, 1)

	points := f.Records[0].Fields[1]
	require.Equal(t, "points", points.Name)
	require.Len(t, points.Dims, 2)
	require.Equal(t, Dimension{Mode: DimVariable, Text: "npoints"}, points.Dims[0])
	require.Equal(t, Dimension{Mode: DimFixed, Text: "2"}, points.Dims[1])
}

func TestParseConstants(t *testing.T) {
	src := `
struct MyConstants
{
    const int32_t VALUE_A = 1, VALUE_B = 2;
    const double PI = 3.14159;
}
`
	f, err := Parse(src)
	require.NoError(t, err)
	rec := f.Records[0]
	require.Len(t, rec.Constants, 3)
	require.Equal(t, "VALUE_A", rec.Constants[0].Name)
	require.Equal(t, "1", rec.Constants[0].Value)
	require.Equal(t, "VALUE_B", rec.Constants[1].Name)
	require.Equal(t, "PI", rec.Constants[2].Name)
	require.Equal(t, Double, rec.Constants[2].Type)
}

func TestParseStructFieldReference(t *testing.T) {
	src := `
package robotics;

struct MemberGroup
{
    double x;
    double y;
    double z;
}

struct Composite
{
    robotics.MemberGroup group;
    geometry.Point point;
}
`
	f, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, f.Records, 2)

	composite := f.Records[1]
	require.True(t, composite.Fields[0].Type.IsStruct)
	require.Equal(t, []string{"robotics"}, composite.Fields[0].Type.Namespace)
	require.Equal(t, "MemberGroup", composite.Fields[0].Type.StructName)

	require.True(t, composite.Fields[1].Type.IsStruct)
	require.Equal(t, []string{"geometry"}, composite.Fields[1].Type.Namespace)
	require.Equal(t, "Point", composite.Fields[1].Type.StructName)
}

func TestParseBlockAndLineComments(t *testing.T) {
	src := `
/* multi
   line */
struct MyStruct
{
    // field comment
    int32_t x;
    int32_t y;
}
`
	f, err := Parse(src)
	require.NoError(t, err)
	require.Equal(t, "multi\n   line", f.Records[0].Comment)
	require.Equal(t, "field comment", f.Records[0].Fields[0].Comment)
}

func TestParseErrorOnMalformedInput(t *testing.T) {
	_, err := Parse(`struct { int32_t x; }`)
	require.Error(t, err)
}

func TestModuleAddRecordCreatesParents(t *testing.T) {
	mod := NewModule()
	mod.AddRecord([]string{"a", "b", "c"}, Record{Name: "Leaf"})

	require.Contains(t, mod.Submodules, "a")
	require.Contains(t, mod.Submodules["a"].Submodules, "b")
	require.Contains(t, mod.Submodules["a"].Submodules["b"].Submodules, "c")
	require.Equal(t, []Record{{Name: "Leaf"}}, mod.Submodules["a"].Submodules["b"].Submodules["c"].Records)
}

func TestHashGoldenValuesFromParsedSource(t *testing.T) {
	src := `
struct Temperature
{
    int64_t utime;
    double degCelsius;
}

struct MyStruct
{
    int32_t x;
    int32_t y;
}

struct MemberGroup
{
    double x;
    double y;
    double z;
}
`
	f, err := Parse(src)
	require.NoError(t, err)

	noResolve := func(string) (uint64, bool) { return 0, false }

	h, err := Hash(f.Records[0], noResolve)
	require.NoError(t, err)
	require.Equal(t, uint64(0xa07fa3d64cbea6ea), h)

	h, err = Hash(f.Records[1], noResolve)
	require.NoError(t, err)
	require.Equal(t, uint64(0x4fab8e09620e9ec9), h)

	h, err = Hash(f.Records[2], noResolve)
	require.NoError(t, err)
	require.Equal(t, uint64(0xae7e5fba5eeca11e), h)
}
