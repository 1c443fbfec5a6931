package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpack-chart/internal/testutil"
	apperrors "github.com/webpack-chart/pkg/errors"
)

func TestParse_FlatForm(t *testing.T) {
	r, err := Parse([]byte(`{"publicPath":"/","modules":[{"name":"a/b","size":10},{"name":"a/c","size":30},{"name":"d","size":5}]}`), nil)
	require.NoError(t, err)

	assert.Equal(t, "/", r.PublicPath)
	assert.False(t, r.Wrapped)
	assert.Equal(t, []Module{{"a/b", 10}, {"a/c", 30}, {"d", 5}}, r.Modules)
	assert.Equal(t, int64(45), r.TotalSize())
}

func TestParse_WrappedFormMatchesFlat(t *testing.T) {
	flat, err := Parse([]byte(`{"publicPath":"/","modules":[{"name":"x","size":1}]}`), nil)
	require.NoError(t, err)
	wrapped, err := Parse([]byte(`{"publicPath":"/","children":[{"modules":[{"name":"x","size":1}]},{"modules":[]}]}`), nil)
	require.NoError(t, err)

	assert.True(t, wrapped.Wrapped)
	assert.Equal(t, flat.PublicPath, wrapped.PublicPath)
	assert.Equal(t, flat.Modules, wrapped.Modules)
}

func TestParse_ModulesWinOverChildren(t *testing.T) {
	r, err := Parse([]byte(`{"modules":[],"children":[{"modules":[{"name":"x","size":1}]}]}`), nil)
	require.NoError(t, err)
	assert.Empty(t, r.Modules)
	assert.False(t, r.Wrapped)
}

func TestParse_PublicPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Absent", `{"modules":[]}`, ""},
		{"Null", `{"publicPath":null,"modules":[]}`, ""},
		{"NotString", `{"publicPath":42,"modules":[]}`, ""},
		{"Set", `{"publicPath":"/static/","modules":[]}`, "/static/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.input), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.PublicPath)
		})
	}
}

func TestParse_MalformedReport(t *testing.T) {
	inputs := map[string]string{
		"Empty":             ``,
		"NotJSON":           `webpack stats`,
		"Array":             `[{"name":"x","size":1}]`,
		"Truncated":         `{"modules":[`,
		"NoModules":         `{"publicPath":"/"}`,
		"EmptyChildren":     `{"children":[]}`,
		"ChildWithout":      `{"children":[{"name":"chunk"}]}`,
		"ChildNotObject":    `{"children":[3]}`,
		"ModulesNotList":    `{"modules":{"name":"x"}}`,
		"NullModulesNoKids": `{"modules":null}`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			r, err := Parse([]byte(input), nil)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.True(t, errors.Is(err, ErrMalformedReport))
			assert.Equal(t, apperrors.CodeMalformedReport, apperrors.GetErrorCode(err))
		})
	}
}

func TestParse_LenientRecords(t *testing.T) {
	input := `{"modules":[
		{"name":"ok","size":3},
		{"size":9},
		{"name":"nosize"},
		{"name":"nullsize","size":null},
		{"name":"neg","size":-4},
		{"name":"frac","size":2.7},
		"garbage"
	]}`

	r, err := Parse([]byte(input), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Skipped)
	assert.Equal(t, []Module{
		{"ok", 3},
		{"nosize", 0},
		{"nullsize", 0},
		{"neg", 0},
		{"frac", 2},
	}, r.Modules)
}

func TestParse_StrictRecords(t *testing.T) {
	strict := &ParseOptions{Strict: true}
	inputs := map[string]string{
		"NoName":    `{"modules":[{"size":1}]}`,
		"NoSize":    `{"modules":[{"name":"a"}]}`,
		"Negative":  `{"modules":[{"name":"a","size":-1}]}`,
		"Fraction":  `{"modules":[{"name":"a","size":1.5}]}`,
		"NotObject": `{"modules":[7]}`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input), strict)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))
			assert.Contains(t, err.Error(), "modules[0]")
		})
	}

	r, err := Parse([]byte(`{"modules":[{"name":"a","size":1}]}`), strict)
	require.NoError(t, err)
	assert.Len(t, r.Modules, 1)
}

func TestParseReader(t *testing.T) {
	r, err := ParseReader(strings.NewReader(`{"modules":[{"name":"x","size":1}]}`), nil)
	require.NoError(t, err)
	assert.Len(t, r.Modules, 1)
}

func TestParseReader_MaxSize(t *testing.T) {
	input := `{"modules":[{"name":"x","size":1}]}`

	_, err := ParseReader(strings.NewReader(input), &ParseOptions{MaxSize: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedReport))

	_, err = ParseReader(strings.NewReader(input), &ParseOptions{MaxSize: int64(len(input))})
	assert.NoError(t, err)
}

func TestParse_Fixtures(t *testing.T) {
	r, err := Parse(testutil.LoadFixture(t, testutil.StatsFixture), nil)
	require.NoError(t, err)
	assert.Equal(t, "/assets/", r.PublicPath)
	assert.Len(t, r.Modules, 10)
	assert.False(t, r.Wrapped)

	wrapped, err := Parse(testutil.LoadFixture(t, testutil.WrappedStatsFixture), nil)
	require.NoError(t, err)
	assert.True(t, wrapped.Wrapped)
	assert.Len(t, wrapped.Modules, 3)

	_, err = Parse(testutil.LoadFixture(t, testutil.MalformedFixture), nil)
	assert.True(t, errors.Is(err, ErrMalformedReport))
}
