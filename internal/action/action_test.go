package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  Ref
	}{
		{name: "build ref", raw: "build.api", expected: Ref{Kind: Build, Name: "api"}},
		{name: "deploy ref", raw: "deploy.web", expected: Ref{Kind: Deploy, Name: "web"}},
		{name: "name with dots", raw: "run.db.migrate", expected: Ref{Kind: Run, Name: "db.migrate"}},
		{name: "error - missing name", raw: "build.", expectErr: true},
		{name: "error - unknown kind", raw: "publish.api", expectErr: true},
		{name: "error - no dot", raw: "api", expectErr: true},
		{name: "error - empty", raw: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ParseRef(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ref)
			assert.Equal(t, tc.raw, ref.String())
		})
	}
}

func TestRef_Less(t *testing.T) {
	a := Ref{Kind: Build, Name: "api"}
	b := Ref{Kind: Deploy, Name: "api"}
	c := Ref{Kind: Build, Name: "web"}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, a.Less(c))
}

func TestDependsOnlyOnBuilds(t *testing.T) {
	assert.True(t, DependsOnlyOnBuilds([]Ref{{Kind: Build, Name: "a"}, {Kind: Build, Name: "b"}}))
	assert.False(t, DependsOnlyOnBuilds([]Ref{{Kind: Build, Name: "a"}, {Kind: Deploy, Name: "b"}}))
	assert.True(t, DependsOnlyOnBuilds(nil))
}

func TestKind_Valid(t *testing.T) {
	assert.True(t, Build.Valid())
	assert.True(t, Deploy.Valid())
	assert.True(t, Run.Valid())
	assert.True(t, Test.Valid())
	assert.False(t, Kind("publish").Valid())
}
