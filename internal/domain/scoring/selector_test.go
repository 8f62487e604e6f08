package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscore/pkg/errors"
)

func TestParseSelector_DeclaredSet(t *testing.T) {
	for _, sel := range AllSelectors() {
		t.Run(string(sel), func(t *testing.T) {
			got, err := ParseSelector(string(sel))
			require.NoError(t, err)
			assert.Equal(t, sel, got)
		})
	}
}

func TestParseSelector_NormalisesCaseAndSpace(t *testing.T) {
	got, err := ParseSelector("  QED_Raw ")
	require.NoError(t, err)
	assert.Equal(t, SelectorQEDRaw, got)
}

func TestParseSelector_RequiresFullMatch(t *testing.T) {
	// Each of these shares a two-character prefix with a declared selector.
	for _, s := range []string{"qe", "qedx", "mwt", "ta", "tanimoto_ecfp", "al", "alertsx", "bogus", ""} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseSelector(s)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownProperty))
		})
	}
}

func TestParseSelector_ShapeFamilyVariantMessage(t *testing.T) {
	_, err := ParseSelector("pmi3")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownProperty))
	assert.Contains(t, err.Error(), "unknown pmi variant")
}

func TestSelector_FamilyAndRaw(t *testing.T) {
	tests := []struct {
		sel    Selector
		family Family
		raw    bool
	}{
		{SelectorAlerts, FamilyAlerts, false},
		{SelectorQED, FamilyQED, false},
		{SelectorQEDRaw, FamilyQED, true},
		{SelectorMW, FamilyMolecularWeight, false},
		{SelectorMWRaw, FamilyMolecularWeight, true},
		{SelectorTanimoto, FamilyTanimoto, false},
		{SelectorTanimotoRaw, FamilyTanimoto, true},
		{SelectorPMI, FamilyPMI, false},
		{SelectorPMI2, FamilyPMI, false},
		{SelectorPMIRaw, FamilyPMI, true},
		{SelectorPMI2Raw, FamilyPMI, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.sel), func(t *testing.T) {
			f, ok := tt.sel.Family()
			require.True(t, ok)
			assert.Equal(t, tt.family, f)
			assert.Equal(t, tt.raw, tt.sel.Raw())
			assert.NotEmpty(t, tt.sel.Description())
		})
	}

	_, ok := Selector("bogus").Family()
	assert.False(t, ok)
}

func TestAllSelectors_ReturnsCopy(t *testing.T) {
	a := AllSelectors()
	a[0] = "mutated"
	assert.Equal(t, SelectorAlerts, AllSelectors()[0])
	assert.Len(t, AllSelectors(), 11)
}

//Personal.AI order the ending
