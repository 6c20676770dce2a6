package experiment_test

import (
	"strings"
	"testing"

	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/stretchr/testify/require"
)

func TestValidateTitle(t *testing.T) {
	cases := []struct {
		name  string
		title string
		ok    bool
	}{
		{"single char", "a", true},
		{"at limit", strings.Repeat("a", 100), true},
		{"over limit", strings.Repeat("a", 101), false},
		{"padded at limit", "  " + strings.Repeat("a", 100) + "  ", true},
		{"multibyte at limit", strings.Repeat("é", 100), true},
		{"blank", "   ", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := experiment.ValidateTitle(tc.title)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, experiment.ErrInvalidInput)
			}
		})
	}
}

func TestValidateCreateInput_RejectsUnknownEnums(t *testing.T) {
	err := experiment.ValidateCreateInput(experiment.CreateRequest{Title: "t", Description: "d", Status: "Shipped"})
	require.ErrorIs(t, err, experiment.ErrInvalidInput)

	cat := experiment.Category("Sales")
	err = experiment.ValidateCreateInput(experiment.CreateRequest{Title: "t", Description: "d", Category: &cat})
	require.ErrorIs(t, err, experiment.ErrInvalidInput)

	err = experiment.ValidateCreateInput(experiment.CreateRequest{
		Title: "t", Description: "d",
		Links: []experiment.LinkInput{{Title: "empty"}},
	})
	require.ErrorIs(t, err, experiment.ErrInvalidInput)
}

func TestValidateUpdateInput(t *testing.T) {
	require.NoError(t, experiment.ValidateUpdateInput(experiment.UpdateRequest{}))

	blank := " "
	require.ErrorIs(t, experiment.ValidateUpdateInput(experiment.UpdateRequest{Description: &blank}), experiment.ErrInvalidInput)

	status := experiment.Status("Done")
	require.ErrorIs(t, experiment.ValidateUpdateInput(experiment.UpdateRequest{Status: &status}), experiment.ErrInvalidInput)
}
