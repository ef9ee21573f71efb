package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuild(t *testing.T) {
	data, err := Build(
		Sheet{Name: "Allowances", Header: []string{"Judge", "Amount"}, Rows: [][]any{{"bob", 5000}, {"alex", 4000}}},
		Sheet{Name: "Awards", Header: []string{"Submission"}},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Allowances", "Awards"}, f.GetSheetList())

	rows, err := f.GetRows("Allowances")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Judge", "Amount"}, {"bob", "5000"}, {"alex", "4000"}}, rows)

	rows, err = f.GetRows("Awards")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Submission"}}, rows)
}

func TestBuild_NoSheets(t *testing.T) {
	_, err := Build()
	assert.Error(t, err)
}
