package finance

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseReportDate(t *testing.T) {
	start, err := ParseReportDate("2024-02", false)
	require.NoError(t, err)
	assert.Equal(t, d(2024, 2, 1), start)

	end, err := ParseReportDate("2024-02", true)
	require.NoError(t, err)
	assert.Equal(t, d(2024, 2, 29), end)

	day, err := ParseReportDate("2024-02-10", true)
	require.NoError(t, err)
	assert.Equal(t, d(2024, 2, 10), day)

	_, err = ParseReportDate("Feb 2024", false)
	assert.ErrorIs(t, err, ErrBadReportDate)
}

func TestWorkbookHasOneSheetPerSection(t *testing.T) {
	rep := &PodReport{
		Months:  []MonthSummary{{Month: "2024-04", Revenue: dec(100)}},
		Revenue: []ProjectRevenue{{Month: "2024-04", ProjectCode: "P1", Amount: dec(100)}},
		Totals:  Totals{Revenue: dec(100)},
	}
	data, err := Workbook(rep)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Revenue", "Utilization", "Costs"}, f.GetSheetList())

	rows, err := f.GetRows("Revenue")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "P1", rows[1][1])
	assert.Equal(t, "100", rows[1][3])
}
