package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressPercentage(t *testing.T) {
	j := &DetailSyncJob{Status: JobStatusRunning}
	assert.Equal(t, float64(0), j.ProgressPercentage())

	j.Total, j.Processed = 4, 1
	assert.Equal(t, float64(25), j.ProgressPercentage())

	j.Status, j.Total = JobStatusCompleted, 0
	assert.Equal(t, float64(100), j.ProgressPercentage())
}

func TestStringListColumn(t *testing.T) {
	v, err := StringList{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "a\nb", v)

	var l StringList
	require.NoError(t, l.Scan([]byte("x\ny")))
	assert.Equal(t, StringList{"x", "y"}, l)
	require.NoError(t, l.Scan(""))
	assert.Nil(t, l)
	assert.Error(t, l.Scan(42))
}

func TestParseSyncType(t *testing.T) {
	got, err := ParseSyncType(" Cash_Receipts ")
	require.NoError(t, err)
	assert.Equal(t, SyncTypeCashReceipts, got)
	assert.True(t, SyncTypeBills.NeedsDateRange())
	assert.False(t, SyncTypeAll.NeedsDateRange())

	_, err = ParseSyncType("bill_details")
	assert.Error(t, err)
}

func TestExclusionRuleTargets(t *testing.T) {
	all := &ExclusionRule{EntityType: RuleEntityAll}
	bill := &ExclusionRule{EntityType: RuleEntityBill}
	assert.True(t, all.AppliesTo(RuleEntityExpense))
	assert.True(t, bill.AppliesTo(RuleEntityBill))
	assert.False(t, bill.AppliesTo(RuleEntityExpense))
}

func TestBillFieldValue(t *testing.T) {
	b := &Bill{VendorName: "AWS India", Total: decimal.NewFromInt(12), CustomFields: JSONMap{"cf_team": "infra"}}

	v, ok := b.FieldValue("vendor_name")
	assert.True(t, ok)
	assert.Equal(t, "AWS India", v)

	v, ok = b.FieldValue("cf_team")
	assert.True(t, ok)
	assert.Equal(t, "infra", v)

	_, ok = b.FieldValue("nope")
	assert.False(t, ok)
}

func TestSalaryComputeTotalAndExitDate(t *testing.T) {
	s := &Salary{Base: decimal.NewFromInt(100), Bonus: decimal.NewFromInt(20), Overtime: decimal.NewFromInt(5), Deductions: decimal.NewFromInt(25)}
	assert.True(t, decimal.NewFromInt(100).Equal(s.ComputeTotal()))

	p := &Person{Status: PersonStatusActive}
	assert.Nil(t, p.ExitDate())
}
