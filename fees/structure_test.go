package fees_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/fees"
)

func gradeFiveItems() []domain.FeeItem {
	sept15 := domain.NewDate(2023, time.September, 15)
	sept1 := domain.NewDate(2023, time.September, 1)
	return []domain.FeeItem{
		{Name: "Tuition Fee", FeeType: domain.FeeTuition, Amount: d(5000), DueDate: &sept15, IsMandatory: true},
		{Name: "Library Fee", FeeType: domain.FeeLibrary, Amount: d(500), DueDate: &sept15, IsMandatory: true},
		{Name: "Sports Kit", FeeType: domain.FeeSports, Amount: d(120), DueDate: &sept1, IsMandatory: false},
	}
}

func TestTotalFromItems(t *testing.T) {
	items := gradeFiveItems()

	assert.True(t, fees.TotalFromItems(items, true).Equal(d(5500)))
	assert.True(t, fees.TotalFromItems(items, false).Equal(d(5620)))
	assert.True(t, fees.TotalFromItems(nil, true).IsZero())
}

func TestRecordFromStructure_UsesEarliestDueDate(t *testing.T) {
	structure := domain.FeeStructure{ID: 7, AcademicYear: "2023-2024", GradeLevel: "Grade 5"}

	rec, err := fees.RecordFromStructure(structure, gradeFiveItems(), 3, "Fall", nil, true)

	require.NoError(t, err)
	assert.Equal(t, uint(7), rec.FeeStructureID)
	assert.Equal(t, uint(3), rec.StudentID)
	assert.Equal(t, "2023-2024", rec.AcademicYear)
	assert.True(t, rec.TotalAmount.Equal(d(5500)))
	assert.True(t, rec.Balance.Equal(d(5500)))
	assert.Equal(t, domain.StatusPending, rec.Status)
	// the optional item's earlier date is ignored with it
	assert.Equal(t, "2023-09-15", rec.DueDate.String())
}

func TestRecordFromStructure_AllItems(t *testing.T) {
	rec, err := fees.RecordFromStructure(domain.FeeStructure{ID: 7}, gradeFiveItems(), 3, "Fall", nil, false)

	require.NoError(t, err)
	assert.True(t, rec.TotalAmount.Equal(d(5620)))
	assert.Equal(t, "2023-09-01", rec.DueDate.String())
}

func TestRecordFromStructure_NoDueDate_Rejected(t *testing.T) {
	items := []domain.FeeItem{{Amount: d(10), IsMandatory: true}}

	_, err := fees.RecordFromStructure(domain.FeeStructure{ID: 1}, items, 1, "Fall", nil, true)

	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestRecordFromStructure_ExplicitDueDate(t *testing.T) {
	due := domain.NewDate(2024, time.January, 10)
	items := []domain.FeeItem{{Amount: d(10), IsMandatory: true}}

	rec, err := fees.RecordFromStructure(domain.FeeStructure{ID: 1}, items, 1, "Spring", &due, true)

	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", rec.DueDate.String())
}
