package rawstock

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTotalsSumsLines(t *testing.T) {
	totals := ComputeTotals([]LineInput{
		{Kgs: dec("25.5"), RatePerKg: dec("120.00")},
		{Kgs: dec("10"), RatePerKg: dec("95.50")},
	})

	require.True(t, totals.Kgs.Equal(dec("35.5")), "kgs = %s", totals.Kgs)
	require.True(t, totals.Amount.Equal(dec("4015.00")), "amount = %s", totals.Amount)
}

func TestComputeTotalsExactDecimalArithmetic(t *testing.T) {
	totals := ComputeTotals([]LineInput{
		{Kgs: dec("0.1"), RatePerKg: dec("1")},
		{Kgs: dec("0.2"), RatePerKg: dec("1")},
	})

	require.True(t, totals.Kgs.Equal(dec("0.3")))
	require.True(t, totals.Amount.Equal(dec("0.3")))
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil)
	require.True(t, totals.Kgs.IsZero())
	require.True(t, totals.Amount.IsZero())
}

func validInput() EntryInput {
	return EntryInput{
		MaterialGrade: "PP",
		InvoiceNumber: "INV-100",
		InvoiceDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			{ColorName: "Black", Kgs: dec("10"), RatePerKg: dec("100")},
		},
	}
}

func TestEntryInputValidate(t *testing.T) {
	require.NoError(t, validInput().Validate())

	in := validInput()
	in.MaterialGrade = " "
	require.ErrorIs(t, in.Validate(), httpx.ErrValidation)

	in = validInput()
	in.InvoiceNumber = ""
	require.ErrorIs(t, in.Validate(), httpx.ErrValidation)

	in = validInput()
	in.InvoiceDate = time.Time{}
	require.ErrorIs(t, in.Validate(), httpx.ErrValidation)

	in = validInput()
	in.Lines = nil
	require.ErrorIs(t, in.Validate(), httpx.ErrValidation)

	in = validInput()
	in.Lines[0].ColorName = ""
	require.ErrorIs(t, in.Validate(), httpx.ErrValidation)

	in = validInput()
	in.Lines[0].Kgs = dec("-1")
	require.ErrorIs(t, in.Validate(), httpx.ErrValidation)
}
