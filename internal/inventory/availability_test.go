package inventory

import (
	"context"
	"testing"
	"time"

	"erp-backend/internal/config"
	"erp-backend/internal/database"
	"erp-backend/internal/models"
	"erp-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedScenario(t *testing.T, db *gorm.DB) (productID, reservationID uint) {
	t.Helper()
	ctx := context.Background()
	cat := testutil.CreateCategory(t, db, "Panels")
	p := testutil.CreateProduct(t, db, cat.ID, "Oak panel")

	_, err := NewLedger(db).AppendMovement(ctx, staff, p.ID, models.MoveIn, testutil.Qty("100"), "receipt")
	require.NoError(t, err)
	rid, err := NewReservations(db).Create(ctx, staff, NewReservation{ProductID: p.ID, Quantity: testutil.Qty("30")})
	require.NoError(t, err)
	return p.ID, rid
}

func TestAvailabilityScenario(t *testing.T) {
	for _, withView := range []bool{true, false} {
		name := "fallback"
		if withView {
			name = "view"
		}
		t.Run(name, func(t *testing.T) {
			var db *gorm.DB
			if withView {
				db = testutil.NewDBWithView(t)
			} else {
				db = testutil.NewDB(t)
			}
			ctx := context.Background()
			calc := NewCalculator(db, config.Logger())
			pid, rid := seedScenario(t, db)

			res, err := calc.Compute(ctx, staff, []uint{pid})
			require.NoError(t, err)
			if withView {
				assert.Equal(t, SourceView, res.Source)
				assert.Equal(t, ViewReady, calc.ViewState())
			} else {
				assert.Equal(t, SourceLedger, res.Source)
				assert.Equal(t, ViewMissing, calc.ViewState())
			}
			a := res.Get(pid)
			assert.Equal(t, "100", FormatQty(a.Stock))
			assert.Equal(t, "30", FormatQty(a.Reserved))
			assert.Equal(t, "70", FormatQty(a.Available))

			_, err = NewReservations(db).SetStatus(ctx, staff, rid, models.ReservationCancelled)
			require.NoError(t, err)

			res, err = calc.Compute(ctx, staff, []uint{pid})
			require.NoError(t, err)
			a = res.Get(pid)
			assert.Equal(t, "100", FormatQty(a.Stock))
			assert.Equal(t, "0", FormatQty(a.Reserved))
			assert.Equal(t, "100", FormatQty(a.Available))
		})
	}
}

func TestViewAndFallbackAgree(t *testing.T) {
	db := testutil.NewDBWithView(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, db, "Mixed")
	a := testutil.CreateProduct(t, db, cat.ID, "A")
	b := testutil.CreateProduct(t, db, cat.ID, "B")
	empty := testutil.CreateProduct(t, db, cat.ID, "C")

	ledger := NewLedger(db)
	reservations := NewReservations(db)
	moves := []struct {
		product uint
		kind    models.MoveType
		qty     string
	}{
		{a.ID, models.MoveIn, "10.125"},
		{a.ID, models.MoveOut, "2.5"},
		{a.ID, models.MoveAdjust, "-0.125"},
		{b.ID, models.MoveIn, "0.1"},
		{b.ID, models.MoveIn, "0.2"},
		{b.ID, models.MoveAdjust, "3"},
	}
	for _, m := range moves {
		_, err := ledger.AppendMovement(ctx, staff, m.product, m.kind, testutil.Qty(m.qty), "")
		require.NoError(t, err)
	}
	_, err := reservations.Create(ctx, staff, NewReservation{ProductID: a.ID, Quantity: testutil.Qty("4")})
	require.NoError(t, err)
	_, err = reservations.Create(ctx, staff, NewReservation{ProductID: a.ID, Quantity: testutil.Qty("-1.5")})
	require.NoError(t, err)
	done, err := reservations.Create(ctx, staff, NewReservation{ProductID: b.ID, Quantity: testutil.Qty("2")})
	require.NoError(t, err)
	_, err = reservations.SetStatus(ctx, staff, done, models.ReservationFulfilled)
	require.NoError(t, err)

	ids := []uint{a.ID, b.ID, empty.ID, 424242}
	calc := NewCalculator(db, config.Logger())
	viaView, err := calc.Compute(ctx, staff, ids)
	require.NoError(t, err)
	require.Equal(t, SourceView, viaView.Source)

	manual, err := Fallback(ctx, db, ids)
	require.NoError(t, err)

	for _, id := range ids {
		v, m := viaView.Get(id), manual[id]
		assert.Equal(t, FormatQty(m.Stock), FormatQty(v.Stock), "stock of %d", id)
		assert.Equal(t, FormatQty(m.Reserved), FormatQty(v.Reserved), "reserved of %d", id)
		assert.Equal(t, FormatQty(m.Available), FormatQty(v.Available), "available of %d", id)
	}

	assert.Equal(t, "7.5", FormatQty(manual[a.ID].Stock))
	assert.Equal(t, "2.5", FormatQty(manual[a.ID].Reserved))
	assert.Equal(t, "5", FormatQty(manual[a.ID].Available))
	assert.Equal(t, "3.3", FormatQty(manual[b.ID].Stock))
	assert.Equal(t, "0", FormatQty(manual[b.ID].Reserved))
	assert.Equal(t, "0", FormatQty(manual[empty.ID].Available))
	assert.Equal(t, "0", FormatQty(manual[424242].Stock))
}

func TestViewDroppedFallsBack(t *testing.T) {
	db := testutil.NewDBWithView(t)
	ctx := context.Background()
	pid, _ := seedScenario(t, db)
	calc := NewCalculator(db, config.Logger())

	res, err := calc.Compute(ctx, staff, []uint{pid})
	require.NoError(t, err)
	require.Equal(t, SourceView, res.Source)

	require.NoError(t, database.DropAvailabilityView(db))

	res, err = calc.Compute(ctx, staff, []uint{pid})
	require.NoError(t, err)
	assert.Equal(t, SourceLedger, res.Source)
	assert.Equal(t, ViewMissing, calc.ViewState())
	assert.Equal(t, "70", FormatQty(res.Get(pid).Available))
}

func TestMissingViewIsRetriedAfterInterval(t *testing.T) {
	db := testutil.NewDBWithView(t)
	ctx := context.Background()
	pid, _ := seedScenario(t, db)

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	calc := NewCalculator(db, config.Logger())
	calc.now = func() time.Time { return clock }

	require.NoError(t, database.DropAvailabilityView(db))
	res, err := calc.Compute(ctx, staff, []uint{pid})
	require.NoError(t, err)
	assert.Equal(t, SourceLedger, res.Source)
	assert.Equal(t, ViewMissing, calc.ViewState())

	// Back before the interval elapsed: the cached failure still wins.
	require.NoError(t, database.EnsureAvailabilityView(db))
	clock = clock.Add(ViewRetryInterval - time.Second)
	res, err = calc.Compute(ctx, staff, []uint{pid})
	require.NoError(t, err)
	assert.Equal(t, SourceLedger, res.Source)

	clock = clock.Add(2 * time.Second)
	res, err = calc.Compute(ctx, staff, []uint{pid})
	require.NoError(t, err)
	assert.Equal(t, SourceView, res.Source)
	assert.Equal(t, ViewReady, calc.ViewState())
	assert.Equal(t, "70", FormatQty(res.Get(pid).Available))
}

func TestOversoldIsReported(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, db, "Panels")
	p := testutil.CreateProduct(t, db, cat.ID, "Pine panel")

	_, err := NewLedger(db).AppendMovement(ctx, staff, p.ID, models.MoveIn, testutil.Qty("5"), "")
	require.NoError(t, err)
	_, err = NewReservations(db).Create(ctx, staff, NewReservation{ProductID: p.ID, Quantity: testutil.Qty("8")})
	require.NoError(t, err)

	res, err := NewCalculator(db, config.Logger()).Compute(ctx, staff, []uint{p.ID})
	require.NoError(t, err)
	a := res.Get(p.ID)
	assert.True(t, a.Oversold())
	assert.Equal(t, "-3", a.Display().Available)
}

func TestComputeEmptyInput(t *testing.T) {
	db := testutil.NewDB(t)
	res, err := NewCalculator(db, config.Logger()).Compute(context.Background(), staff, []uint{0, 0})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestFormatQty(t *testing.T) {
	tests := map[string]string{
		"70":       "70",
		"70.000":   "70",
		"1.2500":   "1.25",
		"0.0004":   "0",
		"-3.14159": "-3.142",
		"2.0005":   "2.001",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatQty(testutil.Qty(in)), in)
	}
}
