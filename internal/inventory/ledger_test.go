package inventory

import (
	"context"
	"errors"
	"testing"

	"erp-backend/internal/apperror"
	"erp-backend/internal/authz"
	"erp-backend/internal/config"
	"erp-backend/internal/models"
	"erp-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Services check the role only, so the ids need no user rows.
var (
	staff  = authz.NewActor(1, "op")
	seller = authz.NewActor(2, "sales")
)

func TestAppendMovementIsNotDeduplicated(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, db, "Fasteners")
	p := testutil.CreateProduct(t, db, cat.ID, "M6 bolt")
	ledger := NewLedger(db)

	first, err := ledger.AppendMovement(ctx, staff, p.ID, models.MoveIn, testutil.Qty("12.5"), "receipt")
	require.NoError(t, err)
	second, err := ledger.AppendMovement(ctx, staff, p.ID, models.MoveIn, testutil.Qty("12.5"), "receipt")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	got, err := Fallback(ctx, db, []uint{p.ID})
	require.NoError(t, err)
	assert.Equal(t, "25", got[p.ID].Stock.String())
}

func TestAppendMovementValidation(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, db, "Fasteners")
	p := testutil.CreateProduct(t, db, cat.ID, "M6 bolt")
	ledger := NewLedger(db)

	_, err := ledger.AppendMovement(ctx, staff, p.ID, models.MoveType("transfer"), testutil.Qty("1"), "")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = ledger.AppendMovement(ctx, staff, 999, models.MoveIn, testutil.Qty("1"), "")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = ledger.AppendMovement(ctx, staff, 0, models.MoveIn, testutil.Qty("1"), "")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	var n int64
	require.NoError(t, db.Model(&models.InventoryMovement{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestListMovements(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	fasteners := testutil.CreateCategory(t, db, "Fasteners")
	paint := testutil.CreateCategory(t, db, "Paint")
	bolt := testutil.CreateProduct(t, db, fasteners.ID, "M6 bolt")
	white := testutil.CreateProduct(t, db, paint.ID, "White 5L")
	ledger := NewLedger(db)

	for _, m := range []struct {
		product uint
		kind    models.MoveType
		qty     string
	}{
		{bolt.ID, models.MoveIn, "100"},
		{bolt.ID, models.MoveOut, "10"},
		{white.ID, models.MoveIn, "4"},
		{white.ID, models.MoveAdjust, "-1"},
	} {
		_, err := ledger.AppendMovement(ctx, staff, m.product, m.kind, testutil.Qty(m.qty), "")
		require.NoError(t, err)
	}

	all, total, err := ledger.ListMovements(ctx, staff, MovementFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, all, 4)
	assert.Equal(t, "White 5L", all[0].Product.Name)

	byCat, total, err := ledger.ListMovements(ctx, staff, MovementFilter{CategoryID: fasteners.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, m := range byCat {
		assert.Equal(t, bolt.ID, m.ProductID)
	}

	outs, _, err := ledger.ListMovements(ctx, staff, MovementFilter{MoveType: models.MoveOut})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, "10", outs[0].Quantity.String())

	_, _, err = ledger.ListMovements(ctx, staff, MovementFilter{MoveType: "bogus"})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestInventoryWritesRequireManager(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, db, "Fasteners")
	p := testutil.CreateProduct(t, db, cat.ID, "M6 bolt")
	rid, err := NewReservations(db).Create(ctx, staff, NewReservation{ProductID: p.ID, Quantity: testutil.Qty("1")})
	require.NoError(t, err)

	products := NewProducts(db)
	categories := NewCategories(db)
	anonymous := authz.Actor{}

	tests := []struct {
		name string
		call func(actor authz.Actor) error
	}{
		{"append movement", func(a authz.Actor) error {
			_, err := NewLedger(db).AppendMovement(ctx, a, p.ID, models.MoveIn, testutil.Qty("1"), "")
			return err
		}},
		{"list movements", func(a authz.Actor) error {
			_, _, err := NewLedger(db).ListMovements(ctx, a, MovementFilter{})
			return err
		}},
		{"create reservation", func(a authz.Actor) error {
			_, err := NewReservations(db).Create(ctx, a, NewReservation{ProductID: p.ID, Quantity: testutil.Qty("1")})
			return err
		}},
		{"set reservation status", func(a authz.Actor) error {
			_, err := NewReservations(db).SetStatus(ctx, a, rid, models.ReservationCancelled)
			return err
		}},
		{"create product", func(a authz.Actor) error {
			_, err := products.Create(ctx, a, NewProduct{ProductFields: ProductFields{Name: "Nut", CategoryID: cat.ID}})
			return err
		}},
		{"update product", func(a authz.Actor) error {
			_, _, err := products.Update(ctx, a, p.ID, ProductUpdate{ProductFields: ProductFields{Name: "Bolt", CategoryID: cat.ID}})
			return err
		}},
		{"delete product", func(a authz.Actor) error {
			_, err := products.Delete(ctx, a, p.ID)
			return err
		}},
		{"create category", func(a authz.Actor) error {
			_, err := categories.CreateCategory(ctx, a, "Paint", 0)
			return err
		}},
		{"delete category", func(a authz.Actor) error {
			return categories.DeleteCategory(ctx, a, cat.ID)
		}},
		{"create subcategory", func(a authz.Actor) error {
			_, err := categories.CreateSubcategory(ctx, a, cat.ID, "Metric", 0)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.call(seller), apperror.ErrForbidden))
			assert.True(t, errors.Is(tt.call(anonymous), apperror.ErrForbidden))
		})
	}

	var moves, reservations, productRows, cats int64
	require.NoError(t, db.Model(&models.InventoryMovement{}).Count(&moves).Error)
	require.NoError(t, db.Model(&models.Reservation{}).Count(&reservations).Error)
	require.NoError(t, db.Model(&models.Product{}).Count(&productRows).Error)
	require.NoError(t, db.Model(&models.Category{}).Count(&cats).Error)
	assert.Zero(t, moves)
	assert.EqualValues(t, 1, reservations)
	assert.EqualValues(t, 1, productRows)
	assert.EqualValues(t, 1, cats)

	var r models.Reservation
	require.NoError(t, db.First(&r, rid).Error)
	assert.Equal(t, models.ReservationPending, r.Status)
}

func TestAvailabilityIsOpenToSales(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, db, "Fasteners")
	p := testutil.CreateProduct(t, db, cat.ID, "M6 bolt")
	calc := NewCalculator(db, config.Logger())

	_, err := calc.Compute(ctx, seller, []uint{p.ID})
	assert.NoError(t, err)

	_, err = calc.Compute(ctx, authz.Actor{}, []uint{p.ID})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}
