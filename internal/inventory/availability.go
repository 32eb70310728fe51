package inventory

import (
	"context"
	"sync/atomic"
	"time"

	"erp-backend/internal/apperror"
	"erp-backend/internal/authz"
	"erp-backend/internal/database"
	"erp-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// QtyPlaces is the fractional precision of every stored quantity.
const QtyPlaces = 3

type Availability struct {
	Stock     decimal.Decimal `json:"stock"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
}

// Oversold is a legitimate state: more is reserved than is in stock.
func (a Availability) Oversold() bool {
	return a.Available.IsNegative()
}

type Display struct {
	Stock     string `json:"stock"`
	Reserved  string `json:"reserved"`
	Available string `json:"available"`
}

func (a Availability) Display() Display {
	return Display{
		Stock:     FormatQty(a.Stock),
		Reserved:  FormatQty(a.Reserved),
		Available: FormatQty(a.Available),
	}
}

type Source string

const (
	SourceView   Source = "view"
	SourceLedger Source = "ledger"
)

type Result struct {
	Source Source
	Items  map[uint]Availability
}

// Get returns the zero availability for ids that were not requested.
func (r Result) Get(productID uint) Availability {
	if a, ok := r.Items[productID]; ok {
		return a
	}
	return zeroAvailability()
}

type ViewState int32

const (
	ViewUnknown ViewState = iota
	ViewReady
	ViewMissing
)

// ViewRetryInterval is how long a missing view is trusted to stay missing
// before Compute probes it again.
const ViewRetryInterval = 30 * time.Second

// Calculator derives stock, reserved and available quantities. It reads
// v_available_stock when the view is reachable and otherwise aggregates
// inventory_moves and reservations itself. It never writes.
type Calculator struct {
	db        *gorm.DB
	log       *logrus.Logger
	now       func() time.Time
	retry     time.Duration
	state     atomic.Int32
	missingAt atomic.Int64 // unix nanos of the last view failure
}

func NewCalculator(db *gorm.DB, log *logrus.Logger) *Calculator {
	return &Calculator{db: db, log: log, now: time.Now, retry: ViewRetryInterval}
}

func (c *Calculator) ViewState() ViewState {
	return ViewState(c.state.Load())
}

func (c *Calculator) markMissing() {
	c.missingAt.Store(c.now().UnixNano())
	c.state.Store(int32(ViewMissing))
}

func (c *Calculator) Compute(ctx context.Context, actor authz.Actor, productIDs []uint) (Result, error) {
	if err := authz.Require(actor, authz.ViewInventory, 0); err != nil {
		return Result{}, err
	}
	ids := uniqueIDs(productIDs)
	if len(ids) == 0 {
		return Result{Source: SourceLedger, Items: map[uint]Availability{}}, nil
	}

	if c.probeView(ctx) == ViewReady {
		items, err := c.fromView(ctx, ids)
		if err == nil {
			return Result{Source: SourceView, Items: items}, nil
		}
		c.markMissing()
		c.log.WithError(err).Warn("availability view query failed, falling back to manual aggregation")
	}

	items, err := Fallback(ctx, c.db, ids)
	if err != nil {
		return Result{}, err
	}
	return Result{Source: SourceLedger, Items: items}, nil
}

func (c *Calculator) probeView(ctx context.Context) ViewState {
	switch c.ViewState() {
	case ViewReady:
		return ViewReady
	case ViewMissing:
		if c.now().Sub(time.Unix(0, c.missingAt.Load())) < c.retry {
			return ViewMissing
		}
	}

	var n int64
	err := c.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM " + database.AvailabilityView + " WHERE 1 = 0").
		Scan(&n).Error
	if err != nil {
		c.log.WithError(err).Warn("availability view is not reachable, using manual aggregation")
		c.markMissing()
		return ViewMissing
	}
	c.state.Store(int32(ViewReady))
	return ViewReady
}

type viewRow struct {
	ProductID    uint
	StockQty     decimal.Decimal
	ReservedQty  decimal.Decimal
	AvailableQty decimal.Decimal
}

func (c *Calculator) fromView(ctx context.Context, ids []uint) (map[uint]Availability, error) {
	var rows []viewRow
	err := c.db.WithContext(ctx).
		Table(database.AvailabilityView).
		Select("product_id, stock_qty, reserved_qty, available_qty").
		Where("product_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := zeroed(ids)
	for _, r := range rows {
		items[r.ProductID] = Availability{
			Stock:     r.StockQty.Round(QtyPlaces),
			Reserved:  r.ReservedQty.Round(QtyPlaces),
			Available: r.AvailableQty.Round(QtyPlaces),
		}
	}
	return items, nil
}

type movementRow struct {
	ProductID uint
	MoveType  models.MoveType
	Quantity  decimal.Decimal
}

type reservedRow struct {
	ProductID uint
	Quantity  decimal.Decimal
}

// Fallback aggregates the source tables directly. db may be a transaction.
// A failure here is a store fault; there is no further fallback.
func Fallback(ctx context.Context, db *gorm.DB, productIDs []uint) (map[uint]Availability, error) {
	ids := uniqueIDs(productIDs)
	items := zeroed(ids)
	if len(ids) == 0 {
		return items, nil
	}

	var moves []movementRow
	err := db.WithContext(ctx).
		Model(&models.InventoryMovement{}).
		Select("product_id, move_type, quantity").
		Where("product_id IN ?", ids).
		Scan(&moves).Error
	if err != nil {
		return nil, apperror.Store(err)
	}

	var reserved []reservedRow
	err = db.WithContext(ctx).
		Model(&models.Reservation{}).
		Select("product_id, quantity").
		Where("status = ? AND product_id IN ?", models.ReservationPending, ids).
		Scan(&reserved).Error
	if err != nil {
		return nil, apperror.Store(err)
	}

	stock := make(map[uint]decimal.Decimal, len(ids))
	for _, m := range moves {
		stock[m.ProductID] = stock[m.ProductID].Add(m.MoveType.Contribution(m.Quantity))
	}
	res := make(map[uint]decimal.Decimal, len(ids))
	for _, r := range reserved {
		res[r.ProductID] = res[r.ProductID].Add(r.Quantity)
	}

	for _, id := range ids {
		s := stock[id].Round(QtyPlaces)
		r := res[id].Round(QtyPlaces)
		items[id] = Availability{Stock: s, Reserved: r, Available: s.Sub(r)}
	}
	return items, nil
}

func zeroAvailability() Availability {
	return Availability{Stock: decimal.Zero, Reserved: decimal.Zero, Available: decimal.Zero}
}

func zeroed(ids []uint) map[uint]Availability {
	items := make(map[uint]Availability, len(ids))
	for _, id := range ids {
		items[id] = zeroAvailability()
	}
	return items
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// FormatQty renders a quantity with at most three decimals and no
// trailing zeros. Negative values keep their sign.
func FormatQty(d decimal.Decimal) string {
	return d.Round(QtyPlaces).String()
}
