package production

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"erp-backend/internal/apperror"
	"erp-backend/internal/authz"
	"erp-backend/internal/models"
	"erp-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStatusCRUD(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	boss := testutil.CreateUser(t, db, "boss", models.RoleBoss)
	actor := authz.NewActor(boss.ID, "boss")
	svc := NewStatuses(db)

	_, err := svc.Default(ctx)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	done, err := svc.Create(ctx, actor, StatusInput{Name: "Done", KeyName: "done", SortOrder: 30, IsFinal: true})
	require.NoError(t, err)
	queued, err := svc.Create(ctx, actor, StatusInput{Name: "Queued", KeyName: "queued", SortOrder: 10})
	require.NoError(t, err)

	_, err = svc.Create(ctx, actor, StatusInput{Name: "Queued again", KeyName: "queued"})
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	// Keys are case sensitive.
	_, err = svc.Create(ctx, actor, StatusInput{Name: "Queued upper", KeyName: "QUEUED", SortOrder: 99})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, actor, StatusInput{Name: " ", KeyName: "blank"})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	def, err := svc.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, queued.ID, def.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "queued", list[0].KeyName)
	assert.Equal(t, "done", list[1].KeyName)

	before, after, err := svc.Update(ctx, actor, done.ID, StatusInput{Name: "Finished", KeyName: "done", SortOrder: 0, IsFinal: false})
	require.NoError(t, err)
	assert.True(t, before.IsFinal)
	assert.False(t, after.IsFinal)

	var stored models.ProductionStatus
	require.NoError(t, db.First(&stored, done.ID).Error)
	assert.Equal(t, "Finished", stored.Name)
	assert.False(t, stored.IsFinal)
	assert.Equal(t, 0, stored.SortOrder)

	_, _, err = svc.Update(ctx, actor, done.ID, StatusInput{Name: "Finished", KeyName: "queued"})
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	_, _, err = svc.Update(ctx, actor, 999, StatusInput{Name: "x", KeyName: "x"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	ok, err := svc.Exists(ctx, queued.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Exists(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatusDeleteGuard(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	boss := testutil.CreateUser(t, db, "boss", models.RoleBoss)
	actor := authz.NewActor(boss.ID, "boss")
	statuses := NewStatuses(db)
	inUse := testutil.CreateStatus(t, db, "queued", 1, false)
	unused := testutil.CreateStatus(t, db, "archived", 9, true)

	orders := NewOrders(db, statuses, nil)
	_, err := orders.Create(ctx, actor, OrderInput{CustomerName: "ACME", StatusID: inUse.ID})
	require.NoError(t, err)

	_, err = statuses.Delete(ctx, actor, inUse.ID)
	assert.True(t, errors.Is(err, apperror.ErrReferentialGuard))

	deleted, err := statuses.Delete(ctx, actor, unused.ID)
	require.NoError(t, err)
	assert.Equal(t, "archived", deleted.KeyName)

	_, err = statuses.Delete(ctx, actor, unused.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	list, err := statuses.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStatusManagementRoles(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	op := testutil.CreateUser(t, db, "op", models.RoleOp)
	sales := testutil.CreateUser(t, db, "sales", models.RoleSales)
	svc := NewStatuses(db)

	_, err := svc.Create(ctx, authz.NewActor(op.ID, "op"), StatusInput{Name: "Queued", KeyName: "queued"})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, authz.NewActor(sales.ID, "sales"), StatusInput{Name: "Rush", KeyName: "rush"})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestDuplicateKeyIsConflict(t *testing.T) {
	err := duplicateKey(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))
	assert.True(t, errors.Is(err, apperror.ErrConflict))
	assert.Equal(t, duplicateKeyMessage, err.Error())

	assert.True(t, errors.Is(duplicateKey(errors.New("disk full")), apperror.ErrStoreFault))
}

func TestConcurrentStatusCreatesSameKey(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	boss := authz.NewActor(testutil.CreateUser(t, db, "boss", models.RoleBoss).ID, "boss")
	svc := NewStatuses(db)

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, boss, StatusInput{Name: "Queued", KeyName: "queued"})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
	}
	assert.Equal(t, 1, created)
}
