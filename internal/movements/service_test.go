package movements

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stocktrail/stocktrail/internal/catalog"
	"github.com/stocktrail/stocktrail/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	products  map[string]catalog.Product
	movements []Movement
	txCalls   int
	insertErr error
	updateErr error
	readErr   error
}

type memoryTx struct {
	products  map[string]catalog.Product
	staged    []Movement
	insertErr error
	updateErr error
}

func newMemoryRepo(products ...catalog.Product) *memoryRepo {
	repo := &memoryRepo{products: make(map[string]catalog.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

// WithTx stages writes on a copy and publishes them only when fn succeeds,
// mirroring the all-or-nothing store transaction. The mutex serializes
// conflicting transactions the way row locks do.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txCalls++

	staged := make(map[string]catalog.Product, len(r.products))
	for id, p := range r.products {
		staged[id] = p
	}
	tx := &memoryTx{products: staged, insertErr: r.insertErr, updateErr: r.updateErr}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.products = tx.products
	r.movements = append(r.movements, tx.staged...)
	return nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return catalog.Product{}, r.readErr
	}
	p, ok := r.products[id]
	if !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []Movement{}
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ProductID == productID {
			items = append(items, r.movements[i])
		}
	}
	return items, nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, id string) (catalog.Product, error) {
	p, ok := tx.products[id]
	if !ok {
		return catalog.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (tx *memoryTx) UpdateProductQuantity(ctx context.Context, id string, quantity int64, updatedAt time.Time) error {
	if tx.updateErr != nil {
		return tx.updateErr
	}
	p := tx.products[id]
	p.Quantity = quantity
	p.UpdatedAt = &updatedAt
	tx.products[id] = p
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, movement Movement) error {
	if tx.insertErr != nil {
		return tx.insertErr
	}
	tx.staged = append(tx.staged, movement)
	return nil
}

type recordingAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (i *recordingInvalidator) Invalidate(ctx context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ids = append(i.ids, id)
	return nil
}

func testProduct(id string, qty int64) catalog.Product {
	return catalog.Product{ID: id, SKU: "SKU-" + id, Name: "Widget", Unit: "pcs", Quantity: qty, CreatedAt: time.Now().UTC()}
}

func TestApplyInboundIncreasesQuantity(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 10))
	svc := NewService(repo, nil, nil)

	result, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindIn, Quantity: 5, Reason: "GRN#1"})
	require.NoError(t, err)
	require.NotNil(t, result.Product)
	require.EqualValues(t, 15, result.Product.Quantity)
	require.NotNil(t, result.Product.UpdatedAt)

	require.Len(t, repo.movements, 1)
	require.Equal(t, KindIn, repo.movements[0].Kind)
	require.EqualValues(t, 5, repo.movements[0].Quantity)
	require.Equal(t, "GRN#1", repo.movements[0].Reason)
	require.NotEmpty(t, repo.movements[0].ID)
}

func TestApplyOutClampsToZero(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 10))
	svc := NewService(repo, nil, nil)

	result, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindOut, Quantity: 15})
	require.NoError(t, err)
	require.NotNil(t, result.Product)
	require.EqualValues(t, 0, result.Product.Quantity)

	// The log keeps the requested magnitude, not the clamped delta.
	require.Len(t, repo.movements, 1)
	require.EqualValues(t, 15, repo.movements[0].Quantity)
}

func TestApplyOutSubtracts(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 10))
	svc := NewService(repo, nil, nil)

	result, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindOut, Quantity: 4})
	require.NoError(t, err)
	require.EqualValues(t, 6, result.Product.Quantity)
}

func TestApplyAdjustIsAbsolute(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 7))
	svc := NewService(repo, nil, nil)

	result, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindAdjust, Quantity: 3})
	require.NoError(t, err)
	require.EqualValues(t, 3, result.Product.Quantity)

	result, err = svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindAdjust, Quantity: 42})
	require.NoError(t, err)
	require.EqualValues(t, 42, result.Product.Quantity)
}

func TestApplyUnknownProductInsertsNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Apply(context.Background(), ApplyInput{ProductID: "missing", Kind: KindIn, Quantity: 5})
	require.ErrorIs(t, err, ErrProductNotFound)
	require.Empty(t, repo.movements)
}

func TestApplyRejectsInvalidInputBeforeStoreAccess(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 10))
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyInput{ProductID: "p1", Kind: KindIn, Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Apply(ctx, ApplyInput{ProductID: "p1", Kind: KindOut, Quantity: -3})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Apply(ctx, ApplyInput{ProductID: "p1", Kind: KindAdjust, Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Apply(ctx, ApplyInput{ProductID: "p1", Kind: Kind("transfer"), Quantity: 5})
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = svc.Apply(ctx, ApplyInput{Kind: KindIn, Quantity: 5})
	require.ErrorIs(t, err, ErrProductRequired)

	require.Zero(t, repo.txCalls)
	require.Empty(t, repo.movements)
}

func TestApplyRollsBackOnInsertFailure(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 10))
	repo.insertErr = context.DeadlineExceeded
	svc := NewService(repo, nil, nil)

	_, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindIn, Quantity: 5})
	require.Error(t, err)

	// No partial state: neither the movement nor the quantity change survives.
	require.Empty(t, repo.movements)
	p, err := repo.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.EqualValues(t, 10, p.Quantity)
	require.Nil(t, p.UpdatedAt)
}

func TestApplyRollsBackOnUpdateFailure(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 10))
	repo.updateErr = context.DeadlineExceeded
	svc := NewService(repo, nil, nil)

	_, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindOut, Quantity: 5})
	require.Error(t, err)
	require.Empty(t, repo.movements)
}

func TestApplyReadBackFailureStillSucceeds(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 10))
	repo.readErr = context.DeadlineExceeded
	svc := NewService(repo, nil, nil)

	result, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindIn, Quantity: 5})
	require.NoError(t, err)
	require.Nil(t, result.Product)
	require.EqualValues(t, 5, result.Movement.Quantity)
	require.Len(t, repo.movements, 1)
}

func TestApplyRecordsAuditAndInvalidatesCache(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 10))
	audit := &recordingAudit{}
	invalidator := &recordingInvalidator{}
	svc := NewService(repo, audit, invalidator)

	_, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindOut, Quantity: 2, Reason: "damage"})
	require.NoError(t, err)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "movements:out", audit.logs[0].Action)
	require.Equal(t, "stock_movement", audit.logs[0].Entity)
	require.Equal(t, []string{"p1"}, invalidator.ids)
}

func TestConcurrentMovementsSerialize(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 100))
	svc := NewService(repo, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindOut, Quantity: 5})
			require.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Apply(context.Background(), ApplyInput{ProductID: "p1", Kind: KindIn, Quantity: 3})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// 100 - 10*5 + 10*3: both deltas of every pair land, no lost updates.
	p, err := repo.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.EqualValues(t, 80, p.Quantity)
	require.Len(t, repo.movements, 20)
}

func TestListByProductNewestFirst(t *testing.T) {
	repo := newMemoryRepo(testProduct("p1", 0))
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	for _, qty := range []int64{1, 2, 3} {
		_, err := svc.Apply(ctx, ApplyInput{ProductID: "p1", Kind: KindIn, Quantity: qty})
		require.NoError(t, err)
	}

	items, err := svc.ListByProduct(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.EqualValues(t, 3, items[0].Quantity)
	require.EqualValues(t, 1, items[2].Quantity)

	_, err = svc.ListByProduct(ctx, "", 0)
	require.ErrorIs(t, err, ErrProductRequired)
}
