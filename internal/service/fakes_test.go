package service_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/storage"
	"github.com/shopspring/decimal"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProductRepo struct {
	products map[int64]*models.Product
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: make(map[int64]*models.Product)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) GetProductForShareTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	return f.GetProductByID(ctx, id)
}

// fakeCartRepo хранит строки в памяти; резервирование атомарно под мьютексом.
type fakeCartRepo struct {
	mu       sync.Mutex
	nextID   int64
	lines    map[int64]*models.CartLine
	reserved map[int64]int64 // lineID -> orderID
	listErr  error
	clearErr error
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		lines:    make(map[int64]*models.CartLine),
		reserved: make(map[int64]int64),
	}
}

func (f *fakeCartRepo) free(userID int64) []*models.CartLine {
	var out []*models.CartLine
	for id, line := range f.lines {
		if line.UserID != userID {
			continue
		}
		if _, ok := f.reserved[id]; ok {
			continue
		}
		cp := *line
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// total - все строки пользователя, включая зарезервированные
func (f *fakeCartRepo) total(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, line := range f.lines {
		if line.UserID == userID {
			n++
		}
	}
	return n
}

func (f *fakeCartRepo) ListLines(ctx context.Context, userID int64) ([]*models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.free(userID), nil
}

func (f *fakeCartRepo) ListLinesForUpdate(ctx context.Context, tx *sql.Tx, userID int64) ([]*models.CartLine, error) {
	return f.ListLines(ctx, userID)
}

func (f *fakeCartRepo) AddLine(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, line := range f.lines {
		if line.UserID == userID && line.ProductID == productID {
			if _, ok := f.reserved[id]; ok {
				delete(f.reserved, id)
				line.Quantity = quantity
			} else {
				line.Quantity += quantity
			}
			cp := *line
			return &cp, nil
		}
	}
	f.nextID++
	line := &models.CartLine{ID: f.nextID, UserID: userID, ProductID: productID, Quantity: quantity, CreatedAt: time.Now()}
	f.lines[line.ID] = line
	cp := *line
	return &cp, nil
}

func (f *fakeCartRepo) UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	line, ok := f.lines[lineID]
	if _, reserved := f.reserved[lineID]; !ok || reserved || line.UserID != userID {
		return storage.ErrCartLineNotFound
	}
	line.Quantity = quantity
	return nil
}

func (f *fakeCartRepo) RemoveLine(ctx context.Context, userID, lineID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	line, ok := f.lines[lineID]
	if _, reserved := f.reserved[lineID]; !ok || reserved || line.UserID != userID {
		return storage.ErrCartLineNotFound
	}
	delete(f.lines, lineID)
	return nil
}

func (f *fakeCartRepo) ReserveLines(ctx context.Context, tx *sql.Tx, userID, orderID int64, lineIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range lineIDs {
		line, ok := f.lines[id]
		if _, reserved := f.reserved[id]; !ok || reserved || line.UserID != userID {
			return storage.ErrCartLinesChanged
		}
	}
	for _, id := range lineIDs {
		f.reserved[id] = orderID
	}
	return nil
}

func (f *fakeCartRepo) ClearLines(ctx context.Context, userID, orderID int64, lineIDs []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return 0, f.clearErr
	}
	var cleared int64
	for _, id := range lineIDs {
		if f.reserved[id] == orderID {
			delete(f.lines, id)
			delete(f.reserved, id)
			cleared++
		}
	}
	return cleared, nil
}

// fakeOrderRepo видит заказ только после коммита его транзакции.
// Заказы, созданные внутри вызова Checkout (контекст с checkoutID), ждут
// Commit/Rollback от trackedTx; без checkoutID заказ виден сразу.
type fakeOrderRepo struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]*models.OrderDetails
	committed map[int64]bool
	pending   map[int64][]int64 // checkoutID -> orderIDs
	orderErr  error
	lineErr   error
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:    make(map[int64]*models.OrderDetails),
		committed: make(map[int64]bool),
		pending:   make(map[int64][]int64),
	}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, userID int64, total decimal.Decimal) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	f.nextID++
	order := models.Order{ID: f.nextID, UserID: userID, Total: total, Status: models.OrderStatusPending, CreatedAt: time.Now()}
	f.orders[order.ID] = &models.OrderDetails{Order: order, Username: fmt.Sprintf("user%d", userID)}

	if id := checkoutIDFrom(ctx); id != 0 {
		f.pending[id] = append(f.pending[id], order.ID)
	} else {
		f.committed[order.ID] = true
	}
	return &order, nil
}

func (f *fakeOrderRepo) CreateOrderLine(ctx context.Context, tx *sql.Tx, line *models.OrderLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lineErr != nil {
		return f.lineErr
	}
	d, ok := f.orders[line.OrderID]
	if !ok {
		return storage.ErrOrderNotFound
	}
	line.ID = int64(len(d.Lines) + 1)
	d.Lines = append(d.Lines, *line)
	return nil
}

// settle публикует или выбрасывает заказы транзакции вызова checkoutID
func (f *fakeOrderRepo) settle(checkoutID int64, commit bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, orderID := range f.pending[checkoutID] {
		if commit {
			f.committed[orderID] = true
		} else {
			delete(f.orders, orderID)
		}
	}
	delete(f.pending, checkoutID)
}

func (f *fakeOrderRepo) visible(orderID int64) (*models.OrderDetails, bool) {
	d, ok := f.orders[orderID]
	if !ok || !f.committed[orderID] {
		return nil, false
	}
	return d, true
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.visible(orderID)
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	order := d.Order
	return &order, nil
}

func (f *fakeOrderRepo) GetOrderDetails(ctx context.Context, orderID int64) (*models.OrderDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.visible(orderID)
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for id := range f.committed {
		d := f.orders[id]
		if d.UserID == userID {
			order := d.Order
			out = append(out, &order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// count - число зафиксированных заказов
func (f *fakeOrderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.committed)
}

type checkoutIDKey struct{}

// withCheckoutID помечает контекст одного вызова Checkout
func withCheckoutID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, checkoutIDKey{}, id)
}

func checkoutIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(checkoutIDKey{}).(int64)
	return id
}

// trackedConnector оборачивает соединение sqlmock: Commit и Rollback
// транзакции доходят до fakeOrderRepo через checkoutID из контекста BeginTx.
type trackedConnector struct {
	conn   driver.Conn
	drv    driver.Driver
	orders *fakeOrderRepo
}

func (c *trackedConnector) Connect(context.Context) (driver.Conn, error) {
	return &trackedConn{Conn: c.conn, orders: c.orders}, nil
}

func (c *trackedConnector) Driver() driver.Driver {
	return c.drv
}

type trackedConn struct {
	driver.Conn
	orders *fakeOrderRepo
}

func (c *trackedConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	var (
		tx  driver.Tx
		err error
	)
	if b, ok := c.Conn.(driver.ConnBeginTx); ok {
		tx, err = b.BeginTx(ctx, opts)
	} else {
		tx, err = c.Conn.Begin() //nolint:staticcheck
	}
	if err != nil {
		return nil, err
	}
	return &trackedTx{Tx: tx, checkoutID: checkoutIDFrom(ctx), orders: c.orders}, nil
}

type trackedTx struct {
	driver.Tx
	checkoutID int64
	orders     *fakeOrderRepo
}

func (t *trackedTx) Commit() error {
	if err := t.Tx.Commit(); err != nil {
		t.orders.settle(t.checkoutID, false)
		return err
	}
	t.orders.settle(t.checkoutID, true)
	return nil
}

func (t *trackedTx) Rollback() error {
	t.orders.settle(t.checkoutID, false)
	return t.Tx.Rollback()
}

type fakeInvoiceRepo struct {
	invoices map[int64]*models.Invoice // ключ: orderID
	getErr   error
}

var _ storage.InvoiceStorage = (*fakeInvoiceRepo)(nil)

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[int64]*models.Invoice)}
}

func (f *fakeInvoiceRepo) CreateInvoice(ctx context.Context, tx *sql.Tx, orderID int64, number string) (*models.Invoice, error) {
	if _, ok := f.invoices[orderID]; ok {
		return nil, storage.ErrInvoiceExists
	}
	inv := &models.Invoice{ID: int64(len(f.invoices) + 1), OrderID: orderID, InvoiceNumber: number}
	f.invoices[orderID] = inv
	return inv, nil
}

func (f *fakeInvoiceRepo) SetInvoicePath(ctx context.Context, tx *sql.Tx, invoiceID int64, path string) error {
	for _, inv := range f.invoices {
		if inv.ID == invoiceID {
			inv.PDFFilePath = path
			return nil
		}
	}
	return storage.ErrInvoiceNotFound
}

func (f *fakeInvoiceRepo) GetInvoiceByOrderID(ctx context.Context, orderID int64) (*models.Invoice, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	inv, ok := f.invoices[orderID]
	if !ok {
		return nil, storage.ErrInvoiceNotFound
	}
	return inv, nil
}

// fakeGenerator имитирует генератор счетов: пишет запись в fakeInvoiceRepo
type fakeGenerator struct {
	mu       sync.Mutex
	invoices *fakeInvoiceRepo
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, orderID int64) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	inv, err := f.invoices.CreateInvoice(ctx, nil, orderID, fmt.Sprintf("INV-%d-20261016", orderID))
	if err != nil {
		return nil, err
	}
	inv.PDFFilePath = fmt.Sprintf("invoices/invoice_%d.pdf", inv.ID)
	return inv, nil
}
