package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
	"ywbilling/entity"
	"ywbilling/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

const tableOrders = "orders"

const orderColumns = `id, order_number, customer_email, customer_name, customer_phone,
	customer_address, customer_country, items, subtotal, vat_amount, total, currency,
	status, payment_status, invoice_id, notes, created_at, paid_at`

type MySql struct {
	db         *sql.DB
	loc        *time.Location
	prefix     string
	structure  map[string]map[string]Column
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	if !conf.Orders.Enabled {
		return nil, fmt.Errorf("orders database is disabled in configuration")
	}
	loc, err := time.LoadLocation(conf.Location)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}

	dsn := mysql.NewConfig()
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(conf.Orders.HostName, conf.Orders.Port)
	dsn.User = conf.Orders.UserName
	dsn.Passwd = conf.Orders.Password
	dsn.DBName = conf.Orders.Database
	dsn.ParseTime = true
	dsn.Loc = loc

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// wait for the database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		loc:        loc,
		prefix:     conf.Orders.Prefix,
		structure:  make(map[string]map[string]Column),
		statements: make(map[string]*sql.Stmt),
	}

	if err = sdb.addColumnIfNotExists(tableOrders, "invoice_id", "VARCHAR(64) NULL DEFAULT NULL"); err != nil {
		return nil, err
	}
	if err = sdb.addColumnIfNotExists(tableOrders, "stripe_session_id", "VARCHAR(255) NULL DEFAULT NULL"); err != nil {
		return nil, err
	}
	if err = sdb.addColumnIfNotExists(tableOrders, "stripe_payment_intent", "VARCHAR(255) NULL DEFAULT NULL"); err != nil {
		return nil, err
	}

	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *MySql) scanOrder(row scanner) (*entity.Order, error) {
	var order entity.Order
	var phone, address, country, currency, invoiceId, notes sql.NullString
	var items []byte
	var paidAt sql.NullTime
	if err := row.Scan(
		&order.Id,
		&order.OrderNumber,
		&order.CustomerEmail,
		&order.CustomerName,
		&phone,
		&address,
		&country,
		&items,
		&order.Subtotal,
		&order.VatAmount,
		&order.Total,
		&currency,
		&order.Status,
		&order.PaymentStatus,
		&invoiceId,
		&notes,
		&order.CreatedAt,
		&paidAt,
	); err != nil {
		return nil, err
	}
	order.CustomerPhone = phone.String
	order.CustomerAddress = address.String
	order.CustomerCountry = country.String
	order.Currency = strings.ToUpper(currency.String)
	order.InvoiceId = invoiceId.String
	order.Notes = notes.String
	if paidAt.Valid {
		t := paidAt.Time.In(s.loc)
		order.PaidAt = &t
	}
	parsed, err := entity.ParseOrderItems(items)
	if err != nil {
		return nil, fmt.Errorf("order %s items: %w", order.Id, err)
	}
	order.Items = parsed
	return &order, nil
}

// Order returns nil when there is no such order
func (s *MySql) Order(ctx context.Context, id string) (*entity.Order, error) {
	stmt, err := s.stmtSelectOrder()
	if err != nil {
		return nil, err
	}
	order, err := s.scanOrder(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order %s: %w", id, err)
	}
	return order, nil
}

// OrdersByEmail reads by customer_email; older tables keep the address in
// an email column, queried when the primary lookup fails
func (s *MySql) OrdersByEmail(ctx context.Context, email string) ([]*entity.Order, error) {
	return ordersWithFallback(ctx, email,
		s.emailQuery(s.stmtSelectOrdersByEmail),
		s.emailQuery(s.stmtSelectOrdersByLegacyEmail))
}

type emailLookup func(ctx context.Context, email string) ([]*entity.Order, error)

func (s *MySql) emailQuery(prepare func() (*sql.Stmt, error)) emailLookup {
	return func(ctx context.Context, email string) ([]*entity.Order, error) {
		stmt, err := prepare()
		if err != nil {
			return nil, err
		}
		return s.queryOrders(ctx, stmt, email)
	}
}

func ordersWithFallback(ctx context.Context, email string, primary, legacy emailLookup) ([]*entity.Order, error) {
	orders, err := primary(ctx, email)
	if err == nil {
		return orders, nil
	}
	orders, lerr := legacy(ctx, email)
	if lerr != nil {
		return nil, fmt.Errorf("orders by email: %w; legacy: %w", err, lerr)
	}
	return orders, nil
}

func (s *MySql) queryOrders(ctx context.Context, stmt *sql.Stmt, args ...any) ([]*entity.Order, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	orders := make([]*entity.Order, 0)
	for rows.Next() {
		order, err := s.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder stores an order placed outside the storefront, e.g. a hosted checkout
func (s *MySql) CreateOrder(ctx context.Context, order *entity.Order) error {
	if order.Id == "" {
		order.Id = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().In(s.loc)
	}
	items, err := marshalItems(order.Items)
	if err != nil {
		return err
	}
	rec := map[string]interface{}{
		"id":               order.Id,
		"order_number":     order.OrderNumber,
		"customer_email":   order.CustomerEmail,
		"customer_name":    order.CustomerName,
		"customer_phone":   order.CustomerPhone,
		"customer_address": order.CustomerAddress,
		"customer_country": order.CustomerCountry,
		"items":            items,
		"subtotal":         order.Subtotal,
		"vat_amount":       order.VatAmount,
		"total":            order.Total,
		"currency":         order.CurrencyCode(),
		"status":           order.Status,
		"payment_status":   order.PaymentStatus,
		"notes":            order.Notes,
		"created_at":       order.CreatedAt,
	}
	if _, err = s.insert(ctx, tableOrders, rec); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *MySql) MarkPaid(ctx context.Context, id string, at time.Time) error {
	stmt, err := s.stmtUpdateOrderPaid()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, entity.OrderProcessing, entity.OrderPaymentPaid, at.In(s.loc), id)
	return err
}

// AppendNote adds a line to the order notes
func (s *MySql) AppendNote(ctx context.Context, id, line string) error {
	stmt, err := s.stmtAppendOrderNote()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, line, line, id)
	return err
}

func (s *MySql) SetInvoice(ctx context.Context, id, invoiceId string) error {
	stmt, err := s.stmtUpdateOrderInvoice()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, invoiceId, id)
	return err
}

func (s *MySql) SetStripePayment(ctx context.Context, id, sessionId, paymentIntent string) error {
	stmt, err := s.stmtUpdateOrderStripe()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, sessionId, paymentIntent, id)
	return err
}
