package orders

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtSelectOrder() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s%s WHERE id = ? LIMIT 1`,
		orderColumns, s.prefix, tableOrders,
	)
	return s.prepareStmt("selectOrder", query)
}

func (s *MySql) stmtSelectOrdersByEmail() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s%s WHERE customer_email = ? ORDER BY created_at DESC`,
		orderColumns, s.prefix, tableOrders,
	)
	return s.prepareStmt("selectOrdersByEmail", query)
}

func (s *MySql) stmtSelectOrdersByLegacyEmail() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s%s WHERE email = ? ORDER BY created_at DESC`,
		orderColumns, s.prefix, tableOrders,
	)
	return s.prepareStmt("selectOrdersByLegacyEmail", query)
}

func (s *MySql) stmtUpdateOrderPaid() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %s%s SET
                   status = ?,
                   payment_status = ?,
                   paid_at = ?
                   WHERE id = ?`,
		s.prefix, tableOrders,
	)
	return s.prepareStmt("updateOrderPaid", query)
}

func (s *MySql) stmtAppendOrderNote() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %s%s SET
                   notes = IF(notes IS NULL OR TRIM(notes) = '', ?, CONCAT(TRIM(notes), '\n', ?))
                   WHERE id = ?`,
		s.prefix, tableOrders,
	)
	return s.prepareStmt("appendOrderNote", query)
}

func (s *MySql) stmtUpdateOrderInvoice() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %s%s SET invoice_id = ? WHERE id = ?`,
		s.prefix, tableOrders,
	)
	return s.prepareStmt("updateOrderInvoice", query)
}

func (s *MySql) stmtUpdateOrderStripe() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %s%s SET
                   stripe_session_id = ?,
                   stripe_payment_intent = ?
                   WHERE id = ?`,
		s.prefix, tableOrders,
	)
	return s.prepareStmt("updateOrderStripe", query)
}
