package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Column struct {
	Name          string
	DefaultValue  *string // nil when the column has no default
	IsNullable    bool
	DataType      string
	AutoIncrement bool
}

func (s *MySql) loadTableStructure(ctx context.Context, tableName string) (map[string]Column, error) {
	query := `
        SELECT COLUMN_NAME, COLUMN_DEFAULT, IS_NULLABLE, DATA_TYPE, EXTRA
          FROM information_schema.columns
         WHERE table_schema = DATABASE() AND table_name = ?
         ORDER BY ORDINAL_POSITION`

	rows, err := s.db.QueryContext(ctx, query, s.prefix+tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	columns := make(map[string]Column)
	for rows.Next() {
		var colName, isNullable, dataType, extra string
		var colDefault sql.NullString
		if err = rows.Scan(&colName, &colDefault, &isNullable, &dataType, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		var defValPtr *string
		if colDefault.Valid {
			defValPtr = &colDefault.String
		}
		columns[colName] = Column{
			Name:          colName,
			DefaultValue:  defValPtr,
			IsNullable:    isNullable == "YES",
			DataType:      dataType,
			AutoIncrement: strings.Contains(extra, "auto_increment"),
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("after scanning rows: %w", err)
	}
	return columns, nil
}

func (s *MySql) addColumnIfNotExists(tableName, columnName, columnType string) error {
	query := `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`
	var column string
	err := s.db.QueryRow(query, s.prefix+tableName, columnName).Scan(&column)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking column %s existence in %s: %w", columnName, tableName, err)
	}
	alterQuery := fmt.Sprintf(`ALTER TABLE %s%s ADD COLUMN %s %s`, s.prefix, tableName, columnName, columnType)
	if _, err = s.db.Exec(alterQuery); err != nil {
		return fmt.Errorf("add column %s to table %s: %w", columnName, tableName, err)
	}
	// cached structure is stale now
	s.mu.Lock()
	delete(s.structure, tableName)
	s.mu.Unlock()
	return nil
}

func (s *MySql) readStructure(ctx context.Context, table string) (map[string]Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.structure == nil {
		return nil, errors.New("structure cache is not initialized")
	}
	tableInfo, ok := s.structure[table]
	if !ok {
		var err error
		tableInfo, err = s.loadTableStructure(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("load table structure: %w", err)
		}
		s.structure[table] = tableInfo
	}
	return tableInfo, nil
}

func (s *MySql) insert(ctx context.Context, table string, data map[string]interface{}) (int64, error) {
	tableInfo, err := s.readStructure(ctx, table)
	if err != nil {
		return 0, err
	}
	query, values, err := insertQuery(s.prefix+table, tableInfo, data)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, fmt.Errorf("%s insert: %w", table, err)
	}
	rowId, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s get last insert id: %w", table, err)
	}
	return rowId, nil
}

// insertQuery keeps only columns the table has; NOT NULL columns without a
// default get a zero value of their type
func insertQuery(table string, columns map[string]Column, data map[string]interface{}) (string, []interface{}, error) {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	var colNames []string
	var placeholders []string
	var values []interface{}
	for _, colName := range names {
		colInfo := columns[colName]
		if colInfo.AutoIncrement {
			continue
		}
		if v, ok := data[colName]; ok {
			colNames = append(colNames, colName)
			placeholders = append(placeholders, "?")
			values = append(values, v)
			continue
		}
		if colInfo.DefaultValue != nil || colInfo.IsNullable {
			continue
		}
		colNames = append(colNames, colName)
		placeholders = append(placeholders, "?")
		switch colInfo.DataType {
		case "int", "bigint", "smallint", "tinyint", "decimal", "float", "double":
			values = append(values, 0)
		case "varchar", "text", "char", "blob", "longtext", "json":
			values = append(values, "")
		default:
			values = append(values, nil)
		}
	}
	if len(colNames) == 0 {
		return "", nil, fmt.Errorf("no columns found in table %s", table)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(colNames, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, values, nil
}
