package database

import (
	"database/sql"
	"fmt"
	"reflect"
)

// taggedField is one struct field carrying a `db:` column tag.
type taggedField struct {
	column string
	index  int
}

func taggedFields(t reflect.Type) []taggedField {
	var out []taggedField
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, taggedField{column: tag, index: i})
	}
	return out
}

func indirect(record interface{}) reflect.Value {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

// structToInsert extracts column names, placeholders and values from a struct.
// A zero "id" is skipped so the database assigns it.
func structToInsert(record interface{}) (cols, placeholders []string, vals []interface{}) {
	v := indirect(record)
	for _, f := range taggedFields(v.Type()) {
		if f.column == "id" && v.Field(f.index).IsZero() {
			continue
		}
		cols = append(cols, f.column)
		placeholders = append(placeholders, "?")
		vals = append(vals, v.Field(f.index).Interface())
	}
	return
}

// structToUpdate extracts column/value pairs, excluding id.
func structToUpdate(record interface{}) (cols []string, vals []interface{}) {
	v := indirect(record)
	for _, f := range taggedFields(v.Type()) {
		if f.column == "id" {
			continue
		}
		cols = append(cols, f.column)
		vals = append(vals, v.Field(f.index).Interface())
	}
	return
}

// scanRows scans sql.Rows into a slice of structs, matching columns by tag.
func scanRows(rows *sql.Rows, dest interface{}) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("Select: dest must be a pointer to a slice")
	}
	sliceVal := dv.Elem()
	elemType := sliceVal.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}
	fields := taggedFields(elemType)

	for rows.Next() {
		elem := reflect.New(elemType).Elem()
		if err := rows.Scan(columnPointers(elem, fields, cols)...); err != nil {
			return err
		}
		if isPtr {
			sliceVal.Set(reflect.Append(sliceVal, elem.Addr()))
		} else {
			sliceVal.Set(reflect.Append(sliceVal, elem))
		}
	}
	return rows.Err()
}

// scanRow scans a single row into dest. sql.Row does not expose column
// names, so columns are bound in struct field order.
func scanRow(row *sql.Row, dest interface{}) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr {
		return fmt.Errorf("Get: dest must be a pointer")
	}
	elem := dv.Elem()
	if elem.Kind() != reflect.Struct {
		return row.Scan(dest)
	}
	var ptrs []interface{}
	for _, f := range taggedFields(elem.Type()) {
		ptrs = append(ptrs, elem.Field(f.index).Addr().Interface())
	}
	return row.Scan(ptrs...)
}

func columnPointers(elem reflect.Value, fields []taggedField, cols []string) []interface{} {
	byColumn := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		byColumn[f.column] = elem.Field(f.index).Addr().Interface()
	}
	ptrs := make([]interface{}, len(cols))
	for i, c := range cols {
		if p, ok := byColumn[c]; ok {
			ptrs[i] = p
		} else {
			var discard interface{}
			ptrs[i] = &discard
		}
	}
	return ptrs
}
