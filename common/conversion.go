package common

import (
	"github.com/pingcap/parser/mysql"
	"github.com/pingcap/parser/types"
)

// ToFieldType converts a ColumnType to the parser FieldType used in plan descriptors.
func (t ColumnType) ToFieldType() *types.FieldType {
	ft := types.NewFieldType(t.Tp)
	ft.Flag = t.Flags
	ft.Flen = t.Flen
	ft.Decimal = t.Decimal
	if t.Tp == mysql.TypeVarchar || t.Tp == mysql.TypeString || t.Tp == mysql.TypeVarString {
		ft.Charset = mysql.UTF8MB4Charset
		ft.Collate = mysql.UTF8MB4DefaultCollation
	}
	return ft
}

func ColumnTypeFromFieldType(ft *types.FieldType) ColumnType {
	return ColumnType{
		Tp:      ft.Tp,
		Flags:   ft.Flag,
		Flen:    ft.Flen,
		Decimal: ft.Decimal,
	}
}
