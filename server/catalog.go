package server

import (
	"sync"

	"github.com/pingcap/parser/mysql"
	"github.com/pingcap/parser/types"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

// tableIDBase is the first ID handed to a registered table. Lower IDs are reserved.
const tableIDBase = 100

// ColumnDef describes one column of a table being registered. The type travels as the
// parser FieldType, which is the wire visible column descriptor.
type ColumnDef struct {
	Name      string
	FieldType *types.FieldType
	PKHandle  bool
	Default   *common.Datum
}

// Catalog maps table names to their metadata and hands out table IDs. It serves writers
// and tests - the read path never consults it, plans carry their own TableInfo.
type Catalog struct {
	lock    sync.RWMutex
	tables  map[string]*common.TableInfo
	tableID uint64
	started bool
}

func NewCatalog() *Catalog {
	return &Catalog{
		tables:  make(map[string]*common.TableInfo),
		tableID: tableIDBase,
	}
}

func (c *Catalog) Start() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.started {
		return nil
	}
	c.started = true
	return nil
}

func (c *Catalog) Stop() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.started {
		return nil
	}
	c.started = false
	return nil
}

// CreateTable registers a table and assigns it an ID. Exactly one column must be the PK
// handle and it must be an integer type - the handle is derived from the key, not stored.
func (c *Catalog) CreateTable(name string, columns []ColumnDef) (*common.TableInfo, error) {
	if name == "" {
		return nil, errors.NewInvalidConfigurationError("table name must not be empty")
	}
	if len(columns) == 0 {
		return nil, errors.NewInvalidConfigurationError("table must have at least one column")
	}
	pkCount := 0
	for _, def := range columns {
		if def.PKHandle {
			pkCount++
			if !isIntegerType(def.FieldType.Tp) {
				return nil, errors.NewInvalidConfigurationError("PK handle column must be an integer type")
			}
		}
	}
	if pkCount != 1 {
		return nil, errors.NewInvalidConfigurationError("table must have exactly one PK handle column")
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.tables[name]; ok {
		return nil, errors.NewTableAlreadyExistsError(name)
	}
	tableInfo := &common.TableInfo{
		ID:      c.tableID,
		Name:    name,
		Columns: make([]*common.ColumnInfo, len(columns)),
	}
	for i, def := range columns {
		tableInfo.Columns[i] = &common.ColumnInfo{
			ID:         int64(i + 1),
			Name:       def.Name,
			ColumnType: common.ColumnTypeFromFieldType(def.FieldType),
			PKHandle:   def.PKHandle,
			Default:    def.Default,
		}
	}
	c.tableID++
	c.tables[name] = tableInfo
	return tableInfo, nil
}

func (c *Catalog) GetTable(name string) (*common.TableInfo, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	tableInfo, ok := c.tables[name]
	return tableInfo, ok
}

func (c *Catalog) DropTable(name string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.tables[name]; !ok {
		return errors.NewUnknownTableError(name)
	}
	delete(c.tables, name)
	return nil
}

// TableColumns describes a registered table in wire form, FieldTypes included.
func (c *Catalog) TableColumns(name string) ([]ColumnDef, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	tableInfo, ok := c.tables[name]
	if !ok {
		return nil, false
	}
	defs := make([]ColumnDef, len(tableInfo.Columns))
	for i, col := range tableInfo.Columns {
		defs[i] = ColumnDef{
			Name:      col.Name,
			FieldType: col.ColumnType.ToFieldType(),
			PKHandle:  col.PKHandle,
			Default:   col.Default,
		}
	}
	return defs, true
}

func isIntegerType(tp byte) bool {
	switch tp {
	case mysql.TypeTiny, mysql.TypeShort, mysql.TypeInt24, mysql.TypeLong, mysql.TypeLonglong:
		return true
	default:
		return false
	}
}
