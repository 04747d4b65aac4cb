package database

import (
	"fmt"
	"log/slog"
)

const (
	StoreTypeCSV    = "csv"
	StoreTypeSQLite = "sqlite"
)

// NewResponseStore opens the store of the given type. location is a file path for csv
// and a connection string for sqlite.
func NewResponseStore(storeType, location string) (store ResponseStore, err error) {
	switch storeType {
	case StoreTypeCSV, "":
		store, err = NewCSVStore(location)
	case StoreTypeSQLite:
		store, err = NewSQLiteStore(location)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("response store ready", "type", storeType, "location", location)
	return store, nil
}
