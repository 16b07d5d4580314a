// Package geostore is the spatial data collaborator: pgx queries over the
// PostGIS tables holding the hydrology network, outlets, facilities and the
// analysis history.
package geostore

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	conn *pgxpool.Pool
}

func New(conn *pgxpool.Pool) *Store {
	return &Store{conn: conn}
}
