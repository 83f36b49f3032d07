// Package models holds the GORM rows behind the cart, order, payment and
// product tables, and the mappers between them and the domain aggregates.
// Domain types carry no ORM tags.
//
// The SQL files in internal/infrastructure/migration/sql define the
// production schema, including the unique index that allows one
// payment per order and the non-negative stock check. All() feeds
// AutoMigrate for the SQLite-backed tests, which declare the same
// constraints through struct tags.
package models
