// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; each model converts to and from its
// domain type with ToDomain and a ...FromDomain constructor.
//
// Nested deal collections (add-ons, part-exchanges, payments, requests) are
// stored as jsonb through gorm's json serializer. They are owned by the deal
// and always read and written with it.
package models
