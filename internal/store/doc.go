// Package store defines the contract for persisting crawled recipes.
// Implementations live in subpackages; this package must not import database
// drivers or concrete clients.
package store
