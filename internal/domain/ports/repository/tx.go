package repository

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres). Repositories MUST accept nil and fall back to the pool.
//
// The webhook flows never open a transaction: each write stands alone and a
// failure part-way leaves earlier writes in place.
type Tx interface{}

var NoTX Tx
