package domain

// TenantID identifies the store or client the ingested rows belong to.
// The ingest pipeline receives it as explicit configuration; it never
// comes from the payload.
type TenantID string

// OrderID is the unique identifier of one ingested order. Clients may supply
// their own (a UUID) or let the pipeline generate one.
type OrderID string

// ProductID identifies the product a line item references.
type ProductID string
