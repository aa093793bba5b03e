package annotation

// IDGenerator produces fresh annotation identifiers.
type IDGenerator func() string
