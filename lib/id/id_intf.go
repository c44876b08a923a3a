package id

// StrGen generates a string uuid.
type StrGen func() string
