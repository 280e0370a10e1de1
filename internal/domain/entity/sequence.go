package entity

// Sequence contador de documentos por (tienda, prefijo, año).
type Sequence struct {
	StoreID    string
	Prefix     string
	Year       int
	NextNumber int64
}
