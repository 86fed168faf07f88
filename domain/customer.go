package domain

type Customer struct {
	ID        int64  `db:"id" json:"id"`
	Nombre    string `db:"nombre" json:"nombre"`
	Apellido  string `db:"apellido" json:"apellido"`
	DNI       string `db:"dni" json:"dni"`
	Telefono  string `db:"telefono" json:"telefono"`
	Direccion string `db:"direccion" json:"direccion"`
}
