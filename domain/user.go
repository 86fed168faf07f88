package domain

type User struct {
	ID              int64  `json:"id" db:"id"`
	Correo          string `json:"correo" db:"correo"`
	Contrasena      string `json:"contrasena,omitempty" db:"contrasena"`
	Nombres         string `json:"nombres" db:"nombres"`
	ApellidoPaterno string `json:"apellido_paterno" db:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno" db:"apellido_materno"`
	CreatedAt       string `json:"created_at,omitempty" db:"created_at"`
}
