package clients

// Profile é o cadastro de envio do cliente, usado como fallback em pedidos e faturas
type Profile struct {
	ID         int64  `json:"id" db:"id"`
	Username   string `json:"username" db:"username"`
	Email      string `json:"email" db:"email"`
	FullName   string `json:"full_name" db:"full_name"`
	Phone      string `json:"phone" db:"phone"`
	Address    string `json:"address" db:"address"`
	City       string `json:"city" db:"city"`
	Department string `json:"department" db:"department"`
	PostalCode string `json:"postal_code" db:"postal_code"`
}

// DisplayName retorna o nome completo, ou o username quando não preenchido
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}
