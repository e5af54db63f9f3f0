package models

const (
	RoleAdmin   = "ADMIN"
	RoleVisitor = "VISITOR"
)

// Identity пользователь, выданный провайдером аутентификации
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
