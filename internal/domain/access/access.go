// Пакет access — правила доступа к изменению сущностей каталога.
// Изменять игру, комментарий или учётную запись может владелец
// либо администратор (users.type = UserTypeAdmin).
package access

// Типы пользователей.
const (
	UserTypeRegular = 0
	UserTypeAdmin   = 2
)

// Principal — аутентифицированный пользователь, выполняющий запрос.
type Principal struct {
	// UserID — идентификатор из claim sub
	UserID string
	// UserType — тип пользователя из хранилища
	UserType int
}

// IsAdmin проверяет, является ли пользователь администратором.
func (p Principal) IsAdmin() bool {
	return p.UserType == UserTypeAdmin
}

// CanModify проверяет, может ли principal изменять сущность с владельцем ownerID.
func CanModify(p Principal, ownerID string) bool {
	if p.UserID == "" {
		return false
	}
	return p.UserID == ownerID || p.IsAdmin()
}

// IsValidUserType проверяет, является ли тип пользователя допустимым.
func IsValidUserType(t int) bool {
	return t == UserTypeRegular || t == UserTypeAdmin
}
