package domain

// Kind identifies an entity type in change notifications and listing caches.
type Kind string

const (
	KindUser       Kind = "user"
	KindRole       Kind = "role"
	KindPermission Kind = "permission"
)

// Kinds returns all entity kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindUser, KindRole, KindPermission}
}
