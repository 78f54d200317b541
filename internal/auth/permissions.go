package auth

func IsAuthenticated(caller *User) bool {
	return caller != nil
}

func IsSuperUser(caller *User) bool {
	return caller != nil && caller.IsSuperuser
}

// IsOwnerOrSuperUser reports whether caller may act on a record owned by ownerID.
func IsOwnerOrSuperUser(caller *User, ownerID uint64) bool {
	return IsAuthenticated(caller) && (caller.IsSuperuser || caller.ID == ownerID)
}
