package handler

import (
	"stash/internal/auth"
	"stash/internal/resource"
)

type userDTO struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
	Quota       *int64 `json:"quota"`
}

func toUserDTO(u auth.User) userDTO {
	return userDTO{
		ID:          u.ID,
		Email:       u.Email,
		IsSuperuser: u.IsSuperuser,
		Quota:       u.Quota,
	}
}

type resourceDTO struct {
	ID        uint64 `json:"id"`
	Content   string `json:"content"`
	CreatedBy string `json:"created_by"`
}

func toResourceDTO(r resource.Resource) resourceDTO {
	return resourceDTO{
		ID:        r.ID,
		Content:   r.Content,
		CreatedBy: r.CreatedBy.Email,
	}
}

var statusOK = map[string]string{"status": "OK"}
