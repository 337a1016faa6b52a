package dto

import "strings"

type SessionRequest struct {
	IDToken string `json:"id_token"`
}

func (r SessionRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.IDToken) == "" {
		errors["id_token"] = "Identity token is required"
	}
	return errors
}

type UserDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	RoleLabel   string `json:"role_label"`
	CreatedAt   string `json:"created_at"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

func (r UpdateProfileRequest) Validate() map[string]string {
	errors := make(map[string]string)
	name := strings.TrimSpace(r.DisplayName)
	if name == "" {
		errors["display_name"] = "Display name is required"
	}
	if len(name) > 255 {
		errors["display_name"] = "Display name cannot exceed 255 characters"
	}
	return errors
}
