package api

import (
	"net/http"
	"strings"

	"github.com/warp/schooladmin/auth"
	"github.com/warp/schooladmin/domain"
)

const (
	duplicateEmail    = "The user with this email already exists in the system."
	duplicateRoleName = "A role with this name already exists."
)

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login exchanges credentials for a bearer token. It takes a JSON body
// {email, password} or an OAuth2 password form (username, password).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			fail(w, fieldError("body", "invalid form body"))
			return
		}
		req = LoginRequest{Email: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}
		if err := bodies.Struct(&req); err != nil {
			fail(w, err)
			return
		}
	} else if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	users, err := h.Store.Users().List(r.Context(), domain.UserFilter{Email: &req.Email})
	if err != nil {
		fail(w, err)
		return
	}
	if len(users) == 0 {
		fail(w, auth.ErrInvalidCredentials)
		return
	}
	user := users[0]
	if err := auth.CheckPassword(user.HashedPassword, req.Password); err != nil {
		fail(w, err)
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusForbidden, "Inactive user", nil)
		return
	}

	token, expires, err := h.Tokens.Issue(user.ID)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer", ExpiresAt: expires})
}

// =============================================================================
// USER HANDLERS
// =============================================================================

func ensureEmailFree(r *http.Request, st domain.Store, email string, self uint) error {
	taken, err := st.Users().List(r.Context(), domain.UserFilter{Email: &email})
	if err != nil {
		return err
	}
	for _, u := range taken {
		if u.ID != self {
			return &domain.DuplicateError{Entity: "User", Message: duplicateEmail}
		}
	}
	return nil
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Users(), domain.UserFilter{Page: page, Email: queryString(r, "email")})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CurrentUser(r.Context()))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, h.Store.Users())
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(w, err)
		return
	}

	user := domain.User{
		Email:          req.Email,
		FullName:       req.FullName,
		HashedPassword: hash,
		IsActive:       boolOr(req.IsActive, true),
		IsSuperuser:    req.IsSuperuser,
	}
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if err := ensureEmailFree(r, tx, user.Email, 0); err != nil {
			return err
		}
		return tx.Users().Create(r.Context(), &user)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var patch domain.UserPatch
	if err := decode(r, &patch); err != nil {
		fail(w, err)
		return
	}

	var hash string
	if patch.Password != nil {
		if hash, err = auth.HashPassword(*patch.Password); err != nil {
			fail(w, err)
			return
		}
	}

	var user *domain.User
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if user, err = tx.Users().Get(r.Context(), id); err != nil {
			return err
		}
		if patch.Email != nil && *patch.Email != user.Email {
			if err := ensureEmailFree(r, tx, *patch.Email, id); err != nil {
				return err
			}
		}
		patch.Apply(user)
		if hash != "" {
			user.HashedPassword = hash
		}
		return tx.Users().Update(r.Context(), user)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes the user and their role assignments.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}

	var user *domain.User
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		var err error
		if user, err = tx.Users().Get(r.Context(), id); err != nil {
			return err
		}
		if err := tx.SetUserRoles(r.Context(), id, nil); err != nil {
			return err
		}
		return tx.Users().Delete(r.Context(), id)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// =============================================================================
// ROLE HANDLERS
// =============================================================================

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		fail(w, err)
		return
	}
	serveList(w, r, h.Store.Roles(), domain.RoleFilter{Page: page})
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	role := domain.Role{Name: req.Name, Description: req.Description}
	err := h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		taken, err := tx.Roles().List(r.Context(), domain.RoleFilter{Name: &role.Name})
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return &domain.DuplicateError{Entity: "Role", Message: duplicateRoleName}
		}
		return tx.Roles().Create(r.Context(), &role)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (h *Handler) GetUserRoles(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	if _, err := h.Store.Users().Get(r.Context(), id); err != nil {
		fail(w, err)
		return
	}
	roles, err := h.Store.UserRoles(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// SetUserRoles replaces the user's roles and responds with the new set.
func (h *Handler) SetUserRoles(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var req SetRolesRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	var roles []domain.Role
	err = h.Store.WithTx(r.Context(), func(tx domain.Store) error {
		if _, err := tx.Users().Get(r.Context(), id); err != nil {
			return err
		}
		for _, roleID := range req.RoleIDs {
			if _, err := tx.Roles().Get(r.Context(), roleID); err != nil {
				return err
			}
		}
		if err := tx.SetUserRoles(r.Context(), id, req.RoleIDs); err != nil {
			return err
		}
		var err error
		roles, err = tx.UserRoles(r.Context(), id)
		return err
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}
