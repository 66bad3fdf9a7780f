package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/console/internal/console/users"
	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/aussiebroadwan/console/pkg/httpx"
	"github.com/aussiebroadwan/console/pkg/slogx"
)

// UsersHandler serves the user management pages. Every change goes to the
// sales service and the list is fetched again afterwards.
type UsersHandler struct {
	router *Router
}

type usersPage struct {
	Users []consolesdk.UserAccount
	Query string
}

type userFormPage struct {
	Editing bool
	Action  string

	Name       string
	Email      string
	Role       string
	Department string
	Enabled    bool

	Errors users.ValidationError
}

func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	list, err := h.router.client.ListUsers(r.Context())
	if err != nil {
		if h.router.handleUpstreamError(w, r, err, "Failed to fetch users") {
			return
		}
	}

	h.router.render(w, r, http.StatusOK, pageUsers, "Users", usersPage{
		Users: users.Filter(list, query),
		Query: query,
	})
}

func (h *UsersHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.router.render(w, r, http.StatusOK, pageUserForm, "Create User", userFormPage{
		Action: "/users",
		Role:   consolesdk.RoleUser,
	})
}

// HandleEdit looks the account up in the list, the sales service has no
// single user read.
func (h *UsersHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	list, err := h.router.client.ListUsers(r.Context())
	if err != nil {
		if !h.router.handleUpstreamError(w, r, err, "Failed to fetch users") {
			httpx.SeeOther(w, r, "/users")
		}
		return
	}

	for _, u := range list {
		if u.ID != id {
			continue
		}

		page := userFormPage{
			Editing:    true,
			Action:     "/users/" + u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Department: u.Department,
			Enabled:    u.Enabled,
		}
		if len(u.Roles) > 0 {
			page.Role = u.Roles[0]
		}

		h.router.render(w, r, http.StatusOK, pageUserForm, "Edit User", page)
		return
	}

	h.router.flashes.Error(browserID(r), "User not found")
	httpx.SeeOther(w, r, "/users")
}

func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form body")
		return
	}

	form := users.ParseCreateForm(r.PostForm)
	page := userFormPage{
		Action:     "/users",
		Name:       form.Name,
		Email:      form.Email,
		Role:       form.Role,
		Department: form.Department,
	}

	if err := h.router.validator.Validate(form); err != nil {
		page.Errors = formErrors(err)
		h.router.render(w, r, http.StatusUnprocessableEntity, pageUserForm, "Create User", page)
		return
	}

	user, err := h.router.client.CreateUser(r.Context(), form.NewUser())
	if err != nil {
		if fields := apiFieldErrors(err); fields != nil {
			page.Errors = fields
			h.router.render(w, r, http.StatusUnprocessableEntity, pageUserForm, "Create User", page)
			return
		}
		if h.router.handleUpstreamError(w, r, err, "Failed to create user") {
			return
		}
		h.router.render(w, r, http.StatusBadGateway, pageUserForm, "Create User", page)
		return
	}

	slogx.FromContext(r.Context()).Info("user created", "user_id", user.ID)
	h.router.flashes.Success(browserID(r), "User created successfully")
	httpx.SeeOther(w, r, "/users")
}

func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form body")
		return
	}

	form := users.ParseUpdateForm(r.PostForm)
	page := userFormPage{
		Editing:    true,
		Action:     "/users/" + id,
		Name:       form.Name,
		Role:       form.Role,
		Department: form.Department,
		Enabled:    form.Enabled,
	}

	if err := h.router.validator.Validate(form); err != nil {
		page.Errors = formErrors(err)
		h.router.render(w, r, http.StatusUnprocessableEntity, pageUserForm, "Edit User", page)
		return
	}

	if _, err := h.router.client.UpdateUser(r.Context(), id, form.UpdateUser()); err != nil {
		if fields := apiFieldErrors(err); fields != nil {
			page.Errors = fields
			h.router.render(w, r, http.StatusUnprocessableEntity, pageUserForm, "Edit User", page)
			return
		}
		if h.router.handleUpstreamError(w, r, err, "Failed to update user") {
			return
		}
		h.router.render(w, r, http.StatusBadGateway, pageUserForm, "Edit User", page)
		return
	}

	slogx.FromContext(r.Context()).Info("user updated", "user_id", id)
	h.router.flashes.Success(browserID(r), "User updated successfully")
	httpx.SeeOther(w, r, "/users")
}

func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.router.client.DeleteUser(r.Context(), id); err != nil {
		if !h.router.handleUpstreamError(w, r, err, "Failed to delete user") {
			httpx.SeeOther(w, r, "/users")
		}
		return
	}

	slogx.FromContext(r.Context()).Info("user deleted", "user_id", id)
	h.router.flashes.Success(browserID(r), "User deleted successfully")
	httpx.SeeOther(w, r, "/users")
}

// formErrors returns the per-field messages of a validation failure. Any
// other error is reported against the form as a whole.
func formErrors(err error) users.ValidationError {
	var ve users.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return users.ValidationError{"form": err.Error()}
}

// apiFieldErrors extracts field failures the sales service reported, or nil.
func apiFieldErrors(err error) users.ValidationError {
	var apiErr *consolesdk.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return nil
	}

	out := make(users.ValidationError, len(apiErr.Fields))
	for _, f := range apiErr.Fields {
		if _, seen := out[f.Field]; !seen {
			out[f.Field] = f.Err
		}
	}
	return out
}
