package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/venue-scheduler/internal/application"
	"github.com/example/venue-scheduler/internal/permission"
)

type userService interface {
	ProvisionUser(ctx context.Context, params application.ProvisionUserParams) (application.User, error)
	UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error)
	ReplacePermissions(ctx context.Context, params application.ReplacePermissionsParams) (application.User, error)
	GetUser(ctx context.Context, principal *permission.User, username string) (application.User, error)
	ListUsers(ctx context.Context, principal *permission.User) ([]application.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode user request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "username", req.Username)

	user, err := h.service.ProvisionUser(r.Context(), application.ProvisionUserParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "user provisioning failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user provisioned")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	username, ok := usernameVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingUsername)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "username", username, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode user update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "username", username)

	user, err := h.service.UpdateUser(r.Context(), application.UpdateUserParams{
		Principal: principal,
		Username:  username,
		FullName:  req.FullName,
		Role:      req.Role,
		IsActive:  req.IsActive,
		Password:  req.Password,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "user update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

// ReplacePermissions takes the full permission document as the request body.
func (h *UserHandler) ReplacePermissions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	username, ok := usernameVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingUsername)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var set permission.Set
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		h.log(r.Context(), "ReplacePermissions", "username", username, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode permissions", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ReplacePermissions", "username", username)

	user, err := h.service.ReplacePermissions(r.Context(), application.ReplacePermissionsParams{
		Principal:   principal,
		Username:    username,
		Permissions: set,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "permission replacement failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "permissions replaced")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	username, ok := usernameVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingUsername)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	user, err := h.service.GetUser(r.Context(), principal, username)
	if err != nil {
		h.log(r.Context(), "Get", "username", username).WarnContext(r.Context(), "user lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List")

	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		logger.WarnContext(r.Context(), "user list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(users)).DebugContext(r.Context(), "users listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: toUserDTOs(users)})
}

func usernameVar(r *http.Request) (string, bool) {
	username := strings.TrimSpace(mux.Vars(r)["username"])
	return username, username != ""
}

type createUserRequest struct {
	Username    string          `json:"username"`
	FullName    string          `json:"full_name"`
	Role        string          `json:"role"`
	Password    string          `json:"password"`
	Permissions *permission.Set `json:"permissions"`
}

func (r createUserRequest) toInput() application.UserInput {
	return application.UserInput{
		Username:    strings.TrimSpace(r.Username),
		FullName:    strings.TrimSpace(r.FullName),
		Role:        strings.TrimSpace(r.Role),
		Password:    r.Password,
		Permissions: r.Permissions,
	}
}

type updateUserRequest struct {
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

type userResponse struct {
	User userDTO `json:"user"`
}

type listUsersResponse struct {
	Users []userDTO `json:"users"`
}

type userDTO struct {
	Username    string          `json:"username"`
	FullName    string          `json:"full_name"`
	Role        string          `json:"role"`
	Permissions *permission.Set `json:"permissions"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        string(user.Role),
		Permissions: user.Permissions,
		IsActive:    user.IsActive,
		CreatedAt:   formatTimestamp(user.CreatedAt),
		UpdatedAt:   formatTimestamp(user.UpdatedAt),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
