// Package handler is the HTTP edge of the portal: it decodes requests,
// pulls the caller's identity out of the request context, calls the service
// layer, and encodes the result. No business rule lives here — a handler
// that makes an authorization decision is a bug.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rahim/student-portal/internal/apperror"
	"github.com/rahim/student-portal/internal/auth"
	"github.com/rahim/student-portal/internal/model"
	"github.com/rahim/student-portal/internal/service"
)

// maxBodyBytes caps request bodies. Marks mappings and profile updates are
// small; anything near this limit is not a legitimate request.
const maxBodyBytes = 1 << 20

// PortalHandler exposes the portal operations over HTTP.
//
// ROUTES:
//
//	POST   /api/login                → HandleLogin
//	POST   /api/signup               → HandleSignup
//	GET    /api/students             → HandleListStudents
//	GET    /api/students/{id}        → HandleGetStudent
//	PUT    /api/students/{id}/marks  → HandleUpdateMarks
//	PUT    /api/students/{id}        → HandleUpdateStudent
//	DELETE /api/students/{id}        → HandleDeleteStudent
//
// Identity is never checked here. The ResolveIdentity middleware has
// already parsed the bearer token (or not) into the request context; the
// service's policy table decides what that identity may do.
type PortalHandler struct {
	portal *service.PortalService
	logger *slog.Logger
}

// NewPortalHandler creates a PortalHandler.
func NewPortalHandler(portal *service.PortalService, logger *slog.Logger) *PortalHandler {
	return &PortalHandler{portal: portal, logger: logger}
}

// mutationResponse is the body returned by login, signup, and every write
// operation: the outcome message, the record acted on (null after delete),
// and a fresh session token.
type mutationResponse struct {
	Message string            `json:"message"`
	Data    *model.UserRecord `json:"data"`
	Token   string            `json:"token"`
}

func toResponse(res *service.LoginResult) mutationResponse {
	return mutationResponse{Message: res.Message, Data: res.Record, Token: res.Token}
}

// decodeBody decodes a JSON request body into dst, mapping every decode
// failure onto the validation kind so clients see a 400, not a 500.
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("", "request body must be valid JSON")
	}
	return nil
}

// HandleLogin authenticates an email/password/role triple.
//
// HTTP: POST /api/login
func (h *PortalHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.portal.Login(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

// HandleSignup registers a new user and logs them straight in.
//
// HTTP: POST /api/signup
func (h *PortalHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Age       int    `json:"age"`
		Address   string `json:"address"`
		Role      string `json:"role"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.portal.Signup(r.Context(), service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Age:       req.Age,
		Address:   req.Address,
		Role:      req.Role,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(res))
}

// HandleGetStudent returns a single student record.
//
// HTTP: GET /api/students/{id}
func (h *PortalHandler) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	rec, err := h.portal.GetStudent(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleListStudents returns every student record.
//
// HTTP: GET /api/students
func (h *PortalHandler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())

	students, err := h.portal.GetAllStudents(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// HandleUpdateMarks replaces a student's marks wholesale.
//
// HTTP: PUT /api/students/{id}/marks
//
// The request body IS the marks mapping — an object of subject names to
// numbers or strings, e.g. {"math": 91, "art": "A-"}. Anything else (a bare
// number, an array, null) is a validation failure; the service enforces
// that, this handler just forwards the raw bytes.
func (h *PortalHandler) HandleUpdateMarks(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperror.ValidationFailed("marks", "could not read request body"))
		return
	}

	res, err := h.portal.UpdateMarks(r.Context(), caller, id, json.RawMessage(body))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

// HandleUpdateStudent applies a partial update to a student record.
//
// HTTP: PUT /api/students/{id}
//
// Only the fields present in the body are touched; absent fields keep their
// stored values. Role and password are not updatable through this route.
func (h *PortalHandler) HandleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req struct {
		FirstName  *string         `json:"firstName"`
		LastName   *string         `json:"lastName"`
		Email      *string         `json:"email"`
		Age        *int            `json:"age"`
		Address    *string         `json:"address"`
		ProfilePic *string         `json:"profilePic"`
		Marks      json.RawMessage `json:"marks"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.portal.UpdateStudent(r.Context(), caller, id, service.UpdateStudentInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Age:        req.Age,
		Address:    req.Address,
		ProfilePic: req.ProfilePic,
		Marks:      req.Marks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

// HandleDeleteStudent removes a record permanently.
//
// HTTP: DELETE /api/students/{id}
//
// The response data field is null — there is no record left to return. The
// token is bound to the caller.
func (h *PortalHandler) HandleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	res, err := h.portal.DeleteStudent(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

// HandleHealth reports liveness. No auth, no dependencies touched.
//
// HTTP: GET /healthz
func (h *PortalHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
