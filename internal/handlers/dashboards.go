package handlers

import (
	"net/http"
)

// StudentDashboard is the sample student-only resource. Access control is
// enforced by the guard middleware on the route.
func StudentDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "student dashboard",
		"user":    userSummary(user),
	})
}

// TeacherDashboard is the sample resource for teachers and admins.
func TeacherDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "teacher dashboard",
		"user": map[string]any{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
