package middlewares

import (
	"api/schemas"
	"api/utils"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

type contextKey string

const UserContextKey = contextKey("session_user")

// SessionUser is the identity resolved for the request: who is acting and
// with which role. The engines themselves never read it; handlers pass the
// id along explicitly.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SessionAuth resolves the bearer token against the auth service and stores
// the resulting user in the request context.
func SessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			utils.SendResponse(w, http.StatusUnauthorized, "Token non fourni", nil, 0)
			return
		}

		authURL := os.Getenv("AUTH_API_URL")
		if authURL == "" {
			authURL = "http://localhost:8000"
		}
		userURL := fmt.Sprintf("%s/api/session", authURL)

		req, err := http.NewRequest("GET", userURL, nil)
		if err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "Impossible de créer la requête d'authentification", nil, 0)
			return
		}
		req.Header.Set("Authorization", token)

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			utils.SendResponse(w, http.StatusBadGateway, "Impossible de joindre le service d'authentification", nil, 0)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			utils.SendResponse(w, http.StatusUnauthorized, "Token invalide ou session expirée", nil, 0)
			return
		}

		user := SessionUser{}
		err = json.NewDecoder(resp.Body).Decode(&user)
		if err != nil || user.ID == "" || user.Email == "" {
			utils.SendResponse(w, http.StatusUnauthorized, "Utilisateur invalide retourné par l'authentification", nil, 0)
			return
		}
		if user.Role == "" {
			user.Role = schemas.ROLE_SALES
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a handler behind a minimum role in the hierarchy
// SALES < MANAGER < ADMIN. Must be wrapped by SessionAuth.
func RequireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(UserContextKey).(SessionUser)
		if !ok {
			utils.SendResponse(w, http.StatusUnauthorized, "Session absente", nil, 0)
			return
		}

		if schemas.RoleLevel(user.Role) < schemas.RoleLevel(role) {
			utils.SendResponse(w, http.StatusForbidden, "Accès refusé", nil, 0)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the authenticated user stored by SessionAuth.
func CurrentUser(r *http.Request) (SessionUser, bool) {
	user, ok := r.Context().Value(UserContextKey).(SessionUser)
	return user, ok
}
