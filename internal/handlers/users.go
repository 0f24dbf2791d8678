package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"edutrack-backend/internal/middleware"
	"edutrack-backend/internal/models"
	"edutrack-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// middlewareUser is a small shorthand shared by the handlers
func middlewareUser(r *http.Request) (middleware.UserClaims, bool) {
	return middleware.GetUserFromContext(r)
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// CreateUser creates an account (admin only; routing enforces the role)
func CreateUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Email == "" || req.Password == "" || req.Name == "" {
			utils.RespondError(w, http.StatusBadRequest, "email, password and name are required")
			return
		}
		switch req.Role {
		case "admin", "driver", "parent":
		default:
			utils.RespondError(w, http.StatusBadRequest, "role must be admin, driver or parent")
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("❌ Failed to hash password: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create user")
			return
		}

		user := models.User{
			ID:    uuid.New().String(),
			Email: req.Email,
			Name:  req.Name,
			Role:  req.Role,
		}

		_, err = db.Exec(`
			INSERT INTO users (id, email, password, name, role)
			VALUES ($1, $2, $3, $4, $5)
		`, user.ID, user.Email, string(hashed), user.Name, user.Role)
		if err != nil {
			log.Printf("❌ Failed to insert user: %v", err)
			utils.RespondError(w, http.StatusConflict, "User already exists or insert failed")
			return
		}

		log.Printf("✅ User created: %s (%s)", user.Email, user.Role)
		utils.RespondJSON(w, http.StatusCreated, user.ToUserResponse())
	}
}

type RegisterFCMTokenRequest struct {
	Token string `json:"token"`
}

// RegisterFCMToken stores the caller's device push token
func RegisterFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middlewareUser(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req RegisterFCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			utils.RespondError(w, http.StatusBadRequest, "token is required")
			return
		}

		_, err := db.Exec(`
			UPDATE users
			SET fcm_token = $1, updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
			WHERE id = $2
		`, req.Token, claims.UserID)
		if err != nil {
			log.Printf("❌ Failed to store FCM token for %s: %v", claims.UserID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to store token")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
