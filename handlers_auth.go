package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/moneypulse/moneypulse-go/utils"
)

// usersCollection holds one profile record per registered user
const usersCollection = "users"

// RegisterRequest carries the registration form
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`

	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	CompanyName     string `json:"companyName"`
	CompanyPosition string `json:"companyPosition"`
	CompanyCountry  string `json:"companyCountry"`
}

// handleRegister registers a new user and writes their profile record.
// A password/confirmation mismatch is rejected before any store access.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBadRequestResponse(w, "Invalid request body")
		return
	}

	if req.Password != req.ConfirmPassword {
		writeBadRequestResponse(w, "Passwords do not match")
		return
	}

	userID, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrEmailTaken):
			writeErrorResponse(w, http.StatusConflict, "Email already registered")
		case errors.Is(err, utils.ErrWeakPassword):
			writeBadRequestResponse(w, "Password must be at least 6 characters and include lowercase, uppercase, a digit and a special character (@$!%*?&)")
		default:
			writeBadRequestResponse(w, err.Error())
		}
		return
	}

	profile := map[string]any{
		"firstName":       req.FirstName,
		"lastName":        req.LastName,
		"companyEmail":    req.Email,
		"companyName":     req.CompanyName,
		"companyPosition": req.CompanyPosition,
		"companyCountry":  req.CompanyCountry,
		"createdAt":       time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.store.SetDocument(r.Context(), usersCollection, userID, profile); err != nil {
		utils.GetLogger().Error("Failed to store user profile", err, utils.UserID(userID), utils.Component("auth"))
		writeInternalServerErrorResponse(w, "Failed to store user profile")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message": "Registration successful",
		"userId":  userID,
	})
}

// LoginRequest carries sign-in credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin authenticates a user and opens a session
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBadRequestResponse(w, "Invalid request body")
		return
	}

	session, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) {
			writeErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		writeInternalServerErrorResponse(w, "Sign-in failed")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"token":     session.Token,
		"userId":    session.UserID,
		"email":     session.Email,
		"expiresAt": session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// LogoutRequest carries the sign-out confirmation. A dismissed
// confirmation leaves the session untouched.
type LogoutRequest struct {
	Confirm bool `json:"confirm"`
}

// handleLogout closes the current session when confirmed
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBadRequestResponse(w, "Invalid request body")
		return
	}

	if !req.Confirm {
		writeJSONResponse(w, http.StatusOK, map[string]any{
			"message":   "Sign-out cancelled",
			"signedOut": false,
		})
		return
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.auth.SignOut(token)

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message":   "Signed out",
		"signedOut": true,
	})
}

// handleSendPasswordReset issues a password reset token. The response
// does not reveal whether the email is registered.
func (s *Server) handleSendPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSONBody(r, &req); err != nil || req.Email == "" {
		writeBadRequestResponse(w, "Email is required")
		return
	}

	if err := s.auth.SendPasswordReset(r.Context(), req.Email); err != nil {
		writeInternalServerErrorResponse(w, "Failed to process password reset")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message": "If the email is registered, a reset link has been sent",
	})
}

// handleCompletePasswordReset consumes a reset token and sets the new
// password
func (s *Server) handleCompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSONBody(r, &req); err != nil || req.Token == "" {
		writeBadRequestResponse(w, "Token and new password are required")
		return
	}

	if err := s.auth.CompletePasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, utils.ErrWeakPassword):
			writeBadRequestResponse(w, "Password must be at least 6 characters and include lowercase, uppercase, a digit and a special character (@$!%*?&)")
		case errors.Is(err, utils.ErrInvalidCredentials), errors.Is(err, utils.ErrSessionExpired):
			writeBadRequestResponse(w, "Invalid or expired reset token")
		default:
			writeInternalServerErrorResponse(w, "Failed to reset password")
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message": "Password updated",
	})
}

// handleUpdateEmail changes the signed-in user's email address
func (s *Server) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	session, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		NewEmail string `json:"newEmail"`
	}
	if err := decodeJSONBody(r, &req); err != nil || req.NewEmail == "" {
		writeBadRequestResponse(w, "New email is required")
		return
	}

	if err := s.auth.UpdateEmail(r.Context(), session.UserID, req.NewEmail); err != nil {
		if errors.Is(err, utils.ErrEmailTaken) {
			writeErrorResponse(w, http.StatusConflict, "Email already registered")
			return
		}
		writeBadRequestResponse(w, err.Error())
		return
	}

	// Keep the profile's contact email in step with the credential
	if profile, err := s.store.GetDocument(r.Context(), usersCollection, session.UserID); err == nil {
		profile["companyEmail"] = req.NewEmail
		if err := s.store.SetDocument(r.Context(), usersCollection, session.UserID, profile); err != nil {
			utils.GetLogger().Error("Failed to update profile email", err, utils.UserID(session.UserID), utils.Component("auth"))
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message": "Email updated",
	})
}

// handleAccount returns the signed-in user's session summary
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"userId":    session.UserID,
		"email":     session.Email,
		"expiresAt": session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// handleGetProfile fetches the signed-in user's profile record
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := s.store.GetDocument(r.Context(), usersCollection, session.UserID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeInternalServerErrorResponse(w, "Failed to load profile")
		return
	}

	writeJSONResponse(w, http.StatusOK, profile)
}

// handleSetProfile replaces the signed-in user's profile record
func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var profile map[string]any
	if err := decodeJSONBody(r, &profile); err != nil {
		writeBadRequestResponse(w, "Invalid request body")
		return
	}

	if err := s.store.SetDocument(r.Context(), usersCollection, session.UserID, profile); err != nil {
		writeInternalServerErrorResponse(w, "Failed to store profile")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message": "Profile updated",
	})
}
