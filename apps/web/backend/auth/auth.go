package auth

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type UserCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Handler struct {
	DBPool    *pgxpool.Pool
	JWTSecret []byte
}

const jwtExpirationHours = 24

func (h *Handler) HandleSignup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format."})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email and password are required."})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server error during signup."})
	}

	ctx := c.Request().Context()
	tx, err := h.DBPool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server error during signup."})
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx,
		"INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id",
		req.Email, string(hashedPassword)).Scan(&userID)
	if err != nil {
		log.Printf("Error signing up user: %v", err)
		return c.JSON(http.StatusConflict, map[string]string{"error": "User with this email already exists."})
	}

	var name any
	if req.Name != "" {
		name = req.Name
	}
	_, err = tx.Exec(ctx,
		"INSERT INTO customers (user_id, email, name) VALUES ($1, $2, $3)",
		userID, req.Email, name)
	if err != nil {
		log.Printf("Error creating customer profile: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server error during signup."})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server error during signup."})
	}

	return c.JSON(http.StatusCreated, map[string]string{"message": "User created successfully."})
}

func (h *Handler) HandleLogin(c echo.Context) error {
	var creds UserCredentials
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format."})
	}

	ctx := c.Request().Context()
	var userID, storedHash, role string
	err := h.DBPool.QueryRow(ctx,
		"SELECT id, password_hash, role FROM users WHERE email = $1", creds.Email).
		Scan(&userID, &storedHash, &role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database error"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(creds.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	}

	// Customer profiles are provisioned lazily: accounts that predate the
	// profile table get one on their first login.
	if err := h.ensureCustomer(ctx, userID, creds.Email); err != nil {
		log.Printf("Error ensuring customer profile: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server error during login"})
	}

	expiration := time.Now().Add(time.Hour * jwtExpirationHours)
	claims := &Claims{
		UserID:           userID,
		Email:            creds.Email,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiration)},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.JWTSecret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create token"})
	}

	c.SetCookie(&http.Cookie{
		Name: "token", Value: tokenString, Expires: expiration, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "Login successful", "token": tokenString})
}

func (h *Handler) HandleLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name: "token", Value: "", Expires: time.Unix(0, 0), Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) HandleGetMe(c echo.Context) error {
	claims := CurrentClaims(c)
	return c.JSON(http.StatusOK, map[string]string{"email": claims.Email, "role": claims.Role})
}

func (h *Handler) ensureCustomer(ctx context.Context, userID, email string) error {
	var id string
	err := h.DBPool.QueryRow(ctx, "SELECT id FROM customers WHERE user_id = $1", userID).Scan(&id)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return err
	}
	_, err = h.DBPool.Exec(ctx,
		"INSERT INTO customers (user_id, email) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING",
		userID, email)
	return err
}

func (h *Handler) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := ""
		if cookie, err := c.Cookie("token"); err == nil {
			tokenString = cookie.Value
		} else if header := c.Request().Header.Get("Authorization"); len(header) > 7 && header[:7] == "Bearer " {
			tokenString = header[7:]
		}
		if tokenString == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
			return h.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
		c.Set("user", token)
		return next(c)
	}
}

// RequireRole gates agent/admin surfaces. Admins pass every role check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentClaims(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			if claims.Role == "admin" {
				return next(c)
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}

// CurrentClaims returns the parsed JWT claims set by AuthMiddleware, or nil.
func CurrentClaims(c echo.Context) *Claims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
