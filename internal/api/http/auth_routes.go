package httpapi

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/nat12323/race-weather-tracker/internal/auth"
	"github.com/nat12323/race-weather-tracker/internal/store"
)

type registerPayload struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// userView is the account shape returned to clients, without the hash.
type userView struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// registerAuthRoutes wires the public registration and login endpoints.
func registerAuthRoutes(v1 fiber.Router, users store.UserStore, tokens *auth.TokenManager) {
	grp := v1.Group("/auth")

	grp.Post("/register", func(c *fiber.Ctx) error {
		var req registerPayload
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if _, err := users.FindByEmail(c.Context(), req.Email); err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Email already in use")
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Printf("register: email lookup failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Registration failed")
		}

		if _, err := users.FindByUsername(c.Context(), req.Username); err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Username already in use")
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Printf("register: username lookup failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Registration failed")
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Printf("register: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Registration failed")
		}

		user, err := users.CreateUser(c.Context(), req.Username, req.Email, hash)
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fiber.NewError(fiber.StatusBadRequest, "Email or username already in use")
			}
			log.Printf("register: create user failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Registration failed")
		}

		token, err := tokens.Generate(user.ID, user.Email)
		if err != nil {
			log.Printf("register: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Registration failed")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "User registered successfully",
			"token":   token,
			"user":    userView{ID: user.ID, Username: user.Username, Email: user.Email},
		})
	})

	grp.Post("/login", func(c *fiber.Ctx) error {
		var req loginPayload
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Email and password required")
		}

		user, err := users.FindByEmail(c.Context(), req.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "User not found")
			}
			log.Printf("login: lookup failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Login failed")
		}

		if !auth.CheckPassword(req.Password, user.PasswordHash) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		token, err := tokens.Generate(user.ID, user.Email)
		if err != nil {
			log.Printf("login: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Login failed")
		}

		return c.JSON(fiber.Map{
			"message": "Login successful",
			"token":   token,
			"user":    userView{ID: user.ID, Username: user.Username, Email: user.Email},
		})
	})
}
