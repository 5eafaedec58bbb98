package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/userdeck/backend/internal/dto"
	"github.com/userdeck/backend/internal/services"
	"github.com/userdeck/backend/internal/validation"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers handles GET /users with page/limit query params.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	result, err := h.userService.List(c.UserContext(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Success: false, Message: "Invalid user ID",
		})
	}

	user, err := h.userService.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Success: false, Message: "User not found",
			})
		}
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: user})
}

// CreateUser handles POST /users. Validation runs before any store access;
// a failed payload produces the full error list and no side effect.
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Success: false, Message: "Invalid request body",
		})
	}

	if errs := validation.ValidateUser(&req); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Success: false, Message: "Validation error", Errors: errs,
		})
	}

	user, err := h.userService.Create(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Success: false, Message: "Email already exists",
			})
		}
		return err
	}

	slog.Info("user created", "user_id", user.ID, "request_id", requestID(c))
	return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{Success: true, Data: user})
}

// UpdateUser handles PUT /users/:id. The full payload is validated; identity
// and createdAt are not updatable.
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Success: false, Message: "Invalid user ID",
		})
	}

	var req dto.UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Success: false, Message: "Invalid request body",
		})
	}

	if errs := validation.ValidateUser(&req); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Success: false, Message: "Validation error", Errors: errs,
		})
	}

	user, err := h.userService.Update(c.UserContext(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Success: false, Message: "User not found",
			})
		case errors.Is(err, services.ErrEmailExists):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Success: false, Message: "Email already exists",
			})
		}
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: user})
}

// DeleteUser handles DELETE /users/:id.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Success: false, Message: "Invalid user ID",
		})
	}

	if err := h.userService.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Success: false, Message: "User not found",
			})
		}
		return err
	}

	slog.Info("user deleted", "user_id", id, "request_id", requestID(c))
	return c.JSON(dto.MessageResponse{Success: true, Message: "User deleted successfully"})
}

// SearchUsers handles GET /users/search?query=.
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	query := c.Query("query", "")

	users, err := h.userService.Search(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: users})
}

// ExportUsers handles GET /users/export and streams a CSV attachment.
func (h *UserHandler) ExportUsers(c *fiber.Ctx) error {
	csv, err := h.userService.ExportCSV(c.UserContext())
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+services.ExportFilename)
	return c.Send(csv)
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
