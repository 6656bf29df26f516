package echo

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/identity-import/internal/application/user"
)

// UserHandler serves imported users together with their logins.
type UserHandler struct {
	useCase app.GetUserByID
}

func NewUserHandler(useCase app.GetUserByID) *UserHandler {
	return &UserHandler{useCase: useCase}
}

func (h *UserHandler) GetUserByID(c echo.Context) error {
	id := c.Param("id")

	out, err := h.useCase.Execute(c.Request().Context(), app.GetUserByIDInput{ID: id})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, apiResponse{Data: out})
	case errors.Is(err, app.ErrInvalidUserID):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_user_id",
			Message: fmt.Sprintf("user id %q is not a valid UUID", id),
		}})
	case errors.Is(err, app.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
			Code:    "user_not_found",
			Message: fmt.Sprintf("no imported user with id %s", id),
		}})
	default:
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to load user",
		}})
	}
}
