package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"kanmind-api/storage"
)

const authBodyMaxSize = 16 * 1024 // 16 KiB

type registrationRequest struct {
	Fullname         string `json:"fullname"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	RepeatedPassword string `json:"repeated_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	UserID   int64  `json:"user_id"`
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, authBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func validEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

func registration(store Store, issuer TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		if issuer == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "registration disabled: external identity provider configured"})
		}
		var req registrationRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
		}
		switch {
		case req.Fullname == "":
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "fullname required"})
		case !validEmail(req.Email):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid email format"})
		case req.Password == "":
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "password required"})
		case req.Password != req.RepeatedPassword:
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "passwords don't match"})
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return storeError(c, err)
		}
		user, err := store.CreateUser(c.Request().Context(), req.Email, req.Fullname, string(hash))
		if errors.Is(err, storage.ErrEmailTaken) {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "user with this email already exists"})
		}
		if err != nil {
			return storeError(c, err)
		}

		token, err := issuer.IssueToken(user.ID)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusCreated, authResponse{
			Token:    token,
			Fullname: user.Fullname,
			Email:    user.Email,
			UserID:   user.ID,
		})
	}
}

func login(store Store, issuer TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		if issuer == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "login disabled: external identity provider configured"})
		}
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
		}
		if req.Email == "" || req.Password == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "email and password required"})
		}

		user, err := store.UserByEmail(c.Request().Context(), req.Email)
		var nf NotFoundError
		if errors.As(err, &nf) {
			// Same response as a wrong password so the endpoint does not
			// confirm which emails are registered.
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid credentials"})
		}
		if err != nil {
			return storeError(c, err)
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid credentials"})
		}

		token, err := issuer.IssueToken(user.ID)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, authResponse{
			Token:    token,
			Fullname: user.Fullname,
			Email:    user.Email,
			UserID:   user.ID,
		})
	}
}

func emailCheck(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := principal(c, auth); !ok {
			return nil
		}
		email := c.QueryParam("email")
		if email == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "email missing"})
		}
		if !validEmail(email) {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid email format"})
		}
		user, err := store.UserByEmail(c.Request().Context(), email)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, userResponseFrom(user))
	}
}

func logout(auth Authenticator, revoker Revoker) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := auth.Claims(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": err.Error()})
		}
		if revoker == nil || claims.TokenID == "" {
			// Nothing to revoke against; the token simply ages out.
			return c.NoContent(http.StatusNoContent)
		}
		if err := revoker.Revoke(c.Request().Context(), claims.TokenID, time.Until(claims.ExpiresAt)); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
