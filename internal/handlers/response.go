package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/sashaspath/backend/internal/apperr"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondAppError maps application error kinds onto HTTP statuses with a
// stable code, so the client can branch (quota countdown vs retry vs 404).
func RespondAppError(c *gin.Context, err error) {
  switch apperr.KindOf(err) {
  case apperr.KindQuotaExceeded:
    RespondError(c, http.StatusTooManyRequests, string(apperr.KindQuotaExceeded), err)
  case apperr.KindGeneration:
    RespondError(c, http.StatusBadGateway, string(apperr.KindGeneration), err)
  case apperr.KindNotFound:
    RespondError(c, http.StatusNotFound, string(apperr.KindNotFound), err)
  default:
    RespondError(c, http.StatusInternalServerError, string(apperr.KindPersistence), err)
  }
}
