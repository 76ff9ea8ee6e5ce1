package handler

import (
	"net/http"

	apperrors "github.com/onelink/captcha-server-go/internal/errors"
	"github.com/onelink/captcha-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func errCode(err error) apperrors.ErrorCode {
	return apperrors.GetCode(err)
}
