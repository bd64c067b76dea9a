package handler

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const stateTTL = 10 * time.Minute

// Login stateをCookieに保存し、Googleのログイン画面へリダイレクトする
func (h *Handler) Login(c echo.Context) error {
	if _, err := h.Sessions.FromRequest(c.Request()); err == nil {
		return c.Redirect(http.StatusSeeOther, "/submissions")
	}

	state := uuid.NewString()
	c.SetCookie(h.Sessions.cookie(stateCookieName, state, stateTTL))
	return c.Redirect(http.StatusFound, h.Identity.AuthCodeURL(state))
}

// Callback 認可コードを交換してセッションを開始する
func (h *Handler) Callback(c echo.Context) error {
	if errParam := c.QueryParam("error"); errParam != "" {
		return h.renderError(c, http.StatusUnauthorized, "ログインがキャンセルされました")
	}

	cookie, err := c.Cookie(stateCookieName)
	state := c.QueryParam("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		return h.renderError(c, http.StatusBadRequest, "ログイン要求が無効です。もう一度ログインしてください")
	}
	c.SetCookie(h.Sessions.cookie(stateCookieName, "", -1))

	reviewer, err := h.Identity.Exchange(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		log.Printf("ログインに失敗しました: %v", err)
		return h.renderError(c, http.StatusUnauthorized, "ログインに失敗しました")
	}

	token, err := h.Sessions.Issue(reviewer)
	if err != nil {
		return h.renderFailure(c, err)
	}
	c.SetCookie(h.Sessions.Cookie(token))

	log.Printf("ログインしました: %s", reviewer.Email)
	return c.Redirect(http.StatusSeeOther, "/submissions")
}

// Logout セッションCookieを削除する
func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(h.Sessions.ClearCookie())
	return c.Render(http.StatusOK, "message", messagePage{page: h.page(c), Message: "ログアウトしました"})
}
