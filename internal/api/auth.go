package api

import (
	"fmt"
	"net/http"

	"github.com/markbates/goth/gothic"

	"github.com/oseayemenre/pagesy-reader/internal/session"
)

// HandleGoogleSignIn godoc
//
//	@Summary		Sign in with google
//	@Description	Sign in with google
//	@Tags			auth
//	@Success		302
//	@Success		307
//	@Router			/auth/google [get]
func (a *Api) HandleGoogleSignIn(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, "google"))
}

// HandleGoogleSignInCallback godoc
//
//	@Summary		Google auth callback url
//	@Description	Finishes google sign in, creates the profile on first visit and sets the session cookies
//	@Tags			auth
//	@Success		302
//	@Failure		500	{object}	models.ErrorResponse
//	@Router			/auth/google/callback [get]
func (a *Api) HandleGoogleSignInCallback(w http.ResponseWriter, r *http.Request) {
	user, err := gothic.CompleteUserAuth(w, gothic.GetContextWithProvider(r, "google"))

	if err != nil {
		a.logger.Warn(fmt.Sprintf("error retrieving user details: %v", err), "service", "HandleGoogleSignInCallback")
		http.Redirect(w, r, LoginURL(MsgUnableToAuthenticate), http.StatusFound)
		return
	}

	actor, err := session.FindOrCreateProfile(r.Context(), a.store, user)

	if err != nil {
		a.logger.Error(err.Error(), "service", "HandleGoogleSignInCallback")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	if err := a.sessions.Issue(w, actor); err != nil {
		a.logger.Error(err.Error(), "service", "HandleGoogleSignInCallback")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	http.Redirect(w, r, a.config.RedirectURL("auth/callback"), http.StatusFound)
}

// HandleAuthCallback godoc
//
//	@Summary		Auth callback
//	@Description	Checks the session once and redirects home, or to login with the reason
//	@Tags			auth
//	@Success		302
//	@Router			/auth/callback [get]
func (a *Api) HandleAuthCallback(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Current(r)

	if err != nil {
		a.logger.Warn(fmt.Sprintf("error checking session: %v", err), "service", "HandleAuthCallback")
		http.Redirect(w, r, LoginURL(MsgUnableToAuthenticate), http.StatusFound)
		return
	}

	if s == nil {
		http.Redirect(w, r, LoginURL(MsgNoSession), http.StatusFound)
		return
	}

	a.renew(w, s)

	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleLogout godoc
//
//	@Summary	Log out
//	@Tags		auth
//	@Success	204
//	@Router		/auth/logout [post]
func (a *Api) HandleLogout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Clear(w)

	if err := gothic.Logout(w, r); err != nil {
		a.logger.Warn(fmt.Sprintf("error clearing oauth session: %v", err), "service", "HandleLogout")
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe godoc
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	session.Actor
//	@Failure	401	{object}	models.ErrorResponse
//	@Router		/me [get]
func (a *Api) HandleMe(w http.ResponseWriter, r *http.Request) {
	respondWithSuccess(w, http.StatusOK, session.ActorFrom(r.Context()))
}
