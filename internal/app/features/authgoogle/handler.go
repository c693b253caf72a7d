// Package authgoogle provides Google OAuth login.
//
// Login doubles as the Drive grant: consent is requested with offline
// access so the stored refresh token can renew Drive credentials without
// another round trip. The state nonce is persisted server-side (single
// use, TTL) and echoed in a signed cookie to bind the callback to the
// browser that started the flow.
package authgoogle

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codehaven/codehaven/internal/app/store/oauthstate"
	userstore "github.com/codehaven/codehaven/internal/app/store/user"
	"github.com/codehaven/codehaven/internal/app/system/auth"
	"github.com/codehaven/codehaven/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const stateCookieName = "codehaven_oauth_state"

// DriveScope grants per-file Drive access: only files the app creates or
// the user explicitly opens are visible.
const DriveScope = "https://www.googleapis.com/auth/drive.file"

// Handler provides Google OAuth handlers.
type Handler struct {
	users       *userstore.Store
	states      *oauthstate.Store
	issuer      *auth.TokenIssuer
	oauthConfig *oauth2.Config
	stateCodec  *securecookie.SecureCookie
	logger      *zap.Logger
}

// NewHandler creates a new Google OAuth Handler. stateKey signs the state
// cookie; baseURL is the externally visible origin of this service.
func NewHandler(
	db *mongo.Database,
	issuer *auth.TokenIssuer,
	clientID string,
	clientSecret string,
	baseURL string,
	stateKey []byte,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:  userstore.New(db),
		states: oauthstate.New(db),
		issuer: issuer,
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  baseURL + "/api/v1/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile", DriveScope},
			Endpoint:     google.Endpoint,
		},
		stateCodec: securecookie.New(stateKey, nil),
		logger:     logger,
	}
}

// OAuthConfig exposes the configured oauth2.Config for the credential
// refresher, which shares the client registration.
func (h *Handler) OAuthConfig() *oauth2.Config {
	return h.oauthConfig
}

// Routes returns a chi.Router with OAuth routes mounted. requireUser guards
// the endpoints that act on the logged-in user.
func Routes(h *Handler, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/google", h.startAuth)
	r.Get("/google/callback", h.handleCallback)

	r.Group(func(pr chi.Router) {
		pr.Use(requireUser)
		pr.Get("/me", h.me)
		pr.Post("/drive/disconnect", h.disconnectDrive)
	})

	return r
}

// startAuth initiates the Google OAuth flow.
func (h *Handler) startAuth(w http.ResponseWriter, r *http.Request) {
	st, err := h.states.Create(r.Context(), safeRedirect(r.URL.Query().Get("redirect_to")))
	if err != nil {
		h.logger.Error("failed to store oauth state", zap.Error(err))
		jsonutil.Fail(w, http.StatusInternalServerError, "could not start login")
		return
	}

	encoded, err := h.stateCodec.Encode(stateCookieName, st.State)
	if err != nil {
		h.logger.Error("failed to encode state cookie", zap.Error(err))
		jsonutil.Fail(w, http.StatusInternalServerError, "could not start login")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/api/v1/auth",
		MaxAge:   int(oauthstate.TTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// AccessTypeOffline plus forced consent so Google returns a refresh
	// token even for returning users.
	url := h.oauthConfig.AuthCodeURL(st.State,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleCallback processes the Google OAuth callback: verifies the state
// against both the cookie and the stored nonce, exchanges the code, stores
// the Drive tokens, and issues an API token.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" || !h.stateMatchesCookie(r, state) {
		h.logger.Warn("oauth state cookie mismatch")
		jsonutil.Fail(w, http.StatusBadRequest, "invalid login state")
		return
	}
	st, err := h.states.Consume(r.Context(), state)
	if err != nil {
		h.logger.Warn("oauth state not found or expired", zap.Error(err))
		jsonutil.Fail(w, http.StatusBadRequest, "invalid login state")
		return
	}
	clearCookie(w)

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		h.logger.Warn("oauth error from google", zap.String("error", errMsg))
		jsonutil.Fail(w, http.StatusBadRequest, "login was denied")
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("oauth code exchange failed", zap.Error(err))
		jsonutil.Fail(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	info, err := h.fetchUserInfo(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to fetch google user info", zap.Error(err))
		jsonutil.Fail(w, http.StatusBadGateway, "could not fetch profile")
		return
	}

	u, err := h.users.UpsertByGoogleID(r.Context(), userstore.ProfileInput{
		GoogleID: info.ID,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	})
	if err != nil {
		h.logger.Error("user upsert failed", zap.Error(err))
		jsonutil.Fail(w, http.StatusInternalServerError, "could not create account")
		return
	}

	expiry := token.Expiry
	if err := h.users.UpdateDriveTokens(r.Context(), u.ID, token.AccessToken, token.RefreshToken, &expiry); err != nil {
		h.logger.Error("failed to store drive tokens", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	apiToken, err := h.issuer.Issue(u.ID.Hex())
	if err != nil {
		h.logger.Error("token issue failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		jsonutil.Fail(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	h.logger.Info("user logged in",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", u.Email),
	)

	if to := safeRedirect(st.RedirectTo); to != "" {
		http.Redirect(w, r, to+"#token="+apiToken, http.StatusSeeOther)
		return
	}
	jsonutil.OK(w, map[string]any{
		"token": apiToken,
		"user":  userVM(u),
	})
}

// me returns the logged-in user's profile and Drive connection state.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		jsonutil.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	jsonutil.OK(w, map[string]any{"user": userVM(u)})
}

// disconnectDrive drops the stored Drive tokens. Subsequent remote
// operations report that authorization is required.
func (h *Handler) disconnectDrive(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		jsonutil.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.users.ClearDriveTokens(r.Context(), u.ID); err != nil {
		h.logger.Error("failed to clear drive tokens", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		jsonutil.WriteErr(w, err)
		return
	}
	h.logger.Info("drive disconnected", zap.String("user_id", u.ID.Hex()))
	jsonutil.OK(w, nil)
}

func (h *Handler) stateMatchesCookie(r *http.Request, state string) bool {
	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return false
	}
	var stored string
	if err := h.stateCodec.Decode(stateCookieName, c.Value, &stored); err != nil {
		return false
	}
	return stored == state
}

// safeRedirect keeps only local redirect targets. Anything carrying a
// scheme, a host, or a protocol-relative prefix is dropped, so the token
// fragment can never be delivered to another origin.
func safeRedirect(raw string) string {
	if raw == "" || raw[0] != '/' {
		return ""
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return raw
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/api/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
