package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/workshop-booking-api/internal/config"
	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
)

const (
	CookieName      = "auth_token"
	stateCookieName = "oauth_state"
	TokenDuration   = 24 * time.Hour
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:  db,
		cfg: cfg,
	}
}

// Identity is the signed-in parent as exposed to clients.
type Identity struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func identityOf(p models.Parent) *Identity {
	return &Identity{ID: p.ID, Email: p.Email, FirstName: p.FirstName, LastName: p.LastName}
}

// AuthInput is embedded by every operation that needs a session.
type AuthInput struct {
	Cookie string `header:"Cookie"`
}

// HashPassword returns the bcrypt hash stored in Parent.Password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Parent account email"`
		Password string `json:"password" minLength:"1" doc:"Account password"`
	}
}

type SessionOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      *Identity
}

func (h *AuthHandler) HandlePasswordLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	parent, err := h.checkPassword(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, huma.Error401Unauthorized(err.Error())
		}
		log.Printf("Password login failed: %v", err)
		return nil, huma.Error500InternalServerError("Failed to log in")
	}

	token, err := h.GenerateToken(parent.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}
	return &SessionOutput{SetCookie: *sessionCookie(token), Body: identityOf(*parent)}, nil
}

func (h *AuthHandler) checkPassword(ctx context.Context, email, password string) (*models.Parent, error) {
	var parent models.Parent
	err := h.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&parent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if parent.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(parent.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &parent, nil
}

type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
}

func (h *AuthHandler) HandleLogout(ctx context.Context, input *struct{}) (*LogoutOutput, error) {
	return &LogoutOutput{SetCookie: http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}}, nil
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/discord",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})
	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleCallback signs in the parent whose email matches the Discord account.
// Discord cannot be used to create an account.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value == "" || state.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(DiscordUserAPI)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var discordUser struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&discordUser); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}
	if discordUser.Email == "" || !discordUser.Verified {
		http.Error(w, "Access denied: your Discord email is not verified.", http.StatusForbidden)
		return
	}

	parent, err := h.linkDiscordAccount(r.Context(), discordUser.ID, discordUser.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Access denied: no parent account uses this email.", http.StatusForbidden)
			return
		}
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(parent.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, sessionCookie(jwtToken))

	if h.cfg.FrontendURL != "" {
		http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
		return
	}
	fmt.Fprintf(w, "Welcome %s! You are logged in.", parent.FirstName)
}

// linkDiscordAccount finds the parent by email and records the Discord ID on
// first use.
func (h *AuthHandler) linkDiscordAccount(ctx context.Context, discordID, email string) (*models.Parent, error) {
	var parent models.Parent
	if err := h.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&parent).Error; err != nil {
		return nil, err
	}
	if parent.DiscordID == nil || *parent.DiscordID != discordID {
		parent.DiscordID = &discordID
		if err := h.db.WithContext(ctx).Model(&parent).Update("discord_id", discordID).Error; err != nil {
			return nil, err
		}
	}
	return &parent, nil
}

type MeOutput struct {
	Body *Identity
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	identity, err := h.CurrentIdentity(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	return &MeOutput{Body: identity}, nil
}

// CurrentIdentity resolves the session to the parent behind it.
func (h *AuthHandler) CurrentIdentity(ctx context.Context, cookie string) (*Identity, error) {
	parentID, err := h.Authorize(ctx, cookie)
	if err != nil {
		return nil, err
	}

	var parent models.Parent
	if err := h.db.WithContext(ctx).First(&parent, parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error401Unauthorized("Unauthorized: unknown parent")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}
	return identityOf(parent), nil
}

// Authorize returns the parent ID of the session. The middleware may already
// have resolved it; otherwise the raw Cookie header is parsed.
func (h *AuthHandler) Authorize(ctx context.Context, cookie string) (uint, error) {
	if parentID, ok := ctx.Value(ParentIDKey).(uint); ok && parentID != 0 {
		return parentID, nil
	}

	if cookie == "" {
		return 0, huma.Error401Unauthorized("Unauthorized: No token found")
	}
	cookies, err := http.ParseCookie(cookie)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: malformed cookie header")
	}
	for _, c := range cookies {
		if c.Name != CookieName {
			continue
		}
		parentID, _, err := h.parseToken(c.Value)
		if err != nil {
			return 0, huma.Error401Unauthorized("Unauthorized: Invalid token")
		}
		return parentID, nil
	}
	return 0, huma.Error401Unauthorized("Unauthorized: No token found")
}

func (h *AuthHandler) GenerateToken(parentID uint) (string, error) {
	claims := jwt.MapClaims{
		"parent_id": parentID,
		"exp":       time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// parseToken validates tokenString and returns the parent ID and expiry.
func (h *AuthHandler) parseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	parentID, ok := claims["parent_id"].(float64)
	if !ok || parentID <= 0 {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, time.Time{}, errors.New("token has no expiry")
	}
	return uint(parentID), exp.Time, nil
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}
