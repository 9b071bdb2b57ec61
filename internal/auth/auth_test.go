package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/workshop-booking-api/internal/config"
	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestHandler(t *testing.T) (*AuthHandler, models.Parent) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	parent := models.Parent{
		FirstName: "Alice",
		LastName:  "Martin",
		Email:     "alice.martin@example.com",
		Password:  hash,
	}
	if err := db.Create(&parent).Error; err != nil {
		t.Fatalf("create parent: %v", err)
	}

	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewAuthHandler(cfg, db), parent
}

func statusOf(err error) int {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se.GetStatus()
	}
	return 0
}

func TestHandleMe(t *testing.T) {
	handler, parent := newTestHandler(t)

	t.Run("Authenticated", func(t *testing.T) {
		token, _ := handler.GenerateToken(parent.ID)
		input := &AuthInput{
			Cookie: "theme=dark; auth_token=" + token,
		}
		resp, err := handler.HandleMe(context.Background(), input)
		if err != nil {
			t.Fatalf("HandleMe returned error: %v", err)
		}

		if resp.Body.ID != parent.ID {
			t.Errorf("expected parent %d, got %d", parent.ID, resp.Body.ID)
		}
		if resp.Body.Email != parent.Email {
			t.Errorf("expected email %s, got %s", parent.Email, resp.Body.Email)
		}
	})

	t.Run("FromContext", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ParentIDKey, parent.ID)
		resp, err := handler.HandleMe(ctx, &AuthInput{})
		if err != nil {
			t.Fatalf("HandleMe returned error: %v", err)
		}
		if resp.Body.FirstName != "Alice" {
			t.Errorf("expected Alice, got %s", resp.Body.FirstName)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		input := &AuthInput{}
		_, err := handler.HandleMe(context.Background(), input)
		if statusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})

	t.Run("ForeignSecret", func(t *testing.T) {
		other := NewAuthHandler(&config.Config{JWTSecret: "another-secret"}, nil)
		token, _ := other.GenerateToken(parent.ID)
		_, err := handler.HandleMe(context.Background(), &AuthInput{Cookie: "auth_token=" + token})
		if statusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})

	t.Run("UnknownParent", func(t *testing.T) {
		token, _ := handler.GenerateToken(parent.ID + 100)
		_, err := handler.HandleMe(context.Background(), &AuthInput{Cookie: "auth_token=" + token})
		if statusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})
}

func TestHandlePasswordLogin(t *testing.T) {
	handler, parent := newTestHandler(t)

	t.Run("Success", func(t *testing.T) {
		input := &LoginInput{}
		input.Body.Email = "Alice.Martin@example.com"
		input.Body.Password = "s3cret-pass"

		resp, err := handler.HandlePasswordLogin(context.Background(), input)
		if err != nil {
			t.Fatalf("login returned error: %v", err)
		}
		if resp.SetCookie.Name != CookieName || resp.SetCookie.Value == "" {
			t.Fatalf("expected a session cookie, got %+v", resp.SetCookie)
		}
		if resp.Body.ID != parent.ID {
			t.Errorf("expected parent %d, got %d", parent.ID, resp.Body.ID)
		}

		id, err := handler.Authorize(context.Background(), "auth_token="+resp.SetCookie.Value)
		if err != nil || id != parent.ID {
			t.Errorf("expected the issued token to authorize parent %d, got %d (%v)", parent.ID, id, err)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		input := &LoginInput{}
		input.Body.Email = parent.Email
		input.Body.Password = "nope"
		_, err := handler.HandlePasswordLogin(context.Background(), input)
		if statusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		input := &LoginInput{}
		input.Body.Email = "nobody@example.com"
		input.Body.Password = "s3cret-pass"
		_, err := handler.HandlePasswordLogin(context.Background(), input)
		if statusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})
}

func TestHandleLogout(t *testing.T) {
	handler, _ := newTestHandler(t)
	resp, err := handler.HandleLogout(context.Background(), &struct{}{})
	if err != nil {
		t.Fatalf("logout returned error: %v", err)
	}
	if resp.SetCookie.Name != CookieName || resp.SetCookie.MaxAge >= 0 {
		t.Errorf("expected an expired session cookie, got %+v", resp.SetCookie)
	}
}

func TestHandleCallback_RejectsBadState(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/discord/callback?code=abc&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "expected"})
	rr := httptest.NewRecorder()

	handler.HandleCallback(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestHandleLogin_SetsState(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	handler.HandleLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/discord/login", nil))

	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	var state string
	for _, c := range rr.Result().Cookies() {
		if c.Name == stateCookieName {
			state = c.Value
		}
	}
	if state == "" {
		t.Fatal("expected an oauth state cookie")
	}
	loc, err := rr.Result().Location()
	if err != nil {
		t.Fatalf("no redirect location: %v", err)
	}
	if loc.Query().Get("state") != state {
		t.Errorf("expected state %q in redirect, got %q", state, loc.Query().Get("state"))
	}
}

func TestLinkDiscordAccount(t *testing.T) {
	handler, parent := newTestHandler(t)
	ctx := context.Background()

	linked, err := handler.linkDiscordAccount(ctx, "998877", "ALICE.MARTIN@example.com")
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if linked.ID != parent.ID || linked.DiscordID == nil || *linked.DiscordID != "998877" {
		t.Errorf("unexpected linked parent %+v", linked)
	}

	if _, err := handler.linkDiscordAccount(ctx, "112233", "stranger@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for an unknown email, got %v", err)
	}
}
