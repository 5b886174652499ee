package mail_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estokealo/estokealo/internal/mail"
)

func TestAPISender_Send(t *testing.T) {
	var (
		gotKey  string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := mail.NewAPISender(srv.URL, "key-123", mail.Address{Name: "Estokealo", Email: "no-reply@estokealo.com"}, time.Second)
	err := sender.Send(context.Background(), mail.VerificationCode("a@b.com", 123456))

	require.NoError(t, err)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, "Código de verificación | Estokealo", gotBody["subject"])
	assert.Contains(t, gotBody["htmlContent"], "123456")
	to := gotBody["to"].([]any)
	require.Len(t, to, 1)
	assert.Equal(t, "a@b.com", to[0].(map[string]any)["email"])
	assert.Equal(t, "no-reply@estokealo.com", gotBody["sender"].(map[string]any)["email"])
}

func TestAPISender_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := mail.NewAPISender(srv.URL, "bad", mail.Address{Email: "no-reply@estokealo.com"}, time.Second)
	err := sender.Send(context.Background(), mail.VerificationCode("a@b.com", 123456))

	assert.ErrorIs(t, err, mail.ErrDelivery)
}

func TestAPISender_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	sender := mail.NewAPISender(url, "key", mail.Address{Email: "no-reply@estokealo.com"}, time.Second)
	err := sender.Send(context.Background(), mail.VerificationCode("a@b.com", 123456))

	assert.ErrorIs(t, err, mail.ErrDelivery)
}

func TestConsoleSender_LogsMessage(t *testing.T) {
	var buf bytes.Buffer
	sender := mail.NewConsoleSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sender.Send(context.Background(), mail.VerificationCode("a@b.com", 654321)))
	assert.Contains(t, buf.String(), "654321")
	assert.Contains(t, buf.String(), "a@b.com")
}

func TestNew_SelectsSender(t *testing.T) {
	s, err := mail.New(mail.Config{Mode: mail.ModeDevelopment}, nil)
	require.NoError(t, err)
	assert.IsType(t, &mail.ConsoleSender{}, s)

	s, err = mail.New(mail.Config{Mode: mail.ModeAPI, APIURL: "https://mail.example.com", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &mail.APISender{}, s)

	s, err = mail.New(mail.Config{Mode: mail.ModeSMTP, SMTPHost: "smtp.example.com"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &mail.SMTPSender{}, s)

	_, err = mail.New(mail.Config{Mode: mail.ModeAPI}, nil)
	assert.Error(t, err)

	_, err = mail.New(mail.Config{Mode: "pigeon"}, nil)
	assert.Error(t, err)
}

func TestInvitation_EscapesCompanyName(t *testing.T) {
	msg := mail.Invitation("ana@example.com", "<script>x</script>", "")

	assert.Equal(t, "Invitación a colaborar | Estokealo", msg.Subject)
	assert.Contains(t, msg.HTML, "Hola ana@example.com")
	assert.NotContains(t, msg.HTML, "<script>")
}
