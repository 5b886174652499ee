package mail_test

import (
	"context"
	"io"
	"mime"
	"net"
	netmail "net/mail"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estokealo/estokealo/internal/mail"
)

// smtpSession is what the relay saw during one connection.
type smtpSession struct {
	verbs []string
	from  string
	rcpt  []string
	data  string
}

// fakeRelay accepts one SMTP connection and answers RCPT with rcptReply. It
// advertises neither STARTTLS nor AUTH.
func fakeRelay(t *testing.T, rcptReply string) (int, <-chan smtpSession) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	done := make(chan smtpSession, 1)
	go func() {
		var s smtpSession
		defer func() { done <- s }()

		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 relay.test ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb, arg, _ := strings.Cut(line, " ")
			verb = strings.ToUpper(verb)
			s.verbs = append(s.verbs, verb)

			switch verb {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250-relay.test")
				_ = tp.PrintfLine("250 8BITMIME")
			case "MAIL":
				s.from = arg
				_ = tp.PrintfLine("250 OK")
			case "RCPT":
				s.rcpt = append(s.rcpt, arg)
				_ = tp.PrintfLine(rcptReply)
			case "DATA":
				_ = tp.PrintfLine("354 end with <CRLF>.<CRLF>")
				b, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				s.data = string(b)
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, done
}

func TestSMTPSender_Send(t *testing.T) {
	port, done := fakeRelay(t, "250 OK")
	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:    "127.0.0.1",
		Port:    port,
		From:    mail.Address{Name: "Estokéalo", Email: "no-reply@estokealo.com"},
		Timeout: 5 * time.Second,
	})

	err := sender.Send(context.Background(), mail.Message{
		To:      "ana@example.com",
		Subject: "Código de verificación",
		HTML:    "<p>482913</p>",
	})
	require.NoError(t, err)

	s := <-done
	assert.Equal(t, []string{"EHLO", "MAIL", "RCPT", "DATA", "QUIT"}, s.verbs)
	assert.True(t, strings.HasPrefix(s.from, "FROM:<no-reply@estokealo.com>"), s.from)
	assert.Equal(t, []string{"TO:<ana@example.com>"}, s.rcpt)

	msg, err := netmail.ReadMessage(strings.NewReader(s.data))
	require.NoError(t, err)

	from, err := netmail.ParseAddress(msg.Header.Get("From"))
	require.NoError(t, err)
	assert.Equal(t, "Estokéalo", from.Name)
	assert.Equal(t, "no-reply@estokealo.com", from.Address)
	assert.Equal(t, "ana@example.com", msg.Header.Get("To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Código de verificación", subject)
	assert.Equal(t, "1.0", msg.Header.Get("MIME-Version"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "text/html", mediaType)
	assert.Equal(t, "utf-8", params["charset"])

	body, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "<p>482913</p>", strings.TrimSpace(string(body)))
}

func TestSMTPSender_RejectedRecipient(t *testing.T) {
	port, done := fakeRelay(t, "550 mailbox unavailable")
	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:    "127.0.0.1",
		Port:    port,
		From:    mail.Address{Email: "no-reply@estokealo.com"},
		Timeout: 5 * time.Second,
	})

	err := sender.Send(context.Background(), mail.Message{To: "ghost@example.com", Subject: "x", HTML: "<p>x</p>"})

	require.Error(t, err)
	assert.ErrorIs(t, err, mail.ErrDelivery)
	s := <-done
	assert.NotContains(t, s.verbs, "DATA")
}

func TestSMTPSender_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	sender := mail.NewSMTPSender(mail.SMTPConfig{Host: "127.0.0.1", Port: port, Timeout: time.Second})

	err = sender.Send(context.Background(), mail.Message{To: "ana@example.com", Subject: "x", HTML: "<p>x</p>"})
	assert.ErrorIs(t, err, mail.ErrDelivery)
}
